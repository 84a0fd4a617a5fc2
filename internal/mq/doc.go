// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с автоматическим reconnect
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация run.requested и run.completed
//   - consumer.go   — потребление сообщений с ack/nack
//
// Топология:
//
//	leadflow.runs (direct)
//	├── runs.requested [routing: requested]  consumer: worker, DLQ: dlq.runs
//	└── runs.completed [routing: completed]  поток событий
//	leadflow.dlq (direct)
//	└── dlq.runs [routing: runs]             ручной разбор
package mq
