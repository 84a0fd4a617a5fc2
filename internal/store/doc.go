// Package store сохраняет результаты runs.
//
// FileStore пишет итоговый документ {step_id: {"output": ...}} в JSON-файл,
// PostgresStore хранит runs и их шаги в PostgreSQL. Оба реализуют Saver
// и подходят как runner.Store.
package store
