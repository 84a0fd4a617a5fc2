package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunRequested MessageType = "run.requested"
	MessageTypeRunCompleted MessageType = "run.completed"
)

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// RunRequestedPayload — запрос на выполнение workflow.
// Workflow передаётся либо целиком, либо путём к файлу на стороне worker.
type RunRequestedPayload struct {
	RunID        uuid.UUID        `json:"run_id"`
	Workflow     *domain.Workflow `json:"workflow,omitempty"`
	WorkflowPath string           `json:"workflow_path,omitempty"`
	Source       string           `json:"source,omitempty"` // api, scheduler, cli
}

// RunCompletedPayload — событие о завершённом run.
type RunCompletedPayload struct {
	RunID        uuid.UUID        `json:"run_id"`
	WorkflowName string           `json:"workflow_name"`
	Status       domain.RunStatus `json:"status"`
	FailedSteps  []string         `json:"failed_steps,omitempty"`
	Outputs      map[string]any   `json:"outputs"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
}

// NewRunCompletedPayload собирает событие из завершённого run.
func NewRunCompletedPayload(run *domain.Run) RunCompletedPayload {
	var failed []string
	for _, s := range run.Steps {
		if s.Status == domain.StepStatusFailed {
			failed = append(failed, s.StepID)
		}
	}

	return RunCompletedPayload{
		RunID:        run.ID,
		WorkflowName: run.WorkflowName,
		Status:       run.Status,
		FailedSteps:  failed,
		Outputs:      run.Outputs(),
		FinishedAt:   run.FinishedAt,
	}
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: telemetry.OrDiscard(logger),
	}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishRunRequested ставит run в очередь runs.requested.
// Потребитель: worker.
func (p *Publisher) PublishRunRequested(ctx context.Context, payload RunRequestedPayload) error {
	return p.Publish(ctx, ExchangeRuns, RoutingKeyRequested, NewMessage(MessageTypeRunRequested, payload))
}

// PublishRunCompleted публикует событие run.completed.
func (p *Publisher) PublishRunCompleted(ctx context.Context, run *domain.Run) error {
	msg := NewMessage(MessageTypeRunCompleted, NewRunCompletedPayload(run))
	return p.Publish(ctx, ExchangeRuns, RoutingKeyCompleted, msg)
}
