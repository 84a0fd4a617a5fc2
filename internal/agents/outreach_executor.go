package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/retry"
)

// sendLatency — имитация задержки отправки одного письма.
const sendLatency = 20 * time.Millisecond

// OutreachExecutor — mock-отправка писем.
//
// Inputs:
//   - messages: []{lead_company, email_subject, ...}
//
// Outputs:
//   - sent: []{message_id, to_company, subject, status: "queued"}
type OutreachExecutor struct {
	sleep retry.SleepFunc
}

// NewOutreachExecutor создаёт агента.
func NewOutreachExecutor(sleep retry.SleepFunc) *OutreachExecutor {
	if sleep == nil {
		sleep = retry.Sleep
	}
	return &OutreachExecutor{sleep: sleep}
}

// Kind возвращает вид агента.
func (a *OutreachExecutor) Kind() domain.AgentKind {
	return domain.AgentOutreachExecutor
}

// Run ставит письма в очередь.
func (a *OutreachExecutor) Run(ctx context.Context, req *Request) (*Response, error) {
	messages, err := GetInputRecords(req.Inputs, "messages")
	if err != nil {
		return nil, err
	}

	sent := make([]any, 0, len(messages))
	for i, msg := range messages {
		company, ok := msg["lead_company"]
		if !ok {
			return nil, fmt.Errorf("%w: messages[%d] has no lead_company", ErrInvalidInput, i)
		}
		subject, ok := msg["email_subject"]
		if !ok {
			return nil, fmt.Errorf("%w: messages[%d] has no email_subject", ErrInvalidInput, i)
		}

		if err := a.sleep(ctx, sendLatency); err != nil {
			return nil, fmt.Errorf("send message %d: %w", i, err)
		}

		sent = append(sent, map[string]any{
			"message_id": uuid.NewString(),
			"to_company": company,
			"subject":    subject,
			"status":     "queued",
		})
	}

	req.logger().Info("messages queued", "count", len(sent))

	return NewResponse(map[string]any{"sent": sent}), nil
}
