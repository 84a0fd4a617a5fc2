package agents

import (
	"context"
	"math/rand/v2"

	"github.com/shaiso/Leadflow/internal/domain"
)

// ResponseTracker — mock-сбор метрик откликов.
//
// Inputs:
//   - sent: []object
//
// Outputs:
//   - metrics: {opens: 10..50, clicks: 0..10, replies: 0..5, sent: len(sent)}
type ResponseTracker struct {
	rnd *rand.Rand
}

// NewResponseTracker создаёт агента.
func NewResponseTracker(rnd *rand.Rand) *ResponseTracker {
	return &ResponseTracker{rnd: rnd}
}

// Kind возвращает вид агента.
func (a *ResponseTracker) Kind() domain.AgentKind {
	return domain.AgentResponseTracker
}

// Run возвращает метрики.
func (a *ResponseTracker) Run(ctx context.Context, req *Request) (*Response, error) {
	sent, err := GetInputRecords(req.Inputs, "sent")
	if err != nil {
		return nil, err
	}

	metrics := map[string]any{
		"opens":   a.between(10, 50),
		"clicks":  a.between(0, 10),
		"replies": a.between(0, 5),
		"sent":    len(sent),
	}

	return NewResponse(map[string]any{"metrics": metrics}), nil
}

// between возвращает случайное целое из [lo, hi].
func (a *ResponseTracker) between(lo, hi int) int {
	return lo + a.rnd.IntN(hi-lo+1)
}
