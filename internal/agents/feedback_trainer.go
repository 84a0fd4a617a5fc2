package agents

import (
	"context"

	"github.com/shaiso/Leadflow/internal/domain"
)

// Пороги и тексты рекомендаций.
const (
	minOpens   = 20
	minReplies = 2

	RecommendSubjects = "Subject lines are weak: test 3 new variants focused on outcomes."
	RecommendSpecific = "Messages may be too generic: add a specific case study and a CTA variation."
	RecommendContinue = "Performance looks good: continue current cadence."
)

// FeedbackTrainer — рекомендации по метрикам кампании.
//
// Inputs:
//   - metrics: {opens, replies, ...}
//   - messages: []object (не используется в правилах)
//
// Outputs:
//   - recommendations: []string
type FeedbackTrainer struct{}

// NewFeedbackTrainer создаёт агента.
func NewFeedbackTrainer() *FeedbackTrainer {
	return &FeedbackTrainer{}
}

// Kind возвращает вид агента.
func (a *FeedbackTrainer) Kind() domain.AgentKind {
	return domain.AgentFeedbackTrainer
}

// Run выводит рекомендации.
func (a *FeedbackTrainer) Run(ctx context.Context, req *Request) (*Response, error) {
	metrics, err := GetInputMap(req.Inputs, "metrics")
	if err != nil {
		return nil, err
	}

	recs := Recommend(GetInputInt(metrics, "opens", 0), GetInputInt(metrics, "replies", 0))

	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return NewResponse(map[string]any{"recommendations": out}), nil
}

// Recommend применяет пороговые правила.
func Recommend(opens, replies int) []string {
	var recs []string
	if opens < minOpens {
		recs = append(recs, RecommendSubjects)
	}
	if replies < minReplies {
		recs = append(recs, RecommendSpecific)
	}
	if len(recs) == 0 {
		recs = append(recs, RecommendContinue)
	}
	return recs
}
