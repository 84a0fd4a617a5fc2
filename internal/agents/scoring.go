package agents

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/shaiso/Leadflow/internal/domain"
)

// Правила скоринга.
const (
	scoreSignalMatch    = 40
	scoreSignal         = "recent_funding"
	scorePerTech        = 5
	scoreTechCap        = 20
	scoreShortName      = 10
	scoreShortNameLimit = 20
)

// Scoring — скоринг и ранжирование лидов.
//
//	score = 40 (signal == "recent_funding")
//	      + min(20, 5 * len(tech_stack))
//	      + 10 (len(company) < 20)
//
// Лиды сортируются по убыванию score; при равенстве сохраняется
// исходный порядок.
//
// Inputs:
//   - leads: []object
//
// Outputs:
//   - ranked_leads: исходные поля + score
type Scoring struct{}

// NewScoring создаёт агента.
func NewScoring() *Scoring {
	return &Scoring{}
}

// Kind возвращает вид агента.
func (a *Scoring) Kind() domain.AgentKind {
	return domain.AgentScoring
}

// Run ранжирует лиды.
func (a *Scoring) Run(ctx context.Context, req *Request) (*Response, error) {
	leads, err := GetInputRecords(req.Inputs, "leads")
	if err != nil {
		return nil, err
	}

	scores := make([]int, len(leads))
	for i, lead := range leads {
		scores[i] = Score(lead)
		lead["score"] = scores[i]
	}

	order := make([]int, len(leads))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	ranked := make([]any, 0, len(leads))
	for _, idx := range order {
		ranked = append(ranked, leads[idx])
	}

	return NewResponse(map[string]any{"ranked_leads": ranked}), nil
}

// Score вычисляет score одного лида.
func Score(lead map[string]any) int {
	score := 0

	if recordString(lead, "signal") == scoreSignal {
		score += scoreSignalMatch
	}

	score += min(scoreTechCap, scorePerTech*len(recordList(lead, "tech_stack")))

	if utf8.RuneCountInString(recordString(lead, "company")) < scoreShortNameLimit {
		score += scoreShortName
	}

	return score
}
