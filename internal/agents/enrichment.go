package agents

import (
	"context"
	"math/rand/v2"

	"github.com/shaiso/Leadflow/internal/domain"
)

var (
	enrichmentTitles = []string{"CEO", "Head of GTM", "VP Sales"}
	enrichmentStack  = []string{"aws", "gcp", "stripe", "segment", "postgres"}
)

// techStackSize — сколько технологий добавляется каждому лиду.
const techStackSize = 2

// DataEnrichment — mock-обогащение лидов.
//
// Inputs:
//   - leads: []object
//
// Outputs:
//   - enriched_leads: исходные поля + domain, title, tech_stack
type DataEnrichment struct {
	rnd *rand.Rand
}

// NewDataEnrichment создаёт агента.
func NewDataEnrichment(rnd *rand.Rand) *DataEnrichment {
	return &DataEnrichment{rnd: rnd}
}

// Kind возвращает вид агента.
func (a *DataEnrichment) Kind() domain.AgentKind {
	return domain.AgentDataEnrichment
}

// Run обогащает лиды.
func (a *DataEnrichment) Run(ctx context.Context, req *Request) (*Response, error) {
	leads, err := GetInputRecords(req.Inputs, "leads")
	if err != nil {
		return nil, err
	}

	enriched := make([]any, 0, len(leads))
	for _, lead := range leads {
		lead["domain"] = companySlug(recordString(lead, "company")) + ".com"
		lead["title"] = enrichmentTitles[a.rnd.IntN(len(enrichmentTitles))]
		lead["tech_stack"] = a.sampleStack()
		enriched = append(enriched, lead)
	}

	return NewResponse(map[string]any{"enriched_leads": enriched}), nil
}

// sampleStack выбирает techStackSize различных технологий.
func (a *DataEnrichment) sampleStack() []any {
	perm := a.rnd.Perm(len(enrichmentStack))
	stack := make([]any, 0, techStackSize)
	for _, idx := range perm[:techStackSize] {
		stack = append(stack, enrichmentStack[idx])
	}
	return stack
}
