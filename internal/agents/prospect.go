package agents

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shaiso/Leadflow/internal/domain"
)

// prospectCompanies — фиксированный набор компаний mock-поиска.
var prospectCompanies = []string{"Acme SaaS", "Nimbus Analytics", "PulseSoft", "BrightLayer"}

// ProspectSearch — mock-поиск лидов.
//
// Inputs:
//   - icp: object (описание идеального клиента, только логируется)
//   - signals: []string (по умолчанию ["recent_funding"])
//
// Outputs:
//   - leads: []{company, contact_name, email, linkedin, signal}
type ProspectSearch struct {
	rnd *rand.Rand
}

// NewProspectSearch создаёт агента.
func NewProspectSearch(rnd *rand.Rand) *ProspectSearch {
	return &ProspectSearch{rnd: rnd}
}

// Kind возвращает вид агента.
func (a *ProspectSearch) Kind() domain.AgentKind {
	return domain.AgentProspectSearch
}

// Run выполняет поиск.
func (a *ProspectSearch) Run(ctx context.Context, req *Request) (*Response, error) {
	icp, err := GetInputMap(req.Inputs, "icp")
	if err != nil {
		return nil, err
	}

	signals, err := GetInputStrings(req.Inputs, "signals", []string{"recent_funding"})
	if err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: signals must not be empty", ErrInvalidInput)
	}

	req.logger().Debug("searching prospects", "icp", icp, "signals", signals)

	leads := make([]any, 0, len(prospectCompanies))
	for _, company := range prospectCompanies {
		slug := companySlug(company)
		leads = append(leads, map[string]any{
			"company":      company,
			"contact_name": strings.Fields(company)[0] + " Founder",
			"email":        "founder@" + slug + ".com",
			"linkedin":     "https://linkedin.com/in/" + slug,
			"signal":       signals[a.rnd.IntN(len(signals))],
		})
	}

	return NewResponse(map[string]any{"leads": leads}), nil
}

// companySlug — имя компании без пробелов в нижнем регистре.
func companySlug(company string) string {
	return strings.ToLower(strings.ReplaceAll(company, " ", ""))
}
