package domain

import "strings"

// AgentKind — закрытый набор агентов, известных системе.
//
// Workflow ссылается на агента по имени; имя проверяется
// при загрузке workflow, а не в момент выполнения шага.
type AgentKind string

const (
	// AgentProspectSearch — поиск потенциальных клиентов.
	AgentProspectSearch AgentKind = "ProspectSearchAgent"

	// AgentDataEnrichment — обогащение лидов (домен, должность, стек).
	AgentDataEnrichment AgentKind = "DataEnrichmentAgent"

	// AgentScoring — скоринг и ранжирование лидов.
	AgentScoring AgentKind = "ScoringAgent"

	// AgentOutreachContent — генерация писем (шаблон или LLM).
	AgentOutreachContent AgentKind = "OutreachContentAgent"

	// AgentOutreachExecutor — постановка писем в очередь отправки.
	AgentOutreachExecutor AgentKind = "OutreachExecutorAgent"

	// AgentResponseTracker — сбор метрик откликов.
	AgentResponseTracker AgentKind = "ResponseTrackerAgent"

	// AgentFeedbackTrainer — рекомендации по метрикам.
	AgentFeedbackTrainer AgentKind = "FeedbackTrainerAgent"
)

// AllAgentKinds возвращает все известные агенты в порядке типового pipeline.
func AllAgentKinds() []AgentKind {
	return []AgentKind{
		AgentProspectSearch,
		AgentDataEnrichment,
		AgentScoring,
		AgentOutreachContent,
		AgentOutreachExecutor,
		AgentResponseTracker,
		AgentFeedbackTrainer,
	}
}

// String возвращает строковое представление AgentKind.
func (k AgentKind) String() string {
	return string(k)
}

// Slug возвращает snake_case имя агента: "ProspectSearchAgent" → "prospect_search".
func (k AgentKind) Slug() string {
	name := strings.TrimSuffix(string(k), "Agent")

	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseAgentKind находит агента по имени.
//
// Принимает каноническое имя ("ScoringAgent") и snake_case алиас
// ("scoring", "scoring_agent"). Регистр не учитывается.
func ParseAgentKind(name string) (AgentKind, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}

	for _, k := range AllAgentKinds() {
		switch needle {
		case strings.ToLower(string(k)), k.Slug(), k.Slug() + "_agent":
			return k, true
		}
	}
	return "", false
}
