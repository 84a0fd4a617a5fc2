// Package agents содержит агентов outreach-pipeline.
//
// Набор агентов закрыт (domain.AgentKind); каждому виду соответствует
// фабрика в Registry. Runner создаёт агента заново для каждого шага
// и передаёт ему только разрешённые входные данные.
//
// Агенты:
//   - ProspectSearch   — поиск лидов (mock)
//   - DataEnrichment   — домен, должность, стек (mock)
//   - Scoring          — скоринг и стабильное ранжирование
//   - OutreachContent  — письма: шаблон или LLM с retry/backoff
//   - OutreachExecutor — постановка писем в очередь (mock)
//   - ResponseTracker  — метрики откликов (mock)
//   - FeedbackTrainer  — рекомендации по метрикам
package agents
