// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики runs, шагов и вызовов LLM
//
// Логгер и метрики создаются в main и передаются компонентам явно.
package telemetry
