package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "leadflow"

// Metrics — Prometheus метрики выполнения workflow.
//
// Метрики регистрируются в переданном Registerer, а не в глобальном,
// поэтому несколько экземпляров (например, в тестах) не конфликтуют.
type Metrics struct {
	RunsTotal    *prometheus.CounterVec
	StepsTotal   *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec
	LLMAttempts  *prometheus.CounterVec
	Fallbacks    *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует метрики. reg может быть nil —
// тогда метрики не регистрируются (удобно для CLI и тестов).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed workflow runs by final status.",
		}, []string{"workflow", "status"}),

		StepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Executed steps by agent and status.",
		}, []string{"agent", "status"}),

		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Step execution time.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"agent"}),

		LLMAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_attempts_total",
			Help:      "Text generation calls by outcome (ok, error, rate_limited).",
		}, []string{"outcome"}),

		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_fallbacks_total",
			Help:      "Messages produced from the deterministic template.",
		}, []string{"reason"}),
	}

	if reg != nil {
		reg.MustRegister(m.RunsTotal, m.StepsTotal, m.StepDuration, m.LLMAttempts, m.Fallbacks)
	}

	return m
}

// ObserveStep учитывает выполненный шаг.
func (m *Metrics) ObserveStep(agent, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(agent, status).Inc()
	m.StepDuration.WithLabelValues(agent).Observe(d.Seconds())
}

// ObserveRun учитывает завершённый run.
func (m *Metrics) ObserveRun(workflow, status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(workflow, status).Inc()
}

// ObserveLLMAttempt учитывает вызов сервиса генерации.
func (m *Metrics) ObserveLLMAttempt(outcome string) {
	if m == nil {
		return
	}
	m.LLMAttempts.WithLabelValues(outcome).Inc()
}

// ObserveFallback учитывает письмо, собранное из шаблона.
func (m *Metrics) ObserveFallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}
