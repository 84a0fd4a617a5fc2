package agents

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/shaiso/Leadflow/internal/config"
	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/llm"
	"github.com/shaiso/Leadflow/internal/retry"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

// Factory создаёт агента для одного шага.
type Factory func() Agent

// Options — зависимости, общие для агентов.
type Options struct {
	// Logger — логгер для сообщений вне контекста шага.
	Logger *slog.Logger

	// Outreach — паузы и retry агента генерации писем.
	Outreach config.OutreachConfig

	// LLM — сервис генерации. nil — письма собираются из шаблона.
	LLM llm.Client

	// Metrics — метрики вызовов LLM. Может быть nil.
	Metrics *telemetry.Metrics

	// Rand — источник случайности. nil — свой источник у каждого агента.
	// Общий источник не потокобезопасен: задавайте его только в тестах.
	Rand *rand.Rand

	// Sleep — функция ожидания. nil — retry.Sleep.
	Sleep retry.SleepFunc
}

// OptionsFromConfig собирает Options из конфигурации процесса.
// Клиент генерации создаётся, только если задан OPENAI_API_KEY.
func OptionsFromConfig(cfg config.Config, logger *slog.Logger, metrics *telemetry.Metrics) Options {
	opts := Options{
		Logger:   logger,
		Outreach: cfg.Outreach,
		Metrics:  metrics,
	}
	if cfg.OpenAI.Enabled() {
		opts.LLM = llm.NewOpenAIClient(llm.Config{
			APIKey:    cfg.OpenAI.APIKey,
			BaseURL:   cfg.OpenAI.BaseURL,
			Model:     cfg.OpenAI.Model,
			MaxTokens: cfg.OpenAI.MaxTokens,
			Timeout:   cfg.OpenAI.Timeout,
		})
	}
	return opts
}

func (o Options) newRand() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (o Options) sleepFunc() retry.SleepFunc {
	if o.Sleep != nil {
		return o.Sleep
	}
	return retry.Sleep
}

// Registry — реестр реализаций агентов.
//
// Каждому AgentKind соответствует фабрика; агент создаётся заново
// для каждого шага. Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	factories map[domain.AgentKind]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[domain.AgentKind]Factory),
	}
}

// DefaultRegistry создаёт реестр со всеми агентами системы.
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry()

	r.Register(domain.AgentProspectSearch, func() Agent { return NewProspectSearch(opts.newRand()) })
	r.Register(domain.AgentDataEnrichment, func() Agent { return NewDataEnrichment(opts.newRand()) })
	r.Register(domain.AgentScoring, func() Agent { return NewScoring() })
	r.Register(domain.AgentOutreachContent, func() Agent { return NewOutreachContent(opts) })
	r.Register(domain.AgentOutreachExecutor, func() Agent { return NewOutreachExecutor(opts.sleepFunc()) })
	r.Register(domain.AgentResponseTracker, func() Agent { return NewResponseTracker(opts.newRand()) })
	r.Register(domain.AgentFeedbackTrainer, func() Agent { return NewFeedbackTrainer() })

	return r
}

// Register регистрирует фабрику агента.
// Если фабрика для kind уже существует, она будет перезаписана.
func (r *Registry) Register(kind domain.AgentKind, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// New создаёт агента по имени из workflow (каноническому или алиасу).
// Возвращает ErrAgentNotFound, если имя неизвестно или фабрика не зарегистрирована.
func (r *Registry) New(name string) (Agent, error) {
	kind, ok := domain.ParseAgentKind(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	r.mu.RLock()
	f, exists := r.factories[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, kind)
	}
	return f(), nil
}

// Has проверяет, зарегистрирован ли агент.
func (r *Registry) Has(kind domain.AgentKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[kind]
	return exists
}

// Kinds возвращает зарегистрированные агенты в алфавитном порядке.
func (r *Registry) Kinds() []domain.AgentKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.AgentKind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Count возвращает количество зарегистрированных агентов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Unregister удаляет агента из реестра.
func (r *Registry) Unregister(kind domain.AgentKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, kind)
}
