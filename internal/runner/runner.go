package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Leadflow/internal/agents"
	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/engine"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

// Store — хранилище результатов run.
type Store interface {
	Save(ctx context.Context, run *domain.Run) error
}

// EventPublisher — публикация события о завершении run.
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, run *domain.Run) error
}

// Runner выполняет workflow.
//
// Шаги выполняются строго последовательно в объявленном порядке:
//   - входные данные шага разрешаются по контексту (config + прошлые шаги)
//   - агент создаётся из реестра
//   - результат или {"error": ...} записывается в контекст
//
// Ошибка шага не останавливает run: каждый шаг выполняется ровно один раз.
// Фатальны только ошибки workflow (валидация), они возвращаются до первого шага.
type Runner struct {
	registry  *agents.Registry
	store     Store
	publisher EventPublisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// Config — конфигурация Runner.
type Config struct {
	// Registry — реестр агентов (обязательный).
	Registry *agents.Registry

	// Store — куда сохранять результат. nil — не сохранять.
	Store Store

	// Publisher — куда публиковать run.completed. nil — не публиковать.
	Publisher EventPublisher

	// Metrics — метрики. Может быть nil.
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Runner.
func New(cfg Config) *Runner {
	registry := cfg.Registry
	if registry == nil {
		registry = agents.NewRegistry()
	}

	return &Runner{
		registry:  registry,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    telemetry.OrDiscard(cfg.Logger),
	}
}

// RunOptions — параметры одного запуска.
type RunOptions struct {
	// RunID — ID run. uuid.Nil — сгенерировать.
	RunID uuid.UUID

	// SkipSave — не сохранять результат в Store.
	SkipSave bool
}

// Run выполняет workflow.
//
// Возвращает ошибку без run, если workflow невалиден. После выполнения
// шагов run возвращается всегда; ошибка в этом случае означает только
// сбой сохранения или публикации результата.
func (r *Runner) Run(ctx context.Context, wf *domain.Workflow, opts RunOptions) (*domain.Run, error) {
	if err := engine.Validate(wf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
	}

	state := NewRunState(wf, opts.RunID)
	run := state.Run
	logger := telemetry.WithRunID(r.logger, run.ID.String())

	// 1. Старт run
	run.MarkRunning()
	logger.Info("run started",
		"workflow", wf.WorkflowName,
		"mode", wf.Mode,
		"steps", len(wf.Steps),
	)

	// 2. Шаги по порядку
	for i := range wf.Steps {
		r.executeStep(ctx, state, i, logger)
	}

	// 3. Финализация
	run.Finish()
	stats := state.Stats()
	r.metrics.ObserveRun(wf.WorkflowName, string(run.Status))

	logger.Info("run finished",
		"status", run.Status,
		"completed", stats.CompletedSteps,
		"failed", stats.FailedSteps,
		"failed_steps", state.GetFailedSteps(),
		"duration", run.Duration(),
	)

	// 4. Сохранение и событие
	return run, r.complete(ctx, run, opts, logger)
}

// executeStep выполняет один шаг. Любой исход записывается в state.
func (r *Runner) executeStep(ctx context.Context, state *RunState, i int, logger *slog.Logger) {
	step, _ := state.Step(i)
	stepLogger := telemetry.WithStepID(logger, step.ID, step.Agent)
	started := time.Now()

	state.MarkStepRunning(i)
	stepLogger.Info("step started")

	// 1. Разрешаем входные данные
	inputs := engine.ResolveInputs(step.Inputs, state.Context)
	stepLogger.Debug("inputs resolved", "inputs", inputs)

	// 2. Создаём агента
	agent, err := r.registry.New(step.Agent)
	if err != nil {
		r.failStep(state, i, ImportErrorPrefix+err.Error(), started, stepLogger)
		return
	}

	// 3. Выполняем
	output, err := invoke(ctx, agent, &agents.Request{
		StepID:       step.ID,
		Inputs:       inputs,
		Instructions: step.Instructions,
		Logger:       stepLogger,
	})
	if err != nil {
		r.failStep(state, i, err.Error(), started, stepLogger)
		return
	}

	// 4. Записываем результат
	state.MarkStepCompleted(i, output)
	r.metrics.ObserveStep(step.Agent, string(domain.StepStatusCompleted), time.Since(started))

	stepLogger.Info("step completed", "duration", time.Since(started))
	stepLogger.Debug("step output", "output", output)
}

func (r *Runner) failStep(state *RunState, i int, msg string, started time.Time, logger *slog.Logger) {
	step, _ := state.Step(i)
	state.MarkStepFailed(i, msg)
	r.metrics.ObserveStep(step.Agent, string(domain.StepStatusFailed), time.Since(started))

	logger.Error("step failed", "error", msg, "duration", time.Since(started))
}

// invoke вызывает агента и превращает панику в ошибку.
func invoke(ctx context.Context, agent agents.Agent, req *agents.Request) (output map[string]any, err error) {
	defer func() {
		if p := recover(); p != nil {
			output = nil
			err = fmt.Errorf("%w: %v", ErrAgentPanic, p)
		}
	}()

	resp, err := agent.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Outputs == nil {
		return map[string]any{}, nil
	}
	return resp.Outputs, nil
}

// complete сохраняет run и публикует событие. Ошибки не отменяют результат run.
func (r *Runner) complete(ctx context.Context, run *domain.Run, opts RunOptions, logger *slog.Logger) error {
	var errs []error

	if r.store != nil && !opts.SkipSave {
		if err := r.store.Save(ctx, run); err != nil {
			logger.Error("failed to save run", "error", err)
			errs = append(errs, fmt.Errorf("%w: %w", ErrSave, err))
		} else {
			logger.Debug("run saved")
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishRunCompleted(ctx, run); err != nil {
			logger.Warn("failed to publish run.completed", "error", err)
			errs = append(errs, fmt.Errorf("%w: %w", ErrPublish, err))
		}
	}

	return errors.Join(errs...)
}
