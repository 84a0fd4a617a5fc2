package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shaiso/Leadflow/internal/engine"
	"github.com/shaiso/Leadflow/internal/mq"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

// SourceScheduler — значение RunRequestedPayload.Source для запусков по расписанию.
const SourceScheduler = "scheduler"

// Enqueuer ставит run в очередь. Реализуется *mq.Publisher.
type Enqueuer interface {
	PublishRunRequested(ctx context.Context, payload mq.RunRequestedPayload) error
}

// Entry — workflow, запускаемый по расписанию.
type Entry struct {
	// Name — имя для логов.
	Name string

	// CronExpr — cron-выражение ("0 9 * * 1-5", "@every 1h").
	CronExpr string

	// WorkflowPath — путь к файлу workflow относительно WorkflowDir.
	WorkflowPath string
}

// Scheduler запускает workflows по cron-расписанию.
//
// На каждом срабатывании workflow загружается и валидируется, затем
// в runs.requested публикуется запрос с новым run_id. Невалидный workflow
// пропускается до следующего срабатывания.
type Scheduler struct {
	enqueuer    Enqueuer
	workflowDir string
	logger      *slog.Logger
	cron        *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// Config — конфигурация Scheduler.
type Config struct {
	Enqueuer    Enqueuer
	WorkflowDir string
	Location    *time.Location // default: UTC
	Logger      *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	logger := telemetry.OrDiscard(cfg.Logger).With("component", "scheduler")

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	workflowDir := cfg.WorkflowDir
	if workflowDir == "" {
		workflowDir = "."
	}

	cl := cronLogger{logger: logger}
	return &Scheduler{
		enqueuer:    cfg.Enqueuer,
		workflowDir: workflowDir,
		logger:      logger,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		entries: make(map[string]cron.EntryID),
	}
}

// Add регистрирует entry. Имена entries уникальны.
func (s *Scheduler) Add(entry Entry) error {
	if entry.WorkflowPath == "" {
		return errors.New("schedule has no workflow path")
	}
	if entry.Name == "" {
		entry.Name = entry.WorkflowPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.Name]; ok {
		return fmt.Errorf("schedule %q already registered", entry.Name)
	}
	if err := ValidateCronExpr(entry.CronExpr); err != nil {
		return err
	}

	id, err := s.cron.AddFunc(entry.CronExpr, func() {
		if err := s.Trigger(context.Background(), entry); err != nil {
			s.logger.Error("scheduled run failed", "schedule", entry.Name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add schedule %q: %w", entry.Name, err)
	}
	s.entries[entry.Name] = id

	s.logger.Info("schedule registered",
		"schedule", entry.Name,
		"cron", entry.CronExpr,
		"workflow_path", entry.WorkflowPath,
	)
	return nil
}

// Remove удаляет entry по имени.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, name)
	return true
}

// Len возвращает количество entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start запускает cron в фоне.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "entries", s.Len())
}

// Stop останавливает cron и ждёт текущие срабатывания или отмены ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info("scheduler stopped")
}

// Trigger выполняет одно срабатывание entry: проверяет workflow и ставит run в очередь.
func (s *Scheduler) Trigger(ctx context.Context, entry Entry) error {
	wf, err := engine.LoadFile(filepath.Join(s.workflowDir, entry.WorkflowPath))
	if err != nil {
		return fmt.Errorf("load workflow: %w", err)
	}

	payload := mq.RunRequestedPayload{
		RunID:        uuid.New(),
		WorkflowPath: entry.WorkflowPath,
		Source:       SourceScheduler,
	}
	if err := s.enqueuer.PublishRunRequested(ctx, payload); err != nil {
		return fmt.Errorf("enqueue run: %w", err)
	}

	s.logger.Info("run enqueued from schedule",
		"schedule", entry.Name,
		"run_id", payload.RunID,
		"workflow", wf.WorkflowName,
	)
	return nil
}
