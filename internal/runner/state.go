package runner

import (
	"github.com/google/uuid"

	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/engine"
)

// RunState — состояние выполнения одного run в памяти.
//
// Содержит:
//   - Run со статусами шагов
//   - Workflow, по которому идёт выполнение
//   - Контекст с config и результатами завершённых шагов
//
// RunState принадлежит одному вызову Runner.Run; шаги выполняются
// последовательно, поэтому синхронизация не нужна.
type RunState struct {
	// Run — run со статусами шагов.
	Run *domain.Run

	// Workflow — выполняемый workflow.
	Workflow *domain.Workflow

	// Context — контекст для подстановки шаблонов.
	Context *engine.Context
}

// NewRunState создаёт RunState для workflow. runID может быть uuid.Nil —
// тогда используется сгенерированный.
func NewRunState(wf *domain.Workflow, runID uuid.UUID) *RunState {
	run := domain.NewRun(wf)
	if runID != uuid.Nil {
		run.ID = runID
	}

	return &RunState{
		Run:      run,
		Workflow: wf,
		Context:  engine.NewContext(wf),
	}
}

// Step возвращает определение и состояние i-го шага.
func (s *RunState) Step(i int) (*domain.StepSpec, *domain.StepRun) {
	return &s.Workflow.Steps[i], &s.Run.Steps[i]
}

// MarkStepRunning переводит шаг в RUNNING.
func (s *RunState) MarkStepRunning(i int) {
	s.Run.Steps[i].MarkRunning()
}

// MarkStepCompleted записывает результат шага в контекст.
// В Run сохраняется нормализованная копия, как и в контексте.
func (s *RunState) MarkStepCompleted(i int, output map[string]any) {
	step := &s.Run.Steps[i]
	s.Context.AddStepResult(step.StepID, output)
	step.MarkCompleted(s.frozenOutput(step.StepID))
}

// MarkStepFailed записывает {"error": msg} в контекст.
func (s *RunState) MarkStepFailed(i int, msg string) {
	step := &s.Run.Steps[i]
	step.MarkFailed(msg)
	s.Context.AddStepResult(step.StepID, step.Output)
}

func (s *RunState) frozenOutput(stepID string) map[string]any {
	if out, ok := s.Context.StepOutput(stepID); ok {
		return out
	}
	return map[string]any{}
}

// IsComplete возвращает true, если все шаги завершены.
func (s *RunState) IsComplete() bool {
	for i := range s.Run.Steps {
		if !s.Run.Steps[i].Status.IsTerminal() {
			return false
		}
	}
	return true
}

// GetFailedSteps возвращает ID упавших шагов.
func (s *RunState) GetFailedSteps() []string {
	var failed []string
	for i := range s.Run.Steps {
		if s.Run.Steps[i].Status == domain.StepStatusFailed {
			failed = append(failed, s.Run.Steps[i].StepID)
		}
	}
	return failed
}

// Stats возвращает статистику выполнения.
func (s *RunState) Stats() RunStats {
	stats := RunStats{TotalSteps: len(s.Run.Steps)}
	for i := range s.Run.Steps {
		switch s.Run.Steps[i].Status {
		case domain.StepStatusCompleted:
			stats.CompletedSteps++
		case domain.StepStatusRunning:
			stats.RunningSteps++
		case domain.StepStatusFailed:
			stats.FailedSteps++
		default:
			stats.PendingSteps++
		}
	}
	return stats
}

// RunStats — статистика выполнения run.
type RunStats struct {
	TotalSteps     int
	CompletedSteps int
	RunningSteps   int
	FailedSteps    int
	PendingSteps   int
}
