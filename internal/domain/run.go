package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — экземпляр выполнения workflow.
//
// Run создаётся когда:
// - Пользователь запускает workflow через CLI
// - API принимает запрос на запуск (выполняет worker)
// - Scheduler запускает workflow по расписанию
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// WorkflowName — имя выполняемого workflow.
	WorkflowName string `json:"workflow_name"`

	// Mode — режим workflow на момент запуска.
	Mode string `json:"mode,omitempty"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Steps — состояние шагов в объявленном порядке.
	Steps []StepRun `json:"steps"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения последнего шага.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// StepRun — состояние одного шага внутри run.
type StepRun struct {
	// StepID — ID шага из workflow.
	StepID string `json:"step_id"`

	// Agent — агент, назначенный шагу (как указано в workflow).
	Agent string `json:"agent"`

	// Status — текущий статус шага.
	Status StepStatus `json:"status"`

	// Output — результат шага. Для упавшего шага — {"error": "..."}.
	Output map[string]any `json:"output,omitempty"`

	// Error — текст ошибки, если шаг упал.
	Error string `json:"error,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewRun создаёт run в статусе PENDING со всеми шагами workflow.
func NewRun(wf *Workflow) *Run {
	steps := make([]StepRun, len(wf.Steps))
	for i, s := range wf.Steps {
		steps[i] = StepRun{
			StepID: s.ID,
			Agent:  s.Agent,
			Status: StepStatusPending,
		}
	}

	return &Run{
		ID:           uuid.New(),
		WorkflowName: wf.WorkflowName,
		Mode:         wf.Mode,
		Status:       RunStatusPending,
		Steps:        steps,
		CreatedAt:    time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// Finish завершает run: SUCCEEDED, если ни один шаг не упал, иначе PARTIAL.
func (r *Run) Finish() {
	now := time.Now()
	r.FinishedAt = &now
	if r.FailedSteps() > 0 {
		r.Status = RunStatusPartial
		return
	}
	r.Status = RunStatusSucceeded
}

// FailedSteps возвращает количество упавших шагов.
func (r *Run) FailedSteps() int {
	n := 0
	for i := range r.Steps {
		if r.Steps[i].Status == StepStatusFailed {
			n++
		}
	}
	return n
}

// Outputs возвращает итоговый документ: {step_id: {"output": ...}}.
// Шаги, которые ещё не завершились, в документ не попадают.
func (r *Run) Outputs() map[string]any {
	doc := make(map[string]any, len(r.Steps))
	for i := range r.Steps {
		s := &r.Steps[i]
		if !s.Status.IsTerminal() {
			continue
		}
		doc[s.StepID] = map[string]any{"output": s.Output}
	}
	return doc
}

// MarkRunning переводит шаг в статус RUNNING.
func (s *StepRun) MarkRunning() {
	now := time.Now()
	s.Status = StepStatusRunning
	s.StartedAt = &now
}

// MarkCompleted переводит шаг в статус COMPLETED с результатом.
func (s *StepRun) MarkCompleted(output map[string]any) {
	now := time.Now()
	s.Status = StepStatusCompleted
	s.Output = output
	s.FinishedAt = &now
}

// MarkFailed переводит шаг в статус FAILED. В Output записывается {"error": msg}.
func (s *StepRun) MarkFailed(msg string) {
	now := time.Now()
	s.Status = StepStatusFailed
	s.Error = msg
	s.Output = map[string]any{"error": msg}
	s.FinishedAt = &now
}
