package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Leadflow/internal/domain"
)

// Agent DTOs

// AgentResponse — агент из закрытого набора.
type AgentResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Workflow DTOs

// StepSummary — шаг провалидированного workflow.
type StepSummary struct {
	ID    string `json:"id"`
	Agent string `json:"agent"`
}

// ValidateWorkflowResponse — ответ на успешную валидацию.
// Имена агентов приведены к каноническому виду.
type ValidateWorkflowResponse struct {
	Valid        bool          `json:"valid"`
	WorkflowName string        `json:"workflow_name"`
	Mode         string        `json:"mode"`
	Steps        []StepSummary `json:"steps"`
}

// ValidateWorkflowFromDomain конвертирует провалидированный workflow в ответ.
func ValidateWorkflowFromDomain(wf *domain.Workflow) ValidateWorkflowResponse {
	steps := make([]StepSummary, len(wf.Steps))
	for i, s := range wf.Steps {
		steps[i] = StepSummary{ID: s.ID, Agent: s.Agent}
	}
	return ValidateWorkflowResponse{
		Valid:        true,
		WorkflowName: wf.WorkflowName,
		Mode:         wf.Mode,
		Steps:        steps,
	}
}

// Run DTOs

// CreateRunRequest — запрос на запуск workflow.
// Нужно указать ровно одно из полей.
type CreateRunRequest struct {
	// Workflow — определение workflow целиком.
	Workflow json.RawMessage `json:"workflow,omitempty"`

	// WorkflowPath — путь к файлу workflow на стороне worker.
	WorkflowPath string `json:"workflow_path,omitempty"`
}

// CreateRunResponse — ответ на постановку run в очередь.
type CreateRunResponse struct {
	RunID        uuid.UUID        `json:"run_id"`
	Status       domain.RunStatus `json:"status"`
	WorkflowName string           `json:"workflow_name,omitempty"`
	WorkflowPath string           `json:"workflow_path,omitempty"`
}

// StepResponse — состояние шага run.
type StepResponse struct {
	StepID     string            `json:"step_id"`
	Agent      string            `json:"agent"`
	Status     domain.StepStatus `json:"status"`
	Output     map[string]any    `json:"output,omitempty"`
	Error      string            `json:"error,omitempty"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID           uuid.UUID        `json:"id"`
	WorkflowName string           `json:"workflow_name"`
	Mode         string           `json:"mode,omitempty"`
	Status       domain.RunStatus `json:"status"`
	Steps        []StepResponse   `json:"steps,omitempty"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
	DurationMs   int64            `json:"duration_ms,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	var steps []StepResponse
	if len(r.Steps) > 0 {
		steps = make([]StepResponse, len(r.Steps))
		for i, s := range r.Steps {
			steps[i] = StepResponse{
				StepID:     s.StepID,
				Agent:      s.Agent,
				Status:     s.Status,
				Output:     s.Output,
				Error:      s.Error,
				StartedAt:  s.StartedAt,
				FinishedAt: s.FinishedAt,
			}
		}
	}

	return RunResponse{
		ID:           r.ID,
		WorkflowName: r.WorkflowName,
		Mode:         r.Mode,
		Status:       r.Status,
		Steps:        steps,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		DurationMs:   r.Duration().Milliseconds(),
		CreatedAt:    r.CreatedAt,
	}
}
