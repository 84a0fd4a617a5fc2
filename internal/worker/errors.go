package worker

import "errors"

// Ошибки воркера.
var (
	// ErrNoWorkflow — в запросе нет ни workflow, ни workflow_path.
	ErrNoWorkflow = errors.New("run request has no workflow")

	// ErrWorkflowPath — workflow_path выходит за пределы каталога workflows.
	ErrWorkflowPath = errors.New("workflow path outside of workflow dir")
)
