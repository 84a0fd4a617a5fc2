package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/shaiso/Leadflow/internal/engine"
)

// maxWorkflowBytes — предельный размер тела с определением workflow.
const maxWorkflowBytes = 1 << 20

// ValidateWorkflow проверяет определение workflow (JSON или YAML в теле запроса).
// POST /api/v1/workflows/validate
func (h *Handler) ValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWorkflowBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			BadRequest(w, "workflow is too large")
			return
		}
		BadRequest(w, "invalid request body")
		return
	}

	wf, err := engine.Parse(body)
	if err != nil {
		WorkflowError(w, err)
		return
	}

	Success(w, ValidateWorkflowFromDomain(wf))
}
