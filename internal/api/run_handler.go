package api

import (
	"encoding/json"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/engine"
	"github.com/shaiso/Leadflow/internal/mq"
	"github.com/shaiso/Leadflow/internal/store"
)

// SourceAPI — значение RunRequestedPayload.Source для запусков через API.
const SourceAPI = "api"

// CreateRun валидирует workflow и ставит run в очередь.
// POST /api/v1/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		ServiceUnavailable(w, "run queue is not configured")
		return
	}

	var req CreateRunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWorkflowBytes)).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	hasWorkflow := len(req.Workflow) > 0 && string(req.Workflow) != "null"
	if hasWorkflow == (req.WorkflowPath != "") {
		BadRequest(w, "exactly one of workflow or workflow_path is required")
		return
	}

	payload := mq.RunRequestedPayload{
		RunID:  uuid.New(),
		Source: SourceAPI,
	}
	resp := CreateRunResponse{
		RunID:  payload.RunID,
		Status: domain.RunStatusPending,
	}

	if hasWorkflow {
		wf, err := engine.Parse(req.Workflow)
		if err != nil {
			WorkflowError(w, err)
			return
		}
		payload.Workflow = wf
		resp.WorkflowName = wf.WorkflowName
	} else {
		if !isRelativePath(req.WorkflowPath) {
			BadRequest(w, "workflow_path must be relative to the workflow directory")
			return
		}
		payload.WorkflowPath = req.WorkflowPath
		resp.WorkflowPath = req.WorkflowPath
	}

	if err := h.enqueuer.PublishRunRequested(r.Context(), payload); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("run enqueued", "run_id", payload.RunID, "workflow", resp.WorkflowName, "workflow_path", resp.WorkflowPath)
	Accepted(w, resp)
}

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?workflow=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		ServiceUnavailable(w, "run store is not configured")
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{
		WorkflowName: q.Get("workflow"),
		Limit:        store.DefaultListLimit,
	}

	if s := q.Get("status"); s != "" {
		status := domain.ParseRunStatus(strings.ToUpper(s))
		if string(status) != strings.ToUpper(s) {
			BadRequest(w, "invalid status")
			return
		}
		filter.Status = status
	}

	var ok bool
	if filter.Limit, ok = queryInt(q.Get("limit"), store.DefaultListLimit); !ok {
		BadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, ok = queryInt(q.Get("offset"), 0); !ok {
		BadRequest(w, "invalid offset")
		return
	}

	runs, err := h.runs.List(r.Context(), filter)
	if HandleStoreError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// GetRun возвращает run по ID вместе с шагами.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		ServiceUnavailable(w, "run store is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if HandleStoreError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// GetRunOutputs возвращает итоговый документ run: {step_id: {"output": ...}}.
// GET /api/v1/runs/{id}/outputs
func (h *Handler) GetRunOutputs(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		ServiceUnavailable(w, "run store is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	outputs, err := h.runs.Outputs(r.Context(), id)
	if HandleStoreError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, outputs)
}

// queryInt парсит неотрицательное целое из query; пустая строка — def.
func queryInt(s string, def int) (int, bool) {
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// isRelativePath проверяет, что p не абсолютный и не выходит наверх.
func isRelativePath(p string) bool {
	if strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return false
	}
	clean := path.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}
