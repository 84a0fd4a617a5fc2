package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/mq"
	"github.com/shaiso/Leadflow/internal/store"
)

type fakeEnqueuer struct {
	err      error
	payloads []mq.RunRequestedPayload
}

func (f *fakeEnqueuer) PublishRunRequested(_ context.Context, p mq.RunRequestedPayload) error {
	f.payloads = append(f.payloads, p)
	return f.err
}

type fakeRuns struct {
	runs    map[uuid.UUID]*domain.Run
	filters []store.RunFilter
}

func (f *fakeRuns) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return run, nil
}

func (f *fakeRuns) List(_ context.Context, filter store.RunFilter) ([]domain.Run, error) {
	f.filters = append(f.filters, filter)
	var out []domain.Run
	for _, r := range f.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRuns) Outputs(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	run, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return run.Outputs(), nil
}

const validWorkflow = `{
  "workflow_name": "outbound",
  "steps": [
    {"id": "search", "agent": "prospect_search", "inputs": {"signals": ["recent_funding"]}},
    {"id": "score", "agent": "ScoringAgent", "inputs": {"leads": "{{search.output.leads}}"}}
  ]
}`

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(cfg).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestListAgents(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/v1/agents")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Data  []AgentResponse `json:"data"`
		Total int             `json:"total"`
	}
	decode(t, resp, &body)

	if body.Total != 7 || len(body.Data) != 7 {
		t.Fatalf("expected 7 agents, got %d", body.Total)
	}
	if body.Data[0].Name != "ProspectSearchAgent" || body.Data[0].Slug != "prospect_search" {
		t.Errorf("unexpected first agent %+v", body.Data[0])
	}
}

func TestValidateWorkflow(t *testing.T) {
	srv := newTestServer(t, Config{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantStepID string
	}{
		{"valid json", validWorkflow, http.StatusOK, ""},
		{"valid yaml", "workflow_name: y\nsteps:\n  - id: a\n    agent: ScoringAgent\n", http.StatusOK, ""},
		{"unknown agent", `{"workflow_name": "x", "steps": [{"id": "a", "agent": "Nope"}]}`, http.StatusBadRequest, "a"},
		{"no steps", `{"workflow_name": "x", "steps": []}`, http.StatusBadRequest, ""},
		{"malformed", `{"workflow_name": `, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/workflows/validate", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			if tt.wantStatus != http.StatusOK {
				var body ErrorResponse
				decode(t, resp, &body)
				if body.Error.Code != ErrCodeValidation {
					t.Errorf("code = %s, want %s", body.Error.Code, ErrCodeValidation)
				}
				if body.Error.StepID != tt.wantStepID {
					t.Errorf("step_id = %q, want %q", body.Error.StepID, tt.wantStepID)
				}
				return
			}

			var body struct {
				Data ValidateWorkflowResponse `json:"data"`
			}
			decode(t, resp, &body)
			if !body.Data.Valid || body.Data.Mode != domain.DefaultMode {
				t.Errorf("unexpected response %+v", body.Data)
			}
		})
	}
}

func TestValidateWorkflow_NormalizesAgents(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Post(srv.URL+"/api/v1/workflows/validate", "application/json", strings.NewReader(validWorkflow))
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Data ValidateWorkflowResponse `json:"data"`
	}
	decode(t, resp, &body)

	if body.Data.Steps[0].Agent != "ProspectSearchAgent" {
		t.Errorf("agent = %q, want ProspectSearchAgent", body.Data.Steps[0].Agent)
	}
}

func TestCreateRun(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantQueued int
	}{
		{"inline workflow", `{"workflow": ` + validWorkflow + `}`, http.StatusAccepted, 1},
		{"workflow path", `{"workflow_path": "outbound.json"}`, http.StatusAccepted, 1},
		{"invalid workflow", `{"workflow": {"workflow_name": "x", "steps": [{"id": "config", "agent": "ScoringAgent"}]}}`, http.StatusBadRequest, 0},
		{"both", `{"workflow": ` + validWorkflow + `, "workflow_path": "a.json"}`, http.StatusBadRequest, 0},
		{"neither", `{}`, http.StatusBadRequest, 0},
		{"escaping path", `{"workflow_path": "../secret.json"}`, http.StatusBadRequest, 0},
		{"absolute path", `{"workflow_path": "/etc/passwd"}`, http.StatusBadRequest, 0},
		{"not json", `hello`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enq := &fakeEnqueuer{}
			srv := newTestServer(t, Config{Enqueuer: enq})

			resp, err := http.Post(srv.URL+"/api/v1/runs", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if len(enq.payloads) != tt.wantQueued {
				t.Fatalf("enqueued %d runs, want %d", len(enq.payloads), tt.wantQueued)
			}
			if tt.wantStatus != http.StatusAccepted {
				return
			}

			var body struct {
				Data CreateRunResponse `json:"data"`
			}
			decode(t, resp, &body)
			if body.Data.RunID != enq.payloads[0].RunID {
				t.Errorf("run_id mismatch: %s vs %s", body.Data.RunID, enq.payloads[0].RunID)
			}
			if body.Data.Status != domain.RunStatusPending || enq.payloads[0].Source != SourceAPI {
				t.Errorf("unexpected response %+v / payload %+v", body.Data, enq.payloads[0])
			}
		})
	}
}

func TestCreateRun_Unavailable(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Post(srv.URL+"/api/v1/runs", "application/json", strings.NewReader(`{"workflow_path": "a.json"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}

	enq := &fakeEnqueuer{err: errors.New("broker down")}
	srv = newTestServer(t, Config{Enqueuer: enq})
	resp, err = http.Post(srv.URL+"/api/v1/runs", "application/json", strings.NewReader(`{"workflow_path": "a.json"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestRunsRead(t *testing.T) {
	run := domain.NewRun(&domain.Workflow{
		WorkflowName: "outbound",
		Steps:        []domain.StepSpec{{ID: "search", Agent: "ProspectSearchAgent"}},
	})
	run.MarkRunning()
	run.Steps[0].MarkCompleted(map[string]any{"leads": []any{}})
	run.Finish()

	runs := &fakeRuns{runs: map[uuid.UUID]*domain.Run{run.ID: run}}
	srv := newTestServer(t, Config{Runs: runs})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"get", "/api/v1/runs/" + run.ID.String(), http.StatusOK},
		{"outputs", "/api/v1/runs/" + run.ID.String() + "/outputs", http.StatusOK},
		{"unknown", "/api/v1/runs/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", "/api/v1/runs/not-a-uuid", http.StatusBadRequest},
		{"list", "/api/v1/runs?workflow=outbound&status=partial&limit=5", http.StatusOK},
		{"bad status", "/api/v1/runs?status=DONE", http.StatusBadRequest},
		{"bad limit", "/api/v1/runs?limit=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}

	last := runs.filters[len(runs.filters)-1]
	if last.WorkflowName != "outbound" || last.Status != domain.RunStatusPartial || last.Limit != 5 {
		t.Errorf("unexpected filter %+v", last)
	}
}

func TestRunOutputsDocument(t *testing.T) {
	run := domain.NewRun(&domain.Workflow{
		WorkflowName: "outbound",
		Steps:        []domain.StepSpec{{ID: "score", Agent: "ScoringAgent"}},
	})
	run.Steps[0].MarkFailed("leads must be a list")

	srv := newTestServer(t, Config{Runs: &fakeRuns{runs: map[uuid.UUID]*domain.Run{run.ID: run}}})

	resp, err := http.Get(srv.URL + "/api/v1/runs/" + run.ID.String() + "/outputs")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Data map[string]map[string]map[string]any `json:"data"`
	}
	decode(t, resp, &body)

	if body.Data["score"]["output"]["error"] != "leads must be a list" {
		t.Errorf("unexpected outputs %v", body.Data)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/v1/agents")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if _, err := uuid.Parse(resp.Header.Get(HeaderRequestID)); err != nil {
		t.Errorf("expected generated request id, got %q", resp.Header.Get(HeaderRequestID))
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/agents", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != "req-42" {
		t.Errorf("request id = %q, want req-42", got)
	}
}
