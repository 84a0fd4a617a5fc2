package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/Leadflow/internal/domain"
)

func newFinishedRun() *domain.Run {
	wf := &domain.Workflow{
		WorkflowName: "outbound",
		Steps: []domain.StepSpec{
			{ID: "search", Agent: string(domain.AgentProspectSearch)},
			{ID: "score", Agent: string(domain.AgentScoring)},
			{ID: "send", Agent: string(domain.AgentOutreachExecutor)},
		},
	}
	run := domain.NewRun(wf)
	run.MarkRunning()
	run.Steps[0].MarkRunning()
	run.Steps[0].MarkCompleted(map[string]any{"leads": []any{map[string]any{"company": "Acme SaaS"}}})
	run.Steps[1].MarkRunning()
	run.Steps[1].MarkFailed("leads must be a list")
	run.Finish()
	return run
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	s := NewFileStore(path)

	if err := s.Save(context.Background(), newFinishedRun()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(doc) != 2 {
		t.Fatalf("expected 2 steps in document, got %d: %v", len(doc), doc)
	}
	if _, ok := doc["send"]; ok {
		t.Error("pending step must not be written")
	}

	search := doc["search"].(map[string]any)["output"].(map[string]any)
	leads := search["leads"].([]any)
	if leads[0].(map[string]any)["company"] != "Acme SaaS" {
		t.Errorf("unexpected search output: %v", search)
	}

	score := doc["score"].(map[string]any)["output"].(map[string]any)
	if score["error"] != "leads must be a list" {
		t.Errorf("unexpected score output: %v", score)
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(path, []byte(`{"stale": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(path)
	if err := s.Save(context.Background(), newFinishedRun()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := doc["stale"]; ok {
		t.Error("stale content must be replaced")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := s.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "out.json")
	if err := NewFileStore(path).Save(ctx, newFinishedRun()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file must not be created")
	}
}

type saverFunc func(ctx context.Context, run *domain.Run) error

func (f saverFunc) Save(ctx context.Context, run *domain.Run) error { return f(ctx, run) }

func TestMulti_Save(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0

	m := Multi{
		saverFunc(func(context.Context, *domain.Run) error { calls++; return errBoom }),
		saverFunc(func(context.Context, *domain.Run) error { calls++; return nil }),
	}

	err := m.Save(context.Background(), newFinishedRun())
	if !errors.Is(err, errBoom) {
		t.Errorf("expected errBoom, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected both stores to be called, got %d", calls)
	}
}

func TestRunFilter_Limit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultListLimit},
		{-1, DefaultListLimit},
		{10, 10},
	}
	for _, tt := range tests {
		if got := (RunFilter{Limit: tt.limit}).limit(); got != tt.want {
			t.Errorf("limit(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}
