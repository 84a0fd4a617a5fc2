package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const jsonWorkflow = `{
  "workflow_name": "outbound",
  "description": "search and rank",
  "steps": [
    {"id": "search", "agent": "ProspectSearchAgent", "inputs": {"signals": ["recent_funding"]}},
    {"id": "score", "agent": "scoring", "inputs": {"leads": "{{search.output.leads}}"}}
  ]
}`

const yamlWorkflow = `
workflow_name: outbound
description: search and rank
steps:
  - id: search
    agent: ProspectSearchAgent
    inputs:
      signals: [recent_funding]
  - id: score
    agent: scoring
    inputs:
      leads: "{{search.output.leads}}"
`

func TestParse_JSONAndYAML(t *testing.T) {
	for name, doc := range map[string]string{"json": jsonWorkflow, "yaml": yamlWorkflow} {
		t.Run(name, func(t *testing.T) {
			wf, err := Parse([]byte(doc))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if wf.WorkflowName != "outbound" {
				t.Errorf("expected outbound, got %s", wf.WorkflowName)
			}
			if wf.Mode != "mock" {
				t.Errorf("expected default mode mock, got %s", wf.Mode)
			}
			if len(wf.Steps) != 2 {
				t.Fatalf("expected 2 steps, got %d", len(wf.Steps))
			}
			if wf.Steps[1].Agent != "ScoringAgent" {
				t.Errorf("expected agent to be normalized, got %s", wf.Steps[1].Agent)
			}
			if wf.Steps[1].Inputs["leads"] != "{{search.output.leads}}" {
				t.Errorf("unexpected inputs: %v", wf.Steps[1].Inputs)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: "   "},
		{name: "broken json", doc: `{"workflow_name": `},
		{name: "mistyped steps", doc: `{"workflow_name": "x", "steps": "search"}`},
		{name: "broken yaml", doc: "steps: [\n  - id: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T (%v)", err, err)
			}
			if !errors.Is(err, ErrMalformedDefinition) {
				t.Errorf("expected ErrMalformedDefinition, got %v", err)
			}
		})
	}
}

func TestParse_ValidationFailure(t *testing.T) {
	_, err := Parse([]byte(`{"workflow_name": "x", "steps": []}`))
	if !errors.Is(err, ErrEmptySteps) {
		t.Errorf("expected ErrEmptySteps, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outbound.yaml")
	if err := os.WriteFile(path, []byte(yamlWorkflow), 0o644); err != nil {
		t.Fatal(err)
	}

	wf, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.WorkflowName != "outbound" {
		t.Errorf("expected outbound, got %s", wf.WorkflowName)
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadReader(t *testing.T) {
	wf, err := LoadReader(strings.NewReader(jsonWorkflow))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.Steps[0].ID != "search" {
		t.Errorf("expected first step search, got %s", wf.Steps[0].ID)
	}
}

func TestLoadFile_BundledWorkflows(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "workflows", "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Skip("no bundled workflows")
	}

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			wf, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if len(wf.Steps) == 0 {
				t.Error("workflow has no steps")
			}
		})
	}
}
