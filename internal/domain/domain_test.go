package domain

import "testing"

func TestAgentKind_Slug(t *testing.T) {
	tests := []struct {
		kind AgentKind
		slug string
	}{
		{AgentProspectSearch, "prospect_search"},
		{AgentDataEnrichment, "data_enrichment"},
		{AgentScoring, "scoring"},
		{AgentOutreachContent, "outreach_content"},
		{AgentFeedbackTrainer, "feedback_trainer"},
	}

	for _, tt := range tests {
		if got := tt.kind.Slug(); got != tt.slug {
			t.Errorf("%s.Slug() = %q, expected %q", tt.kind, got, tt.slug)
		}
	}
}

func TestParseAgentKind(t *testing.T) {
	tests := []struct {
		name   string
		want   AgentKind
		wantOK bool
	}{
		{"ProspectSearchAgent", AgentProspectSearch, true},
		{"prospect_search", AgentProspectSearch, true},
		{"response_tracker_agent", AgentResponseTracker, true},
		{" ScoringAgent ", AgentScoring, true},
		{"unknown", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseAgentKind(tt.name)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseAgentKind(%q) = (%q, %v), expected (%q, %v)",
				tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRun_Lifecycle(t *testing.T) {
	wf := &Workflow{
		WorkflowName: "outbound",
		Steps: []StepSpec{
			{ID: "search", Agent: "ProspectSearchAgent"},
			{ID: "score", Agent: "ScoringAgent"},
		},
	}

	run := NewRun(wf)
	if run.Status != RunStatusPending {
		t.Fatalf("expected PENDING, got %s", run.Status)
	}
	if len(run.Steps) != 2 || run.Steps[1].Status != StepStatusPending {
		t.Fatalf("unexpected steps: %+v", run.Steps)
	}

	run.MarkRunning()
	run.Steps[0].MarkRunning()
	run.Steps[0].MarkCompleted(map[string]any{"leads": []any{}})

	// Незавершённый шаг не попадает в итоговый документ
	if _, ok := run.Outputs()["score"]; ok {
		t.Error("pending step must not appear in outputs")
	}

	run.Steps[1].MarkRunning()
	run.Steps[1].MarkFailed("boom")
	run.Finish()

	if run.Status != RunStatusPartial {
		t.Errorf("expected PARTIAL, got %s", run.Status)
	}
	if run.FailedSteps() != 1 {
		t.Errorf("expected 1 failed step, got %d", run.FailedSteps())
	}

	doc := run.Outputs()
	score := doc["score"].(map[string]any)["output"].(map[string]any)
	if score["error"] != "boom" {
		t.Errorf("expected error output, got %v", score)
	}
	if run.Duration() < 0 {
		t.Error("duration must not be negative")
	}
}

func TestRun_FinishSucceeded(t *testing.T) {
	run := NewRun(&Workflow{WorkflowName: "x", Steps: []StepSpec{{ID: "a"}}})
	run.MarkRunning()
	run.Steps[0].MarkCompleted(map[string]any{})
	run.Finish()

	if run.Status != RunStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", run.Status)
	}
	if !run.IsFinished() {
		t.Error("run should be finished")
	}
}
