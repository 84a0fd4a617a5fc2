package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LoggerOptions{Level: slog.LevelInfo})

	WithStepID(logger, "score", "ScoringAgent").Info("step completed", "count", 4)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
	if entry["step_id"] != "score" || entry["agent"] != "ScoringAgent" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewLogger_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LoggerOptions{Level: slog.LevelWarn, Format: "text"})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFromContext(t *testing.T) {
	logger := DiscardLogger()
	ctx := WithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) == nil {
		t.Error("expected fallback logger")
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveStep("ScoringAgent", "COMPLETED", 10*time.Millisecond)
	m.ObserveRun("outbound", "SUCCEEDED")
	m.ObserveLLMAttempt("rate_limited")
	m.ObserveFallback("no_client")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	counts := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				counts[f.GetName()] += c.GetValue()
			}
		}
	}

	for _, name := range []string{
		"leadflow_steps_total",
		"leadflow_runs_total",
		"leadflow_llm_attempts_total",
		"leadflow_content_fallbacks_total",
	} {
		if counts[name] != 1 {
			t.Errorf("expected %s=1, got %v", name, counts[name])
		}
	}

	// nil Metrics безопасен
	var nilMetrics *Metrics
	nilMetrics.ObserveStep("x", "y", time.Second)
}
