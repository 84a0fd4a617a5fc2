package engine

import (
	"reflect"
	"testing"

	"github.com/shaiso/Leadflow/internal/domain"
)

func newTestContext(values map[string]any) *Context {
	ctx := NewContext(nil)
	for k, v := range values {
		ctx.Set(k, v)
	}
	return ctx
}

func TestNewContext(t *testing.T) {
	// С nil workflow
	ctx := NewContext(nil)
	if len(ctx.Snapshot()) != 0 {
		t.Error("context should be empty")
	}

	// С workflow
	wf := &domain.Workflow{WorkflowName: "outbound", Mode: "mock"}
	ctx = NewContext(wf)

	name, ok := ctx.Get("config.workflow_name")
	if !ok || name != "outbound" {
		t.Errorf("expected config.workflow_name=outbound, got %v (ok=%v)", name, ok)
	}
}

func TestContext_AddStepResult(t *testing.T) {
	ctx := NewContext(nil)

	output := map[string]any{"leads": []map[string]any{{"company": "Acme SaaS"}}}
	ctx.AddStepResult("search", output)

	company, ok := ctx.Get("search.output.leads.0.company")
	if !ok || company != "Acme SaaS" {
		t.Errorf("expected Acme SaaS, got %v (ok=%v)", company, ok)
	}

	// Изменение исходного результата не влияет на контекст
	output["leads"] = nil
	if _, ok := ctx.Get("search.output.leads.0"); !ok {
		t.Error("context should keep its own copy of the output")
	}
}

func TestLookup(t *testing.T) {
	root := map[string]any{
		"a": map[string]any{
			"list": []any{"x", map[string]any{"k": "v"}},
			"7":    "seven",
		},
		"s": "scalar",
	}

	tests := []struct {
		name   string
		path   []string
		want   any
		wantOK bool
	}{
		{name: "key", path: []string{"s"}, want: "scalar", wantOK: true},
		{name: "index", path: []string{"a", "list", "0"}, want: "x", wantOK: true},
		{name: "index then key", path: []string{"a", "list", "1", "k"}, want: "v", wantOK: true},
		{name: "numeric key in map", path: []string{"a", "7"}, want: "seven", wantOK: true},
		{name: "missing key", path: []string{"missing"}, wantOK: false},
		{name: "index out of range", path: []string{"a", "list", "5"}, wantOK: false},
		{name: "negative index", path: []string{"a", "list", "-1"}, wantOK: false},
		{name: "non-numeric index", path: []string{"a", "list", "first"}, wantOK: false},
		{name: "descend into scalar", path: []string{"s", "x"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(root, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolveString(t *testing.T) {
	ctx := newTestContext(map[string]any{
		"a": map[string]any{"b": 5, "f": 2.5, "ok": true, "none": nil},
		"search": map[string]any{
			"output": map[string]any{
				"leads": []any{
					map[string]any{"company": "Acme SaaS"},
				},
			},
		},
		"tags": []string{"x", "y"},
	})

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{name: "no token", template: "plain text", expected: "plain text"},
		{name: "integer", template: "x={{a.b}}", expected: "x=5"},
		{name: "float", template: "{{a.f}}", expected: "2.5"},
		{name: "bool", template: "{{a.ok}}", expected: "true"},
		{name: "null", template: "{{a.none}}", expected: "null"},
		{name: "spaces trimmed", template: "{{ a.b }}", expected: "5"},
		{name: "indexed path", template: "Hi {{search.output.leads.0.company}}", expected: "Hi Acme SaaS"},
		{name: "structured value", template: "{{tags}}", expected: `["x","y"]`},
		{name: "missing path", template: "{{missing.path}}", expected: "{{missing.path}}"},
		{name: "mixed tokens", template: "{{a.b}}-{{nope}}-{{a.b}}", expected: "5-{{nope}}-5"},
		{name: "unterminated", template: "{{a.b", expected: "{{a.b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ResolveString(tt.template, ctx)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestResolveString_NoRecursion(t *testing.T) {
	ctx := newTestContext(map[string]any{
		"a": "{{b}}",
		"b": "deep",
	})

	result := ResolveString("{{a}}", ctx)
	if result != "{{b}}" {
		t.Errorf("substituted text must not be resolved again, got %q", result)
	}
}

func TestResolveString_EmptyContext(t *testing.T) {
	result := ResolveString("{{missing.path}}", NewContext(nil))
	if result != "{{missing.path}}" {
		t.Errorf("expected token to stay verbatim, got %q", result)
	}
}

func TestResolveValue_Map(t *testing.T) {
	ctx := newTestContext(map[string]any{"a": map[string]any{"b": 5}})

	input := map[string]any{
		"plain":  "text",
		"ref":    "{{a.b}}",
		"number": 42,
		"nested": map[string]any{"inner": "v={{a.b}}"},
	}

	result, ok := ResolveValue(input, ctx).(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", result)
	}

	if len(result) != len(input) {
		t.Fatalf("expected %d keys, got %d", len(input), len(result))
	}
	if result["ref"] != "5" {
		t.Errorf("expected ref=5, got %v", result["ref"])
	}
	if result["number"] != 42 {
		t.Errorf("non-string scalars must pass through, got %v", result["number"])
	}
	nested := result["nested"].(map[string]any)
	if nested["inner"] != "v=5" {
		t.Errorf("expected nested inner=v=5, got %v", nested["inner"])
	}
}

func TestResolveValue_Slice(t *testing.T) {
	ctx := newTestContext(map[string]any{"a": map[string]any{"b": 5}})

	input := []any{"{{a.b}}", 1, "x", []string{"{{a.b}}"}}
	result, ok := ResolveValue(input, ctx).([]any)
	if !ok {
		t.Fatalf("expected slice, got %T", result)
	}

	if len(result) != len(input) {
		t.Fatalf("expected length %d, got %d", len(input), len(result))
	}
	if result[0] != "5" || result[1] != 1 || result[2] != "x" {
		t.Errorf("unexpected result: %v", result)
	}
	if inner := result[3].([]string); inner[0] != "5" {
		t.Errorf("expected typed slice to be resolved, got %v", inner)
	}
}

func TestResolveInputs_ParsesTopLevelJSON(t *testing.T) {
	ctx := newTestContext(map[string]any{
		"search": map[string]any{
			"output": map[string]any{
				"leads": []any{
					map[string]any{"company": "Acme SaaS"},
					map[string]any{"company": "PulseSoft"},
				},
			},
		},
	})

	inputs := map[string]any{
		"leads":   "{{search.output.leads}}",
		"persona": "SDR",
		"nested":  map[string]any{"leads": "{{search.output.leads}}"},
		"count":   "3",
		"broken":  "{{missing}}",
	}

	resolved := ResolveInputs(inputs, ctx)

	leads, ok := resolved["leads"].([]any)
	if !ok || len(leads) != 2 {
		t.Fatalf("expected leads to be parsed into a list of 2, got %#v", resolved["leads"])
	}
	if resolved["persona"] != "SDR" {
		t.Errorf("plain string must stay a string, got %v", resolved["persona"])
	}
	if resolved["count"] != float64(3) {
		t.Errorf("numeric JSON text should be parsed, got %#v", resolved["count"])
	}
	if resolved["broken"] != "{{missing}}" {
		t.Errorf("unresolved token must stay, got %v", resolved["broken"])
	}

	// Вложенные строки не разбираются
	nested := resolved["nested"].(map[string]any)
	if _, ok := nested["leads"].(string); !ok {
		t.Errorf("nested value must stay a string, got %T", nested["leads"])
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{nil, "null"},
		{"text", "text"},
		{true, "true"},
		{float64(5), "5"},
		{1.25, "1.25"},
		{7, "7"},
		{map[string]any{"b": 1, "a": "<x>"}, `{"a":"<x>","b":1}`},
		{[]any{}, "[]"},
	}

	for _, tt := range tests {
		if got := Stringify(tt.value); got != tt.expected {
			t.Errorf("Stringify(%#v) = %q, expected %q", tt.value, got, tt.expected)
		}
	}
}
