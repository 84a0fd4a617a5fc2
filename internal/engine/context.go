package engine

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shaiso/Leadflow/internal/domain"
)

// ConfigKey — ключ, под которым в контексте лежит сам workflow.
const ConfigKey = "config"

// Context — контекст выполнения run.
//
// Содержит workflow под ключом "config" и результаты выполненных
// шагов под их ID:
//
//	{
//	  "config": {...workflow...},
//	  "search": {"output": {"leads": [...]}},
//	}
//
// Значения хранятся в JSON-нормализованном виде (map[string]any, []any,
// float64, string, bool, nil), поэтому после записи они не разделяют
// память с результатами агентов.
//
// Context принадлежит одному run и не защищён от конкурентного доступа.
type Context struct {
	values map[string]any
}

// NewContext создаёт контекст, засеянный workflow под ключом "config".
// wf может быть nil — тогда контекст пустой.
func NewContext(wf *domain.Workflow) *Context {
	c := &Context{values: make(map[string]any)}
	if wf != nil {
		c.Set(ConfigKey, wf)
	}
	return c
}

// Set записывает значение в контекст под ключом key.
func (c *Context) Set(key string, value any) {
	c.values[key] = normalize(value)
}

// AddStepResult записывает результат шага: {stepID: {"output": output}}.
func (c *Context) AddStepResult(stepID string, output map[string]any) {
	c.Set(stepID, map[string]any{"output": output})
}

// StepOutput возвращает записанный результат шага.
func (c *Context) StepOutput(stepID string) (map[string]any, bool) {
	v, ok := Lookup(c.values[stepID], []string{"output"})
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Get возвращает значение по точечному пути ("score.output.ranked_leads.0").
func (c *Context) Get(path string) (any, bool) {
	return Lookup(c.values, splitPath(path))
}

// Snapshot возвращает копию верхнего уровня контекста.
func (c *Context) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Lookup проходит по value по сегментам пути.
//
// Числовой сегмент — индекс, если текущий узел последовательность;
// иначе любой сегмент — ключ отображения. Функция тотальна: при
// отсутствии ключа, выходе за границы или несовпадении типов
// возвращает (nil, false).
func Lookup(value any, path []string) (any, bool) {
	cur := value
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next

		case []any:
			idx, ok := parseIndex(seg)
			if !ok || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]

		default:
			return nil, false
		}
	}
	return cur, true
}

func splitPath(path string) []string {
	return strings.Split(strings.TrimSpace(path), ".")
}

// parseIndex принимает только неотрицательные десятичные индексы.
func parseIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// normalize приводит значение к JSON-виду через round-trip.
// Значения, которые не сериализуются, сохраняются как есть.
func normalize(value any) any {
	data, err := json.Marshal(value)
	if err != nil {
		return value
	}

	var out any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&out); err != nil {
		return value
	}
	return out
}
