package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

// Ошибки агентов.
var (
	// ErrAgentNotFound — для агента не зарегистрирована реализация.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrInvalidInput — входные данные шага имеют неверную форму.
	ErrInvalidInput = errors.New("invalid agent input")
)

// Agent — единица работы шага workflow.
//
// Агент получает только свои разрешённые входные данные и не видит
// контекст выполнения. Результат — JSON-совместимое отображение.
type Agent interface {
	// Kind возвращает вид агента.
	Kind() domain.AgentKind

	// Run выполняет агента. Блокирующие операции должны учитывать ctx.Done().
	Run(ctx context.Context, req *Request) (*Response, error)
}

// Request — входные данные для выполнения агента.
type Request struct {
	// StepID — идентификатор шага.
	StepID string

	// Inputs — входные данные, уже разрешённые через engine.ResolveInputs.
	Inputs map[string]any

	// Instructions — текстовая подсказка из workflow (информационная).
	Instructions string

	// Logger — логгер шага. nil — записи отбрасываются.
	Logger *slog.Logger
}

// Response — результат выполнения агента.
type Response struct {
	// Outputs — именованные результаты ("leads", "ranked_leads", ...).
	Outputs map[string]any
}

// NewResponse создаёт новый Response с outputs.
func NewResponse(outputs map[string]any) *Response {
	if outputs == nil {
		outputs = make(map[string]any)
	}
	return &Response{Outputs: outputs}
}

func (r *Request) logger() *slog.Logger {
	return telemetry.OrDiscard(r.Logger)
}

// GetInputString извлекает строковое значение. def — если ключа нет или он пустой.
func GetInputString(inputs map[string]any, key, def string) string {
	if v, ok := inputs[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// GetInputInt извлекает числовое значение.
func GetInputInt(inputs map[string]any, key string, def int) int {
	if v, ok := inputs[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

// GetInputMap извлекает отображение. Отсутствующий ключ — пустое отображение.
func GetInputMap(inputs map[string]any, key string) (map[string]any, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be an object, got %T", ErrInvalidInput, key, v)
	}
	return m, nil
}

// GetInputStrings извлекает список строк. Отсутствующий ключ — def.
func GetInputStrings(inputs map[string]any, key string, def []string) ([]string, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return def, nil
	}

	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a string, got %T", ErrInvalidInput, key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q must be a list, got %T", ErrInvalidInput, key, v)
	}
}

// GetInputRecords извлекает список объектов (лиды, письма).
// Отсутствующий ключ — пустой список. Каждый объект копируется,
// поэтому агент может дополнять записи, не затрагивая входные данные.
func GetInputRecords(inputs map[string]any, key string) ([]map[string]any, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return []map[string]any{}, nil
	}

	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []map[string]any:
		items = make([]any, len(list))
		for i, m := range list {
			items[i] = m
		}
	default:
		return nil, fmt.Errorf("%w: %q must be a list, got %T", ErrInvalidInput, key, v)
	}

	records := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be an object, got %T", ErrInvalidInput, key, i, item)
		}
		record := make(map[string]any, len(m)+3)
		for k, val := range m {
			record[k] = val
		}
		records = append(records, record)
	}
	return records, nil
}

// recordString возвращает строковое поле записи или "".
func recordString(record map[string]any, key string) string {
	if s, ok := record[key].(string); ok {
		return s
	}
	return ""
}

// recordList возвращает элементы поля-списка как строки.
func recordList(record map[string]any, key string) []string {
	switch list := record[key].(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}
