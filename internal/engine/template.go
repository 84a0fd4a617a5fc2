package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// tokenPattern — шаблонная ссылка {{dotted.path}}.
var tokenPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ResolveString подставляет значения из контекста вместо {{path}}.
//
// Токены разрешаются слева направо за один проход; подставленный
// текст повторно не разбирается. Если путь не найден, токен остаётся
// как есть:
//
//	ResolveString("x={{a.b}}", ctx)          // "x=5"
//	ResolveString("{{missing.path}}", ctx)   // "{{missing.path}}"
func ResolveString(s string, ctx *Context) string {
	// Быстрый путь: строка без шаблонов
	if !strings.Contains(s, "{{") {
		return s
	}

	return tokenPattern.ReplaceAllStringFunc(s, func(token string) string {
		inner := tokenPattern.FindStringSubmatch(token)[1]

		value, ok := ctx.Get(inner)
		if !ok {
			return token
		}
		return Stringify(value)
	})
}

// ResolveValue рекурсивно разрешает шаблоны во всех строках value.
// Отображения сохраняют набор ключей, последовательности — длину и порядок.
// Остальные скаляры возвращаются без изменений.
func ResolveValue(value any, ctx *Context) any {
	switch v := value.(type) {
	case string:
		return ResolveString(v, ctx)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = ResolveValue(val, ctx)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = ResolveValue(val, ctx)
		}
		return result

	case map[string]string:
		result := make(map[string]string, len(v))
		for key, val := range v {
			result[key] = ResolveString(val, ctx)
		}
		return result

	case []string:
		result := make([]string, len(v))
		for i, val := range v {
			result[i] = ResolveString(val, ctx)
		}
		return result

	default:
		return value
	}
}

// ResolveInputs разрешает входные данные шага.
//
// После подстановки строковые значения верхнего уровня, являющиеся
// валидным JSON, заменяются на разобранное значение: так ссылка
// "{{search.output.leads}}" превращается в настоящий список.
// Вложенные строки не разбираются.
func ResolveInputs(inputs map[string]any, ctx *Context) map[string]any {
	result := make(map[string]any, len(inputs))
	for key, raw := range inputs {
		resolved := ResolveValue(raw, ctx)

		if s, ok := resolved.(string); ok {
			if parsed, ok := parseJSON(s); ok {
				resolved = parsed
			}
		}
		result[key] = resolved
	}
	return result
}

// Stringify возвращает текстовое представление значения для подстановки.
//
// Отображения и последовательности — компактный JSON, строки — как есть,
// числа — в кратчайшей десятичной записи, null — "null".
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case map[string]any, []any:
		return encodeJSON(v)
	default:
		return fmt.Sprint(v)
	}
}

func encodeJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func parseJSON(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, false
	}

	var out any
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, false
	}
	return out, true
}
