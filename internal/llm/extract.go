package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// objectPattern — первый фрагмент от '{' до последней '}'.
var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON разбирает ответ модели как JSON-объект.
//
// Если весь текст не является JSON, пробует фрагмент между первой '{'
// и последней '}' (модель часто оборачивает JSON в пояснения или
// markdown). Возвращает false, если объект не найден.
func ExtractJSON(raw string) (map[string]any, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err == nil && out != nil {
		return out, true
	}

	match := objectPattern.FindString(raw)
	if match == "" {
		return nil, false
	}

	out = nil
	if err := json.Unmarshal([]byte(match), &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}
