package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError — ошибка, возвращённая сервисом генерации.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("llm api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("llm api error %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited возвращает true для ошибок лимита запросов и исчерпанной квоты.
// Такие ошибки не имеет смысла повторять.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	if apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}

	switch apiErr.Code {
	case "rate_limit_exceeded", "insufficient_quota":
		return true
	}
	return apiErr.Type == "insufficient_quota"
}
