package engine

import "errors"

// Ошибки загрузки workflow.
var (
	// ErrNotFound — источник workflow не найден.
	ErrNotFound = errors.New("workflow not found")

	// ErrMalformedDefinition — документ не разбирается или поля имеют неверный тип.
	ErrMalformedDefinition = errors.New("malformed workflow definition")
)

// Ошибки валидации Workflow.
var (
	// ErrMissingName — не указан workflow_name.
	ErrMissingName = errors.New("workflow has no name")

	// ErrEmptySteps — workflow не содержит шагов.
	ErrEmptySteps = errors.New("workflow has no steps")

	// ErrEmptyStepID — шаг не имеет ID.
	ErrEmptyStepID = errors.New("step has empty ID")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")

	// ErrReservedStepID — ID шага совпадает с зарезервированным ключом контекста.
	ErrReservedStepID = errors.New("reserved step ID")

	// ErrEmptyAgent — шаг не указывает агента.
	ErrEmptyAgent = errors.New("step has empty agent")

	// ErrUnknownAgent — неизвестный агент.
	ErrUnknownAgent = errors.New("unknown agent")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	StepID  string // ID шага, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StepID != "" {
		return "step " + e.StepID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stepID, field, message string, err error) *ValidationError {
	return &ValidationError{
		StepID:  stepID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
