package runner

import "errors"

// Ошибки runner.
var (
	// ErrInvalidWorkflow — workflow не прошёл валидацию. Ни один шаг не выполнялся.
	ErrInvalidWorkflow = errors.New("invalid workflow")

	// ErrAgentPanic — агент завершился паникой.
	ErrAgentPanic = errors.New("agent panicked")

	// ErrSave — не удалось сохранить результат run.
	ErrSave = errors.New("save run")

	// ErrPublish — не удалось опубликовать run.completed.
	ErrPublish = errors.New("publish run.completed")
)

// ImportErrorPrefix — префикс ошибки шага, для агента которого нет реализации.
const ImportErrorPrefix = "import_error: "
