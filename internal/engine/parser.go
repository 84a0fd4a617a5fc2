package engine

import (
	"fmt"

	"github.com/shaiso/Leadflow/internal/domain"
)

// Validate выполняет полную валидацию Workflow.
//
// Проверяет:
// - Наличие workflow_name
// - Наличие шагов
// - Наличие и уникальность ID шагов
// - Наличие агента и его принадлежность к известному набору
//
// Имена агентов нормализуются на месте: "prospect_search" → "ProspectSearchAgent".
func Validate(wf *domain.Workflow) error {
	if wf == nil {
		return NewValidationError("", "steps", "workflow is empty", ErrEmptySteps)
	}

	if wf.WorkflowName == "" {
		return NewValidationError("", "workflow_name",
			"workflow_name is required", ErrMissingName)
	}

	if len(wf.Steps) == 0 {
		return NewValidationError("", "steps",
			"workflow has no steps", ErrEmptySteps)
	}

	stepIDs := make(map[string]bool, len(wf.Steps))

	for i := range wf.Steps {
		if err := ValidateStep(&wf.Steps[i], i, stepIDs); err != nil {
			return err
		}
	}

	return nil
}

// ValidateStep валидирует один шаг.
// stepIDs — уже встреченные ID шагов (для проверки уникальности).
func ValidateStep(step *domain.StepSpec, index int, stepIDs map[string]bool) error {
	// Проверка ID
	if step.ID == "" {
		return NewValidationError("", "id",
			fmt.Sprintf("step %d has empty ID", index), ErrEmptyStepID)
	}

	if step.ID == ConfigKey {
		return NewValidationError(step.ID, "id",
			fmt.Sprintf("step ID %q is reserved", step.ID), ErrReservedStepID)
	}

	// Проверка уникальности ID
	if stepIDs[step.ID] {
		return NewValidationError(step.ID, "id",
			fmt.Sprintf("duplicate step ID: %s", step.ID), ErrDuplicateStepID)
	}
	stepIDs[step.ID] = true

	// Проверка агента
	if step.Agent == "" {
		return NewValidationError(step.ID, "agent",
			"step has empty agent", ErrEmptyAgent)
	}

	kind, ok := domain.ParseAgentKind(step.Agent)
	if !ok {
		return NewValidationError(step.ID, "agent",
			fmt.Sprintf("unknown agent: %s", step.Agent), ErrUnknownAgent)
	}
	step.Agent = kind.String()

	return nil
}

// IsValidAgent проверяет, является ли имя агента допустимым.
func IsValidAgent(name string) bool {
	_, ok := domain.ParseAgentKind(name)
	return ok
}
