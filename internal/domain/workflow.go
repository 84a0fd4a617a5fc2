package domain

// Workflow — декларативное описание outreach-процесса.
//
// Workflow загружается из JSON/YAML документа и выполняется
// строго последовательно: шаг за шагом в объявленном порядке.
type Workflow struct {
	// WorkflowName — имя workflow (обязательное поле).
	WorkflowName string `json:"workflow_name" yaml:"workflow_name"`

	// Mode — произвольный тег режима ("mock", "live", ...). Не валидируется.
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Description — описание назначения workflow.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Steps — упорядоченный список шагов.
	Steps []StepSpec `json:"steps" yaml:"steps"`
}

// StepSpec — определение шага workflow.
type StepSpec struct {
	// ID — идентификатор шага. Под ним результат шага доступен
	// последующим шагам через {{step_id.output.field}}.
	ID string `json:"id" yaml:"id"`

	// Agent — имя агента, выполняющего шаг (см. AgentKind).
	Agent string `json:"agent" yaml:"agent"`

	// Inputs — входные данные шага. Строковые значения могут содержать
	// шаблонные ссылки {{...}} на результаты предыдущих шагов.
	Inputs map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// Instructions — текстовая подсказка для агента. Информационное поле.
	Instructions string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
}

// DefaultMode — режим, если в документе он не указан.
const DefaultMode = "mock"

// StepIDs возвращает ID шагов в объявленном порядке.
func (w *Workflow) StepIDs() []string {
	ids := make([]string, 0, len(w.Steps))
	for _, s := range w.Steps {
		ids = append(ids, s.ID)
	}
	return ids
}
