package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Leadflow/internal/engine"
)

// validateResult — результат проверки одного файла.
type validateResult struct {
	File         string `json:"file"`
	Valid        bool   `json:"valid"`
	WorkflowName string `json:"workflow_name,omitempty"`
	Steps        int    `json:"steps,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NewValidateCmd создаёт команду проверки workflow-файлов.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate workflow definitions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			results := make([]validateResult, len(args))
			invalid := 0
			for i, path := range args {
				res := validateResult{File: path}
				wf, err := engine.LoadFile(path)
				if err != nil {
					res.Error = err.Error()
					invalid++
				} else {
					res.Valid = true
					res.WorkflowName = wf.WorkflowName
					res.Steps = len(wf.Steps)
				}
				results[i] = res
			}

			headers := []string{"FILE", "WORKFLOW", "STEPS", "RESULT"}
			rows := make([][]string, len(results))
			for i, r := range results {
				result := "ok"
				if !r.Valid {
					result = r.Error
				}
				rows[i] = []string{r.File, r.WorkflowName, strconv.Itoa(r.Steps), result}
			}
			out.Print(headers, rows, results)

			if invalid > 0 {
				return fmt.Errorf("%d of %d workflows are invalid", invalid, len(args))
			}
			return nil
		},
	}
}
