package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Leadflow/internal/engine"
)

// NewRunsCmd создаёт группу команд для runs на сервере (через API).
func NewRunsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage runs on the API server",
	}

	cmd.AddCommand(
		newRunsSubmitCmd(clientFn, outputFn),
		newRunsListCmd(clientFn, outputFn),
		newRunsShowCmd(clientFn, outputFn),
		newRunsOutputsCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunsSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var remotePath string

	cmd := &cobra.Command{
		Use:   "submit [FILE]",
		Short: "Queue a run for a local workflow file or a file on the worker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (remotePath != "") {
				return fmt.Errorf("specify either FILE or --path")
			}

			req := SubmitRunRequest{WorkflowPath: remotePath}
			if len(args) == 1 {
				// Локальная проверка; YAML уходит на сервер как JSON
				wf, err := engine.LoadFile(args[0])
				if err != nil {
					return err
				}
				if req.Workflow, err = json.Marshal(wf); err != nil {
					return fmt.Errorf("marshal workflow: %w", err)
				}
			}

			resp, err := clientFn().SubmitRun(req)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success("Run queued: " + resp.RunID)
			out.Print(
				[]string{"RUN_ID", "STATUS", "WORKFLOW"},
				[][]string{{resp.RunID, resp.Status, resp.WorkflowName + resp.WorkflowPath}},
				resp,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&remotePath, "path", "", "Workflow file relative to the worker workflow directory")
	return cmd
}

func newRunsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListRunsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := clientFn().ListRuns(opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "WORKFLOW", "STATUS", "DURATION_MS", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.WorkflowName, r.Status, strconv.FormatInt(r.DurationMs, 10), r.CreatedAt}
			}

			outputFn().Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Workflow, "workflow", "", "Filter by workflow name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, PARTIAL)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newRunsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show run steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := clientFn().GetRun(args[0])
			if err != nil {
				return err
			}

			out := outputFn()
			headers := []string{"STEP", "AGENT", "STATUS", "ERROR"}
			rows := make([][]string, len(run.Steps))
			for i, s := range run.Steps {
				rows[i] = []string{s.StepID, s.Agent, s.Status, truncate(s.Error, 60)}
			}
			out.Print(headers, rows, run)

			if !out.JSONMode() {
				out.Success(fmt.Sprintf("Run %s (%s): %s", run.ID, run.WorkflowName, run.Status))
			}
			return nil
		},
	}
}

func newRunsOutputsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs RUN_ID",
		Short: "Print the result document of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputs, err := clientFn().GetRunOutputs(args[0])
			if err != nil {
				return err
			}

			// Документ не табличный — всегда JSON
			outputFn().JSON(outputs)
			return nil
		},
	}
}
