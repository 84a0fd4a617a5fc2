package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Leadflow/internal/agents"
	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/engine"
	"github.com/shaiso/Leadflow/internal/runner"
	"github.com/shaiso/Leadflow/internal/store"
)

// NewRunCmd создаёт команду локального запуска workflow.
func NewRunCmd(envFn func() *Env, outputFn func() *Output) *cobra.Command {
	var workflowPath string
	var mode string
	var outputPath string
	var noSave bool
	var useDB bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workflow locally",
		Long: `Run executes every step of the workflow in order and writes the result
document {step_id: {"output": ...}} to the output file.

A failing step does not stop the run: its output becomes {"error": "..."}
and the run finishes as PARTIAL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			out := outputFn()
			ctx := cmd.Context()

			wf, err := engine.LoadFile(workflowPath)
			if err != nil {
				return err
			}
			if mode != "" {
				wf.Mode = mode
			}

			if !cmd.Flags().Changed("output") {
				outputPath = env.Config.OutputPath
			}

			var savers store.Multi
			if !noSave {
				savers = append(savers, store.NewFileStore(outputPath))
			}
			if useDB {
				pool, err := store.NewPool(ctx, env.Config.DBURL)
				if err != nil {
					return fmt.Errorf("connect to database: %w", err)
				}
				defer pool.Close()

				pg := store.NewPostgresStore(pool)
				if err := pg.EnsureSchema(ctx); err != nil {
					return err
				}
				savers = append(savers, pg)
			}

			cfg := runner.Config{
				Registry: agents.DefaultRegistry(agents.OptionsFromConfig(env.Config, env.Logger, nil)),
				Logger:   env.Logger,
			}
			if len(savers) > 0 {
				cfg.Store = savers
			}

			run, err := runner.New(cfg).Run(ctx, wf, runner.RunOptions{})
			if run == nil {
				return err
			}

			printRun(out, run)
			if err != nil {
				return err
			}

			if !noSave {
				out.Success("Saved outputs to " + outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workflowPath, "workflow", "w", "", "Workflow definition file (JSON or YAML)")
	cmd.Flags().StringVar(&mode, "mode", "", "Override workflow mode")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default $LEADFLOW_OUTPUT or demo_output.json)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not write the output file")
	cmd.Flags().BoolVar(&useDB, "db", false, "Also save the run to PostgreSQL ($DB_URL)")
	cmd.MarkFlagRequired("workflow")

	return cmd
}

// printRun выводит шаги run (или итоговый документ в JSON-режиме) и сводку.
func printRun(out *Output, run *domain.Run) {
	headers := []string{"STEP", "AGENT", "STATUS", "DURATION", "ERROR"}
	rows := make([][]string, len(run.Steps))
	for i, s := range run.Steps {
		duration := ""
		if s.StartedAt != nil && s.FinishedAt != nil {
			duration = s.FinishedAt.Sub(*s.StartedAt).Round(time.Millisecond).String()
		}
		rows[i] = []string{s.StepID, s.Agent, string(s.Status), duration, truncate(s.Error, 60)}
	}

	out.Print(headers, rows, run.Outputs())

	out.Success(fmt.Sprintf("Run %s finished: %s (%d of %d steps failed)",
		run.ID, run.Status, run.FailedSteps(), len(run.Steps)))
}
