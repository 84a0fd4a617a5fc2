// Leadflow CLI — локальный запуск workflows и управление runs через HTTP API.
//
// Использование:
//
//	leadflow [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	run       Выполнить workflow локально
//	validate  Проверить workflow-файлы
//	agents    Список агентов
//	runs      Runs на сервере (submit, list, show, outputs)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Leadflow/internal/cli"
	"github.com/shaiso/Leadflow/internal/config"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "leadflow",
		Short:         "Leadflow CLI — lead outreach workflow runner",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	envFn := func() *cli.Env {
		cfg := config.FromEnv()
		return &cli.Env{
			Config: cfg,
			Logger: telemetry.NewLogger(os.Stderr, cfg.Log),
		}
	}
	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRunCmd(envFn, outputFn),
		cli.NewValidateCmd(outputFn),
		cli.NewAgentsCmd(outputFn),
		cli.NewRunsCmd(clientFn, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
