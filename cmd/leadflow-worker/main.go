// Leadflow Worker — выполняет workflows из очереди runs.requested.
//
// Worker:
//   - Получает запросы на запуск из RabbitMQ
//   - Выполняет шаги workflow последовательно
//   - Сохраняет результат в PostgreSQL
//   - Публикует run.completed
//
// Если задан LEADFLOW_SCHEDULE, в том же процессе работает планировщик,
// который ставит LEADFLOW_SCHEDULE_WORKFLOW в очередь по cron.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Leadflow/internal/agents"
	"github.com/shaiso/Leadflow/internal/config"
	"github.com/shaiso/Leadflow/internal/mq"
	"github.com/shaiso/Leadflow/internal/runner"
	"github.com/shaiso/Leadflow/internal/scheduler"
	"github.com/shaiso/Leadflow/internal/store"
	"github.com/shaiso/Leadflow/internal/telemetry"
	"github.com/shaiso/Leadflow/internal/worker"
)

func main() {
	cfg := config.FromEnv()
	logger := telemetry.NewLogger(os.Stderr, cfg.Log)
	logger.Info("starting leadflow-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	// DB pool
	pool, err := store.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	runStore := store.NewPostgresStore(pool)
	if err := runStore.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}
	publisher := mq.NewPublisher(mqConn, logger)
	logger.Info("RabbitMQ connected")

	// Runner
	wfRunner := runner.New(runner.Config{
		Registry:  agents.DefaultRegistry(agents.OptionsFromConfig(cfg, logger, metrics)),
		Store:     runStore,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	})

	// Worker
	w := worker.New(worker.Config{
		Executor:    wfRunner,
		Conn:        mqConn,
		WorkflowDir: cfg.WorkflowDir,
		Logger:      logger,
	})
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// Scheduler
	var sched *scheduler.Scheduler
	if cfg.Schedule != "" {
		sched = scheduler.New(scheduler.Config{
			Enqueuer:    publisher,
			WorkflowDir: cfg.WorkflowDir,
			Logger:      logger,
		})
		err := sched.Add(scheduler.Entry{
			CronExpr:     cfg.Schedule,
			WorkflowPath: cfg.ScheduleWorkflow,
		})
		if err != nil {
			logger.Error("invalid schedule", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("rabbitmq disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + cfg.WorkerPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	w.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("leadflow-worker stopped")
}
