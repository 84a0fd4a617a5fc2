package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/mq"
	"github.com/shaiso/Leadflow/internal/runner"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

const defaultPrefetch = 1

// Executor выполняет workflow. Реализуется *runner.Runner.
type Executor interface {
	Run(ctx context.Context, wf *domain.Workflow, opts runner.RunOptions) (*domain.Run, error)
}

// Worker выполняет runs из очереди runs.requested.
//
// Каждое сообщение — отдельный run со своим контекстом исполнения.
// Результат сохраняется и публикуется в runs.completed самим Runner.
// Несколько экземпляров могут потреблять одну очередь.
type Worker struct {
	executor    Executor
	conn        *mq.Connection
	workflowDir string
	prefetch    int

	logger     *slog.Logger
	consumer   *mq.Consumer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	// Executor — исполнитель workflow (обычно *runner.Runner).
	Executor Executor

	// Conn — соединение с RabbitMQ.
	Conn *mq.Connection

	// WorkflowDir — каталог, относительно которого разрешается workflow_path.
	WorkflowDir string

	// Prefetch — сколько runs выполняется одновременно (default: 1).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	workflowDir := cfg.WorkflowDir
	if workflowDir == "" {
		workflowDir = "."
	}

	return &Worker{
		executor:    cfg.Executor,
		conn:        cfg.Conn,
		workflowDir: workflowDir,
		prefetch:    prefetch,
		logger:      telemetry.OrDiscard(cfg.Logger).With("component", "worker"),
	}
}

// Start запускает потребление runs.requested в фоне.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    mq.QueueRunsRequested,
		Handler:  w.handleRunRequested,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("run consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started", "prefetch", w.prefetch, "workflow_dir", w.workflowDir)
	return nil
}

// Stop останавливает Worker и ждёт завершения текущего run.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}
