package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/mq"
	"github.com/shaiso/Leadflow/internal/store"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

// RunReader — чтение сохранённых runs. Реализуется *store.PostgresStore.
type RunReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter store.RunFilter) ([]domain.Run, error)
	Outputs(ctx context.Context, id uuid.UUID) (map[string]any, error)
}

// Enqueuer ставит run в очередь. Реализуется *mq.Publisher.
type Enqueuer interface {
	PublishRunRequested(ctx context.Context, payload mq.RunRequestedPayload) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	runs     RunReader
	enqueuer Enqueuer
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	// Runs — хранилище runs. nil — эндпоинты чтения отвечают 503.
	Runs RunReader

	// Enqueuer — очередь запусков. nil — POST /runs отвечает 503.
	Enqueuer Enqueuer

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		runs:     cfg.Runs,
		enqueuer: cfg.Enqueuer,
		logger:   telemetry.OrDiscard(cfg.Logger),
	}
}
