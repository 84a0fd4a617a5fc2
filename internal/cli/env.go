package cli

import (
	"log/slog"

	"github.com/shaiso/Leadflow/internal/config"
)

// Env — окружение локальных команд: конфигурация и логгер.
// Создаётся в main после парсинга флагов.
type Env struct {
	Config config.Config
	Logger *slog.Logger
}
