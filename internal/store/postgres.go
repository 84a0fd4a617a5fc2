package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Leadflow/internal/domain"
)

// schema — таблицы runs и run_steps. Итоговый документ хранится в runs.outputs.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id            UUID PRIMARY KEY,
		workflow_name TEXT NOT NULL,
		mode          TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		outputs       JSONB NOT NULL DEFAULT '{}'::jsonb,
		started_at    TIMESTAMPTZ,
		finished_at   TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS run_steps (
		run_id      UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position    INT NOT NULL,
		step_id     TEXT NOT NULL,
		agent       TEXT NOT NULL,
		status      TEXT NOT NULL,
		output      JSONB,
		error       TEXT,
		started_at  TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS runs_created_at_idx ON runs (created_at DESC)`,
}

// PostgresStore — хранилище runs в PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт новый PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema создаёт таблицы, если их ещё нет.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Save сохраняет run и его шаги. Повторный Save того же run перезаписывает строки.
func (s *PostgresStore) Save(ctx context.Context, run *domain.Run) error {
	outputsJSON, err := json.Marshal(run.Outputs())
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO runs (id, workflow_name, mode, status, outputs, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    outputs = EXCLUDED.outputs,
		    started_at = EXCLUDED.started_at,
		    finished_at = EXCLUDED.finished_at
	`
	_, err = tx.Exec(ctx, query,
		run.ID,
		run.WorkflowName,
		run.Mode,
		string(run.Status),
		outputsJSON,
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM run_steps WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("delete steps: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range run.Steps {
		step := &run.Steps[i]
		var outputJSON []byte
		if step.Output != nil {
			if outputJSON, err = json.Marshal(step.Output); err != nil {
				return fmt.Errorf("marshal output of step %s: %w", step.StepID, err)
			}
		}
		batch.Queue(`
			INSERT INTO run_steps (run_id, position, step_id, agent, status, output, error, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			run.ID,
			i,
			step.StepID,
			step.Agent,
			string(step.Status),
			outputJSON,
			nullString(step.Error),
			step.StartedAt,
			step.FinishedAt,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert steps: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID вместе с шагами.
func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, workflow_name, mode, status, started_at, finished_at, created_at
		FROM runs
		WHERE id = $1
	`
	run, err := scanRun(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	steps, err := s.listSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Steps = steps
	return run, nil
}

// Outputs возвращает итоговый документ run.
func (s *PostgresStore) Outputs(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	var outputsJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT outputs FROM runs WHERE id = $1`, id).Scan(&outputsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select outputs: %w", err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal(outputsJSON, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal outputs: %w", err)
	}
	return doc, nil
}

// List возвращает список runs (без шагов) с фильтрацией.
func (s *PostgresStore) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := `
		SELECT id, workflow_name, mode, status, started_at, finished_at, created_at
		FROM runs
		WHERE ($1::text IS NULL OR workflow_name = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := s.pool.Query(ctx, query,
		nullString(filter.WorkflowName),
		nullString(string(filter.Status)),
		filter.limit(),
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) listSteps(ctx context.Context, runID uuid.UUID) ([]domain.StepRun, error) {
	query := `
		SELECT step_id, agent, status, output, error, started_at, finished_at
		FROM run_steps
		WHERE run_id = $1
		ORDER BY position
	`
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.StepRun
	for rows.Next() {
		var step domain.StepRun
		var status string
		var outputJSON []byte
		var stepError *string

		err := rows.Scan(
			&step.StepID,
			&step.Agent,
			&status,
			&outputJSON,
			&stepError,
			&step.StartedAt,
			&step.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}

		step.Status = domain.StepStatus(status)
		if outputJSON != nil {
			if err := json.Unmarshal(outputJSON, &step.Output); err != nil {
				return nil, fmt.Errorf("unmarshal step output: %w", err)
			}
		}
		if stepError != nil {
			step.Error = *stepError
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// --- Helpers ---

// DefaultListLimit — лимит List, если он не задан.
const DefaultListLimit = 50

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	WorkflowName string
	Status       domain.RunStatus
	Limit        int
	Offset       int
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// scanRun сканирует одну строку в Run. pgx.Rows тоже реализует pgx.Row.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var status string

	err := row.Scan(
		&run.ID,
		&run.WorkflowName,
		&run.Mode,
		&status,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
