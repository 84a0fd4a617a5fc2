package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shaiso/Leadflow/internal/domain"
	"github.com/shaiso/Leadflow/internal/engine"
	"github.com/shaiso/Leadflow/internal/mq"
	"github.com/shaiso/Leadflow/internal/runner"
	"github.com/shaiso/Leadflow/internal/telemetry"
)

// handleRunRequested обрабатывает сообщение из runs.requested.
//
// Ошибки workflow (не найден, невалиден) постоянные — сообщение уходит в DLQ.
// Сбой сохранения возвращается как обычная ошибка и даёт одну повторную доставку.
func (w *Worker) handleRunRequested(ctx context.Context, msg *mq.Message) error {
	payload, err := mq.ParsePayload[mq.RunRequestedPayload](msg)
	if err != nil {
		return mq.Permanent(err)
	}
	return w.process(ctx, payload)
}

// process выполняет один запрос на run.
func (w *Worker) process(ctx context.Context, payload mq.RunRequestedPayload) error {
	logger := telemetry.WithRunID(w.logger, payload.RunID.String())

	wf, err := w.resolveWorkflow(payload)
	if err != nil {
		logger.Error("failed to resolve workflow", "error", err, "workflow_path", payload.WorkflowPath)
		return mq.Permanent(err)
	}

	logger.Info("run requested", "workflow", wf.WorkflowName, "source", payload.Source)

	run, err := w.executor.Run(ctx, wf, runner.RunOptions{RunID: payload.RunID})
	switch {
	case err == nil:
	case errors.Is(err, runner.ErrInvalidWorkflow):
		return mq.Permanent(err)
	case errors.Is(err, runner.ErrSave):
		return err
	default:
		// run выполнен и сохранён, потеряно только событие
		logger.Warn("run completed with errors", "error", err)
	}

	if run != nil {
		logger.Info("run processed", "status", run.Status, "failed_steps", run.FailedSteps())
	}
	return nil
}

// resolveWorkflow возвращает workflow из запроса: встроенный или из файла.
func (w *Worker) resolveWorkflow(payload mq.RunRequestedPayload) (*domain.Workflow, error) {
	if payload.Workflow != nil {
		return payload.Workflow, nil
	}
	if payload.WorkflowPath == "" {
		return nil, ErrNoWorkflow
	}

	path, err := w.workflowPath(payload.WorkflowPath)
	if err != nil {
		return nil, err
	}
	return engine.LoadFile(path)
}

// workflowPath разрешает относительный путь внутри workflowDir.
func (w *Worker) workflowPath(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrWorkflowPath, rel)
	}

	path := filepath.Join(w.workflowDir, rel)
	back, err := filepath.Rel(w.workflowDir, path)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrWorkflowPath, rel)
	}
	return path, nil
}
