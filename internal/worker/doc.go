// Package worker выполняет runs, поставленные в очередь.
//
// Worker потребляет runs.requested, находит workflow (встроенный в сообщение
// или файл относительно WorkflowDir) и выполняет его через runner.Runner.
// Сохранение результата и событие run.completed остаются на Runner.
//
//	w := worker.New(worker.Config{
//	    Executor:    runner.New(runnerCfg),
//	    Conn:        conn,
//	    WorkflowDir: "workflows",
//	    Logger:      logger,
//	})
//	w.Start(ctx)
//	defer w.Stop()
//
// Разбор ошибок:
//   - workflow не найден или невалиден — сообщение в DLQ сразу
//   - сбой сохранения — одна повторная доставка, затем DLQ
//   - сбой публикации run.completed — только предупреждение в логе
package worker
