// Package runner выполняет workflow.
//
// Runner проходит шаги по порядку, разрешает шаблоны входных данных
// через engine, создаёт агентов из agents.Registry и записывает результат
// каждого шага в контекст. Упавший шаг получает {"error": "..."};
// последующие шаги выполняются как обычно.
//
// Жизненный цикл шага: PENDING → RUNNING → COMPLETED | FAILED.
// Run завершается статусом SUCCEEDED или PARTIAL.
package runner
