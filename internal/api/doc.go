// Package api реализует HTTP API leadflow.
//
// Маршруты:
//
//	GET  /api/v1/agents              — закрытый набор агентов
//	POST /api/v1/workflows/validate  — проверка workflow (JSON или YAML)
//	POST /api/v1/runs                — постановка run в очередь (202)
//	GET  /api/v1/runs                — список runs
//	GET  /api/v1/runs/{id}           — run с шагами
//	GET  /api/v1/runs/{id}/outputs   — итоговый документ run
//
// Ответы завёрнуты в {"data": ...}, ошибки — в {"error": {"code", "message"}}.
package api
