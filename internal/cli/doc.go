// Package cli реализует инструмент командной строки leadflow.
//
// Локальные команды выполняются в процессе:
//   - run      — выполнить workflow и записать итоговый документ
//   - validate — проверить workflow-файлы
//   - agents   — список агентов
//
// Группа runs работает с сервером через HTTP API и не импортирует
// internal/api: submit, list, show, outputs.
//
// Данные выводятся в stdout (таблица через text/tabwriter или JSON с флагом
// --json), сообщения — в stderr. Это позволяет использовать pipe:
//
//	leadflow run -w workflows/outbound.json --json | jq '.score.output'
//
// Команды создаются фабриками (NewRunCmd и т.д.), которые принимают
// замыкания envFn/clientFn/outputFn: Env, Client и Output создаются лениво,
// после парсинга PersistentFlags.
package cli
