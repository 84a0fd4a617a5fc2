// Package engine содержит движок разбора и подстановки workflow.
//
// Включает:
//   - loader.go   — загрузка workflow из JSON/YAML
//   - parser.go   — валидация workflow и нормализация имён агентов
//   - context.go  — контекст выполнения run и Lookup по точечному пути
//   - template.go — подстановка ссылок {{step.output.field}}
//
// Engine не выполняет шаги: порядок и изоляция ошибок — забота runner.
package engine
