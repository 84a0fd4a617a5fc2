// Package scheduler запускает workflows по cron-расписанию.
//
// Scheduler не выполняет workflow сам: на каждом срабатывании он
// публикует run.requested, а выполняет run worker.
//
// Формат расписания — стандартный cron из 5 полей или дескриптор:
//
//	"0 9 * * 1-5"  — по будням в 9:00
//	"@every 30m"   — каждые 30 минут
package scheduler
