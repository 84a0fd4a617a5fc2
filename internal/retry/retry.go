// Package retry реализует повтор вызовов с экспоненциальным backoff и jitter.
//
// Задержка после неудачной попытки n:
//
//	backoff = base * 2^(n-1)
//	wait    = backoff + uniform(0, JitterFraction * backoff)
//
// Ошибки, помеченные как фатальные (например, исчерпанная квота),
// прерывают повторы сразу.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

var (
	// ErrExhausted — все попытки исчерпаны.
	ErrExhausted = errors.New("retry attempts exhausted")

	// ErrFatal — ошибка, после которой повторять бессмысленно.
	ErrFatal = errors.New("fatal error, retry aborted")
)

// DefaultJitterFraction — доля backoff, до которой добавляется случайный jitter.
const DefaultJitterFraction = 0.5

// Policy — политика повторных попыток.
type Policy struct {
	// MaxAttempts — максимальное количество попыток (включая первую).
	MaxAttempts int

	// BaseBackoff — задержка после первой неудачной попытки (без jitter).
	BaseBackoff time.Duration

	// JitterFraction — верхняя граница jitter как доля backoff.
	JitterFraction float64
}

// DefaultPolicy возвращает политику: 3 попытки, base 1s, jitter 50%.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseBackoff:    time.Second,
		JitterFraction: DefaultJitterFraction,
	}
}

// Floor возвращает задержку без jitter после неудачной попытки attempt (с 1).
func (p Policy) Floor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.BaseBackoff) * math.Pow(2, float64(attempt-1)))
}

// Backoff вычисляет задержку после неудачной попытки attempt.
// rnd может быть nil — тогда используется глобальный источник.
func (p Policy) Backoff(attempt int, rnd *rand.Rand) time.Duration {
	floor := float64(p.Floor(attempt))

	var u float64
	if rnd != nil {
		u = rnd.Float64()
	} else {
		u = rand.Float64()
	}

	return time.Duration(floor + u*p.JitterFraction*floor)
}

// SleepFunc — ожидание с учётом отмены контекста.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep ждёт d или отмены ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Options — дополнительные параметры Do.
type Options struct {
	// IsFatal сообщает, что ошибку повторять нельзя. nil — все ошибки временные.
	IsFatal func(error) bool

	// Sleep — функция ожидания. По умолчанию Sleep.
	Sleep SleepFunc

	// Rand — источник случайности для jitter.
	Rand *rand.Rand

	// OnRetry вызывается перед ожиданием очередной попытки.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Do вызывает fn до p.MaxAttempts раз.
//
// Между попытками ждёт p.Backoff; после последней попытки не ждёт.
// Возвращает nil при первом успехе. Иначе возвращает последнюю ошибку,
// обёрнутую в ErrFatal или ErrExhausted. Отмена ctx во время ожидания
// возвращает ctx.Err().
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error, opts Options) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if opts.IsFatal != nil && opts.IsFatal(lastErr) {
			return fmt.Errorf("%w: %w", ErrFatal, lastErr)
		}

		if attempt == maxAttempts {
			break
		}

		wait := p.Backoff(attempt, opts.Rand)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, wait, lastErr)
		}

		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry wait: %w", err)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, lastErr)
}
