package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

func TestPolicy_Backoff(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseBackoff: time.Second, JitterFraction: 0.5}
	rnd := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		attempt int
		floor   time.Duration
	}{
		{attempt: 1, floor: time.Second},
		{attempt: 2, floor: 2 * time.Second},
		{attempt: 3, floor: 4 * time.Second},
	}

	for _, tt := range tests {
		for i := 0; i < 50; i++ {
			wait := p.Backoff(tt.attempt, rnd)
			if wait < tt.floor {
				t.Fatalf("attempt %d: wait %v below floor %v", tt.attempt, wait, tt.floor)
			}
			if upper := tt.floor + tt.floor/2; wait > upper {
				t.Fatalf("attempt %d: wait %v above %v", tt.attempt, wait, upper)
			}
		}
	}
}

func TestPolicy_Floor(t *testing.T) {
	p := Policy{BaseBackoff: time.Second}

	if got := p.Floor(2); got != 2*time.Second {
		t.Errorf("expected 2s, got %v", got)
	}
	if got := p.Floor(0); got != time.Second {
		t.Errorf("expected attempt <1 to be treated as 1, got %v", got)
	}
}

// recordSleep возвращает SleepFunc, запоминающую задержки без ожидания.
func recordSleep(waits *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	var waits []time.Duration
	calls := 0

	err := Do(context.Background(), DefaultPolicy(), func(_ context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("temporary")
		}
		return nil
	}, Options{Sleep: recordSleep(&waits), Rand: rand.New(rand.NewPCG(3, 4))})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(waits) != 2 {
		t.Fatalf("expected 2 waits, got %d", len(waits))
	}
	if waits[1] < 2*time.Second {
		t.Errorf("second wait %v below 2s floor", waits[1])
	}
}

func TestDo_Exhausted(t *testing.T) {
	var waits []time.Duration
	calls := 0
	boom := errors.New("boom")

	err := Do(context.Background(), DefaultPolicy(), func(context.Context, int) error {
		calls++
		return boom
	}, Options{Sleep: recordSleep(&waits)})

	if !errors.Is(err, ErrExhausted) || !errors.Is(err, boom) {
		t.Errorf("expected ErrExhausted wrapping boom, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	// После последней попытки не ждём
	if len(waits) != 2 {
		t.Errorf("expected 2 waits, got %d", len(waits))
	}
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	var waits []time.Duration
	calls := 0
	quota := errors.New("insufficient_quota")

	err := Do(context.Background(), DefaultPolicy(), func(context.Context, int) error {
		calls++
		return quota
	}, Options{
		Sleep:   recordSleep(&waits),
		IsFatal: func(err error) bool { return errors.Is(err, quota) },
	})

	if !errors.Is(err, ErrFatal) || !errors.Is(err, quota) {
		t.Errorf("expected ErrFatal wrapping quota, got %v", err)
	}
	if calls != 1 {
		t.Errorf("fatal error must not trigger a second attempt, got %d calls", calls)
	}
	if len(waits) != 0 {
		t.Errorf("expected no waits, got %v", waits)
	}
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, BaseBackoff: time.Hour}
	err := Do(ctx, p, func(context.Context, int) error {
		return errors.New("temporary")
	}, Options{})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDo_OnRetry(t *testing.T) {
	var attempts []int

	_ = Do(context.Background(), Policy{MaxAttempts: 2, BaseBackoff: time.Millisecond},
		func(context.Context, int) error { return errors.New("x") },
		Options{
			Sleep:   func(context.Context, time.Duration) error { return nil },
			OnRetry: func(attempt int, _ time.Duration, _ error) { attempts = append(attempts, attempt) },
		})

	if len(attempts) != 1 || attempts[0] != 1 {
		t.Errorf("expected OnRetry for attempt 1 only, got %v", attempts)
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
