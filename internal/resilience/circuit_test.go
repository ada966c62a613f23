package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errUpstream = NewTransientError(errors.New("upstream 503"), 503)

func failN(cb *CircuitBreaker, n int, err error) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error { return err })
	}
}

func TestCircuitBreaker_ClosedPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	var calls int
	err := cb.Execute(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || cb.State() != CircuitClosed {
		t.Errorf("got %d calls in state %s", calls, cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "brightdata", FailureThreshold: 3, ResetTimeout: time.Minute})
	failN(cb, 3, errUpstream)

	if cb.State() != CircuitOpen {
		t.Fatalf("expected open after 3 failures, got %s", cb.State())
	}

	err := cb.Execute(context.Background(), func(_ context.Context) error {
		t.Error("should not be called while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_PermanentErrorsDoNotTrip(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})
	failN(cb, 5, errors.New("HTTP 404: profile not found"))

	if failures, state := cb.Counters(); failures != 0 || state != CircuitClosed {
		t.Errorf("expected closed with no failures, got %d in %s", failures, state)
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})
	failN(cb, 2, errUpstream)
	if failures, _ := cb.Counters(); failures != 2 {
		t.Fatalf("expected 2 failures, got %d", failures)
	}

	_ = cb.Execute(context.Background(), func(_ context.Context) error { return nil })
	if failures, _ := cb.Counters(); failures != 0 {
		t.Errorf("expected 0 failures after success, got %d", failures)
	}
}

func TestCircuitBreaker_HalfOpenTrialCall(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: 100 * time.Millisecond})
	cb.nowFunc = func() time.Time { return now }
	failN(cb, 2, errUpstream)

	cb.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", cb.State())
	}

	if err := cb.Execute(context.Background(), func(_ context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after a successful trial call, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: 100 * time.Millisecond})
	cb.nowFunc = func() time.Time { return now }
	failN(cb, 2, errUpstream)

	now = now.Add(200 * time.Millisecond)
	failN(cb, 1, errUpstream)

	failures, state := cb.Counters()
	if state != CircuitOpen {
		t.Errorf("expected open after a failed trial call, got %s", state)
	}
	if failures != 3 {
		t.Errorf("expected 3 failures, got %d", failures)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions [][2]CircuitState
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, [2]CircuitState{from, to})
		},
	})
	failN(cb, 3, errUpstream)

	if len(transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(transitions))
	}
	if transitions[0] != [2]CircuitState{CircuitClosed, CircuitOpen} {
		t.Errorf("expected closed→open, got %s→%s", transitions[0][0], transitions[0][1])
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cb.Execute(context.Background(), func(_ context.Context) error {
				if i%2 == 0 {
					return errUpstream
				}
				return nil
			})
			_ = cb.State()
		}(i)
	}
	wg.Wait()
}

func TestProviderBreakerConfig(t *testing.T) {
	cfg := ProviderBreakerConfig("brightdata", 0, 0)
	cb := NewCircuitBreaker(cfg)
	if cb.cfg.FailureThreshold != 5 || cb.cfg.ResetTimeout != 30*time.Second {
		t.Errorf("expected defaults, got %d/%v", cb.cfg.FailureThreshold, cb.cfg.ResetTimeout)
	}
	if cfg.OnStateChange == nil {
		t.Error("expected a logging state change hook")
	}

	cfg = ProviderBreakerConfig("brightdata", 3, 10)
	if cfg.FailureThreshold != 3 || cfg.ResetTimeout != 10*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestCircuitState_String(t *testing.T) {
	for state, want := range map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(42): "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d: got %q, want %q", state, got, want)
		}
	}
}
