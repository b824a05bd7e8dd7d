package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/presenter/internal/dispatch"
)

var errTarget = errors.New("target down")

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func fail(context.Context) error    { return errTarget }
func succeed(context.Context) error { return nil }

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := dispatch.NewBreaker("hook", dispatch.BreakerConfig{MaxFailures: 3, ResetTimeout: time.Hour})

	for range 2 {
		_ = b.Do(ctx, fail)
	}
	if b.State() != dispatch.BreakerClosed {
		t.Fatalf("state = %v, want closed after 2 failures", b.State())
	}
	_ = b.Do(ctx, fail)
	if b.State() != dispatch.BreakerOpen {
		t.Fatalf("state = %v, want open after 3 failures", b.State())
	}

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, dispatch.ErrBreakerOpen) {
		t.Errorf("Do err = %v, want ErrBreakerOpen", err)
	}
	if called {
		t.Error("fn called while open")
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := dispatch.NewBreaker("hook", dispatch.BreakerConfig{MaxFailures: 2})

	_ = b.Do(ctx, fail)
	_ = b.Do(ctx, succeed)
	_ = b.Do(ctx, fail)
	if b.State() != dispatch.BreakerClosed {
		t.Errorf("state = %v, want closed (failures were not consecutive)", b.State())
	}
}

func TestBreaker_HalfOpenTrial(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := newClock()
	b := dispatch.NewBreaker("hook", dispatch.BreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute, Now: clk.Now})

	_ = b.Do(ctx, fail)
	if b.State() != dispatch.BreakerOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	clk.Advance(time.Minute)
	if b.State() != dispatch.BreakerHalfOpen {
		t.Fatalf("state = %v, want half-open after reset timeout", b.State())
	}

	// A failed trial call re-opens immediately.
	if err := b.Do(ctx, fail); !errors.Is(err, errTarget) {
		t.Fatalf("trial err = %v, want target error", err)
	}
	if b.State() != dispatch.BreakerOpen {
		t.Fatalf("state = %v, want open after failed trial call", b.State())
	}

	clk.Advance(time.Minute)
	if err := b.Do(ctx, succeed); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if b.State() != dispatch.BreakerClosed {
		t.Errorf("state = %v, want closed after successful trial call", b.State())
	}
}

func TestBreaker_SingleTrialAtATime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := newClock()
	b := dispatch.NewBreaker("hook", dispatch.BreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute, Now: clk.Now})
	_ = b.Do(ctx, fail)
	clk.Advance(time.Minute)

	inTrial := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- b.Do(ctx, func(context.Context) error {
			close(inTrial)
			<-release
			return nil
		})
	}()
	<-inTrial

	if err := b.Do(ctx, succeed); !errors.Is(err, dispatch.ErrBreakerOpen) {
		t.Errorf("concurrent trial err = %v, want ErrBreakerOpen", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if b.State() != dispatch.BreakerClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreaker_CallerCancellationNotCounted(t *testing.T) {
	t.Parallel()

	b := dispatch.NewBreaker("hook", dispatch.BreakerConfig{MaxFailures: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	if b.State() != dispatch.BreakerClosed {
		t.Errorf("state = %v, want closed after caller cancellation", b.State())
	}
}

func TestBreakerState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		s    dispatch.BreakerState
		want string
	}{
		{dispatch.BreakerClosed, "closed"},
		{dispatch.BreakerOpen, "open"},
		{dispatch.BreakerHalfOpen, "half-open"},
		{dispatch.BreakerState(42), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.s.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", tc.s, got, tc.want)
		}
	}
}
