package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCaller(t *testing.T, cfg CallerConfig, b *Breaker) (*Caller, *[]time.Duration) {
	t.Helper()

	c := NewCaller(cfg, b, nil, slog.New(slog.DiscardHandler))
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestCaller_DelayBounds(t *testing.T) {
	cfg := CallerConfig{
		InitialDelay:      1000 * time.Millisecond,
		MaxDelay:          10000 * time.Millisecond,
		BackoffMultiplier: 2,
		JitterPct:         0.2,
	}

	for _, r := range []float64{0, 0.25, 0.5, 0.75, 1} {
		c := NewCaller(cfg, nil, nil, slog.New(slog.DiscardHandler))
		c.randF = func() float64 { return r }

		for k := 0; k <= 10; k++ {
			base := float64(1000*time.Millisecond) * pow2(k)
			if base > float64(10000*time.Millisecond) {
				base = float64(10000 * time.Millisecond)
			}

			d := c.delay(k)
			tol := float64(time.Millisecond)
			assert.GreaterOrEqual(t, float64(d), 0.8*base-tol, "attempt %d rand %v", k, r)
			assert.LessOrEqual(t, float64(d), 1.2*base+tol, "attempt %d rand %v", k, r)
			assert.LessOrEqual(t, float64(d), 1.2*float64(10000*time.Millisecond)+tol)
		}
	}
}

func pow2(k int) float64 {
	f := 1.0
	for i := 0; i < k; i++ {
		f *= 2
	}
	return f
}

func TestCaller_RetriesTransientThenSucceeds(t *testing.T) {
	c, slept := newTestCaller(t, CallerConfig{MaxRetries: 3}, nil)

	calls := 0
	err := c.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return StatusError{Code: 503}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2)
}

func TestCaller_SurfacesLastErrorAfterMaxRetries(t *testing.T) {
	c, slept := newTestCaller(t, CallerConfig{MaxRetries: 2}, nil)

	calls := 0
	wantErr := StatusError{Code: 429, Msg: "rate limited"}
	err := c.Do(context.Background(), func(context.Context) error {
		calls++
		return wantErr
	})

	require.Error(t, err)
	var se StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 429, se.Code)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
	assert.Len(t, *slept, 2, "no sleep after the final attempt")
}

func TestCaller_DoesNotRetryNonRetryable(t *testing.T) {
	c, slept := newTestCaller(t, CallerConfig{MaxRetries: 5}, nil)

	calls := 0
	err := c.Do(context.Background(), func(context.Context) error {
		calls++
		return StatusError{Code: 400, Msg: "bad request"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestCaller_CircuitOpenFailsFast(t *testing.T) {
	b := NewBreaker("dep", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute}, slog.New(slog.DiscardHandler))
	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())

	c, _ := newTestCaller(t, CallerConfig{MaxRetries: 3}, b)

	calls := 0
	err := c.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls, "the underlying operation must not be attempted")
}

func TestCaller_EachAttemptFeedsTheBreaker(t *testing.T) {
	b := NewBreaker("dep", BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute}, slog.New(slog.DiscardHandler))
	c, _ := newTestCaller(t, CallerConfig{MaxRetries: 5}, b)

	calls := 0
	err := c.Do(context.Background(), func(context.Context) error {
		calls++
		return StatusError{Code: 500}
	})

	// The third failed attempt opens the breaker, so the fourth attempt is
	// rejected without running the operation.
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, calls)
}

func TestCaller_TimeoutCountsAsFailure(t *testing.T) {
	b := NewBreaker("dep", BreakerConfig{FailureThreshold: 10, ResetTimeout: time.Minute}, slog.New(slog.DiscardHandler))
	c, slept := newTestCaller(t, CallerConfig{Timeout: 10 * time.Millisecond, MaxRetries: 1}, b)

	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, calls, "a timed-out attempt is retried")
	assert.Len(t, *slept, 1)
}

func TestCaller_ContextCancelStopsRetries(t *testing.T) {
	c := NewCaller(CallerConfig{MaxRetries: 5, InitialDelay: time.Hour}, nil, nil, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := c.Do(ctx, func(context.Context) error {
		return Retryable(fmt.Errorf("flaky"))
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", StatusError{Code: 429}, true},
		{"server error", StatusError{Code: 502}, true},
		{"client error", StatusError{Code: 404}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"explicit retryable", Retryable(errors.New("x")), true},
		{"explicit permanent", Permanent(StatusError{Code: 500}), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
