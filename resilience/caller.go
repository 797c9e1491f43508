package resilience

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

type CallerConfig struct {
	// Timeout bounds each individual attempt. A timed-out attempt counts as
	// a failure for both retry and breaker accounting.
	Timeout time.Duration
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// JitterPct perturbs each delay by ±pct (0.2 = ±20%).
	JitterPct float64
}

func (c *CallerConfig) setDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = 2
	}
	if c.JitterPct < 0 {
		c.JitterPct = 0
	}
}

// Caller wraps a single logical external call with a per-attempt timeout,
// retry with exponential backoff and jitter, optional rate limiting, and
// circuit-breaker gating. Only classified-retryable failures are retried;
// see IsRetryable.
type Caller struct {
	cfg     CallerConfig
	breaker *Breaker
	limiter *rate.Limiter
	logger  *slog.Logger

	// test seams
	sleep func(ctx context.Context, d time.Duration) error
	randF func() float64
}

// NewCaller builds a Caller. breaker and limiter may be nil to disable
// gating and rate limiting respectively.
func NewCaller(cfg CallerConfig, breaker *Breaker, limiter *rate.Limiter, logger *slog.Logger) *Caller {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Caller{
		cfg:     cfg,
		breaker: breaker,
		limiter: limiter,
		logger:  logger,
		sleep:   sleepCtx,
		randF:   rand.Float64,
	}
}

// Do executes op, retrying transient failures until success, a
// non-retryable error, an open circuit, exhausted retries or ctx
// cancellation. Each attempt consults and updates the same breaker instance.
func (c *Caller) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.breaker != nil {
			if err := c.breaker.Allow(); err != nil {
				return err
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		err := op(attemptCtx)
		cancel()

		if err == nil {
			if c.breaker != nil {
				c.breaker.RecordSuccess()
			}
			return nil
		}

		if c.breaker != nil {
			c.breaker.RecordFailure()
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt == c.cfg.MaxRetries {
			break
		}

		delay := c.delay(attempt)
		c.logger.Warn("retrying after transient failure",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// delay computes min(initial * multiplier^attempt, max) perturbed by
// ±JitterPct and floored at zero. attempt is 0-indexed.
func (c *Caller) delay(attempt int) time.Duration {
	base := float64(c.cfg.InitialDelay) * math.Pow(c.cfg.BackoffMultiplier, float64(attempt))
	if base > float64(c.cfg.MaxDelay) {
		base = float64(c.cfg.MaxDelay)
	}

	// jitter in [-pct, +pct]
	j := 1 + c.cfg.JitterPct*(2*c.randF()-1)
	d := time.Duration(base * j)
	if d < 0 {
		d = 0
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
