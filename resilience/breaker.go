package resilience

import (
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures in CLOSED that
	// opens the breaker.
	FailureThreshold int
	// SuccessThreshold is the number of consecutive successes in HALF_OPEN
	// that closes it again.
	SuccessThreshold int
	// ResetTimeout is how long the breaker stays OPEN before the next call
	// is let through as a trial.
	ResetTimeout time.Duration
}

func (c *BreakerConfig) setDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
}

// Breaker is a per-dependency failure gate. One instance is created per
// protected dependency at process start and lives for the process lifetime.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	logger *slog.Logger

	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	lastFailure  time.Time

	now func() time.Time
}

func NewBreaker(name string, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		logger: logger,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Allow reports whether a call may proceed. While OPEN it returns
// ErrCircuitOpen until ResetTimeout has elapsed since the last failure, at
// which point the breaker moves to HALF_OPEN and the call is let through as
// a trial.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailure) < b.cfg.ResetTimeout {
			return ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
		return nil
	default:
		return nil
	}
}

// RecordSuccess feeds a successful call into the state machine.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failureCount = 0
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}

// RecordFailure feeds a failed call into the state machine.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		// A single failed trial reopens immediately.
		b.transition(StateOpen)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// transition changes state and resets the counters. Callers hold b.mu.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	b.logger.Warn("circuit breaker state change",
		slog.String("breaker", b.name),
		slog.String("from", b.state.String()),
		slog.String("to", to.String()),
	)
	b.state = to
	b.failureCount = 0
	b.successCount = 0
}
