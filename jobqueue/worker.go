package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime/debug"
	"sync/atomic"
	"time"
)

type WorkerConfig struct {
	// PollInterval is the tick interval between claim attempts.
	PollInterval time.Duration
}

func (c *WorkerConfig) setDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
}

// Worker is a single-flight polling loop: each tick claims at most one job
// and runs it to a terminal state before the next claim. If a tick fires
// while the previous one is still processing, it is a no-op. Exclusivity
// across worker processes comes from the store's atomic claim, not from this
// guard.
type Worker struct {
	store      Store
	dispatcher *Dispatcher
	cfg        WorkerConfig
	logger     *slog.Logger

	busy atomic.Bool
}

func NewWorker(store Store, dispatcher *Dispatcher, cfg WorkerConfig, logger *slog.Logger) *Worker {
	cfg.setDefaults()
	return &Worker{
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run polls until ctx is canceled. A misbehaving job never terminates the
// loop: dispatch defects are recovered, logged and the loop continues.
func (w *Worker) Run(ctx context.Context) {
	// Small startup jitter so sibling workers don't poll in lockstep.
	j := time.Duration(rand.Int63n(int64(w.cfg.PollInterval/2) + 1))
	select {
	case <-ctx.Done():
		return
	case <-time.After(j):
	}

	w.logger.Info("worker started", slog.Duration("poll_interval", w.cfg.PollInterval))

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick claims and processes at most one job. It returns immediately when a
// previous tick is still running.
func (w *Worker) tick(ctx context.Context) {
	if !w.busy.CompareAndSwap(false, true) {
		return
	}
	defer w.busy.Store(false)

	if err := w.processOne(ctx); err != nil && !errors.Is(err, ErrNoJob) {
		w.logger.Error("tick failed", slog.String("error", err.Error()))
	}
}

// Drain claims and processes jobs until the queue is empty or ctx is
// canceled. Used by tests and by drain-then-exit tooling.
func (w *Worker) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.processOne(ctx)
		if errors.Is(err, ErrNoJob) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (w *Worker) processOne(ctx context.Context) (err error) {
	// A panic in dispatch plumbing (or a handler) must not crash the process
	// or leave the busy guard stuck.
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic while processing job",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("panic while processing job: %v", r)
		}
	}()

	job, err := w.store.ClaimNext(ctx)
	if err != nil {
		return err
	}

	w.logger.Debug("claimed job",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type),
		slog.Int("attempts", job.Attempts),
	)

	return w.dispatcher.Dispatch(ctx, job)
}
