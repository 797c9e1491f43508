package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Dispatcher maps job types to registered handlers and normalizes handler
// outcomes into store updates. It performs no retries of its own; any
// retrying is internal to a handler.
type Dispatcher struct {
	store  Store
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewDispatcher(store Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		logger:   logger,
		handlers: map[string]HandlerFunc{},
	}
}

// Register binds a handler to a job type. Handlers are registered once at
// startup, before the worker starts claiming.
func (d *Dispatcher) Register(jobType string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[jobType] = h
}

// Dispatch runs the handler for a claimed job and writes the terminal state.
// The returned error reports store failures only; a handler failure is
// captured in the job's error field and is not an error here.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) error {
	d.mu.RLock()
	handler, ok := d.handlers[job.Type]
	d.mu.RUnlock()

	if !ok {
		d.logger.Warn("no handler registered",
			slog.String("job_id", job.ID.String()),
			slog.String("job_type", job.Type),
		)
		return d.store.Fail(ctx, job.ID, fmt.Sprintf("unknown job type: %s", job.Type))
	}

	result, err := invoke(ctx, handler, job.Payload)
	if err != nil {
		d.logger.Error("job failed",
			slog.String("job_id", job.ID.String()),
			slog.String("job_type", job.Type),
			slog.Int("attempts", job.Attempts),
			slog.String("error", err.Error()),
		)
		return d.store.Fail(ctx, job.ID, err.Error())
	}

	d.logger.Info("job completed",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type),
	)
	return d.store.Complete(ctx, job.ID, result)
}

// invoke shields the dispatcher from panicking handlers: a panic is reported
// as a handler failure so the job still reaches a terminal state.
func invoke(ctx context.Context, h HandlerFunc, payload json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, payload)
}
