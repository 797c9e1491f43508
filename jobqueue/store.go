package jobqueue

import (
	"context"

	"github.com/google/uuid"
)

// Store is the durable record of jobs and their lifecycle state.
//
// The only legal status sequence is
// PENDING -> PROCESSING -> COMPLETED | FAILED. Terminal jobs are immutable
// and are never requeued by the engine; recovery of a FAILED job is an
// explicit re-enqueue by the caller or an operator.
type Store interface {
	// Enqueue inserts a new PENDING job with attempts=0.
	Enqueue(ctx context.Context, jobType string, payload any) (uuid.UUID, error)

	// ClaimNext atomically claims the oldest PENDING job: it transitions the
	// job to PROCESSING, sets LockedAt and increments Attempts as one
	// indivisible operation with respect to concurrent claimers. Concurrent
	// callers must never both receive the same job, and an in-flight claim
	// must not block other claimers. Returns ErrNoJob when the queue is empty.
	ClaimNext(ctx context.Context) (Job, error)

	// Complete marks a PROCESSING job COMPLETED and stores its result.
	// Returns ErrNotProcessing from any other state.
	Complete(ctx context.Context, id uuid.UUID, result any) error

	// Fail marks a PROCESSING job FAILED and stores the error message.
	// Returns ErrNotProcessing from any other state.
	Fail(ctx context.Context, id uuid.UUID, errMsg string) error

	// Get returns the job, or ErrJobNotFound.
	Get(ctx context.Context, id uuid.UUID) (Job, error)

	// Counts returns total and per-status job counts.
	Counts(ctx context.Context) (Counts, error)
}
