package jobqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Job is a durable unit of work. Attempts counts claims, not handler-internal
// retries: one claim = one attempt.
type Job struct {
	ID      uuid.UUID
	Type    string
	Payload json.RawMessage

	Status   Status
	Attempts int

	// Result and Error are mutually exclusive terminal payloads.
	Result json.RawMessage
	Error  *string

	LockedAt    *time.Time
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// HandlerFunc executes the work named by a job's type. Returning an error
// marks the job FAILED with the error text; the returned value is marshaled
// into the job's result on success.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

type Counts struct {
	Total    int64
	ByStatus map[Status]int64
}
