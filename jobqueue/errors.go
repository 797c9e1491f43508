package jobqueue

import "errors"

var (
	// ErrNoJob means no PENDING job was available at this moment.
	ErrNoJob = errors.New("jobqueue: no job available")

	// ErrJobNotFound means the job id does not exist in the store.
	ErrJobNotFound = errors.New("jobqueue: job not found")

	// ErrNotProcessing means a terminal update targeted a job that is not
	// PROCESSING. Completed and failed jobs are immutable.
	ErrNotProcessing = errors.New("jobqueue: job is not processing")

	// ErrEmptyType means enqueue was called without a job type.
	ErrEmptyType = errors.New("jobqueue: job type must not be empty")
)
