package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps jobs in process memory. It backs unit tests and
// single-node development; claim exclusivity comes from the store mutex.
type MemoryStore struct {
	mu sync.Mutex

	jobs map[uuid.UUID]*Job
	// pending preserves enqueue order so ClaimNext picks the oldest job.
	pending []uuid.UUID

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: map[uuid.UUID]*Job{},
		now:  time.Now,
	}
}

func (s *MemoryStore) Enqueue(_ context.Context, jobType string, payload any) (uuid.UUID, error) {
	if jobType == "" {
		return uuid.Nil, ErrEmptyType
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.jobs[id] = &Job{
		ID:        id,
		Type:      jobType,
		Payload:   b,
		Status:    StatusPending,
		CreatedAt: s.now(),
	}
	s.pending = append(s.pending, id)
	return id, nil
}

func (s *MemoryStore) ClaimNext(_ context.Context) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return Job{}, ErrNoJob
	}

	id := s.pending[0]
	s.pending = s.pending[1:]

	j := s.jobs[id]
	j.Status = StatusProcessing
	j.Attempts++
	now := s.now()
	j.LockedAt = &now
	return *j, nil
}

func (s *MemoryStore) Complete(_ context.Context, id uuid.UUID, result any) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if j.Status != StatusProcessing {
		return ErrNotProcessing
	}

	j.Status = StatusCompleted
	j.Result = b
	now := s.now()
	j.ProcessedAt = &now
	return nil
}

func (s *MemoryStore) Fail(_ context.Context, id uuid.UUID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if j.Status != StatusProcessing {
		return ErrNotProcessing
	}

	msg := truncErr(errMsg)
	j.Status = StatusFailed
	j.Error = &msg
	now := s.now()
	j.ProcessedAt = &now
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *j, nil
}

func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Counts{ByStatus: make(map[Status]int64)}
	for _, j := range s.jobs {
		out.ByStatus[j.Status]++
		out.Total++
	}
	return out, nil
}
