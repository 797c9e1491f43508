package jobqueue

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

var _ Store = (*PostgresStore)(nil)

// PostgresStore is the durable Store implementation. Claim exclusivity is
// enforced with FOR UPDATE SKIP LOCKED, so multiple worker processes can poll
// the same database without serializing on each other's claims.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InitSchema creates the jobs table and indexes if they do not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying jobs schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Enqueue(ctx context.Context, jobType string, payload any) (uuid.UUID, error) {
	if jobType == "" {
		return uuid.Nil, ErrEmptyType
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	var id uuid.UUID
	err = s.pool.QueryRow(ctx, `
		INSERT INTO jobs(type, payload, status)
		VALUES ($1, $2::jsonb, 'PENDING')
		RETURNING id
	`, jobType, b).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *PostgresStore) ClaimNext(ctx context.Context) (Job, error) {
	// Single statement: select-and-update is atomic, and SKIP LOCKED keeps
	// concurrent claimers from blocking on a row already being claimed.
	row := s.pool.QueryRow(ctx, `
		UPDATE jobs
		SET status='PROCESSING',
		    attempts = attempts + 1,
		    locked_at = now()
		WHERE id = (
			SELECT id
			FROM jobs
			WHERE status='PENDING'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, type, payload, status, attempts, result, error, locked_at, created_at, processed_at
	`)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, ErrNoJob
		}
		return Job{}, err
	}
	return job, nil
}

func (s *PostgresStore) Complete(ctx context.Context, id uuid.UUID, result any) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	ct, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status='COMPLETED',
		    result=$2::jsonb,
		    processed_at=now()
		WHERE id=$1 AND status='PROCESSING'
	`, id, b)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotProcessing
	}
	return nil
}

func (s *PostgresStore) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status='FAILED',
		    error=$2,
		    processed_at=now()
		WHERE id=$1 AND status='PROCESSING'
	`, id, truncErr(errMsg))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotProcessing
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, type, payload, status, attempts, result, error, locked_at, created_at, processed_at
		FROM jobs
		WHERE id=$1
	`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, ErrJobNotFound
		}
		return Job{}, err
	}
	return job, nil
}

func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	out := Counts{ByStatus: make(map[Status]int64)}

	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM jobs GROUP BY status`)
	if err != nil {
		return Counts{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var st Status
		var c int64
		if err := rows.Scan(&st, &c); err != nil {
			return Counts{}, err
		}
		out.ByStatus[st] = c
		out.Total += c
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	var errMsg *string
	var lockedAt *time.Time
	var processedAt *time.Time

	err := row.Scan(
		&j.ID,
		&j.Type,
		&j.Payload,
		&j.Status,
		&j.Attempts,
		&j.Result,
		&errMsg,
		&lockedAt,
		&j.CreatedAt,
		&processedAt,
	)
	if err != nil {
		return Job{}, err
	}

	j.Error = errMsg
	j.LockedAt = lockedAt
	j.ProcessedAt = processedAt
	return j, nil
}

func truncErr(s string) string {
	const max = 2000
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}
