package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func claimed(t *testing.T, s Store, jobType string, payload any) Job {
	t.Helper()
	ctx := context.Background()

	_, err := s.Enqueue(ctx, jobType, payload)
	require.NoError(t, err)
	job, err := s.ClaimNext(ctx)
	require.NoError(t, err)
	return job
}

func TestDispatcher_UnknownTypeFailsJob(t *testing.T) {
	s := NewMemoryStore()
	d := NewDispatcher(s, discardLogger())

	job := claimed(t, s, "SEND_NEWSLETTER", nil)
	require.NoError(t, d.Dispatch(context.Background(), job))

	got, err := s.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "SEND_NEWSLETTER")
}

func TestDispatcher_SuccessCompletesWithResult(t *testing.T) {
	s := NewMemoryStore()
	d := NewDispatcher(s, discardLogger())

	d.Register("ECHO", func(_ context.Context, payload json.RawMessage) (any, error) {
		var in map[string]string
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, err
		}
		return map[string]string{"echo": in["msg"]}, nil
	})

	job := claimed(t, s, "ECHO", map[string]string{"msg": "hi"})
	require.NoError(t, d.Dispatch(context.Background(), job))

	got, err := s.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.JSONEq(t, `{"echo":"hi"}`, string(got.Result))
	assert.Nil(t, got.Error)
}

func TestDispatcher_HandlerErrorFailsJob(t *testing.T) {
	s := NewMemoryStore()
	d := NewDispatcher(s, discardLogger())

	d.Register("FLAKY", func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("upstream unavailable")
	})

	job := claimed(t, s, "FLAKY", nil)
	require.NoError(t, d.Dispatch(context.Background(), job))

	got, err := s.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, "upstream unavailable", *got.Error)
}

func TestDispatcher_HandlerPanicFailsJob(t *testing.T) {
	s := NewMemoryStore()
	d := NewDispatcher(s, discardLogger())

	d.Register("BOOM", func(context.Context, json.RawMessage) (any, error) {
		panic("nil map write")
	})

	job := claimed(t, s, "BOOM", nil)
	require.NoError(t, d.Dispatch(context.Background(), job))

	got, err := s.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "nil map write")
}
