package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecute_RunsOnce(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) (interface{}, error) {
		calls++
		return "done", nil
	}

	result, err := m.Execute(ctx, "key-1", time.Minute, fn)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, "done", result.Response)

	result, err = m.Execute(ctx, "key-1", time.Minute, fn)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, "done", result.Response)

	assert.Equal(t, 1, calls)
}

func TestExecute_DistinctKeysRunIndependently(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := m.Execute(ctx, "key-1", time.Minute, fn)
	require.NoError(t, err)
	_, err = m.Execute(ctx, "key-2", time.Minute, fn)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestExecute_ConcurrentDuplicateRefused(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = m.Execute(ctx, "key-1", time.Minute, func(ctx context.Context) (interface{}, error) {
			close(started)
			<-release
			return "slow", nil
		})
	}()

	<-started

	_, err := m.Execute(ctx, "key-1", time.Minute, func(ctx context.Context) (interface{}, error) {
		return "dup", nil
	})
	assert.ErrorIs(t, err, ErrInProgress)

	close(release)
}

func TestExecute_FailedOperationCanRetry(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())
	ctx := context.Background()

	boom := errors.New("boom")
	calls := 0
	fn := func(ctx context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	_, err := m.Execute(ctx, "key-1", time.Minute, fn)
	assert.ErrorIs(t, err, boom)

	result, err := m.Execute(ctx, "key-1", time.Minute, fn)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, "recovered", result.Response)
}

func TestExecute_NilOperation(t *testing.T) {
	m := NewManager(NewMemoryStore(), testLogger())

	_, err := m.Execute(context.Background(), "key-1", time.Minute, nil)
	assert.Error(t, err)
}

func TestMemoryStore_Purge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "fresh", &Record{Status: StatusCompleted}, time.Minute))
	require.NoError(t, store.Set(ctx, "stale", &Record{Status: StatusCompleted}, -time.Second))

	assert.Equal(t, 1, store.Purge())

	record, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestGenerateKey_Deterministic(t *testing.T) {
	a := GenerateKey(int64(100), "deals_page", "2")
	b := GenerateKey(int64(100), "deals_page", "2")
	c := GenerateKey(int64(100), "deals_page", "3")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
