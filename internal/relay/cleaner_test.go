package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_EvictsStaleSessions(t *testing.T) {
	storage := NewMemoryStorage()
	m := NewManager(storage, testLogger(), nil)
	ctx := context.Background()

	_, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)
	_, err = m.OpenUserSession(ctx, 100, 10)
	require.NoError(t, err)

	stale := &Session{
		UserID:     200,
		OperatorID: 20,
		GroupID:    -600,
		UpdatedAt:  time.Now().Add(-time.Hour),
	}
	for _, key := range sessionKeys(stale) {
		require.NoError(t, storage.Set(ctx, key, stale))
	}

	cleaner := NewCleaner(m, testLogger(), 30*time.Minute, time.Minute)
	evicted := cleaner.Sweep(ctx)

	assert.Equal(t, 1, evicted)

	// The stale triple is gone.
	_, err = m.RouteFromOperator(ctx, 20)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.RouteFromGroup(ctx, -600)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.RouteFromUser(ctx, 200)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// The active binding survives.
	_, err = m.RouteFromOperator(ctx, 10)
	assert.NoError(t, err)
}

func TestSweep_NothingStale(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)

	cleaner := NewCleaner(m, testLogger(), 30*time.Minute, time.Minute)
	assert.Equal(t, 0, cleaner.Sweep(ctx))
}

func TestRun_StopsOnCancel(t *testing.T) {
	cleaner := NewCleaner(newTestManager(), testLogger(), time.Minute, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleaner.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop on context cancellation")
	}
}
