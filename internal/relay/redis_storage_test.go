package relay

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func testSession() *Session {
	return &Session{
		UserID:       100,
		OperatorID:   10,
		OperatorName: "Priya",
		GroupID:      -500,
		UpdatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestRedisStorage_SetGet(t *testing.T) {
	storage := NewRedisStorage(setupTestRedis(t), testLogger())
	ctx := context.Background()

	key := Key{Kind: KindOperator, ChatID: 10}
	require.NoError(t, storage.Set(ctx, key, testSession()))

	got, err := storage.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.UserID)
	assert.Equal(t, "Priya", got.OperatorName)
	assert.Equal(t, int64(-500), got.GroupID)
}

func TestRedisStorage_GetMissing(t *testing.T) {
	storage := NewRedisStorage(setupTestRedis(t), testLogger())

	_, err := storage.Get(context.Background(), Key{Kind: KindUser, ChatID: 1})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_Clear(t *testing.T) {
	storage := NewRedisStorage(setupTestRedis(t), testLogger())
	ctx := context.Background()

	key := Key{Kind: KindGroup, ChatID: -500}
	require.NoError(t, storage.Set(ctx, key, testSession()))
	require.NoError(t, storage.Clear(ctx, key))

	_, err := storage.Get(ctx, key)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Clearing an absent key is not an error.
	assert.NoError(t, storage.Clear(ctx, key))
}

func TestRedisStorage_All(t *testing.T) {
	storage := NewRedisStorage(setupTestRedis(t), testLogger())
	ctx := context.Background()

	session := testSession()
	keys := []Key{
		{Kind: KindOperator, ChatID: 10},
		{Kind: KindGroup, ChatID: -500},
		{Kind: KindUser, ChatID: 100},
	}
	for _, key := range keys {
		require.NoError(t, storage.Set(ctx, key, session))
	}

	all, err := storage.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	for _, key := range keys {
		got, ok := all[key]
		require.True(t, ok, "missing key %s", key)
		assert.Equal(t, session.UserID, got.UserID)
	}
}

func TestRedisStorage_SetNil(t *testing.T) {
	storage := NewRedisStorage(setupTestRedis(t), testLogger())

	err := storage.Set(context.Background(), Key{Kind: KindUser, ChatID: 1}, nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
