package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

type countingProvider struct {
	offers []domain.Offer
	calls  int
	err    error
}

func (p *countingProvider) Offers(_ context.Context) ([]domain.Offer, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.offers, nil
}

func TestCachedProvider_SnapshotServesRepeatReads(t *testing.T) {
	source := &countingProvider{offers: testOffers()}
	provider := NewCachedProvider(source, setupTestRedis(t), time.Minute, testLogger())
	ctx := context.Background()

	first, err := provider.Offers(ctx)
	require.NoError(t, err)
	assert.Len(t, first, len(source.offers))

	second, err := provider.Offers(ctx)
	require.NoError(t, err)
	assert.Len(t, second, len(source.offers))

	// Only the initial miss reached the upstream feed.
	assert.Equal(t, 1, source.calls)
}

func TestCachedProvider_RefreshBypassesSnapshot(t *testing.T) {
	source := &countingProvider{offers: testOffers()}
	provider := NewCachedProvider(source, setupTestRedis(t), time.Minute, testLogger())
	ctx := context.Background()

	_, err := provider.Offers(ctx)
	require.NoError(t, err)

	_, err = provider.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
}

func TestCachedProvider_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("feed down")
	source := &countingProvider{err: boom}
	provider := NewCachedProvider(source, setupTestRedis(t), time.Minute, testLogger())

	_, err := provider.Offers(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCachedProvider_NoRedisFallsThrough(t *testing.T) {
	source := &countingProvider{offers: testOffers()}
	provider := NewCachedProvider(source, nil, time.Minute, testLogger())
	ctx := context.Background()

	_, err := provider.Offers(ctx)
	require.NoError(t, err)
	_, err = provider.Offers(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
}

func TestStaticProvider_Replace(t *testing.T) {
	provider := NewStaticProvider(testOffers())
	ctx := context.Background()

	offers, err := provider.Offers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 4)

	provider.Replace(offers[:1])

	offers, err = provider.Offers(ctx)
	require.NoError(t, err)
	assert.Len(t, offers, 1)
}
