package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
)

const snapshotKey = "catalog:snapshot"

// CachedProvider wraps another provider with a Redis snapshot so ordinary
// searches never wait on the upstream feed. The snapshot is refreshed on
// expiry or explicitly via Refresh (driven by the jobs scheduler).
type CachedProvider struct {
	source Provider
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewCachedProvider constructs the caching wrapper.
func NewCachedProvider(source Provider, client *redis.Client, ttl time.Duration, log *slog.Logger) *CachedProvider {
	if log == nil {
		log = slog.Default()
	}

	return &CachedProvider{
		source: source,
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Offers returns the cached snapshot, falling back to the source on a miss.
func (p *CachedProvider) Offers(ctx context.Context) ([]domain.Offer, error) {
	if p.client != nil {
		data, err := p.client.Get(ctx, snapshotKey).Bytes()
		switch {
		case err == nil:
			var offers []domain.Offer
			if decodeErr := json.Unmarshal(data, &offers); decodeErr == nil {
				return offers, nil
			}
			p.log.Warn("catalog snapshot corrupt, refetching", slog.Any("error", err))
		case !errors.Is(err, redis.Nil):
			p.log.Warn("catalog snapshot read failed", slog.Any("error", err))
		}
	}

	return p.Refresh(ctx)
}

// Refresh pulls from the source and rewrites the snapshot.
func (p *CachedProvider) Refresh(ctx context.Context) ([]domain.Offer, error) {
	offers, err := p.source.Offers(ctx)
	if err != nil {
		return nil, err
	}

	if p.client != nil {
		payload, encodeErr := json.Marshal(offers)
		if encodeErr != nil {
			return offers, fmt.Errorf("encode catalog snapshot: %w", encodeErr)
		}

		if setErr := p.client.Set(ctx, snapshotKey, payload, p.ttl).Err(); setErr != nil {
			p.log.Warn("catalog snapshot write failed", slog.Any("error", setErr))
		}
	}

	return offers, nil
}

// HealthCheck verifies the snapshot store is reachable.
func (p *CachedProvider) HealthCheck(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	return p.client.Ping(ctx).Err()
}
