package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
	apperrors "github.com/dealpulse/dealpulse-bot/internal/errors"
)

const feedTimeout = 10 * time.Second

// FeedProvider fetches the offer list from an HTTP JSON feed. Fetches go
// through a retry loop and a circuit breaker so a failing upstream cannot
// stall every user interaction.
type FeedProvider struct {
	url     string
	client  *http.Client
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
}

// NewFeedProvider builds a provider for the given feed URL.
func NewFeedProvider(url string, log *slog.Logger) *FeedProvider {
	if log == nil {
		log = slog.Default()
	}

	return &FeedProvider{
		url:     url,
		client:  &http.Client{Timeout: feedTimeout},
		breaker: apperrors.NewCircuitBreaker(),
		log:     log,
	}
}

// Offers fetches and decodes the feed.
func (p *FeedProvider) Offers(ctx context.Context) ([]domain.Offer, error) {
	var offers []domain.Offer

	fetch := func() error {
		return p.breaker.Call(func() error {
			fetched, err := p.fetch(ctx)
			if err != nil {
				return apperrors.NewCatalogError(p.url, err)
			}
			offers = fetched
			return nil
		})
	}

	if err := apperrors.WithRetry(ctx, fetch); err != nil {
		p.log.Error("catalog feed fetch failed", slog.String("url", p.url), slog.Any("error", err))
		return nil, err
	}

	return offers, nil
}

func (p *FeedProvider) fetch(ctx context.Context) ([]domain.Offer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed responded with status %d", resp.StatusCode)
	}

	var offers []domain.Offer
	if err := json.NewDecoder(resp.Body).Decode(&offers); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	return sanitize(offers), nil
}

// sanitize drops records violating the price invariant and normalizes
// derivable fields: a missing discount is computed from the original price.
func sanitize(offers []domain.Offer) []domain.Offer {
	clean := make([]domain.Offer, 0, len(offers))
	for _, offer := range offers {
		if offer.Price <= 0 {
			continue
		}
		if offer.OriginalPrice > 0 && offer.Price > offer.OriginalPrice {
			continue
		}

		if offer.Discount == 0 && offer.OriginalPrice > 0 {
			offer.Discount = (offer.OriginalPrice - offer.Price) * 100 / offer.OriginalPrice
		}

		clean = append(clean, offer)
	}

	return clean
}
