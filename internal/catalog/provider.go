package catalog

import (
	"context"
	"sync"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
)

// Provider supplies the current offer list on demand. Implementations must be
// safe for concurrent use; the returned slice must not be mutated by callers.
type Provider interface {
	Offers(ctx context.Context) ([]domain.Offer, error)
}

// StaticProvider serves a fixed in-memory offer list. Used for tests and for
// deployments that load the catalog once at startup.
type StaticProvider struct {
	mu     sync.RWMutex
	offers []domain.Offer
}

// NewStaticProvider copies offers into a new provider.
func NewStaticProvider(offers []domain.Offer) *StaticProvider {
	p := &StaticProvider{}
	p.Replace(offers)
	return p
}

// Offers returns the current snapshot.
func (p *StaticProvider) Offers(_ context.Context) ([]domain.Offer, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.offers, nil
}

// Replace swaps the snapshot atomically.
func (p *StaticProvider) Replace(offers []domain.Offer) {
	snapshot := make([]domain.Offer, len(offers))
	copy(snapshot, offers)

	p.mu.Lock()
	p.offers = snapshot
	p.mu.Unlock()
}
