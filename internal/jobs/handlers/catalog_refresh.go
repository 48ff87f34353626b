// Package handlers contains the asynq task handlers for background jobs.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/dealpulse/dealpulse-bot/internal/catalog"
	"github.com/dealpulse/dealpulse-bot/internal/jobs"
)

// CatalogRefreshHandler re-fetches the offer feed and replaces the cached
// snapshot.
type CatalogRefreshHandler struct {
	provider *catalog.CachedProvider
	log      *slog.Logger
}

// NewCatalogRefreshHandler builds the handler.
func NewCatalogRefreshHandler(provider *catalog.CachedProvider, log *slog.Logger) *CatalogRefreshHandler {
	if log == nil {
		log = slog.Default()
	}

	return &CatalogRefreshHandler{
		provider: provider,
		log:      log,
	}
}

// ProcessTask implements asynq.Handler.
func (h *CatalogRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.CatalogRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.Error("catalog refresh: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.Any("error", err))
		return err
	}

	if h.provider == nil {
		h.log.Warn("catalog refresh: provider not configured")
		return nil
	}

	offers, err := h.provider.Refresh(ctx)
	if err != nil {
		h.log.Error("catalog refresh failed",
			slog.Bool("force", payload.Force),
			slog.Any("error", err))
		return err
	}

	h.log.Info("catalog refreshed",
		slog.Int("offers", len(offers)),
		slog.Bool("force", payload.Force))
	return nil
}
