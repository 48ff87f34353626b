package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dealpulse/dealpulse-bot/internal/catalog"
	"github.com/dealpulse/dealpulse-bot/internal/domain"
	"github.com/dealpulse/dealpulse-bot/internal/jobs"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

// Notifier delivers an alert digest to a chat. The bot package implements it.
type Notifier interface {
	NotifyDeals(chatID int64, kind domain.NotificationKind, offers []domain.Offer) error
}

const alertDigestSize = 5

// DealAlertsHandler fans recent offers out to subscribed chats.
type DealAlertsHandler struct {
	provider catalog.Provider
	prefs    *prefs.Service
	notifier Notifier
	log      *slog.Logger
}

// NewDealAlertsHandler builds the handler.
func NewDealAlertsHandler(provider catalog.Provider, prefsService *prefs.Service, notifier Notifier, log *slog.Logger) *DealAlertsHandler {
	if log == nil {
		log = slog.Default()
	}

	return &DealAlertsHandler{
		provider: provider,
		prefs:    prefsService,
		notifier: notifier,
		log:      log,
	}
}

// ProcessTask implements asynq.Handler.
func (h *DealAlertsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.DealAlertsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.Error("deal alerts: failed to decode payload",
			slog.String("task_type", t.Type()),
			slog.Any("error", err))
		return err
	}

	if h.provider == nil || h.prefs == nil || h.notifier == nil {
		h.log.Warn("deal alerts: dependencies not configured")
		return nil
	}

	kind := domain.NotificationKind(payload.Kind)
	chats, err := h.prefs.Subscribers(ctx, kind)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		return nil
	}

	offers, err := h.provider.Offers(ctx)
	if err != nil {
		return err
	}

	digest := h.digest(offers, kind)
	if len(digest) == 0 {
		return nil
	}

	delivered := 0
	for _, chatID := range chats {
		if err := h.notifier.NotifyDeals(chatID, kind, digest); err != nil {
			h.log.Warn("deal alert delivery failed",
				slog.Int64("chat_id", chatID),
				slog.Any("error", err))
			continue
		}
		delivered++
	}

	h.log.Info("deal alerts sent",
		slog.String("kind", string(kind)),
		slog.Int("subscribers", len(chats)),
		slog.Int("delivered", delivered))
	return nil
}

// digest selects the offers worth alerting about for the given kind.
func (h *DealAlertsHandler) digest(offers []domain.Offer, kind domain.NotificationKind) []domain.Offer {
	var picked []domain.Offer

	cutoff := time.Now().Add(-24 * time.Hour)
	for _, offer := range offers {
		switch kind {
		case domain.NotifyCoupons:
			if offer.Coupon == nil {
				continue
			}
		case domain.NotifyPriceDrops:
			if offer.Discount <= 0 {
				continue
			}
		case domain.NotifyNewDeals:
			if offer.VerifiedAt.Before(cutoff) {
				continue
			}
		default:
			continue
		}

		picked = append(picked, offer)
	}

	catalog.Rank(picked)
	if len(picked) > alertDigestSize {
		picked = picked[:alertDigestSize]
	}

	return picked
}
