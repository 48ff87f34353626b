package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/handlers"
	"github.com/dealpulse/dealpulse-bot/internal/idempotency"
)

const dedupeTTL = 24 * time.Hour

// Idempotency ensures handlers execute at most once per Telegram update.
// Repeated callback taps and retried deliveries become no-ops.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			_, err := manager.Execute(context.Background(), key, dedupeTTL, func(context.Context) (interface{}, error) {
				return nil, next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrInProgress) {
					return nil
				}

				log.Error("deduplicated handler failed",
					slog.String("key", key),
					slog.Any("error", err))
				return err
			}

			return nil
		}
	}
}

func updateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if cb := c.Callback(); cb != nil {
		if cb.ID != "" {
			return fmt.Sprintf("cb:%s", cb.ID)
		}

		if cb.Message != nil && cb.Message.Chat != nil {
			return fmt.Sprintf("cb-msg:%d:%d", cb.Message.Chat.ID, cb.Message.ID)
		}
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 && msg.Chat != nil {
		return fmt.Sprintf("msg:%d:%d", msg.Chat.ID, msg.ID)
	}

	return ""
}
