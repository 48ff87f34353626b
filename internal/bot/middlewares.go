package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/handlers"
	apperrors "github.com/dealpulse/dealpulse-bot/internal/errors"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

// RecoveryMiddleware catches panics, reports them, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler, prefsService *prefs.Service, locales *i18n.Manager) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())))

					userKey := "errors.temporary"
					if errHandler != nil {
						appErr := apperrors.NewStorageError(fmt.Errorf("panic recovered: %v", r))
						userKey, _ = errHandler.Handle(context.Background(), appErr)
					}

					if c != nil {
						t := senderTranslator(c, prefsService, locales)
						if sendErr := c.Send(t.T(userKey, nil)); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware reports handler failures and messages the user in
// their language. Errors never leak to telebot.
func ErrorHandlingMiddleware(errHandler *apperrors.Handler, prefsService *prefs.Service, locales *i18n.Manager) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			userKey := "errors.temporary"
			if errHandler != nil {
				if key, _ := errHandler.Handle(context.Background(), err); key != "" {
					userKey = key
				}
			}

			if c != nil {
				t := senderTranslator(c, prefsService, locales)
				_ = c.Send(t.T(userKey, nil))
			}

			return nil
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()

			chatID := int64(0)
			if c != nil && c.Sender() != nil {
				chatID = c.Sender().ID
			}

			action := ""
			if c != nil {
				if cb := c.Callback(); cb != nil {
					action = cb.Data
				} else {
					action = c.Text()
				}
			}

			err := next(c)
			log.Info("handled update",
				slog.Int64("chat_id", chatID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// senderTranslator resolves the sender's language pack, falling back to the
// default pack when the profile is unavailable.
func senderTranslator(c telebot.Context, prefsService *prefs.Service, locales *i18n.Manager) i18n.Translator {
	if prefsService == nil || c == nil || c.Sender() == nil {
		return locales.Translator("")
	}

	user, err := prefsService.GetOrCreate(context.Background(), c.Sender().ID, "")
	if err != nil || user == nil {
		return locales.Translator("")
	}

	return locales.Translator(string(user.Language))
}
