package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

// NewFavoritesHandler returns the /favorites command handler showing the
// category grid.
func NewFavoritesHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		user, t := profile(c, prefsService, locales)
		text := t.T("favorites.title", nil)
		markup := kb.FavoritesMenu(t, user)

		if c.Callback() != nil {
			if err := c.Edit(text, markup); err == nil {
				return nil
			}
		}

		return c.Send(text, markup)
	}
}

// NewFavoriteToggleHandler returns the category toggle callback handler.
func NewFavoriteToggleHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		category := callbackPayload(c)
		if category == "" {
			return respondCallback(c, "")
		}

		chatID := c.Sender().ID
		outcome, err := prefsService.ToggleFavorite(context.Background(), chatID, category)
		if err != nil {
			return err
		}

		user, t := profile(c, prefsService, locales)

		categoryName := t.T("categories."+category, nil)
		if err := respondCallback(c, t.T(outcome, i18n.Params{"category": categoryName})); err != nil {
			log.Warn("failed to answer callback", slog.Any("error", err))
		}

		return c.Edit(t.T("favorites.title", nil), kb.FavoritesMenu(t, user))
	}
}
