// Package handlers contains the Telegram update handlers for the bot.
package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

// NewStartHandler returns the /start command handler. It creates the profile
// on first contact and shows the main menu.
func NewStartHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		user, t := profile(c, prefsService, locales)

		name := displayName(c.Sender())
		if user != nil && user.DisplayName != "" {
			name = user.DisplayName
		}

		text := t.T("start.welcome", i18n.Params{"name": name})
		return c.Send(text, kb.MainMenu(t))
	}
}

// NewMainMenuHandler returns the callback handler that re-renders the menu.
// Malformed callbacks are routed here so the user always lands somewhere.
func NewMainMenuHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		_, t := profile(c, prefsService, locales)

		if err := c.Edit(t.T("menu.title", nil), kb.MainMenu(t)); err == nil {
			return nil
		}

		return c.Send(t.T("menu.title", nil), kb.MainMenu(t))
	}
}
