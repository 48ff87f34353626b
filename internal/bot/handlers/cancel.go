package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

// NewCancelHandler returns the /cancel command handler. It abandons whatever
// the user was doing and shows the main menu.
func NewCancelHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		_, t := profile(c, prefsService, locales)
		return c.Send(t.T("cancel.done", nil), kb.MainMenu(t))
	}
}
