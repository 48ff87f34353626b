package handlers

import (
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

// NewHelpHandler returns the /help command handler.
func NewHelpHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		_, t := profile(c, prefsService, locales)

		lines := t.Lines("help.body", nil)
		text := t.T("help.title", nil) + "\n\n" + strings.Join(lines, "\n")

		if c.Callback() != nil {
			if err := c.Edit(text, kb.MainMenu(t)); err == nil {
				return nil
			}
		}

		return c.Send(text, kb.MainMenu(t))
	}
}
