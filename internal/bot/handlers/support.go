package handlers

import (
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

// NewSupportHandler returns the /support command handler. The request lands
// in the admin group with a reply affordance; an operator taps it to open a
// relay dialog with the user.
func NewSupportHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, adminGroupID int64, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		user, t := profile(c, prefsService, locales)

		if adminGroupID == 0 {
			return c.Send(t.T("support.unavailable", nil))
		}

		message := strings.TrimSpace(strings.TrimPrefix(c.Text(), "/support"))
		if message == "" {
			return c.Send(t.T("support.prompt", nil))
		}

		name := displayName(c.Sender())
		if user != nil && user.DisplayName != "" {
			name = user.DisplayName
		}

		groupT := locales.Translator("")
		notice := groupT.T("support.request", i18n.Params{
			"name":    name,
			"user":    strconv.FormatInt(c.Sender().ID, 10),
			"message": message,
		})

		if _, err := c.Bot().Send(
			telebot.ChatID(adminGroupID),
			notice,
			kb.RelayOpen(groupT, c.Sender().ID),
		); err != nil {
			log.Error("failed to post support request",
				slog.Int64("user_id", c.Sender().ID),
				slog.Any("error", err))
			return c.Send(t.T("support.failed", nil))
		}

		return c.Send(t.T("support.sent", nil))
	}
}
