package handlers

import (
	"context"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/domain"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

// NewSettingsHandler returns the /settings command handler.
func NewSettingsHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		user, t := profile(c, prefsService, locales)
		text := settingsText(t, user)
		markup := kb.SettingsMenu(t, user)

		if c.Callback() != nil {
			if err := c.Edit(text, markup); err == nil {
				return nil
			}
		}

		return c.Send(text, markup)
	}
}

// NewSetLanguageHandler returns the language selection callback handler.
func NewSetLanguageHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		payload := callbackPayload(c)
		lang := domain.Language(payload)
		if lang != domain.LanguageEN && lang != domain.LanguageHI {
			log.Warn("unknown language in callback", slog.String("payload", payload))
			return respondCallback(c, "")
		}

		chatID := c.Sender().ID
		if err := prefsService.SetLanguage(context.Background(), chatID, lang); err != nil {
			return err
		}

		user, t := profile(c, prefsService, locales)
		if err := respondCallback(c, t.T("settings.language_saved", nil)); err != nil {
			log.Warn("failed to answer callback", slog.Any("error", err))
		}

		return c.Edit(settingsText(t, user), kb.SettingsMenu(t, user))
	}
}

// NewToggleNotifyHandler returns the notification toggle callback handler.
func NewToggleNotifyHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		kind := domain.NotificationKind(callbackPayload(c))
		if !knownNotificationKind(kind) {
			log.Warn("unknown notification kind in callback", slog.String("kind", string(kind)))
			return respondCallback(c, "")
		}

		chatID := c.Sender().ID
		enabled, err := prefsService.ToggleNotification(context.Background(), chatID, kind)
		if err != nil {
			return err
		}

		user, t := profile(c, prefsService, locales)

		answer := t.T("settings.notify_off", nil)
		if enabled {
			answer = t.T("settings.notify_on", nil)
		}
		if err := respondCallback(c, answer); err != nil {
			log.Warn("failed to answer callback", slog.Any("error", err))
		}

		return c.Edit(settingsText(t, user), kb.SettingsMenu(t, user))
	}
}

// NewSetBudgetHandler returns the budget preset callback handler.
func NewSetBudgetHandler(prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		payload := callbackPayload(c)

		var budget *int
		if payload != "clear" {
			amount, err := strconv.Atoi(payload)
			if err != nil || amount <= 0 {
				log.Warn("invalid budget in callback", slog.String("payload", payload))
				return respondCallback(c, "")
			}
			budget = &amount
		}

		chatID := c.Sender().ID
		if err := prefsService.SetBudget(context.Background(), chatID, budget); err != nil {
			return err
		}

		user, t := profile(c, prefsService, locales)
		if err := respondCallback(c, t.T("settings.budget_saved", nil)); err != nil {
			log.Warn("failed to answer callback", slog.Any("error", err))
		}

		return c.Edit(settingsText(t, user), kb.SettingsMenu(t, user))
	}
}

func settingsText(t i18n.Translator, user *domain.User) string {
	budget := t.T("settings.budget_none", nil)
	if user != nil && user.Budget != nil {
		budget = "₹" + strconv.Itoa(*user.Budget)
	}

	lang := string(domain.DefaultLanguage)
	if user != nil {
		lang = string(user.Language)
	}

	return t.T("settings.overview", i18n.Params{
		"language": lang,
		"budget":   budget,
	})
}

func knownNotificationKind(kind domain.NotificationKind) bool {
	for _, known := range domain.NotificationKinds {
		if kind == known {
			return true
		}
	}
	return false
}

// callbackPayload extracts the data portion of the pressed button.
func callbackPayload(c telebot.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}

	_, payload, err := keyboard.DecodeCallback(cb.Data)
	if err != nil {
		return ""
	}

	return payload
}

// respondCallback answers the callback query, clearing the spinner.
func respondCallback(c telebot.Context, text string) error {
	return c.Respond(&telebot.CallbackResponse{Text: text})
}
