// Package keyboard renders localized inline keyboards for the bot.
package keyboard

import (
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
)

// Budget presets offered in the settings menu, in whole currency units.
var budgetPresets = []int{1000, 5000, 10000, 25000}

// Builder creates inline keyboards for the bot menus.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// MainMenu builds the top-level menu.
func (b *Builder) MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: translated(t, "menu.deals", "🔥 Deals"), Action: "deals_page", Data: "1"},
			InlineButton{Text: translated(t, "menu.favorites", "⭐ Favorites"), Action: "fav_menu"},
		).
		AddRow(
			InlineButton{Text: translated(t, "menu.settings", "⚙️ Settings"), Action: "settings_menu"},
			InlineButton{Text: translated(t, "menu.help", "❓ Help"), Action: "help_menu"},
		).
		Build()
}

// SettingsMenu builds the preferences menu reflecting the user's state.
func (b *Builder) SettingsMenu(t i18n.Translator, user *domain.User) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()

	langRow := make([]InlineButton, 0, 2)
	for _, lang := range []domain.Language{domain.LanguageEN, domain.LanguageHI} {
		label := translated(t, "settings.lang_"+string(lang), strings.ToUpper(string(lang)))
		if user != nil && user.Language == lang {
			label = "✅ " + label
		}
		langRow = append(langRow, InlineButton{
			Text:   label,
			Action: "set_lang",
			Data:   string(lang),
		})
	}
	kb.AddRow(langRow...)

	for _, kind := range domain.NotificationKinds {
		label := translated(t, "settings.notify_"+string(kind), string(kind))
		if user != nil && user.Notifications[kind] {
			label = "🔔 " + label
		} else {
			label = "🔕 " + label
		}
		kb.AddRow(InlineButton{
			Text:   label,
			Action: "notify_toggle",
			Data:   string(kind),
		})
	}

	budgetRow := make([]InlineButton, 0, len(budgetPresets))
	for _, amount := range budgetPresets {
		label := "₹" + strconv.Itoa(amount)
		if user != nil && user.Budget != nil && *user.Budget == amount {
			label = "✅ " + label
		}
		budgetRow = append(budgetRow, InlineButton{
			Text:   label,
			Action: "set_budget",
			Data:   strconv.Itoa(amount),
		})
	}
	kb.AddRow(budgetRow...)
	kb.AddRow(InlineButton{
		Text:   translated(t, "settings.budget_clear", "No budget limit"),
		Action: "set_budget",
		Data:   "clear",
	})

	kb.AddRow(b.backButton(t))
	return kb.Build()
}

// FavoritesMenu builds the category grid with the user's picks checked.
func (b *Builder) FavoritesMenu(t i18n.Translator, user *domain.User) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()

	row := make([]InlineButton, 0, 2)
	for _, category := range domain.Categories {
		label := translated(t, "categories."+category, category)
		if user != nil && user.Favorites[category] {
			label = "⭐ " + label
		}

		row = append(row, InlineButton{
			Text:   label,
			Action: "fav_toggle",
			Data:   category,
		})

		if len(row) == 2 {
			kb.AddRow(row...)
			row = make([]InlineButton, 0, 2)
		}
	}
	if len(row) > 0 {
		kb.AddRow(row...)
	}

	kb.AddRow(b.backButton(t))
	return kb.Build()
}

// RelayOpen builds the reply affordance posted to the admin group.
func (b *Builder) RelayOpen(t i18n.Translator, userID int64) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{
			Text:   translated(t, "relay.reply_button", "💬 Reply"),
			Action: "relay_open",
			Data:   strconv.FormatInt(userID, 10),
		}).
		Build()
}

// RelayEnd builds the end-dialog button shown to both relay sides.
func (b *Builder) RelayEnd(t i18n.Translator) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{
			Text:   translated(t, "relay.end_button", "✖️ End dialog"),
			Action: "relay_end",
		}).
		Build()
}

func (b *Builder) backButton(t i18n.Translator) InlineButton {
	return InlineButton{
		Text:   translated(t, "menu.back", "⬅️ Menu"),
		Action: "main_menu",
	}
}
