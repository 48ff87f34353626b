package handlers

import (
	"context"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/catalog"
	"github.com/dealpulse/dealpulse-bot/internal/domain"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
)

const dealsPageAction = "deals_page"

// NewDealsHandler returns the /deals command handler: the full ranked
// listing, narrowed to favorite categories when the user picked any.
func NewDealsHandler(provider catalog.Provider, prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		return showDealsPage(c, provider, prefsService, locales, kb, 1)
	}
}

// NewDealsPageHandler pages through the deals listing via callbacks.
func NewDealsPageHandler(provider catalog.Provider, prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		page := callbackPage(c)
		return showDealsPage(c, provider, prefsService, locales, kb, page)
	}
}

func showDealsPage(c telebot.Context, provider catalog.Provider, prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, page int) error {
	if c == nil || c.Sender() == nil {
		return nil
	}
	if page < 1 {
		page = 1
	}

	user, t := profile(c, prefsService, locales)

	offers, err := provider.Offers(context.Background())
	if err != nil {
		return err
	}

	filtered := catalog.Filter(offers, catalog.Filters{Categories: favoriteCategories(user)})
	catalog.Rank(filtered)

	if len(filtered) == 0 {
		return c.Send(t.T("deals.empty", nil), kb.MainMenu(t))
	}

	totalPages := catalog.TotalPages(len(filtered), catalog.PageSizeFull)
	pageOffers := catalog.Paginate(filtered, page, catalog.PageSizeFull)

	header := t.T("deals.title", i18n.Params{"count": strconv.Itoa(len(filtered))})
	text := RenderOffers(t, header, pageOffers)

	markup := keyboard.NewInlineKeyboard().
		AddRow(keyboard.PaginationRow(t, dealsPageAction, page, totalPages)...).
		Build()

	if c.Callback() != nil {
		if err := c.Edit(text, markup); err == nil {
			return nil
		}
	}

	return c.Send(text, markup)
}

func favoriteCategories(user *domain.User) []string {
	if user == nil {
		return nil
	}

	var categories []string
	for category, picked := range user.Favorites {
		if picked {
			categories = append(categories, category)
		}
	}
	return categories
}
