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
	"github.com/dealpulse/dealpulse-bot/internal/query"
	"github.com/dealpulse/dealpulse-bot/pkg/metrics"
)

const searchPageAction = "search_page"

// NewSearchHandler returns the default free-text handler. Any plain message
// is treated as a deal search.
func NewSearchHandler(provider catalog.Provider, prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		raw := c.Text()
		user, t := profile(c, prefsService, locales)

		ctx := context.Background()
		chatID := c.Sender().ID

		if err := prefsService.SetLastQuery(ctx, chatID, raw); err != nil {
			log.Warn("failed to remember query", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
		_ = prefsService.RecordActivity(ctx, chatID, "search", raw)

		offers, err := provider.Offers(ctx)
		if err != nil {
			return err
		}

		results := catalog.Search(offers, query.Parse(raw), user)
		metrics.RecordSearch(len(results))

		if len(results) == 0 {
			return c.Send(t.T("search.empty", i18n.Params{"query": raw}), kb.MainMenu(t))
		}

		return sendSearchPage(c, t, results, 1, false)
	}
}

// NewSearchPageHandler pages through the sender's last search results.
func NewSearchPageHandler(provider catalog.Provider, prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		user, t := profile(c, prefsService, locales)

		page := callbackPage(c)
		if page < 1 {
			page = 1
		}

		offers, err := provider.Offers(context.Background())
		if err != nil {
			return err
		}

		lastQuery := ""
		if user != nil {
			lastQuery = user.LastQuery
		}

		results := catalog.Search(offers, query.Parse(lastQuery), user)
		if len(results) == 0 {
			return c.Edit(t.T("search.empty", i18n.Params{"query": lastQuery}), kb.MainMenu(t))
		}

		return sendSearchPage(c, t, results, page, true)
	}
}

// sendSearchPage renders one compact page of results with pagination.
func sendSearchPage(c telebot.Context, t i18n.Translator, results []domain.Offer, page int, edit bool) error {
	totalPages := catalog.TotalPages(len(results), catalog.PageSizeCompact)
	pageOffers := catalog.Paginate(results, page, catalog.PageSizeCompact)

	header := t.T("search.results", i18n.Params{"count": strconv.Itoa(len(results))})
	text := RenderOffers(t, header, pageOffers)

	markup := keyboard.NewInlineKeyboard().
		AddRow(keyboard.PaginationRow(t, searchPageAction, page, totalPages)...).
		Build()

	if edit {
		if err := c.Edit(text, markup); err == nil {
			return nil
		}
	}

	return c.Send(text, markup)
}

// callbackPage extracts the page payload from callback data.
func callbackPage(c telebot.Context) int {
	cb := c.Callback()
	if cb == nil {
		return 1
	}

	_, payload, err := keyboard.DecodeCallback(cb.Data)
	if err != nil || payload == "" {
		return 1
	}

	page, err := strconv.Atoi(payload)
	if err != nil {
		return 1
	}

	return page
}
