// Package bot wires the Telegram surface: routing, middlewares, handlers.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/handlers"
	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/catalog"
	"github.com/dealpulse/dealpulse-bot/internal/domain"
	apperrors "github.com/dealpulse/dealpulse-bot/internal/errors"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/idempotency"
	"github.com/dealpulse/dealpulse-bot/internal/middleware"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
	"github.com/dealpulse/dealpulse-bot/internal/relay"
	"github.com/dealpulse/dealpulse-bot/pkg/config"
)

// Bot wraps telebot.Bot with the application dependencies needed to handle
// updates.
type Bot struct {
	telebot      *telebot.Bot
	log          *slog.Logger
	cfg          config.Config
	locales      *i18n.Manager
	prefs        *prefs.Service
	provider     catalog.Provider
	relayManager relay.Manager
	router       *Router
	dispatcher   *Dispatcher
	keyboard     *keyboard.Builder
	errHandler   *apperrors.Handler
}

// New builds a telegram bot instance configured from application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	locales *i18n.Manager,
	prefsService *prefs.Service,
	provider catalog.Provider,
	relayManager relay.Manager,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	kb := keyboard.NewBuilder(log)
	dispatcher := NewDispatcher(relayManager, prefsService, locales, kb, cfg.Bot.AdminGroupID, log)
	router := NewRouter(dispatcher, log)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:      tb,
		log:          log,
		cfg:          cfg,
		locales:      locales,
		prefs:        prefsService,
		provider:     provider,
		relayManager: relayManager,
		router:       router,
		dispatcher:   dispatcher,
		keyboard:     kb,
		errHandler:   errHandler,
	}

	b.setupRouter(idempotencyManager)

	if rateLimitMw != nil {
		b.telebot.Use(rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot")
	b.telebot.Stop()
}

// Telebot exposes the underlying instance for health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// NotifyDeals delivers a deal digest to a chat in its preferred language.
// The jobs worker calls it during alert fan-out.
func (b *Bot) NotifyDeals(chatID int64, kind domain.NotificationKind, offers []domain.Offer) error {
	t := b.locales.Translator("")
	if user, err := b.prefs.GetOrCreate(context.Background(), chatID, ""); err == nil && user != nil {
		t = b.locales.Translator(string(user.Language))
	}

	header := t.T("alerts."+string(kind), nil)
	text := handlers.RenderOffers(t, header, offers)

	_, err := b.telebot.Send(telebot.ChatID(chatID), text)
	return err
}

func (b *Bot) setupRouter(idempotencyManager idempotency.Manager) {
	adminGroupID := b.cfg.Bot.AdminGroupID

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler, b.prefs, b.locales))
	b.router.Use(middleware.Idempotency(idempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler, b.prefs, b.locales))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(b.prefs, b.locales, b.keyboard))
	b.router.RegisterCommand(CommandDeals, handlers.NewDealsHandler(b.provider, b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCommand(CommandFavorites, handlers.NewFavoritesHandler(b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCommand(CommandSettings, handlers.NewSettingsHandler(b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(b.prefs, b.locales, b.keyboard))
	b.router.RegisterCommand(CommandSupport, handlers.NewSupportHandler(b.prefs, b.locales, b.keyboard, adminGroupID, b.log))
	b.router.RegisterCommand(CommandEnd, handlers.NewRelayEndHandler(b.relayManager, b.prefs, b.locales, b.keyboard, adminGroupID, b.log))

	b.router.RegisterCallback(CallbackDealsPage, handlers.NewDealsPageHandler(b.provider, b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackSearchPage, handlers.NewSearchPageHandler(b.provider, b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackFavoriteToggle, handlers.NewFavoriteToggleHandler(b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackFavoritesMenu, handlers.CallbackHandler(handlers.NewFavoritesHandler(b.prefs, b.locales, b.keyboard, b.log)))
	b.router.RegisterCallback(CallbackSetLanguage, handlers.NewSetLanguageHandler(b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackToggleNotify, handlers.NewToggleNotifyHandler(b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackSetBudget, handlers.NewSetBudgetHandler(b.prefs, b.locales, b.keyboard, b.log))
	b.router.RegisterCallback(CallbackSettingsMenu, handlers.CallbackHandler(handlers.NewSettingsHandler(b.prefs, b.locales, b.keyboard, b.log)))
	b.router.RegisterCallback(CallbackHelp, handlers.CallbackHandler(handlers.NewHelpHandler(b.prefs, b.locales, b.keyboard)))
	b.router.RegisterCallback(CallbackRelayOpen, handlers.NewRelayOpenHandler(b.relayManager, b.prefs, b.locales, b.keyboard, adminGroupID, b.log))
	b.router.RegisterCallback(CallbackRelayEnd, handlers.CallbackHandler(handlers.NewRelayEndHandler(b.relayManager, b.prefs, b.locales, b.keyboard, adminGroupID, b.log)))
	b.router.RegisterCallback(CallbackMainMenu, handlers.NewMainMenuHandler(b.prefs, b.locales, b.keyboard))

	b.router.SetDefault(handlers.NewSearchHandler(b.provider, b.prefs, b.locales, b.keyboard, b.log))
	b.router.SetCallbackFallback(handlers.NewMainMenuHandler(b.prefs, b.locales, b.keyboard))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
	b.telebot.Handle(telebot.OnPhoto, b.router.Route)
	b.telebot.Handle(telebot.OnDocument, b.router.Route)
	b.telebot.Handle(telebot.OnVoice, b.router.Route)
}
