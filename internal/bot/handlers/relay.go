package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
	"github.com/dealpulse/dealpulse-bot/internal/relay"
)

// NewRelayOpenHandler returns the callback handler for the reply affordance
// posted in the admin group. It binds the tapping operator to the user.
func NewRelayOpenHandler(manager relay.Manager, prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, adminGroupID int64, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Chat() == nil {
			return nil
		}
		if c.Chat().ID != adminGroupID {
			return respondCallback(c, "")
		}

		userID, err := strconv.ParseInt(callbackPayload(c), 10, 64)
		if err != nil || userID == 0 {
			log.Warn("malformed relay open payload", slog.String("payload", callbackPayload(c)))
			return respondCallback(c, "")
		}

		ctx := context.Background()
		operator := c.Sender()
		operatorName := displayName(operator)
		groupT := locales.Translator("")

		displaced, err := manager.Bind(ctx, adminGroupID, operator.ID, operatorName, userID)
		if err != nil {
			if errors.Is(err, relay.ErrLocked) {
				return respondCallback(c, groupT.T("relay.busy", nil))
			}
			return err
		}

		if _, err := manager.OpenUserSession(ctx, userID, operator.ID); err != nil {
			return err
		}

		// The displaced user loses their operator; tell them.
		if displaced != nil && displaced.UserID != userID {
			oldT := userTranslator(prefsService, locales, displaced.UserID)
			if _, err := c.Bot().Send(telebot.ChatID(displaced.UserID), oldT.T("relay.ended", nil)); err != nil {
				log.Warn("failed to notify displaced user",
					slog.Int64("user_id", displaced.UserID),
					slog.Any("error", err))
			}
		}

		userT := userTranslator(prefsService, locales, userID)
		if _, err := c.Bot().Send(
			telebot.ChatID(userID),
			userT.T("relay.operator_joined", i18n.Params{"operator": operatorName}),
			kb.RelayEnd(userT),
		); err != nil {
			log.Warn("failed to notify relayed user",
				slog.Int64("user_id", userID),
				slog.Any("error", err))
		}

		if err := respondCallback(c, groupT.T("relay.opened", nil)); err != nil {
			log.Warn("failed to answer callback", slog.Any("error", err))
		}

		return c.Send(
			groupT.T("relay.opened_group", i18n.Params{
				"operator": operatorName,
				"user":     strconv.FormatInt(userID, 10),
			}),
			kb.RelayEnd(groupT),
		)
	}
}

// NewRelayEndHandler ends the dialog from whichever side asked. It backs
// both the /end command and the end-dialog button.
func NewRelayEndHandler(manager relay.Manager, prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, adminGroupID int64, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		_, callerT := profile(c, prefsService, locales)

		session, err := endFromContext(ctx, manager, c, adminGroupID)
		if errors.Is(err, relay.ErrSessionNotFound) {
			if c.Callback() != nil {
				return respondCallback(c, callerT.T("relay.not_active", nil))
			}
			return c.Send(callerT.T("relay.not_active", nil))
		}
		if err != nil {
			return err
		}

		notifyEnded(c, prefsService, locales, kb, session, adminGroupID, log)

		if c.Callback() != nil {
			if err := respondCallback(c, callerT.T("relay.ended", nil)); err != nil {
				log.Warn("failed to answer callback", slog.Any("error", err))
			}
			return nil
		}

		return nil
	}
}

// endFromContext picks which of the three session keys the caller holds.
func endFromContext(ctx context.Context, manager relay.Manager, c telebot.Context, adminGroupID int64) (*relay.Session, error) {
	if c.Chat() != nil && c.Chat().ID == adminGroupID {
		return manager.End(ctx, relay.KindGroup, adminGroupID)
	}

	senderID := c.Sender().ID
	session, err := manager.End(ctx, relay.KindOperator, senderID)
	if errors.Is(err, relay.ErrSessionNotFound) {
		return manager.End(ctx, relay.KindUser, senderID)
	}

	return session, err
}

// notifyEnded tells both sides the dialog is over, skipping the caller.
func notifyEnded(c telebot.Context, prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, session *relay.Session, adminGroupID int64, log *slog.Logger) {
	if session == nil {
		return
	}

	callerChat := int64(0)
	if c.Chat() != nil {
		callerChat = c.Chat().ID
	}

	if session.UserID != 0 && session.UserID != callerChat {
		userT := userTranslator(prefsService, locales, session.UserID)
		if _, err := c.Bot().Send(telebot.ChatID(session.UserID), userT.T("relay.ended", nil), kb.MainMenu(userT)); err != nil {
			log.Warn("failed to notify user about relay end",
				slog.Int64("user_id", session.UserID),
				slog.Any("error", err))
		}
	}

	if session.GroupID != 0 && session.GroupID != callerChat {
		groupT := locales.Translator("")
		if _, err := c.Bot().Send(
			telebot.ChatID(session.GroupID),
			groupT.T("relay.ended_group", i18n.Params{"operator": session.OperatorName}),
		); err != nil {
			log.Warn("failed to notify group about relay end",
				slog.Int64("group_id", session.GroupID),
				slog.Any("error", err))
		}
	}
}

// userTranslator resolves a translator for a chat that is not the sender.
func userTranslator(prefsService *prefs.Service, locales *i18n.Manager, chatID int64) i18n.Translator {
	if prefsService == nil {
		return locales.Translator("")
	}

	user, err := prefsService.GetOrCreate(context.Background(), chatID, "")
	if err != nil || user == nil {
		return locales.Translator("")
	}

	return locales.Translator(string(user.Language))
}
