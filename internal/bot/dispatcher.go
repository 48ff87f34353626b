package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
	"github.com/dealpulse/dealpulse-bot/internal/relay"
	"github.com/dealpulse/dealpulse-bot/pkg/metrics"
)

// Sender delivers an outbound message. *telebot.Bot satisfies it; tests
// substitute a recorder.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Dispatcher intercepts messages belonging to an active relay dialog and
// forwards them before normal routing runs.
type Dispatcher struct {
	manager      relay.Manager
	prefs        *prefs.Service
	locales      *i18n.Manager
	keyboard     *keyboard.Builder
	adminGroupID int64
	sender       Sender
	log          *slog.Logger
}

// NewDispatcher builds a relay dispatcher.
func NewDispatcher(manager relay.Manager, prefsService *prefs.Service, locales *i18n.Manager, kb *keyboard.Builder, adminGroupID int64, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		manager:      manager,
		prefs:        prefsService,
		locales:      locales,
		keyboard:     kb,
		adminGroupID: adminGroupID,
		log:          log,
	}
}

// Dispatch forwards the message when its sender or chat is part of an active
// relay dialog. It reports whether the message was consumed.
func (d *Dispatcher) Dispatch(c telebot.Context) (bool, error) {
	if d == nil || d.manager == nil || c == nil {
		return false, nil
	}

	msg := c.Message()
	if msg == nil || c.Sender() == nil || c.Chat() == nil {
		return false, nil
	}

	ctx := context.Background()

	if c.Chat().ID == d.adminGroupID && d.adminGroupID != 0 {
		session, err := d.manager.RouteFromGroup(ctx, d.adminGroupID)
		if errors.Is(err, relay.ErrSessionNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		return true, d.forward(c, session, relay.KindGroup, telebot.ChatID(session.UserID), "to_user")
	}

	if c.Chat().Type != telebot.ChatPrivate {
		return false, nil
	}

	senderID := c.Sender().ID

	if session, err := d.manager.RouteFromOperator(ctx, senderID); err == nil {
		return true, d.forward(c, session, relay.KindOperator, telebot.ChatID(session.UserID), "to_user")
	} else if !errors.Is(err, relay.ErrSessionNotFound) {
		return false, err
	}

	if session, err := d.manager.RouteFromUser(ctx, senderID); err == nil {
		return true, d.forward(c, session, relay.KindUser, telebot.ChatID(session.GroupID), "to_group")
	} else if !errors.Is(err, relay.ErrSessionNotFound) {
		return false, err
	}

	return false, nil
}

// forward copies the message payload to the other side of the dialog, tagged
// with the counterparty's display name, and refreshes the session's activity
// timestamp. A delivery failure is reported to the sender instead of being
// swallowed. Raw chat IDs never appear in the delivered text; the routing
// controls carry them in callback payloads only.
func (d *Dispatcher) forward(c telebot.Context, session *relay.Session, kind relay.SessionKind, to telebot.ChatID, direction string) error {
	msg := c.Message()

	payload, payloadType := sendable(msg)
	if payload == nil {
		d.log.Warn("unsupported relay payload dropped",
			slog.String("direction", direction),
			slog.Int64("sender_id", c.Sender().ID))
		return d.notifySendFailure(c, errors.New("unsupported payload"))
	}

	var opts []interface{}
	switch direction {
	case "to_user":
		t := d.translatorFor(session.UserID)
		payload = withTag(payload, t.T("relay.from_operator", i18n.Params{"operator": session.OperatorName}))
		if d.keyboard != nil {
			opts = append(opts, d.keyboard.RelayEnd(t))
		}
	case "to_group":
		t := d.locales.Translator("")
		payload = withTag(payload, t.T("relay.from_user", i18n.Params{"user": relayDisplayName(c.Sender())}))
		if d.keyboard != nil {
			opts = append(opts, d.keyboard.RelayOpen(t, session.UserID))
		}
	}

	if _, err := d.outbound(c).Send(to, payload, opts...); err != nil {
		d.log.Error("relay delivery failed",
			slog.String("direction", direction),
			slog.Int64("sender_id", c.Sender().ID),
			slog.Any("error", err))
		return d.notifySendFailure(c, err)
	}

	if err := d.manager.Touch(context.Background(), kind, c.Chat().ID); err != nil {
		d.log.Warn("failed to touch relay session", slog.Any("error", err))
	}

	metrics.RecordRelayMessage(direction, payloadType)
	return nil
}

func (d *Dispatcher) outbound(c telebot.Context) Sender {
	if d.sender != nil {
		return d.sender
	}
	return c.Bot()
}

func (d *Dispatcher) notifySendFailure(c telebot.Context, cause error) error {
	t := d.locales.Translator("")
	if c.Sender() != nil {
		t = d.translatorFor(c.Sender().ID)
	}

	return c.Send(t.T("relay.delivery_failed", nil))
}

// translatorFor resolves the language pack for a chat's stored profile.
func (d *Dispatcher) translatorFor(chatID int64) i18n.Translator {
	if d.prefs != nil {
		if user, err := d.prefs.GetOrCreate(context.Background(), chatID, ""); err == nil && user != nil {
			return d.locales.Translator(string(user.Language))
		}
	}

	return d.locales.Translator("")
}

// sendable rebuilds the message payload for re-sending, keeping captions.
// Returns nil for payload types the relay does not carry.
func sendable(msg *telebot.Message) (interface{}, string) {
	switch {
	case msg.Photo != nil:
		photo := *msg.Photo
		photo.Caption = msg.Caption
		return &photo, "photo"
	case msg.Document != nil:
		document := *msg.Document
		document.Caption = msg.Caption
		return &document, "document"
	case msg.Voice != nil:
		voice := *msg.Voice
		voice.Caption = msg.Caption
		return &voice, "voice"
	case msg.Text != "":
		return msg.Text, "text"
	default:
		return nil, ""
	}
}

// withTag prefixes text payloads, or media captions, with the counterparty
// line.
func withTag(payload interface{}, tag string) interface{} {
	if tag == "" {
		return payload
	}

	switch p := payload.(type) {
	case string:
		return tag + "\n" + p
	case *telebot.Photo:
		p.Caption = joinTag(tag, p.Caption)
	case *telebot.Document:
		p.Caption = joinTag(tag, p.Caption)
	case *telebot.Voice:
		p.Caption = joinTag(tag, p.Caption)
	}

	return payload
}

func joinTag(tag, caption string) string {
	if caption == "" {
		return tag
	}
	return tag + "\n" + caption
}

func relayDisplayName(sender *telebot.User) string {
	if sender == nil {
		return ""
	}

	name := strings.TrimSpace(sender.FirstName + " " + sender.LastName)
	if name == "" {
		name = sender.Username
	}
	return name
}
