package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/keyboard"
	"github.com/dealpulse/dealpulse-bot/internal/i18n"
	"github.com/dealpulse/dealpulse-bot/internal/prefs"
	"github.com/dealpulse/dealpulse-bot/internal/relay"
)

const (
	testGroupID    int64 = -500
	testOperatorID int64 = 10
	testUserID     int64 = 100
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLocales(t *testing.T) *i18n.Manager {
	t.Helper()

	content := `
en:
  relay:
    from_operator: "From {operator}:"
    from_user: "From {user}:"
    reply_button: "Reply"
    end_button: "End dialog"
    delivery_failed: "delivery failed"
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte(content), 0o644))

	m, err := i18n.LoadFromDir(dir, "en")
	require.NoError(t, err)
	return m
}

// sendRecorder captures outbound deliveries in place of a live bot.
type sendRecorder struct {
	fail bool
	to   []telebot.Recipient
	what []interface{}
	opts [][]interface{}
}

func (r *sendRecorder) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if r.fail {
		return nil, errors.New("telegram unavailable")
	}

	r.to = append(r.to, to)
	r.what = append(r.what, what)
	r.opts = append(r.opts, opts)
	return &telebot.Message{}, nil
}

// stubContext implements the small telebot.Context slice the router and
// dispatcher touch.
type stubContext struct {
	telebot.Context
	msg  *telebot.Message
	sent []string
}

func (c *stubContext) Message() *telebot.Message   { return c.msg }
func (c *stubContext) Sender() *telebot.User       { return c.msg.Sender }
func (c *stubContext) Chat() *telebot.Chat         { return c.msg.Chat }
func (c *stubContext) Callback() *telebot.Callback { return nil }
func (c *stubContext) Text() string                { return c.msg.Text }

func (c *stubContext) Send(what interface{}, _ ...interface{}) error {
	if text, ok := what.(string); ok {
		c.sent = append(c.sent, text)
	}
	return nil
}

func userMessage(text string) *stubContext {
	return &stubContext{msg: &telebot.Message{
		Text:   text,
		Sender: &telebot.User{ID: testUserID, FirstName: "Asha"},
		Chat:   &telebot.Chat{ID: testUserID, Type: telebot.ChatPrivate},
	}}
}

func operatorMessage(text string) *stubContext {
	return &stubContext{msg: &telebot.Message{
		Text:   text,
		Sender: &telebot.User{ID: testOperatorID, FirstName: "Priya"},
		Chat:   &telebot.Chat{ID: testOperatorID, Type: telebot.ChatPrivate},
	}}
}

func groupMessage(text string) *stubContext {
	return &stubContext{msg: &telebot.Message{
		Text:   text,
		Sender: &telebot.User{ID: testOperatorID, FirstName: "Priya"},
		Chat:   &telebot.Chat{ID: testGroupID, Type: telebot.ChatGroup},
	}}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, relay.Manager, *sendRecorder) {
	t.Helper()

	manager := relay.NewManager(relay.NewMemoryStorage(), testLogger(), nil)
	prefsService := prefs.NewService(prefs.NewMemoryRepository(), prefs.NewCache(nil), testLogger())

	d := NewDispatcher(manager, prefsService, testLocales(t), keyboard.NewBuilder(testLogger()), testGroupID, testLogger())
	rec := &sendRecorder{}
	d.sender = rec

	return d, manager, rec
}

func bindDialog(t *testing.T, manager relay.Manager) {
	t.Helper()

	ctx := context.Background()
	_, err := manager.Bind(ctx, testGroupID, testOperatorID, "Priya", testUserID)
	require.NoError(t, err)
	_, err = manager.OpenUserSession(ctx, testUserID, testOperatorID)
	require.NoError(t, err)
}

func TestDispatch_BoundUserMessageRelayedToGroup(t *testing.T) {
	d, manager, rec := newTestDispatcher(t)
	bindDialog(t, manager)

	consumed, err := d.Dispatch(userMessage("where is my refund?"))

	require.NoError(t, err)
	assert.True(t, consumed)

	require.Len(t, rec.what, 1)
	assert.Equal(t, telebot.ChatID(testGroupID), rec.to[0])

	delivered, ok := rec.what[0].(string)
	require.True(t, ok)
	assert.NotEqual(t, "where is my refund?", delivered)
	assert.Contains(t, delivered, "where is my refund?")
	assert.Contains(t, delivered, "Asha")

	// The group delivery carries a routing control.
	require.Len(t, rec.opts[0], 1)
	assert.IsType(t, &telebot.ReplyMarkup{}, rec.opts[0][0])
}

func TestDispatch_OperatorReplyTaggedForUser(t *testing.T) {
	d, manager, rec := newTestDispatcher(t)
	bindDialog(t, manager)

	consumed, err := d.Dispatch(operatorMessage("refund is on its way"))

	require.NoError(t, err)
	assert.True(t, consumed)

	require.Len(t, rec.what, 1)
	assert.Equal(t, telebot.ChatID(testUserID), rec.to[0])

	delivered, ok := rec.what[0].(string)
	require.True(t, ok)
	assert.Contains(t, delivered, "Priya")
	assert.Contains(t, delivered, "refund is on its way")

	// The user delivery carries the end-dialog affordance.
	require.Len(t, rec.opts[0], 1)
	assert.IsType(t, &telebot.ReplyMarkup{}, rec.opts[0][0])
}

func TestDispatch_GroupMessageRelayedToUser(t *testing.T) {
	d, manager, rec := newTestDispatcher(t)
	bindDialog(t, manager)

	consumed, err := d.Dispatch(groupMessage("checking on it now"))

	require.NoError(t, err)
	assert.True(t, consumed)

	require.Len(t, rec.what, 1)
	assert.Equal(t, telebot.ChatID(testUserID), rec.to[0])

	delivered, ok := rec.what[0].(string)
	require.True(t, ok)
	assert.Contains(t, delivered, "Priya")
	assert.Contains(t, delivered, "checking on it now")
}

func TestDispatch_PhotoCaptionTagged(t *testing.T) {
	d, manager, rec := newTestDispatcher(t)
	bindDialog(t, manager)

	c := userMessage("")
	c.msg.Photo = &telebot.Photo{}
	c.msg.Caption = "screenshot of the order"

	consumed, err := d.Dispatch(c)

	require.NoError(t, err)
	assert.True(t, consumed)

	require.Len(t, rec.what, 1)
	photo, ok := rec.what[0].(*telebot.Photo)
	require.True(t, ok)
	assert.Contains(t, photo.Caption, "Asha")
	assert.Contains(t, photo.Caption, "screenshot of the order")
}

func TestDispatch_UnboundMessageNotConsumed(t *testing.T) {
	d, _, rec := newTestDispatcher(t)

	consumed, err := d.Dispatch(userMessage("oneplus under 20000"))

	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Empty(t, rec.what)

	consumed, err = d.Dispatch(groupMessage("just chatting"))

	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Empty(t, rec.what)
}

func TestDispatch_DeliveryFailureNotifiesSender(t *testing.T) {
	d, manager, rec := newTestDispatcher(t)
	bindDialog(t, manager)
	rec.fail = true

	c := userMessage("hello?")
	consumed, err := d.Dispatch(c)

	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Contains(t, c.sent, "delivery failed")
}

func TestRoute_RelayExclusivityEndsWithSession(t *testing.T) {
	d, manager, rec := newTestDispatcher(t)
	bindDialog(t, manager)

	router := NewRouter(d, testLogger())
	searches := 0
	router.SetDefault(func(telebot.Context) error {
		searches++
		return nil
	})

	// Bound: the message is relayed, never parsed as a search.
	require.NoError(t, router.Route(userMessage("where is my refund?")))
	assert.Equal(t, 0, searches)
	assert.Len(t, rec.what, 1)

	_, err := manager.End(context.Background(), relay.KindUser, testUserID)
	require.NoError(t, err)

	// Unbound again: the next message reaches the search handler.
	require.NoError(t, router.Route(userMessage("oneplus under 20000")))
	assert.Equal(t, 1, searches)
	assert.Len(t, rec.what, 1)
}
