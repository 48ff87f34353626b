package relay

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager() Manager {
	return NewManager(NewMemoryStorage(), testLogger(), nil)
}

func TestBind_CreatesTriple(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	displaced, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)
	assert.Nil(t, displaced)

	session, err := m.RouteFromOperator(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(100), session.UserID)
	assert.Equal(t, int64(-500), session.GroupID)
	assert.Equal(t, "Priya", session.OperatorName)

	session, err = m.RouteFromGroup(ctx, -500)
	require.NoError(t, err)
	assert.Equal(t, int64(100), session.UserID)

	// The user-side flag only appears once the user session is opened.
	_, err = m.RouteFromUser(ctx, 100)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestOpenUserSession(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)

	session, err := m.OpenUserSession(ctx, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), session.OperatorID)

	session, err = m.RouteFromUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(-500), session.GroupID)
}

func TestOpenUserSession_WrongUser(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)

	_, err = m.OpenUserSession(ctx, 999, 10)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBind_RebindDisplacesPreviousUser(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)
	_, err = m.OpenUserSession(ctx, 100, 10)
	require.NoError(t, err)

	displaced, err := m.Bind(ctx, -500, 10, "Priya", 200)
	require.NoError(t, err)
	require.NotNil(t, displaced)
	assert.Equal(t, int64(100), displaced.UserID)

	// The displaced user's relay flag is cleared.
	_, err = m.RouteFromUser(ctx, 100)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	session, err := m.RouteFromOperator(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(200), session.UserID)
}

func TestBind_SameUserIsNotDisplacement(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)

	displaced, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)
	assert.Nil(t, displaced)
}

func TestEnd_SymmetricFromEverySide(t *testing.T) {
	sides := []struct {
		name   string
		kind   SessionKind
		chatID int64
	}{
		{name: "operator side", kind: KindOperator, chatID: 10},
		{name: "group side", kind: KindGroup, chatID: -500},
		{name: "user side", kind: KindUser, chatID: 100},
	}

	for _, side := range sides {
		t.Run(side.name, func(t *testing.T) {
			m := newTestManager()
			ctx := context.Background()

			_, err := m.Bind(ctx, -500, 10, "Priya", 100)
			require.NoError(t, err)
			_, err = m.OpenUserSession(ctx, 100, 10)
			require.NoError(t, err)

			session, err := m.End(ctx, side.kind, side.chatID)
			require.NoError(t, err)
			assert.Equal(t, int64(100), session.UserID)

			_, err = m.RouteFromOperator(ctx, 10)
			assert.ErrorIs(t, err, ErrSessionNotFound)
			_, err = m.RouteFromGroup(ctx, -500)
			assert.ErrorIs(t, err, ErrSessionNotFound)
			_, err = m.RouteFromUser(ctx, 100)
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestEnd_NoSession(t *testing.T) {
	m := newTestManager()

	_, err := m.End(context.Background(), KindOperator, 10)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTouch_RefreshesActivity(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)

	before, err := m.RouteFromOperator(ctx, 10)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, m.Touch(ctx, KindOperator, 10))

	after, err := m.RouteFromOperator(ctx, 10)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	// Group entry carries the same refreshed timestamp.
	group, err := m.RouteFromGroup(ctx, -500)
	require.NoError(t, err)
	assert.Equal(t, after.UpdatedAt, group.UpdatedAt)
}

func TestSessions_ListsAllEntries(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, err := m.Bind(ctx, -500, 10, "Priya", 100)
	require.NoError(t, err)
	_, err = m.OpenUserSession(ctx, 100, 10)
	require.NoError(t, err)

	sessions, err := m.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}
