package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	bindLockKeyPattern = "relay:lock:%d"
	bindLockTTL        = 5 * time.Second
)

// ErrLocked indicates a concurrent operation already holds the bind lock.
var ErrLocked = errors.New("relay session is locked, try again later")

// Manager owns the three session maps and their transitions.
type Manager interface {
	// Bind creates the operator and group entries pointing at userID. An
	// existing binding for the operator or group is replaced; the displaced
	// session is returned so the caller can notify the dropped user.
	Bind(ctx context.Context, groupID, operatorID int64, operatorName string, userID int64) (*Session, error)
	// OpenUserSession flags userID as relayed, joining the binding created
	// by the given operator. Subsequent user messages bypass dispatch.
	OpenUserSession(ctx context.Context, userID, operatorID int64) (*Session, error)
	// RouteFromOperator returns the binding for a message sent by operatorID.
	RouteFromOperator(ctx context.Context, operatorID int64) (*Session, error)
	// RouteFromGroup returns the binding for a message posted in groupID.
	RouteFromGroup(ctx context.Context, groupID int64) (*Session, error)
	// RouteFromUser returns the binding for a message sent by userID, or
	// ErrSessionNotFound when the user is not in relay mode.
	RouteFromUser(ctx context.Context, userID int64) (*Session, error)
	// End tears the binding down symmetrically from whichever side asked:
	// user flag, operator entry, and group entry all go at once.
	End(ctx context.Context, kind SessionKind, chatID int64) (*Session, error)
	// Touch refreshes the binding's activity timestamp.
	Touch(ctx context.Context, kind SessionKind, chatID int64) error
	// Sessions returns every stored entry, for the cleaner and metrics.
	Sessions(ctx context.Context) (map[Key]*Session, error)
}

// manager is the concrete Manager backed by Storage and optional Redis
// locking for multi-instance deployments.
type manager struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
}

// NewManager creates a session manager using the provided storage backend.
func NewManager(storage Storage, log *slog.Logger, redisClient *redis.Client) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
	}
}

func (m *manager) Bind(ctx context.Context, groupID, operatorID int64, operatorName string, userID int64) (*Session, error) {
	if err := m.lock(ctx, operatorID); err != nil {
		return nil, err
	}
	defer m.unlock(ctx, operatorID)

	displaced, err := m.storage.Get(ctx, Key{Kind: KindOperator, ChatID: operatorID})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	session := &Session{
		UserID:       userID,
		OperatorID:   operatorID,
		OperatorName: operatorName,
		GroupID:      groupID,
		UpdatedAt:    time.Now().UTC(),
	}

	if err := m.storage.Set(ctx, Key{Kind: KindOperator, ChatID: operatorID}, session); err != nil {
		return nil, err
	}
	if err := m.storage.Set(ctx, Key{Kind: KindGroup, ChatID: groupID}, session); err != nil {
		return nil, err
	}

	if displaced != nil && displaced.UserID != userID {
		// The displaced user's relay flag must not keep routing messages
		// into a binding that no longer points at them.
		if clearErr := m.storage.Clear(ctx, Key{Kind: KindUser, ChatID: displaced.UserID}); clearErr != nil {
			m.log.Warn("failed to clear displaced user session",
				slog.Int64("user_id", displaced.UserID), slog.Any("error", clearErr))
		}
		transitionRecorder(TransitionRebind)
		return displaced, nil
	}

	transitionRecorder(TransitionBind)
	return nil, nil
}

func (m *manager) OpenUserSession(ctx context.Context, userID, operatorID int64) (*Session, error) {
	session, err := m.storage.Get(ctx, Key{Kind: KindOperator, ChatID: operatorID})
	if err != nil {
		return nil, err
	}

	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}

	if err := m.storage.Set(ctx, Key{Kind: KindUser, ChatID: userID}, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (m *manager) RouteFromOperator(ctx context.Context, operatorID int64) (*Session, error) {
	return m.storage.Get(ctx, Key{Kind: KindOperator, ChatID: operatorID})
}

func (m *manager) RouteFromGroup(ctx context.Context, groupID int64) (*Session, error) {
	return m.storage.Get(ctx, Key{Kind: KindGroup, ChatID: groupID})
}

func (m *manager) RouteFromUser(ctx context.Context, userID int64) (*Session, error) {
	return m.storage.Get(ctx, Key{Kind: KindUser, ChatID: userID})
}

func (m *manager) End(ctx context.Context, kind SessionKind, chatID int64) (*Session, error) {
	session, err := m.storage.Get(ctx, Key{Kind: kind, ChatID: chatID})
	if err != nil {
		return nil, err
	}

	m.clearAll(ctx, session)
	transitionRecorder(TransitionEnd)
	return session, nil
}

func (m *manager) Touch(ctx context.Context, kind SessionKind, chatID int64) error {
	session, err := m.storage.Get(ctx, Key{Kind: kind, ChatID: chatID})
	if err != nil {
		return err
	}

	session.UpdatedAt = time.Now().UTC()

	for _, key := range sessionKeys(session) {
		if _, getErr := m.storage.Get(ctx, key); getErr != nil {
			continue
		}
		if setErr := m.storage.Set(ctx, key, session); setErr != nil {
			return setErr
		}
	}

	return nil
}

func (m *manager) Sessions(ctx context.Context) (map[Key]*Session, error) {
	return m.storage.All(ctx)
}

// clearAll removes every entry of the triple; missing entries are fine.
func (m *manager) clearAll(ctx context.Context, session *Session) {
	for _, key := range sessionKeys(session) {
		if err := m.storage.Clear(ctx, key); err != nil {
			m.log.Warn("failed to clear relay session entry",
				slog.String("key", key.String()), slog.Any("error", err))
		}
	}
}

func sessionKeys(session *Session) []Key {
	return []Key{
		{Kind: KindOperator, ChatID: session.OperatorID},
		{Kind: KindGroup, ChatID: session.GroupID},
		{Kind: KindUser, ChatID: session.UserID},
	}
}

func (m *manager) lock(ctx context.Context, operatorID int64) error {
	if m.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(bindLockKeyPattern, operatorID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, bindLockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire relay bind lock", slog.Int64("operator_id", operatorID), slog.Any("error", err))
		return err
	}

	if !acquired {
		m.log.Warn("relay bind lock already held", slog.Int64("operator_id", operatorID))
		return ErrLocked
	}

	return nil
}

func (m *manager) unlock(ctx context.Context, operatorID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(bindLockKeyPattern, operatorID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release relay bind lock", slog.Int64("operator_id", operatorID), slog.Any("error", err))
	}
}
