package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
)

const cacheTTL = 10 * time.Minute

// Toggle outcome keys, localized by the caller.
const (
	FavoriteAdded   = "favorites.added"
	FavoriteRemoved = "favorites.removed"
)

// Service provides the preference operations the dispatch layer calls.
// Mutations are read-modify-write; the service serializes them so toggles
// stay atomic on a concurrent runtime.
type Service struct {
	mu    sync.Mutex
	repo  Repository
	cache *Cache
	log   *slog.Logger
}

// NewService constructs a Service over the given repository.
func NewService(repo Repository, cache *Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{repo: repo, cache: cache, log: log}
}

// GetOrCreate fetches a profile by chat ID, lazily creating it with default
// preferences on first contact. Idempotent.
func (s *Service) GetOrCreate(ctx context.Context, chatID int64, displayName string) (*domain.User, error) {
	if cached, err := s.cache.Get(ctx, chatID); err == nil && cached != nil {
		return cached, nil
	}

	user, err := s.repo.FindByID(ctx, chatID)
	if err == nil {
		s.cacheSet(ctx, user)
		return user, nil
	}

	if !errors.Is(err, ErrNotFound) {
		s.logError("get_or_create.find", chatID, err)
		return nil, fmt.Errorf("get profile: %w", err)
	}

	user = domain.NewUser(chatID, displayName)
	if err := s.repo.Save(ctx, user); err != nil {
		s.logError("get_or_create.save", chatID, err)
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.cacheSet(ctx, user)
	return user, nil
}

// ToggleFavorite flips membership of the category in the user's favorites and
// returns the locale key of the confirmation message.
func (s *Service) ToggleFavorite(ctx context.Context, chatID int64, categoryID string) (string, error) {
	var outcome string

	err := s.mutate(ctx, chatID, func(user *domain.User) {
		if user.Favorites == nil {
			user.Favorites = make(map[string]bool)
		}
		if user.Favorites[categoryID] {
			delete(user.Favorites, categoryID)
			outcome = FavoriteRemoved
		} else {
			user.Favorites[categoryID] = true
			outcome = FavoriteAdded
		}
	})

	return outcome, err
}

// SetBudget sets the spending ceiling; nil means unlimited.
func (s *Service) SetBudget(ctx context.Context, chatID int64, amount *int) error {
	return s.mutate(ctx, chatID, func(user *domain.User) {
		if amount == nil {
			user.Budget = nil
			return
		}
		value := *amount
		user.Budget = &value
	})
}

// ToggleNotification flips the notification toggle and returns the new state.
func (s *Service) ToggleNotification(ctx context.Context, chatID int64, kind domain.NotificationKind) (bool, error) {
	var enabled bool

	err := s.mutate(ctx, chatID, func(user *domain.User) {
		if user.Notifications == nil {
			user.Notifications = make(map[domain.NotificationKind]bool)
		}
		user.Notifications[kind] = !user.Notifications[kind]
		enabled = user.Notifications[kind]
	})

	return enabled, err
}

// SetLanguage updates the interface language.
func (s *Service) SetLanguage(ctx context.Context, chatID int64, lang domain.Language) error {
	return s.mutate(ctx, chatID, func(user *domain.User) {
		user.Language = lang
	})
}

// SetLastQuery remembers the most recent free-text search.
func (s *Service) SetLastQuery(ctx context.Context, chatID int64, raw string) error {
	return s.mutate(ctx, chatID, func(user *domain.User) {
		user.LastQuery = raw
	})
}

// RecordActivity prepends an entry to the bounded recent-activity log.
func (s *Service) RecordActivity(ctx context.Context, chatID int64, action, detail string) error {
	return s.mutate(ctx, chatID, func(user *domain.User) {
		entry := domain.ActivityEntry{Action: action, Detail: detail, At: time.Now().UTC()}
		user.Activity = append([]domain.ActivityEntry{entry}, user.Activity...)
		if len(user.Activity) > domain.ActivityLogCap {
			user.Activity = user.Activity[:domain.ActivityLogCap]
		}
	})
}

// Subscribers lists chats that opted into the given notification kind.
func (s *Service) Subscribers(ctx context.Context, kind domain.NotificationKind) ([]int64, error) {
	return s.repo.SubscribedTo(ctx, kind)
}

// mutate loads the profile, applies fn, and saves it, invalidating the cache.
// The service mutex keeps concurrent read-modify-write cycles from
// interleaving.
func (s *Service) mutate(ctx context.Context, chatID int64, fn func(*domain.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.FindByID(ctx, chatID)
	if errors.Is(err, ErrNotFound) {
		user = domain.NewUser(chatID, "")
		err = nil
	}
	if err != nil {
		s.logError("mutate.find", chatID, err)
		return fmt.Errorf("get profile: %w", err)
	}

	fn(user)

	if err := s.repo.Save(ctx, user); err != nil {
		s.logError("mutate.save", chatID, err)
		return fmt.Errorf("save profile: %w", err)
	}

	if invErr := s.cache.Invalidate(ctx, chatID); invErr != nil {
		s.log.Warn("profile cache invalidation failed", slog.Int64("chat_id", chatID), slog.Any("error", invErr))
	}

	return nil
}

func (s *Service) cacheSet(ctx context.Context, user *domain.User) {
	if err := s.cache.Set(ctx, user, cacheTTL); err != nil && s.log != nil {
		s.log.Warn("profile cache write failed", slog.Int64("chat_id", user.ChatID), slog.Any("error", err))
	}
}

func (s *Service) logError(operation string, chatID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("preference operation failed",
		slog.String("operation", operation),
		slog.Int64("chat_id", chatID),
		slog.Any("error", err),
	)
}
