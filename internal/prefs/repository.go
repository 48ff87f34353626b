// Package prefs stores per-user preferences: language, favorite categories,
// budget ceiling, notification toggles, and a bounded activity log.
package prefs

import (
	"context"
	"errors"
	"sync"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
)

// ErrNotFound indicates no profile exists for the chat identifier.
var ErrNotFound = errors.New("user profile not found")

// Repository defines persistence operations for user profiles.
type Repository interface {
	FindByID(ctx context.Context, chatID int64) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
	// SubscribedTo lists chats that opted into the given notification kind.
	SubscribedTo(ctx context.Context, kind domain.NotificationKind) ([]int64, error)
}

// MemoryRepository keeps profiles in process memory. This mirrors the
// volatile store of the original bots; profiles live as long as the process.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[int64]*domain.User
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[int64]*domain.User)}
}

// FindByID returns a copy of the stored profile.
func (r *MemoryRepository) FindByID(_ context.Context, chatID int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[chatID]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneUser(user), nil
}

// Save stores a copy of the profile.
func (r *MemoryRepository) Save(_ context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("user is nil")
	}

	r.mu.Lock()
	r.users[user.ChatID] = cloneUser(user)
	r.mu.Unlock()
	return nil
}

// SubscribedTo scans stored profiles for the requested subscription.
func (r *MemoryRepository) SubscribedTo(_ context.Context, kind domain.NotificationKind) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chats []int64
	for chatID, user := range r.users {
		if user.Notifications[kind] {
			chats = append(chats, chatID)
		}
	}

	return chats, nil
}

// Len reports the number of stored profiles.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func cloneUser(user *domain.User) *domain.User {
	clone := *user

	clone.Favorites = make(map[string]bool, len(user.Favorites))
	for k, v := range user.Favorites {
		clone.Favorites[k] = v
	}

	clone.Notifications = make(map[domain.NotificationKind]bool, len(user.Notifications))
	for k, v := range user.Notifications {
		clone.Notifications[k] = v
	}

	clone.Activity = append([]domain.ActivityEntry(nil), user.Activity...)

	if user.Budget != nil {
		budget := *user.Budget
		clone.Budget = &budget
	}

	return &clone
}
