package relay

import (
	"context"
	"sync"
)

// Storage defines the persistence contract for relay sessions.
type Storage interface {
	// Get returns the session stored under key.
	Get(ctx context.Context, key Key) (*Session, error)
	// Set saves the session under key.
	Set(ctx context.Context, key Key, session *Session) error
	// Clear removes the entry for key.
	Clear(ctx context.Context, key Key) error
	// All returns every stored entry with its key.
	All(ctx context.Context) (map[Key]*Session, error)
}

// MemoryStorage keeps sessions in process memory, matching the volatile
// session tables of the original bots.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[Key]*Session
}

// NewMemoryStorage constructs an empty in-memory session store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[Key]*Session)}
}

func (s *MemoryStorage) Get(_ context.Context, key Key) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}

	clone := *session
	return &clone, nil
}

func (s *MemoryStorage) Set(_ context.Context, key Key, session *Session) error {
	if session == nil {
		return ErrSessionNotFound
	}

	clone := *session

	s.mu.Lock()
	s.sessions[key] = &clone
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context, key Key) error {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) All(_ context.Context) (map[Key]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make(map[Key]*Session, len(s.sessions))
	for key, session := range s.sessions {
		clone := *session
		all[key] = &clone
	}

	return all, nil
}
