package authn

import (
	"context"
	"sync"
)

// InMemoryUserStore is a UserDetailsService backed by a map
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]UserDetails
}

// NewInMemoryUserStore creates a store holding the given users
func NewInMemoryUserStore(users ...UserDetails) *InMemoryUserStore {
	s := &InMemoryUserStore{users: make(map[string]UserDetails, len(users))}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

// AddUser adds or replaces a user
func (s *InMemoryUserStore) AddUser(user UserDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Username] = user
}

// RemoveUser deletes a user
func (s *InMemoryUserStore) RemoveUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
}

// LoadUserByUsername returns a copy of the stored user
func (s *InMemoryUserStore) LoadUserByUsername(ctx context.Context, username string) (*UserDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Authorities = append([]string(nil), u.Authorities...)
	return &u, nil
}
