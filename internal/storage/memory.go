package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/authn"
)

// MemoryStore is an in-memory UserStore
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

var _ UserStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

func (s *MemoryStore) GetUser(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	u.Authorities = append([]string(nil), u.Authorities...)
	return &u, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.Username] = *user
	return nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.users[user.Username]; ok {
		user.CreatedAt = existing.CreatedAt
	} else {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.Username] = *user
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
	return nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// LoadUserByUsername implements authn.UserDetailsService
func (s *MemoryStore) LoadUserByUsername(ctx context.Context, username string) (*authn.UserDetails, error) {
	user, _ := s.GetUser(ctx, username)
	if user == nil {
		return nil, authn.ErrUserNotFound
	}
	return user.UserDetails(), nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
