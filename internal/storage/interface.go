// Package storage provides the user store used to authenticate
// WS-Security UsernameTokens.
//
// # Interface Design
//
// [UserStore] manages user accounts and doubles as an
// [authn.UserDetailsService], so a store can be handed directly to an
// [authn.DAOProvider].
//
// # Implementations
//
// The mongodb sub-package provides a MongoDB implementation. [MemoryStore]
// keeps users in process for development and tests.
//
// # Concurrency
//
// All store implementations must be safe for concurrent use from multiple
// goroutines.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/authn"
)

// ErrUserExists is returned when creating a user whose username is taken
var ErrUserExists = errors.New("user already exists")

// UserStore manages user accounts
type UserStore interface {
	authn.UserDetailsService

	// GetUser retrieves a user by username. It returns nil when not found.
	GetUser(ctx context.Context, username string) (*User, error)

	// SaveUser creates or replaces a user
	SaveUser(ctx context.Context, user *User) error

	// CreateUser creates a user, failing with ErrUserExists on conflict
	CreateUser(ctx context.Context, user *User) error

	// DeleteUser removes a user
	DeleteUser(ctx context.Context, username string) error

	// ListUsers returns all usernames
	ListUsers(ctx context.Context) ([]string, error)

	// Close releases storage resources
	Close(ctx context.Context) error

	// Ping checks database connectivity
	Ping(ctx context.Context) error
}

// User is a stored user account. Password holds the encoded password.
type User struct {
	Username    string    `bson:"username" json:"username"`
	Password    string    `bson:"password" json:"-"`
	Authorities []string  `bson:"authorities,omitempty" json:"authorities,omitempty"`
	Disabled    bool      `bson:"disabled" json:"disabled"`
	Locked      bool      `bson:"locked" json:"locked"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// UserDetails converts the account for authentication
func (u *User) UserDetails() *authn.UserDetails {
	return &authn.UserDetails{
		Username:    u.Username,
		Password:    u.Password,
		Authorities: append([]string(nil), u.Authorities...),
		Disabled:    u.Disabled,
		Locked:      u.Locked,
	}
}

// NewUser creates an account from user details
func NewUser(details authn.UserDetails) *User {
	return &User{
		Username:    details.Username,
		Password:    details.Password,
		Authorities: append([]string(nil), details.Authorities...),
		Disabled:    details.Disabled,
		Locked:      details.Locked,
	}
}
