package authn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// userNotFoundPassword is encoded once and compared against on unknown
// users so lookups take as long as a real password check.
const userNotFoundPassword = "userNotFoundPassword"

// UserDetails is a stored user account
type UserDetails struct {
	Username    string   `json:"username" bson:"username" yaml:"username"`
	Password    string   `json:"password" bson:"password" yaml:"password"`
	Authorities []string `json:"authorities,omitempty" bson:"authorities,omitempty" yaml:"authorities"`
	Disabled    bool     `json:"disabled,omitempty" bson:"disabled,omitempty" yaml:"disabled"`
	Locked      bool     `json:"locked,omitempty" bson:"locked,omitempty" yaml:"locked"`
}

// UserDetailsService loads users by name. Implementations return
// ErrUserNotFound for unknown users.
type UserDetailsService interface {
	LoadUserByUsername(ctx context.Context, username string) (*UserDetails, error)
}

// DAOProvider authenticates username/password requests against a UserDetailsService
type DAOProvider struct {
	users            UserDetailsService
	encoder          PasswordEncoder
	cache            UserCache
	hideUserNotFound bool
	logger           *slog.Logger

	notFoundOnce sync.Once
	notFoundHash string
}

// DAOOption configures a DAOProvider
type DAOOption func(*DAOProvider)

// WithUserCache sets the cache consulted before the user store
func WithUserCache(cache UserCache) DAOOption {
	return func(p *DAOProvider) {
		p.cache = cache
	}
}

// WithHideUserNotFound controls whether unknown users are reported as bad credentials
func WithHideUserNotFound(hide bool) DAOOption {
	return func(p *DAOProvider) {
		p.hideUserNotFound = hide
	}
}

// WithProviderLogger sets the provider logger
func WithProviderLogger(logger *slog.Logger) DAOOption {
	return func(p *DAOProvider) {
		p.logger = logger
	}
}

// NewDAOProvider creates a provider. A nil encoder compares passwords verbatim.
func NewDAOProvider(users UserDetailsService, encoder PasswordEncoder, opts ...DAOOption) *DAOProvider {
	if encoder == nil {
		encoder = NoopEncoder{}
	}
	p := &DAOProvider{
		users:            users,
		encoder:          encoder,
		cache:            NopUserCache{},
		hideUserNotFound: true,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Supports accepts any username/password request
func (p *DAOProvider) Supports(auth *Authentication) bool {
	return auth != nil
}

// Authenticate loads the user, checks its status and verifies the password
func (p *DAOProvider) Authenticate(ctx context.Context, auth *Authentication) (*Authentication, error) {
	username := auth.Principal
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrBadCredentials)
	}

	fromCache := true
	user := p.cache.Get(ctx, username)
	if user == nil {
		fromCache = false
		var err error
		if user, err = p.retrieveUser(ctx, username, auth.Credentials); err != nil {
			return nil, err
		}
	}

	err := p.check(user, auth.Credentials)
	if err != nil && fromCache && errors.Is(err, ErrBadCredentials) {
		// the cached entry may be stale
		fromCache = false
		if user, err = p.retrieveUser(ctx, username, auth.Credentials); err != nil {
			return nil, err
		}
		err = p.check(user, auth.Credentials)
	}
	if err != nil {
		return nil, err
	}

	if !fromCache {
		p.cache.Put(ctx, user)
	}

	result := NewAuthenticatedToken(user.Username, user.Authorities)
	result.Credentials = auth.Credentials
	if len(auth.Details) > 0 {
		result.Details = make(map[string]string, len(auth.Details))
		for k, v := range auth.Details {
			result.Details[k] = v
		}
	}
	return result, nil
}

func (p *DAOProvider) retrieveUser(ctx context.Context, username, presented string) (*UserDetails, error) {
	user, err := p.users.LoadUserByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrUserNotFound):
		p.logger.Debug("user not found", "username", username)
		p.matchNotFound(presented)
		if p.hideUserNotFound {
			return nil, ErrBadCredentials
		}
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: loading user %q: %v", ErrServiceUnavailable, username, err)
	case user == nil:
		return nil, fmt.Errorf("%w: user store returned no user for %q", ErrServiceUnavailable, username)
	}
	return user, nil
}

func (p *DAOProvider) matchNotFound(presented string) {
	p.notFoundOnce.Do(func() {
		hash, err := p.encoder.Encode(userNotFoundPassword)
		if err != nil {
			p.logger.Warn("encoding placeholder password failed", "error", err)
			return
		}
		p.notFoundHash = hash
	})
	if presented != "" && p.notFoundHash != "" {
		p.encoder.Matches(presented, p.notFoundHash)
	}
}

func (p *DAOProvider) check(user *UserDetails, presented string) error {
	if user.Locked {
		return ErrLocked
	}
	if user.Disabled {
		return ErrDisabled
	}
	if presented == "" || !p.encoder.Matches(presented, user.Password) {
		return ErrBadCredentials
	}
	return nil
}
