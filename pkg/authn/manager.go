package authn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Manager authenticates requests
type Manager interface {
	// Authenticate returns a fully authenticated principal or an error.
	Authenticate(ctx context.Context, auth *Authentication) (*Authentication, error)
}

// ManagerFunc adapts a function to the Manager interface
type ManagerFunc func(ctx context.Context, auth *Authentication) (*Authentication, error)

// Authenticate calls f
func (f ManagerFunc) Authenticate(ctx context.Context, auth *Authentication) (*Authentication, error) {
	return f(ctx, auth)
}

// Provider is one authentication mechanism of a ProviderManager
type Provider interface {
	Supports(auth *Authentication) bool
	Authenticate(ctx context.Context, auth *Authentication) (*Authentication, error)
}

// ProviderManager iterates an ordered list of providers
type ProviderManager struct {
	providers []Provider
	logger    *slog.Logger

	// EraseCredentials clears the secret from successful results. Defaults to true.
	EraseCredentials bool
}

// NewProviderManager creates a manager over the given providers
func NewProviderManager(logger *slog.Logger, providers ...Provider) *ProviderManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderManager{
		providers:        providers,
		logger:           logger,
		EraseCredentials: true,
	}
}

// Authenticate tries each supporting provider in order. Account status
// failures stop the iteration; other failures let the next provider try.
func (m *ProviderManager) Authenticate(ctx context.Context, auth *Authentication) (*Authentication, error) {
	if auth == nil {
		return nil, fmt.Errorf("%w: nil authentication request", ErrBadCredentials)
	}

	var lastErr error
	for _, p := range m.providers {
		if !p.Supports(auth) {
			continue
		}

		result, err := p.Authenticate(ctx, auth)
		if err == nil && result != nil {
			if m.EraseCredentials {
				result.EraseCredentials()
			}
			return result, nil
		}
		if err == nil {
			continue
		}

		m.logger.Debug("authentication provider failed",
			"provider", fmt.Sprintf("%T", p),
			"principal", auth.Principal,
			"error", err,
		)
		if errors.Is(err, ErrDisabled) || errors.Is(err, ErrLocked) || errors.Is(err, ErrServiceUnavailable) {
			return nil, err
		}
		lastErr = err
	}

	if lastErr == nil {
		return nil, ErrProviderNotFound
	}
	return nil, lastErr
}
