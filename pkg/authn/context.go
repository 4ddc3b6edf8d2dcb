package authn

import (
	"context"
	"sync"
)

// SecurityContext holds the authentication of the current request.
// It is safe for concurrent use.
type SecurityContext struct {
	mu   sync.RWMutex
	auth *Authentication
}

// Authentication returns the current authentication, or nil
func (c *SecurityContext) Authentication() *Authentication {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// SetAuthentication stores the authentication
func (c *SecurityContext) SetAuthentication(auth *Authentication) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = auth
}

// Clear removes any stored authentication
func (c *SecurityContext) Clear() {
	c.SetAuthentication(nil)
}

// IsAuthenticated reports whether an authenticated principal is stored
func (c *SecurityContext) IsAuthenticated() bool {
	a := c.Authentication()
	return a != nil && a.Authenticated
}

type contextKey string

const securityContextKey contextKey = "security_context"

// NewContext attaches a fresh SecurityContext to ctx
func NewContext(ctx context.Context) (context.Context, *SecurityContext) {
	sc := &SecurityContext{}
	return context.WithValue(ctx, securityContextKey, sc), sc
}

// FromContext returns the SecurityContext attached to ctx, or nil
func FromContext(ctx context.Context) *SecurityContext {
	if v := ctx.Value(securityContextKey); v != nil {
		return v.(*SecurityContext)
	}
	return nil
}

// AuthenticationFromContext returns the authentication stored in ctx, or nil
func AuthenticationFromContext(ctx context.Context) *Authentication {
	if sc := FromContext(ctx); sc != nil {
		return sc.Authentication()
	}
	return nil
}
