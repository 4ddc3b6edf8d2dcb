package wss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/authn"
)

var (
	// ErrManagerRequired is returned when a handler is created without an authentication manager
	ErrManagerRequired = errors.New("authentication manager is required")
	// ErrNoSecurityContext is returned when the request context carries no security context
	ErrNoSecurityContext = errors.New("no security context in request context")
)

// PasswordValidationHandler validates UsernameToken credentials with an
// authn.Manager. A successful authentication is stored in the security
// context of the request; a failure clears it.
type PasswordValidationHandler struct {
	manager       authn.Manager
	ignoreFailure bool
	logger        *slog.Logger
}

// HandlerOption configures a PasswordValidationHandler
type HandlerOption func(*PasswordValidationHandler)

// WithIgnoreFailure makes failed authentications leave the request
// unauthenticated instead of returning an error.
func WithIgnoreFailure(ignore bool) HandlerOption {
	return func(h *PasswordValidationHandler) {
		h.ignoreFailure = ignore
	}
}

// WithLogger sets the handler logger
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *PasswordValidationHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewPasswordValidationHandler creates a handler that authenticates with manager
func NewPasswordValidationHandler(manager authn.Manager, opts ...HandlerOption) (*PasswordValidationHandler, error) {
	if manager == nil {
		return nil, ErrManagerRequired
	}
	h := &PasswordValidationHandler{
		manager: manager,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// IgnoreFailure reports whether authentication failures are swallowed
func (h *PasswordValidationHandler) IgnoreFailure() bool {
	return h.ignoreFailure
}

// Handle processes UsernameTokenCallback and CleanupCallback
func (h *PasswordValidationHandler) Handle(ctx context.Context, callbacks ...Callback) error {
	for _, cb := range callbacks {
		switch cb := cb.(type) {
		case *UsernameTokenCallback:
			if err := h.handleUsernameToken(ctx, cb); err != nil {
				return err
			}
		case *CleanupCallback:
			h.handleCleanup(ctx)
		default:
			return &UnsupportedCallbackError{Callback: cb}
		}
	}
	return nil
}

func (h *PasswordValidationHandler) handleUsernameToken(ctx context.Context, cb *UsernameTokenCallback) error {
	if !cb.IsPlainText() {
		return &UnsupportedCallbackError{Callback: cb, Reason: "password type " + cb.PasswordType}
	}
	sc := authn.FromContext(ctx)
	if sc == nil {
		return ErrNoSecurityContext
	}

	request := authn.NewUsernamePasswordToken(cb.Identifier, cb.Password)
	result, err := h.manager.Authenticate(ctx, request)
	if err != nil {
		sc.Clear()
		authenticationsTotal.WithLabelValues("failure").Inc()
		h.logger.Debug("Authentication request for user failed",
			"identifier", cb.Identifier,
			"error", err)

		if !authn.IsAuthenticationError(err) {
			return fmt.Errorf("authenticating %q: %w", cb.Identifier, err)
		}
		if h.ignoreFailure {
			return nil
		}
		return NewSecurityError(FailedAuthentication, err)
	}

	sc.SetAuthentication(result)
	authenticationsTotal.WithLabelValues("success").Inc()
	h.logger.Debug("Authentication success", "authentication", result.String())
	return nil
}

func (h *PasswordValidationHandler) handleCleanup(ctx context.Context) {
	if sc := authn.FromContext(ctx); sc != nil {
		sc.Clear()
	}
}
