package wss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/authn"
	"github.com/goodstudio/spring-projects-spring-ws/pkg/soap"
	"github.com/goodstudio/spring-projects-spring-ws/pkg/transport"
)

// InterceptorConfig configures an Interceptor
type InterceptorConfig struct {
	// ValidationHandler validates incoming UsernameTokens. Required.
	ValidationHandler CallbackHandler
	// RequireUsernameToken rejects requests without a UsernameToken
	RequireUsernameToken bool
	// SecurementUsername and SecurementPassword are added to outgoing requests
	SecurementUsername string
	SecurementPassword string
	// SecurementUseNonce adds a nonce and creation time to outgoing tokens
	SecurementUseNonce bool
	Logger             *slog.Logger
}

// Interceptor applies WS-Security processing around a message receiver
type Interceptor struct {
	config InterceptorConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewInterceptor creates an interceptor
func NewInterceptor(config *InterceptorConfig) (*Interceptor, error) {
	if config == nil || config.ValidationHandler == nil {
		return nil, errors.New("validation callback handler is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		config: *config,
		logger: logger,
		now:    time.Now,
	}, nil
}

// HandleRequest validates the UsernameToken of the request. Security errors
// are turned into a client fault on the response and returned.
func (i *Interceptor) HandleRequest(ctx context.Context, mc *transport.MessageContext) error {
	err := i.validate(ctx, mc.Request)
	if err == nil {
		return nil
	}

	var secErr *SecurityError
	if errors.As(err, &secErr) {
		i.logger.Debug("rejecting request", "code", secErr.FaultCode(), "error", secErr.Err)
		mc.ClearResponse()
		mc.GetResponse().AddFault(secErr.Fault())
	}
	return err
}

func (i *Interceptor) validate(ctx context.Context, request *soap.Message) error {
	token, err := ParseUsernameToken(request)
	if err != nil {
		return NewSecurityError(InvalidSecurityToken, err)
	}
	if token == nil {
		if i.config.RequireUsernameToken {
			return NewSecurityError(InvalidSecurity, errors.New("no UsernameToken in request"))
		}
		return nil
	}

	err = i.config.ValidationHandler.Handle(ctx, NewUsernameTokenCallback(token))
	if errors.Is(err, ErrUnsupportedCallback) {
		return NewSecurityError(UnsupportedSecurityToken, err)
	}
	return err
}

// AfterCompletion sends a CleanupCallback to the validation handler
func (i *Interceptor) AfterCompletion(ctx context.Context) {
	err := i.config.ValidationHandler.Handle(ctx, &CleanupCallback{})
	if err != nil && !errors.Is(err, ErrUnsupportedCallback) {
		i.logger.Warn("security cleanup failed", "error", err)
	}
}

// SecureRequest adds the configured credentials to an outgoing message. It
// does nothing when no securement username is configured.
func (i *Interceptor) SecureRequest(msg *soap.Message) error {
	if i.config.SecurementUsername == "" {
		return nil
	}
	token := NewUsernameToken(i.config.SecurementUsername, i.config.SecurementPassword)
	if i.config.SecurementUseNonce {
		if _, err := token.WithNonce(i.now()); err != nil {
			return err
		}
	}
	if err := AddUsernameToken(msg, token); err != nil {
		return fmt.Errorf("securing request: %w", err)
	}
	return nil
}

// Wrap returns a receiver that validates each request before passing it to
// next. Every request gets its own security context, cleaned up when the
// exchange completes.
func (i *Interceptor) Wrap(next transport.MessageReceiver) transport.MessageReceiver {
	return transport.ReceiverFunc(func(ctx context.Context, mc *transport.MessageContext) error {
		if authn.FromContext(ctx) == nil {
			ctx, _ = authn.NewContext(ctx)
		}
		defer i.AfterCompletion(ctx)

		if err := i.HandleRequest(ctx, mc); err != nil {
			var secErr *SecurityError
			if errors.As(err, &secErr) {
				return nil
			}
			return err
		}
		return next.Receive(ctx, mc)
	})
}
