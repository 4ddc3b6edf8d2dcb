package wss

import (
	"context"
	"errors"
	"time"
)

// Callback carries information between the security processor and a CallbackHandler
type Callback interface {
	callback()
}

// UsernameTokenCallback asks the handler to validate a UsernameToken
type UsernameTokenCallback struct {
	Identifier   string
	Password     string
	PasswordType string
	Nonce        []byte
	Created      time.Time
}

// NewUsernameTokenCallback creates a callback from a parsed token
func NewUsernameTokenCallback(token *UsernameToken) *UsernameTokenCallback {
	return &UsernameTokenCallback{
		Identifier:   token.Username,
		Password:     token.Password,
		PasswordType: token.PasswordType,
		Nonce:        token.Nonce,
		Created:      token.Created,
	}
}

// IsPlainText reports whether the password is sent in plain text
func (c *UsernameTokenCallback) IsPlainText() bool {
	return c.PasswordType == "" || c.PasswordType == PasswordText
}

// CleanupCallback is sent after a request completes, whatever its outcome
type CleanupCallback struct{}

func (*UsernameTokenCallback) callback() {}
func (*CleanupCallback) callback()       {}

// CallbackHandler handles security callbacks
type CallbackHandler interface {
	Handle(ctx context.Context, callbacks ...Callback) error
}

// CallbackHandlerFunc adapts a function to the CallbackHandler interface
type CallbackHandlerFunc func(ctx context.Context, callbacks ...Callback) error

// Handle calls f
func (f CallbackHandlerFunc) Handle(ctx context.Context, callbacks ...Callback) error {
	return f(ctx, callbacks...)
}

// HandlerChain passes each callback to its handlers in order until one
// supports it. A CleanupCallback is passed to every handler.
type HandlerChain []CallbackHandler

// Handle dispatches every callback. A callback no handler supports yields an
// UnsupportedCallbackError.
func (c HandlerChain) Handle(ctx context.Context, callbacks ...Callback) error {
	for _, cb := range callbacks {
		if _, ok := cb.(*CleanupCallback); ok {
			if err := c.cleanup(ctx, cb); err != nil {
				return err
			}
			continue
		}
		handled := false
		for _, h := range c {
			err := h.Handle(ctx, cb)
			if errors.Is(err, ErrUnsupportedCallback) {
				continue
			}
			if err != nil {
				return err
			}
			handled = true
			break
		}
		if !handled {
			return &UnsupportedCallbackError{Callback: cb}
		}
	}
	return nil
}

func (c HandlerChain) cleanup(ctx context.Context, cb Callback) error {
	var errs []error
	for _, h := range c {
		if err := h.Handle(ctx, cb); err != nil && !errors.Is(err, ErrUnsupportedCallback) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
