package authn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	supports bool
	result   *Authentication
	err      error
	calls    int
}

func (p *stubProvider) Supports(*Authentication) bool { return p.supports }

func (p *stubProvider) Authenticate(context.Context, *Authentication) (*Authentication, error) {
	p.calls++
	return p.result, p.err
}

func TestProviderManager_FirstSuccessWins(t *testing.T) {
	skipped := &stubProvider{supports: false}
	failing := &stubProvider{supports: true, err: ErrBadCredentials}
	ok := &stubProvider{supports: true, result: &Authentication{Principal: "alice", Credentials: "secret", Authenticated: true}}
	never := &stubProvider{supports: true, result: &Authentication{Principal: "other"}}

	m := NewProviderManager(nil, skipped, failing, ok, never)
	result, err := m.Authenticate(context.Background(), NewUsernamePasswordToken("alice", "secret"))
	require.NoError(t, err)

	assert.Equal(t, "alice", result.Principal)
	assert.Empty(t, result.Credentials, "credentials must be erased")
	assert.Equal(t, 0, skipped.calls)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 0, never.calls)
}

func TestProviderManager_KeepCredentials(t *testing.T) {
	ok := &stubProvider{supports: true, result: &Authentication{Principal: "alice", Credentials: "secret"}}
	m := NewProviderManager(nil, ok)
	m.EraseCredentials = false

	result, err := m.Authenticate(context.Background(), NewUsernamePasswordToken("alice", "secret"))
	require.NoError(t, err)
	assert.Equal(t, "secret", result.Credentials)
}

func TestProviderManager_AccountStatusStops(t *testing.T) {
	locked := &stubProvider{supports: true, err: ErrLocked}
	next := &stubProvider{supports: true, result: &Authentication{Principal: "alice"}}

	m := NewProviderManager(nil, locked, next)
	_, err := m.Authenticate(context.Background(), NewUsernamePasswordToken("alice", "secret"))
	assert.ErrorIs(t, err, ErrLocked)
	assert.Equal(t, 0, next.calls)
}

func TestProviderManager_LastErrorReturned(t *testing.T) {
	first := &stubProvider{supports: true, err: ErrUserNotFound}
	second := &stubProvider{supports: true, err: ErrBadCredentials}

	m := NewProviderManager(nil, first, second)
	_, err := m.Authenticate(context.Background(), NewUsernamePasswordToken("alice", "secret"))
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestProviderManager_NoProvider(t *testing.T) {
	m := NewProviderManager(nil, &stubProvider{supports: false})
	_, err := m.Authenticate(context.Background(), NewUsernamePasswordToken("alice", "secret"))
	assert.ErrorIs(t, err, ErrProviderNotFound)

	_, err = m.Authenticate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestManagerFunc(t *testing.T) {
	var m Manager = ManagerFunc(func(ctx context.Context, a *Authentication) (*Authentication, error) {
		if a.Credentials != "pw" {
			return nil, ErrBadCredentials
		}
		return NewAuthenticatedToken(a.Principal, nil), nil
	})

	result, err := m.Authenticate(context.Background(), NewUsernamePasswordToken("u", "pw"))
	require.NoError(t, err)
	assert.True(t, result.Authenticated)

	_, err = m.Authenticate(context.Background(), NewUsernamePasswordToken("u", "x"))
	assert.True(t, errors.Is(err, ErrBadCredentials))
}

func TestIsAuthenticationError(t *testing.T) {
	assert.True(t, IsAuthenticationError(ErrDisabled))
	assert.True(t, IsAuthenticationError(errors.Join(errors.New("ctx"), ErrLocked)))
	assert.False(t, IsAuthenticationError(errors.New("io failure")))
	assert.False(t, IsAuthenticationError(nil))
}

func TestAuthentication_String(t *testing.T) {
	a := NewUsernamePasswordToken("alice", "top-secret")
	assert.NotContains(t, a.String(), "top-secret")
	assert.Contains(t, a.String(), "alice")

	var nilAuth *Authentication
	assert.Equal(t, "<nil>", nilAuth.String())
}
