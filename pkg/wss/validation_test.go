package wss

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/authn"
)

type recordingManager struct {
	requests []*authn.Authentication
	result   *authn.Authentication
	err      error
}

func (m *recordingManager) Authenticate(ctx context.Context, auth *authn.Authentication) (*authn.Authentication, error) {
	m.requests = append(m.requests, auth)
	return m.result, m.err
}

type unknownCallback struct{}

func (*unknownCallback) callback() {}

func newHandler(t *testing.T, manager authn.Manager, opts ...HandlerOption) *PasswordValidationHandler {
	t.Helper()
	h, err := NewPasswordValidationHandler(manager, opts...)
	require.NoError(t, err)
	return h
}

func TestNewPasswordValidationHandler_RequiresManager(t *testing.T) {
	_, err := NewPasswordValidationHandler(nil)
	assert.ErrorIs(t, err, ErrManagerRequired)
}

func TestPasswordValidationHandler_Success(t *testing.T) {
	authenticated := authn.NewAuthenticatedToken("Bert", []string{"ROLE_USER"})
	manager := &recordingManager{result: authenticated}
	handler := newHandler(t, manager)

	ctx, sc := authn.NewContext(context.Background())
	err := handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "Ernie", PasswordType: PasswordText})
	require.NoError(t, err)

	require.Len(t, manager.requests, 1)
	assert.Equal(t, "Bert", manager.requests[0].Principal)
	assert.Equal(t, "Ernie", manager.requests[0].Credentials)
	assert.False(t, manager.requests[0].Authenticated)

	assert.Same(t, authenticated, sc.Authentication())
	assert.Same(t, authenticated, authn.AuthenticationFromContext(ctx))
}

func TestPasswordValidationHandler_Failure(t *testing.T) {
	manager := &recordingManager{err: authn.ErrBadCredentials}
	handler := newHandler(t, manager)

	ctx, sc := authn.NewContext(context.Background())
	sc.SetAuthentication(authn.NewAuthenticatedToken("previous", nil))

	err := handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "wrong"})
	require.Error(t, err)

	var secErr *SecurityError
	require.ErrorAs(t, err, &secErr)
	assert.Equal(t, FailedAuthentication, secErr.Code)
	assert.Equal(t, "wsse:FailedAuthentication", secErr.FaultCode())
	assert.ErrorIs(t, err, authn.ErrBadCredentials)
	assert.Nil(t, sc.Authentication())
}

func TestPasswordValidationHandler_IgnoreFailure(t *testing.T) {
	manager := &recordingManager{err: authn.ErrBadCredentials}
	handler := newHandler(t, manager, WithIgnoreFailure(true))
	assert.True(t, handler.IgnoreFailure())

	ctx, sc := authn.NewContext(context.Background())
	sc.SetAuthentication(authn.NewAuthenticatedToken("previous", nil))

	err := handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "wrong"})
	assert.NoError(t, err)
	assert.Nil(t, sc.Authentication())
}

func TestPasswordValidationHandler_NonAuthenticationError(t *testing.T) {
	boom := errors.New("boom")
	handler := newHandler(t, &recordingManager{err: boom}, WithIgnoreFailure(true))

	ctx, sc := authn.NewContext(context.Background())
	err := handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "Ernie"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var secErr *SecurityError
	assert.False(t, errors.As(err, &secErr))
	assert.Nil(t, sc.Authentication())
}

func TestPasswordValidationHandler_Cleanup(t *testing.T) {
	handler := newHandler(t, &recordingManager{})

	ctx, sc := authn.NewContext(context.Background())
	sc.SetAuthentication(authn.NewAuthenticatedToken("Bert", nil))

	require.NoError(t, handler.Handle(ctx, &CleanupCallback{}))
	assert.Nil(t, sc.Authentication())

	// no security context is not an error for cleanup
	assert.NoError(t, handler.Handle(context.Background(), &CleanupCallback{}))
}

func TestPasswordValidationHandler_Unsupported(t *testing.T) {
	manager := &recordingManager{}
	handler := newHandler(t, manager)
	ctx, _ := authn.NewContext(context.Background())

	err := handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "digest", PasswordType: PasswordDigest})
	assert.ErrorIs(t, err, ErrUnsupportedCallback)
	assert.Empty(t, manager.requests)

	err = handler.Handle(ctx, &unknownCallback{})
	assert.ErrorIs(t, err, ErrUnsupportedCallback)
}

func TestPasswordValidationHandler_NoSecurityContext(t *testing.T) {
	handler := newHandler(t, &recordingManager{result: authn.NewAuthenticatedToken("Bert", nil)})

	err := handler.Handle(context.Background(), &UsernameTokenCallback{Identifier: "Bert", Password: "Ernie"})
	assert.ErrorIs(t, err, ErrNoSecurityContext)
}

func TestPasswordValidationHandler_ProviderManager(t *testing.T) {
	store := authn.NewInMemoryUserStore(authn.UserDetails{
		Username:    "Bert",
		Password:    "Ernie",
		Authorities: []string{"ROLE_USER"},
	})
	manager := authn.NewProviderManager(nil, authn.NewDAOProvider(store, authn.NoopEncoder{}))
	handler := newHandler(t, manager)

	ctx, sc := authn.NewContext(context.Background())
	require.NoError(t, handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "Ernie"}))

	auth := sc.Authentication()
	require.NotNil(t, auth)
	assert.Equal(t, "Bert", auth.Principal)
	assert.True(t, auth.Authenticated)
	assert.True(t, auth.HasAuthority("ROLE_USER"))
	assert.Empty(t, auth.Credentials)

	err := handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "Grover"})
	assert.ErrorIs(t, err, authn.ErrBadCredentials)
	assert.False(t, sc.IsAuthenticated())
}

// unavailableStore fails every lookup the way a disconnected database does
type unavailableStore struct{}

func (unavailableStore) LoadUserByUsername(context.Context, string) (*authn.UserDetails, error) {
	return nil, errors.New("server selection timeout")
}

func TestPasswordValidationHandler_StoreOutage(t *testing.T) {
	manager := authn.NewProviderManager(nil, authn.NewDAOProvider(unavailableStore{}, authn.NoopEncoder{}))

	t.Run("reported as failed authentication", func(t *testing.T) {
		handler := newHandler(t, manager)
		ctx, sc := authn.NewContext(context.Background())
		sc.SetAuthentication(authn.NewAuthenticatedToken("previous", nil))

		err := handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "Ernie"})
		var secErr *SecurityError
		require.ErrorAs(t, err, &secErr)
		assert.Equal(t, FailedAuthentication, secErr.Code)
		assert.ErrorIs(t, err, authn.ErrServiceUnavailable)
		assert.Nil(t, sc.Authentication())
	})

	t.Run("swallowed with ignore failure", func(t *testing.T) {
		handler := newHandler(t, manager, WithIgnoreFailure(true))
		ctx, sc := authn.NewContext(context.Background())
		sc.SetAuthentication(authn.NewAuthenticatedToken("previous", nil))

		err := handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "Ernie"})
		assert.NoError(t, err)
		assert.Nil(t, sc.Authentication())
	})
}

func TestPasswordValidationHandler_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	manager := &recordingManager{result: authn.NewAuthenticatedToken("Bert", nil)}
	handler := newHandler(t, manager, WithLogger(logger))
	ctx, _ := authn.NewContext(context.Background())

	require.NoError(t, handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Bert", Password: "Ernie"}))
	assert.Contains(t, buf.String(), "Authentication success")
	assert.Contains(t, buf.String(), "Bert")
	assert.NotContains(t, buf.String(), "Ernie")

	buf.Reset()
	manager.err = authn.ErrBadCredentials
	manager.result = nil
	_ = handler.Handle(ctx, &UsernameTokenCallback{Identifier: "Grover", Password: "Ernie"})
	assert.Contains(t, buf.String(), "Authentication request for user failed")
	assert.Contains(t, buf.String(), "identifier=Grover")
}
