package authn

import "errors"

// Sentinel errors for authentication failures.
var (
	// ErrBadCredentials indicates the presented credentials are wrong.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrUserNotFound indicates no user exists for the principal.
	// Providers normally report it as ErrBadCredentials.
	ErrUserNotFound = errors.New("user not found")

	// ErrDisabled indicates the account is disabled.
	ErrDisabled = errors.New("user is disabled")

	// ErrLocked indicates the account is locked.
	ErrLocked = errors.New("user account is locked")

	// ErrProviderNotFound indicates no provider supports the request.
	ErrProviderNotFound = errors.New("no authentication provider supports the request")

	// ErrServiceUnavailable indicates the user store could not be reached.
	ErrServiceUnavailable = errors.New("authentication service unavailable")
)

var authenticationErrors = []error{
	ErrBadCredentials,
	ErrUserNotFound,
	ErrDisabled,
	ErrLocked,
	ErrProviderNotFound,
	ErrServiceUnavailable,
}

// IsAuthenticationError reports whether err is one of the authentication
// failures of this package.
func IsAuthenticationError(err error) bool {
	for _, target := range authenticationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
