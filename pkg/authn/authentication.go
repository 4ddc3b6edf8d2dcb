package authn

import (
	"fmt"
	"strings"
)

// Authentication is an authentication request or an authenticated principal
type Authentication struct {
	Principal     string
	Credentials   string
	Authorities   []string
	Authenticated bool
	// Details holds request specific information such as the token type
	Details map[string]string
}

// NewUsernamePasswordToken creates an unauthenticated username/password request
func NewUsernamePasswordToken(username, password string) *Authentication {
	return &Authentication{
		Principal:   username,
		Credentials: password,
	}
}

// NewAuthenticatedToken creates an authenticated principal
func NewAuthenticatedToken(username string, authorities []string) *Authentication {
	return &Authentication{
		Principal:     username,
		Authorities:   append([]string(nil), authorities...),
		Authenticated: true,
	}
}

// HasAuthority checks if the principal was granted the given authority
func (a *Authentication) HasAuthority(authority string) bool {
	for _, granted := range a.Authorities {
		if granted == authority {
			return true
		}
	}
	return false
}

// EraseCredentials drops the secret from the authentication
func (a *Authentication) EraseCredentials() {
	a.Credentials = ""
}

// String never includes credentials
func (a *Authentication) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Authentication[principal=%s, authenticated=%t, authorities=[%s]]",
		a.Principal, a.Authenticated, strings.Join(a.Authorities, ","))
}
