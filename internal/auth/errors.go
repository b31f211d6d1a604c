package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// RevokedLogoutDelay is how long a revoked account's error stays on screen
// before the session is signed out.
const RevokedLogoutDelay = 10 * time.Second

// ErrNotAuthenticated is returned when a token is requested without a
// signed-in session.
var ErrNotAuthenticated = errors.New("not authenticated")

// IdentityProviderError wraps a failure reported by the identity provider.
type IdentityProviderError struct {
	Op          string
	Code        string
	Description string
	Err         error
}

func (e *IdentityProviderError) Error() string {
	var b strings.Builder
	b.WriteString("identity provider ")
	b.WriteString(e.Op)
	if e.Code != "" {
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, ": %s", e.Description)
	}
	if e.Err != nil && e.Code == "" {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *IdentityProviderError) Unwrap() error { return e.Err }

func providerError(op string, err error) error {
	if err == nil {
		return nil
	}
	ipe := &IdentityProviderError{Op: op, Err: err}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		ipe.Code = re.ErrorCode
		ipe.Description = re.ErrorDescription
	}
	return ipe
}

// IsAccountRevoked reports whether err is the provider refusing a user that
// was deleted or never existed.
func IsAccountRevoked(err error) bool {
	var ipe *IdentityProviderError
	if !errors.As(err, &ipe) {
		return false
	}
	return strings.Contains(strings.ToLower(ipe.Error()), "unauthorized")
}
