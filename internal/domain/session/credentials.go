package session

import (
	"context"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// StaticAdmin is an AuthService backed by the single admin account from
// configuration: an identity and a bcrypt hash of its password. It stands in
// for the remote authentication service of a hosted backend.
type StaticAdmin struct {
	identity     string
	passwordHash []byte
}

// NewStaticAdmin creates the credential authority for the configured admin
// account. The hash must be a bcrypt hash (see cmd/admin-password).
func NewStaticAdmin(identity, passwordHash string) *StaticAdmin {
	return &StaticAdmin{
		identity:     identity,
		passwordHash: []byte(passwordHash),
	}
}

// SignIn verifies the identity and password. The identity comparison is
// constant time, and the bcrypt comparison runs even for a wrong identity so
// both failure paths take similar time.
func (a *StaticAdmin) SignIn(_ context.Context, identity, secret string) error {
	identityOK := subtle.ConstantTimeCompare([]byte(identity), []byte(a.identity)) == 1
	passwordErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(secret))

	if !identityOK || passwordErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// SignOut is a no-op; the static authority keeps no remote session.
func (a *StaticAdmin) SignOut(context.Context) error {
	return nil
}
