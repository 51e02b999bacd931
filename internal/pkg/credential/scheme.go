// Package credential defines how account secrets are stored and compared.
//
// The legacy data set stores secrets verbatim and compares them
// byte-for-byte, so that remains the default scheme. Bcrypt is available
// behind CREDENTIAL_SCHEME=bcrypt for new deployments; both schemes share the
// same interface so the login flow never knows which one is in play.
package credential

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Scheme hashes a secret for storage and checks a candidate against a stored
// value.
type Scheme interface {
	Hash(secret string) (string, error)
	Verify(candidate, stored string) bool
}

// FromName returns the scheme for a config name. Unknown names fall back to
// plain, matching the stored data.
func FromName(name string) Scheme {
	if name == "bcrypt" {
		return Bcrypt{}
	}
	return Plain{}
}

// Plain stores the secret verbatim and compares exactly: true iff candidate
// and stored have the same length and the same bytes.
type Plain struct{}

func (Plain) Hash(secret string) (string, error) { return secret, nil }

func (Plain) Verify(candidate, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
}

// Bcrypt stores a salted bcrypt hash.
type Bcrypt struct{}

func (Bcrypt) Hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (Bcrypt) Verify(candidate, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
}
