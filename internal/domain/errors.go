package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	// ErrNotFound marks a missing record. For email lookups it is the normal
	// "no account yet" branch of the login flow, not a failure.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable marks a backend read/write failure. Recoverable:
	// state stays put and the user may resubmit.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrCredentialMismatch marks a wrong password or wrong OTP. Recoverable in place.
	ErrCredentialMismatch = errors.New("credential mismatch")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
)
