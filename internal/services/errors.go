package services

import "errors"

// Sentinel errors translated into the HTTP taxonomy at the handler boundary.
// Nothing below the handlers surfaces storage errors verbatim to clients.
var (
	// ErrNotFound covers both "does not exist" and "not owned by the
	// caller"; for tasks the two are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken signals a uniqueness violation on the email column.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidCredentials is returned for unknown email and wrong
	// password alike, so login responses carry no enumeration signal.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
