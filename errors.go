package authgate

import "errors"

var (
	// ErrTokenNotFound is returned when a session token does not exist in the
	// backend. It covers "never issued", "expired" and "already logged out"
	// uniformly; the store never reveals which one happened.
	ErrTokenNotFound = errors.New("token not found")

	// ErrNotConnected is returned when an operation is attempted before
	// Connect succeeded (or after the backend connection was torn down).
	ErrNotConnected = errors.New("not connected to session backend")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUnknownRole        = errors.New("role undefined")
)
