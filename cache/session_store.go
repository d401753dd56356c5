package cache

import (
	"context"
)

// SessionStore is the session-token lifecycle contract. Implementations must
// treat an unknown, expired and revoked token identically: the lookup
// operations return authgate.ErrTokenNotFound, never a distinguishing error.
//
// Connection-class failures are returned as ordinary (wrapped) errors,
// distinct from ErrTokenNotFound, so callers can map them to a
// service-unavailable condition instead of an authentication failure.
type SessionStore interface {
	// CreateToken issues a fresh opaque token for userID and returns it with
	// its absolute expiry timestamp (epoch seconds).
	CreateToken(ctx context.Context, userID string) (token string, expiresAt int64, err error)

	// ValidateToken resolves the owning user of token. It never extends the
	// token's lifetime.
	ValidateToken(ctx context.Context, token string) (userID string, err error)

	// RefreshToken resets the token's lifetime to the full active duration
	// and returns the new absolute expiry timestamp.
	RefreshToken(ctx context.Context, token string) (expiresAt int64, err error)

	// Logout revokes a single token. Calling it again for the same token
	// returns authgate.ErrTokenNotFound.
	Logout(ctx context.Context, token string) error

	// LogoutAll revokes every token belonging to the owner of token.
	LogoutAll(ctx context.Context, token string) error
}
