package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	authgate "github.com/SkMishra77/AuthGate"
	"github.com/SkMishra77/AuthGate/cache"
	"github.com/SkMishra77/AuthGate/domain"
)

// AuthService orchestrates registration and login around the identity
// provider and the session store. Session lifecycle operations past login
// (validate, refresh, logout) go straight to the cache.SessionStore; this
// service only glues credentials to token issuance.
type AuthService struct {
	users    domain.UserRepository
	hasher   PasswordHasher
	sessions cache.SessionStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, hasher PasswordHasher, sessions cache.SessionStore) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
	}
}

// Register creates a new account with a hashed password.
func (s *AuthService) Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, authgate.ErrUnknownRole
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Str("username", username).Msg("user registered")

	return user, nil
}

// Login verifies credentials and issues a session token. Unknown usernames
// and wrong passwords both come back as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, int64, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, authgate.ErrUserNotFound) {
			return "", 0, authgate.ErrInvalidCredentials
		}
		return "", 0, err
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return "", 0, authgate.ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.CreateToken(ctx, user.ID)
	if err != nil {
		return "", 0, err
	}

	return token, expiresAt, nil
}
