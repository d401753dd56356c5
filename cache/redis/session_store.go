package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	authgate "github.com/SkMishra77/AuthGate"
	"github.com/SkMishra77/AuthGate/cache"
)

// Options configures a SessionStore. URL takes precedence over Host/Port
// when set.
type Options struct {
	Host string
	Port int
	URL  string

	// RetryAttempts and RetryDelay bound Reconnect.
	RetryAttempts int
	RetryDelay    time.Duration

	// ActiveTime is the session active duration; it is converted to whole
	// seconds at the Redis boundary.
	ActiveTime time.Duration
}

// SessionStore implements cache.SessionStore on Redis. Tokens are stored
// twice: a plain key "<token>::token" holding the owning user id with a TTL
// equal to the active duration, and a member of the sorted set
// "User::<userId>::token" scored with the absolute expiry timestamp. The
// sorted set is the enumeration structure Redis TTLs cannot provide; its
// scores mirror the TTL deadlines best-effort and are pruned lazily on
// validation rather than by a background sweep.
type SessionStore struct {
	opts   Options
	client *redis.Client
}

// NewSessionStore creates an unconnected store. Call Connect before use.
func NewSessionStore(opts Options) *SessionStore {
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	return &SessionStore{opts: opts}
}

func tokenKey(token string) string {
	return token + "::token"
}

func userKey(userID string) string {
	return fmt.Sprintf("User::%s::token", userID)
}

// Connect establishes the backend connection and verifies it with a ping.
// On failure the store stays unusable until a later Connect or Reconnect
// succeeds.
func (s *SessionStore) Connect(ctx context.Context) error {
	var client *redis.Client
	if s.opts.URL != "" {
		ropts, err := redis.ParseURL(s.opts.URL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		client = redis.NewClient(ropts)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port),
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("redis connection failed: %w", err)
	}

	if s.client != nil {
		s.client.Close()
	}
	s.client = client
	log.Info().Msg("Connected to Redis successfully")

	return nil
}

// Reconnect retries Connect up to the configured attempt count with a fixed
// delay between attempts. It reports whether a connection was established
// and never returns an error.
func (s *SessionStore) Reconnect(ctx context.Context) bool {
	for attempt := 1; attempt <= s.opts.RetryAttempts; attempt++ {
		err := s.Connect(ctx)
		if err == nil {
			return true
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Redis reconnection attempt failed")

		select {
		case <-time.After(s.opts.RetryDelay):
		case <-ctx.Done():
			return false
		}
	}
	log.Error().Int("attempts", s.opts.RetryAttempts).Msg("Failed to reconnect to Redis")

	return false
}

// IsConnected probes the connection with a ping. On a connection-level
// failure it runs Reconnect transparently and returns the outcome. Callers
// that need resilience should call this before any other operation.
func (s *SessionStore) IsConnected(ctx context.Context) bool {
	if s.client == nil {
		return s.Reconnect(ctx)
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Redis ping failed, attempting to reconnect")
		return s.Reconnect(ctx)
	}

	return true
}

// Close releases the backend connection.
func (s *SessionStore) Close() error {
	if s.client == nil {
		return nil
	}

	return s.client.Close()
}

// CreateToken implements cache.SessionStore.CreateToken. The token record
// and its index entry are written in a single transaction: no side effect is
// observable if either write fails.
func (s *SessionStore) CreateToken(ctx context.Context, userID string) (string, int64, error) {
	if s.client == nil {
		return "", 0, authgate.ErrNotConnected
	}

	token := uuid.NewString()
	expiresAt := time.Now().UTC().Unix() + s.activeSeconds()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKey(token), userID, s.opts.ActiveTime)
		pipe.ZAdd(ctx, userKey(userID), redis.Z{Score: float64(expiresAt), Member: token})
		return nil
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token: %w", err)
	}

	log.Debug().Str("user_id", userID).Int64("expires_at", expiresAt).Msg("session token created")

	return token, expiresAt, nil
}

// ValidateToken implements cache.SessionStore.ValidateToken. A hit also
// prunes the owner's index of entries whose expiry timestamp has passed;
// prune failures are logged, not surfaced, since the index is reconciled
// lazily anyway. The token's own TTL is never touched.
func (s *SessionStore) ValidateToken(ctx context.Context, token string) (string, error) {
	if s.client == nil {
		return "", authgate.ErrNotConnected
	}

	userID, err := s.client.Get(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return "", authgate.ErrTokenNotFound
	} else if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}

	now := time.Now().UTC().Unix()
	if err := s.client.ZRemRangeByScore(ctx, userKey(userID), "-inf", strconv.FormatInt(now-1, 10)).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to prune expired index entries")
	}

	return userID, nil
}

// RefreshToken implements cache.SessionStore.RefreshToken: the sliding
// session mechanism. The record's TTL is reset to the full active duration
// and the index score is pushed forward to match.
func (s *SessionStore) RefreshToken(ctx context.Context, token string) (int64, error) {
	if s.client == nil {
		return 0, authgate.ErrNotConnected
	}

	userID, err := s.client.Get(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return 0, authgate.ErrTokenNotFound
	} else if err != nil {
		return 0, fmt.Errorf("failed to look up token: %w", err)
	}

	expiresAt := time.Now().UTC().Unix() + s.activeSeconds()

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Expire(ctx, tokenKey(token), s.opts.ActiveTime)
		pipe.ZAdd(ctx, userKey(userID), redis.Z{Score: float64(expiresAt), Member: token})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to refresh token: %w", err)
	}

	return expiresAt, nil
}

// Logout implements cache.SessionStore.Logout. The record deletion and the
// index removal run in one transaction, so a completed call never leaves a
// half-revoked token behind. Both are no-ops on already-gone keys, which
// keeps retries after a crash safe.
func (s *SessionStore) Logout(ctx context.Context, token string) error {
	if s.client == nil {
		return authgate.ErrNotConnected
	}

	userID, err := s.client.Get(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return authgate.ErrTokenNotFound
	} else if err != nil {
		return fmt.Errorf("failed to look up token: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, tokenKey(token))
		pipe.ZRem(ctx, userKey(userID), token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}

	log.Debug().Str("user_id", userID).Msg("session token revoked")

	return nil
}

// LogoutAll implements cache.SessionStore.LogoutAll. It enumerates the
// owner's index and revokes the snapshot in one transaction. Known race: a
// token created for the same user while the enumeration is in flight is not
// guaranteed to be revoked.
func (s *SessionStore) LogoutAll(ctx context.Context, token string) error {
	userID, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	tokens, err := s.client.ZRange(ctx, userKey(userID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to enumerate user tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	members := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		members[i] = tok
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, userKey(userID), members...)
		for _, tok := range tokens {
			pipe.Del(ctx, tokenKey(tok))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to log out all devices: %w", err)
	}

	log.Debug().Str("user_id", userID).Int("tokens", len(tokens)).Msg("all session tokens revoked")

	return nil
}

func (s *SessionStore) activeSeconds() int64 {
	return int64(s.opts.ActiveTime.Seconds())
}

var _ cache.SessionStore = (*SessionStore)(nil)
