package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	authgate "github.com/SkMishra77/AuthGate"
)

// MemorySessionStore implements SessionStore using ttlcache. It mirrors the
// Redis implementation's semantics (including lazy index pruning) so it can
// stand in for it in tests and single-process deployments.
type MemorySessionStore struct {
	activeTime time.Duration
	tokens     *ttlcache.Cache[string, string] // token -> owning user id

	mu    sync.Mutex
	index map[string]map[string]int64 // user id -> token -> expiry epoch seconds
}

// NewMemorySessionStore creates an in-memory session store whose tokens live
// for activeTime unless refreshed.
func NewMemorySessionStore(activeTime time.Duration) *MemorySessionStore {
	tokens := ttlcache.New(
		ttlcache.WithTTL[string, string](activeTime),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	// Start the expiry process
	go tokens.Start()

	return &MemorySessionStore{
		activeTime: activeTime,
		tokens:     tokens,
		index:      make(map[string]map[string]int64),
	}
}

// CreateToken implements SessionStore.CreateToken.
func (s *MemorySessionStore) CreateToken(_ context.Context, userID string) (string, int64, error) {
	token := uuid.NewString()
	expiresAt := time.Now().UTC().Unix() + int64(s.activeTime.Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens.Set(token, userID, s.activeTime)
	if s.index[userID] == nil {
		s.index[userID] = make(map[string]int64)
	}
	s.index[userID][token] = expiresAt

	return token, expiresAt, nil
}

// ValidateToken implements SessionStore.ValidateToken.
func (s *MemorySessionStore) ValidateToken(_ context.Context, token string) (string, error) {
	item := s.tokens.Get(token)
	if item == nil {
		return "", authgate.ErrTokenNotFound
	}
	userID := item.Value()

	s.mu.Lock()
	s.pruneLocked(userID)
	s.mu.Unlock()

	return userID, nil
}

// RefreshToken implements SessionStore.RefreshToken.
func (s *MemorySessionStore) RefreshToken(_ context.Context, token string) (int64, error) {
	item := s.tokens.Get(token)
	if item == nil {
		return 0, authgate.ErrTokenNotFound
	}
	userID := item.Value()
	expiresAt := time.Now().UTC().Unix() + int64(s.activeTime.Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens.Set(token, userID, s.activeTime)
	if s.index[userID] == nil {
		s.index[userID] = make(map[string]int64)
	}
	s.index[userID][token] = expiresAt

	return expiresAt, nil
}

// Logout implements SessionStore.Logout.
func (s *MemorySessionStore) Logout(_ context.Context, token string) error {
	item := s.tokens.Get(token)
	if item == nil {
		return authgate.ErrTokenNotFound
	}
	userID := item.Value()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens.Delete(token)
	delete(s.index[userID], token)

	return nil
}

// LogoutAll implements SessionStore.LogoutAll.
func (s *MemorySessionStore) LogoutAll(ctx context.Context, token string) error {
	userID, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for tok := range s.index[userID] {
		s.tokens.Delete(tok)
	}
	delete(s.index, userID)

	return nil
}

// pruneLocked drops index entries whose expiry timestamp has passed. The
// caller must hold s.mu.
func (s *MemorySessionStore) pruneLocked(userID string) {
	now := time.Now().UTC().Unix()
	for tok, exp := range s.index[userID] {
		if exp < now {
			delete(s.index[userID], tok)
		}
	}
}

// Close stops the expiry goroutine.
func (s *MemorySessionStore) Close() error {
	s.tokens.Stop()

	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)
