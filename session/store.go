// Package session keeps per-session state that must never reach the database:
// derived vault keys and the ids of signed-out sessions.
package session

import (
	"fmt"
	"time"

	cache "github.com/go-pkgz/expirable-cache"
)

type Store struct {
	vaultKeys cache.Cache
	revoked   cache.Cache
	vaultTTL  time.Duration
	now       func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store whose vault keys expire vaultTTL after they were last set.
func NewStore(vaultTTL time.Duration, opts ...Option) (*Store, error) {
	s := &Store{vaultTTL: vaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	var err error
	s.vaultKeys, err = cache.NewCache(cache.TTL(vaultTTL))
	if err != nil {
		return nil, fmt.Errorf("creating vault key cache: %w", err)
	}
	s.revoked, err = cache.NewCache()
	if err != nil {
		return nil, fmt.Errorf("creating revocation cache: %w", err)
	}
	return s, nil
}

func (s *Store) SetVaultKey(sessionID string, key []byte) {
	stored := make([]byte, len(key))
	copy(stored, key)
	s.vaultKeys.Set(sessionID, stored, s.vaultTTL)
}

func (s *Store) VaultKey(sessionID string) ([]byte, bool) {
	v, ok := s.vaultKeys.Get(sessionID)
	if !ok {
		return nil, false
	}
	key, ok := v.([]byte)
	return key, ok
}

func (s *Store) TTL() time.Duration { return s.vaultTTL }

func (s *Store) Lock(sessionID string) {
	s.vaultKeys.Invalidate(sessionID)
}

// Revoke marks a session as signed out until its token would have expired anyway.
func (s *Store) Revoke(sessionID string, tokenExpiresAt time.Time) {
	s.Lock(sessionID)
	ttl := tokenExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	s.revoked.Set(sessionID, struct{}{}, ttl)
}

func (s *Store) IsRevoked(sessionID string) bool {
	_, ok := s.revoked.Get(sessionID)
	return ok
}
