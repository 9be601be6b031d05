package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultKey_SetGetLock(t *testing.T) {
	s, err := NewStore(time.Minute)
	require.NoError(t, err)

	_, ok := s.VaultKey("sid-1")
	assert.False(t, ok)

	key := []byte("0123456789abcdef0123456789abcdef")
	s.SetVaultKey("sid-1", key)
	key[0] = 'X'

	got, ok := s.VaultKey("sid-1")
	require.True(t, ok)
	assert.Equal(t, byte('0'), got[0])

	_, ok = s.VaultKey("sid-2")
	assert.False(t, ok)

	s.Lock("sid-1")
	_, ok = s.VaultKey("sid-1")
	assert.False(t, ok)
}

func TestVaultKey_Expires(t *testing.T) {
	s, err := NewStore(20 * time.Millisecond)
	require.NoError(t, err)

	s.SetVaultKey("sid", []byte("k"))
	assert.Eventually(t, func() bool {
		_, ok := s.VaultKey("sid")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestRevoke(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewStore(time.Minute, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	s.SetVaultKey("sid", []byte("k"))
	assert.False(t, s.IsRevoked("sid"))

	s.Revoke("sid", now.Add(time.Hour))
	assert.True(t, s.IsRevoked("sid"))
	_, ok := s.VaultKey("sid")
	assert.False(t, ok, "signing out locks the vault")

	s.Revoke("stale", now.Add(-time.Minute))
	assert.False(t, s.IsRevoked("stale"))
}
