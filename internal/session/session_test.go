package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnlockLockCycle(t *testing.T) {
	m := NewManager()
	require.False(t, m.IsUnlocked())

	m.Unlock(1000, true, []byte("derived-key"))
	require.True(t, m.IsUnlocked())
	require.Equal(t, []byte("derived-key"), m.Key())

	m.Lock()
	require.False(t, m.IsUnlocked())
	require.Nil(t, m.Key())
}

func TestFailedUnlockDoesNotTransition(t *testing.T) {
	m := NewManager()
	m.Unlock(0, false, nil)
	require.False(t, m.IsUnlocked())
}

func TestBackoffKicksInAfterThreshold(t *testing.T) {
	m := NewManager()
	for i := 0; i < FailureThreshold; i++ {
		require.Equal(t, time.Duration(0), m.Backoff())
		m.Unlock(0, false, nil)
	}
	require.Greater(t, m.Backoff(), time.Duration(0))
}

func TestAutoLockFiresAfterIdleBudget(t *testing.T) {
	m := NewManager()
	m.Unlock(0, true, []byte("key"))

	require.False(t, m.CheckAutoLock(59_000, 1)) // 59s < 60s budget
	require.True(t, m.IsUnlocked())

	require.True(t, m.CheckAutoLock(61_000, 1)) // 61s >= 60s budget
	require.False(t, m.IsUnlocked())
}

func TestAutoLockDisabledWhenZero(t *testing.T) {
	m := NewManager()
	m.Unlock(0, true, []byte("key"))
	require.False(t, m.CheckAutoLock(10_000_000, 0))
	require.True(t, m.IsUnlocked())
}

func TestTouchExtendsActivity(t *testing.T) {
	m := NewManager()
	m.Unlock(0, true, []byte("key"))
	m.Touch(50_000)
	require.False(t, m.CheckAutoLock(50_000+59_000, 1))
	require.True(t, m.IsUnlocked())
}
