package vaultconfig

import (
	"testing"

	"github.com/stretchr/testify/require"

	"keyvault/internal/vaulterrors"
)

func TestPersistResumeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrInit(dir)
	require.NoError(t, err)

	key := []byte("0123456789abcdef0123456789abcdef")
	require.NoError(t, PersistSession(dir, cfg, key, 10_000))

	resumed, err := ResumeSession(dir, cfg, 5_000)
	require.NoError(t, err)
	require.Equal(t, key, resumed)
}

func TestResumeExpiredTokenIsLocked(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrInit(dir)
	require.NoError(t, err)

	key := []byte("0123456789abcdef0123456789abcdef")
	require.NoError(t, PersistSession(dir, cfg, key, 1_000))

	_, err = ResumeSession(dir, cfg, 2_000)
	require.ErrorIs(t, err, vaulterrors.ErrVaultLocked)
}

func TestResumeMissingTokenIsLocked(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrInit(dir)
	require.NoError(t, err)

	_, err = ResumeSession(dir, cfg, 0)
	require.ErrorIs(t, err, vaulterrors.ErrVaultLocked)
}

func TestClearSessionRemovesToken(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrInit(dir)
	require.NoError(t, err)
	require.NoError(t, PersistSession(dir, cfg, []byte("key-bytes-here-0123456789012345"), 10_000))

	require.NoError(t, ClearSession(dir))
	_, err = ResumeSession(dir, cfg, 0)
	require.ErrorIs(t, err, vaulterrors.ErrVaultLocked)

	require.NoError(t, ClearSession(dir), "removing an already-absent token is not an error")
}
