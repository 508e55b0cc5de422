package vaultstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	v := &Vault{
		FormatVersion: CurrentFormatVersion,
		Initialized:   true,
		Verifier:      []byte("verifier-bytes"),
		Entries:       make(map[string]*Entry),
		Settings:      DefaultSettings(),
	}
	v.Add(AddInput{ID: "e1", ServiceName: "OpenAI", Ciphertext: []byte{1, 2, 3}}, 1000)

	require.NoError(t, s.Commit(v))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.True(t, loaded.Initialized)
	require.Equal(t, []byte("verifier-bytes"), loaded.Verifier)
	require.Len(t, loaded.Entries, 1)
	require.Equal(t, "OpenAI", loaded.Entries["e1"].ServiceName)
}

func TestLoadMissingReturnsNotExist(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load()
	require.True(t, os.IsNotExist(err))
}

func TestInitializeRefusesOverwriteByDefault(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	v := &Vault{Initialized: true, Entries: make(map[string]*Entry)}
	require.NoError(t, s.Initialize(v, false))
	require.Error(t, s.Initialize(v, false))
	require.NoError(t, s.Initialize(v, true))
}

func TestCommitLeavesPriorFileIntactOnCrashBetweenWriteAndRename(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	v := &Vault{Initialized: true, Entries: make(map[string]*Entry)}
	require.NoError(t, s.Commit(v))

	// Simulate a crash: a stray temp file exists but was never renamed.
	stray, err := os.CreateTemp(dir, ".vault-*.tmp")
	require.NoError(t, err)
	_, err = stray.WriteString("garbage")
	require.NoError(t, err)
	stray.Close()

	loaded, err := s.Load()
	require.NoError(t, err)
	require.True(t, loaded.Initialized)

	matches, _ := filepath.Glob(filepath.Join(dir, ".vault-*.tmp"))
	require.Len(t, matches, 1, "stray temp file from the simulated crash is untouched")
}

func TestUnknownFieldsPreservedAcrossRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	raw := "format_version: 1\ninitialized: true\nverifier: []\nfuture_field: surprise\nentries: {}\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(raw), 0o600))

	v, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "surprise", v.Unknown["future_field"])

	require.NoError(t, s.Commit(v))
	reloaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "surprise", reloaded.Unknown["future_field"])
}
