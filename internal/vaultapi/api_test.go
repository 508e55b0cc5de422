package vaultapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"keyvault/internal/backup"
	"keyvault/internal/session"
	"keyvault/internal/vaultstore"
	"keyvault/internal/vaulterrors"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestColdStart(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("correct horse battery staple"), 0))

	st, err := e.Status(0)
	require.NoError(t, err)
	require.True(t, st.Initialized)
	require.False(t, st.Unlocked)
	require.Equal(t, 0, st.EntryCount)
}

func TestInitializeTwiceFails(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("pw"), 0))
	err := e.Initialize([]byte("pw"), 0)
	require.ErrorIs(t, err, vaulterrors.ErrAlreadyInitialized)
}

func TestAddAndRetrieve(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("correct horse battery staple"), 0))
	_, err := e.Unlock([]byte("correct horse battery staple"), 100)
	require.NoError(t, err)

	view, err := e.Add("id-1", AddInput{
		ServiceName: "OpenAI",
		Plaintext:   "sk-AAA",
		Environment: vaultstore.EnvDevelopment,
		Tags:        []string{"ai"},
	}, 200)
	require.NoError(t, err)
	require.Equal(t, "OpenAI", view.ServiceName)

	pt, gotView, err := e.Get("id-1", 300)
	require.NoError(t, err)
	require.Equal(t, "sk-AAA", pt)
	require.Equal(t, int64(1), gotView.UsageCount)

	views, err := e.List(vaultstore.Filter{Environment: vaultstore.EnvDevelopment}, 400)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "OpenAI", views[0].ServiceName)
}

func TestWrongPasswordThenLocked(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("right"), 0))

	_, err := e.Unlock([]byte("wrong"), 100)
	require.ErrorIs(t, err, vaulterrors.ErrBadPassword)

	_, _, err = e.Get("anything", 200)
	require.ErrorIs(t, err, vaulterrors.ErrVaultLocked)
}

func TestRepeatedBadPasswordTriggersBackoff(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("right"), 0))

	for i := 0; i < session.FailureThreshold; i++ {
		_, err := e.Unlock([]byte("wrong"), 0)
		require.ErrorIs(t, err, vaulterrors.ErrBadPassword)
	}

	start := time.Now()
	_, err := e.Unlock([]byte("wrong"), 0)
	elapsed := time.Since(start)
	require.ErrorIs(t, err, vaulterrors.ErrBadPassword)
	require.GreaterOrEqual(t, elapsed, 200*time.Millisecond,
		"Unlock should sleep session.Manager's Backoff() once failures reach the threshold")
}

func TestUnlockCachesDerivedKeyNotPassword(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("correct horse battery staple"), 0))
	_, err := e.Unlock([]byte("correct horse battery staple"), 0)
	require.NoError(t, err)

	key := e.SessionKey()
	require.NotEmpty(t, key)
	require.NotEqual(t, []byte("correct horse battery staple"), key,
		"the session must cache the PBKDF2-derived key, not the raw password")
}

func TestExportImportRoundTripRekeysUnderNewMaster(t *testing.T) {
	src := openTestEngine(t)
	require.NoError(t, src.Initialize([]byte("master-v1"), 0))
	_, err := src.Unlock([]byte("master-v1"), 100)
	require.NoError(t, err)

	_, err = src.Add("a", AddInput{ServiceName: "A", Plaintext: "alpha"}, 100)
	require.NoError(t, err)
	_, err = src.Add("b", AddInput{ServiceName: "B", Plaintext: "beta"}, 100)
	require.NoError(t, err)

	blob, err := src.Export("backup-pw", 200)
	require.NoError(t, err)

	dst := openTestEngine(t)
	require.NoError(t, dst.Initialize([]byte("new-pw"), 0))
	_, err = dst.Unlock([]byte("new-pw"), 300)
	require.NoError(t, err)

	report, err := dst.Import(blob, "backup-pw", backup.PolicySkipDuplicate, 400)
	require.NoError(t, err)
	require.Equal(t, 2, report.Inserted)

	pt, _, err := dst.Get("a", 500)
	require.NoError(t, err)
	require.Equal(t, "alpha", pt)
}

func TestImportWithBadBackupPassword(t *testing.T) {
	src := openTestEngine(t)
	require.NoError(t, src.Initialize([]byte("master"), 0))
	_, err := src.Unlock([]byte("master"), 0)
	require.NoError(t, err)
	blob, err := src.Export("backup-pw", 100)
	require.NoError(t, err)

	_, err = src.Import(blob, "wrong-backup-pw", backup.PolicySkipDuplicate, 200)
	require.ErrorIs(t, err, vaulterrors.ErrBadBackupPassword)
}

func TestAutoLockFiresOnIdleCall(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("pw"), 0))
	_, err := e.Unlock([]byte("pw"), 0)
	require.NoError(t, err)

	// auto_lock_minutes defaults to 5; advance well past the idle budget.
	_, err = e.List(vaultstore.Filter{}, 59_000)
	require.NoError(t, err, "59s is inside the default 5 minute budget")

	_, err = e.List(vaultstore.Filter{}, 59_000+5*60_000+1)
	require.ErrorIs(t, err, vaulterrors.ErrVaultLocked)
}

func TestSearchMatchesTagAndServiceName(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("pw"), 0))
	_, err := e.Unlock([]byte("pw"), 0)
	require.NoError(t, err)

	_, _ = e.Add("1", AddInput{ServiceName: "Stripe Test", Plaintext: "x"}, 0)
	_, _ = e.Add("2", AddInput{ServiceName: "Stripe Live", Plaintext: "x"}, 0)
	_, _ = e.Add("3", AddInput{ServiceName: "OpenAI", Plaintext: "x", Tags: []string{"ai"}}, 0)

	stripe, err := e.Search("stripe", 0)
	require.NoError(t, err)
	require.Len(t, stripe, 2)

	ai, err := e.Search("ai", 0)
	require.NoError(t, err)
	require.Len(t, ai, 1)
	require.Equal(t, "OpenAI", ai[0].ServiceName)
}

func TestAuditTailNeverRequiresUnlocked(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("pw"), 0))
	_, err := e.Unlock([]byte("pw"), 0)
	require.NoError(t, err)
	require.NoError(t, e.Lock(0))

	tail := e.AuditTail(10, 0)
	require.NotEmpty(t, tail)
}

func TestAuditLogDisabledRecordsNothing(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Initialize([]byte("pw"), 0))
	_, err := e.Unlock([]byte("pw"), 1)
	require.NoError(t, err)

	e.mu.Lock()
	e.vault.Settings.EnableAuditLog = false
	require.NoError(t, e.store.Commit(e.vault))
	before := len(e.vault.AuditLog)
	e.mu.Unlock()

	_, err = e.Add(t.Name(), AddInput{ServiceName: "OpenAI", Plaintext: "sk-AAA"}, 2)
	require.NoError(t, err)
	require.NoError(t, e.RecordUsage(t.Name(), "", 3))

	e.mu.Lock()
	afterDisabled := len(e.vault.AuditLog)
	e.mu.Unlock()
	require.Equal(t, before, afterDisabled, "no new records while disabled")

	e.mu.Lock()
	e.vault.Settings.EnableAuditLog = true
	e.mu.Unlock()
	require.NoError(t, e.Delete(t.Name(), 4))

	e.mu.Lock()
	afterReenabled := len(e.vault.AuditLog)
	e.mu.Unlock()
	require.Greater(t, afterReenabled, afterDisabled, "re-enabling does not backfill, but new actions log again")
}

func TestGenerateSecretNeedsNoSession(t *testing.T) {
	s, err := GenerateSecret(16)
	require.NoError(t, err)
	require.Len(t, s, 16)
}
