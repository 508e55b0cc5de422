// Package vaultapi composes the Crypto Primitives, Password Verifier,
// Entry Codec, Vault Store, Session Manager, Backup Envelope, and Audit
// Log into the single API surface spec.md §6 describes — the entry point
// any host (CLI, embedding server) drives.
package vaultapi

import (
	"strings"
	"sync"
	"time"

	"keyvault/internal/audit"
	"keyvault/internal/backup"
	"keyvault/internal/entrycodec"
	"keyvault/internal/log"
	"keyvault/internal/session"
	"keyvault/internal/vaultcrypto"
	"keyvault/internal/vaultstore"
	"keyvault/internal/vaulterrors"
	"keyvault/internal/verifier"
)

// Engine is the orchestration layer, in the shape of the teacher's
// OperationContext: it owns no cryptographic state of its own beyond what
// session.Manager already owns, and every mutation goes through
// Store.Commit.
type Engine struct {
	mu      sync.Mutex
	store   *vaultstore.Store
	session *session.Manager
	vault   *vaultstore.Vault
}

// Open opens (but does not initialize) the vault store rooted at dir.
func Open(dir string) (*Engine, error) {
	store, err := vaultstore.Open(dir)
	if err != nil {
		return nil, err
	}
	return &Engine{store: store, session: session.NewManager()}, nil
}

// Close releases the store's advisory lockfile.
func (e *Engine) Close() error {
	e.store.Close()
	return nil
}

// logAudit appends an audit record to v unless settings.enable_audit_log is
// false (spec.md §4.8: disabled means no entries are recorded at all, not
// that they're recorded and hidden; re-enabling later never backfills).
func logAudit(v *vaultstore.Vault, action string, now int64) {
	if !v.Settings.EnableAuditLog {
		return
	}
	v.AuditLog = audit.Append(v.AuditLog, action, now)
}

// Status is the result of the status() operation.
type Status struct {
	Initialized  bool
	Unlocked     bool
	EntryCount   int
	LastActivity int64
}

// Initialize creates a new vault under Engine's store with password as its
// master password. Fails with ErrAlreadyInitialized if a vault already
// exists.
func (e *Engine) Initialize(password []byte, now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.store.Load()
	if err == nil && existing.Initialized {
		return vaulterrors.ErrAlreadyInitialized
	}

	stored, err := verifier.Install(password)
	if err != nil {
		return err
	}

	v := &vaultstore.Vault{
		FormatVersion: vaultstore.CurrentFormatVersion,
		Initialized:   true,
		Verifier:      stored,
		Entries:       make(map[string]*vaultstore.Entry),
		Settings:      vaultstore.DefaultSettings(),
		LastActivity:  now,
	}
	logAudit(v, audit.ActionVaultInitialized, now)

	if err := e.store.Commit(v); err != nil {
		return err
	}
	e.vault = v
	log.Info("vault initialized")
	return nil
}

// Unlock verifies password against the stored verifier and, on success,
// derives the entry-encryption key once, caches it, loads the vault, and
// transitions the session to Unlocked. On failure it applies the session's
// advisory backoff (spec.md §4.5: "after N consecutive failures the
// Session Manager inserts a backoff delay before responding") before
// returning BadPassword.
func (e *Engine) Unlock(password []byte, now int64) (entryCount int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.store.Load()
	if err != nil {
		return 0, vaulterrors.ErrNotInitialized
	}
	if !v.Initialized {
		return 0, vaulterrors.ErrNotInitialized
	}

	ok, err := verifier.Verify(v.Verifier, password)
	if err != nil {
		return 0, err
	}
	if !ok {
		e.session.Unlock(now, false, nil)
		time.Sleep(e.session.Backoff())
		return 0, vaulterrors.ErrBadPassword
	}

	salt, err := verifier.Salt(v.Verifier)
	if err != nil {
		return 0, err
	}
	key, err := entrycodec.DeriveKey(password, salt)
	if err != nil {
		return 0, err
	}
	defer vaultcrypto.Zeroize(key)

	e.session.Unlock(now, true, key)
	e.vault = v
	logAudit(e.vault, audit.ActionVaultUnlocked, now)
	if err := e.store.Commit(e.vault); err != nil {
		return 0, err
	}
	log.Info("vault unlocked")
	return len(e.vault.Entries), nil
}

// Lock transitions the session to Locked, zeroizing the cached key.
func (e *Engine) Lock(now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lockLocked(now, audit.ActionVaultLocked)
}

func (e *Engine) lockLocked(now int64, action string) error {
	e.session.Lock()
	if e.vault != nil {
		logAudit(e.vault, action, now)
		if err := e.store.Commit(e.vault); err != nil {
			return err
		}
	}
	log.Info("vault locked", log.String("reason", action))
	return nil
}

// Status reports the current lifecycle state.
func (e *Engine) Status(now int64) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.autoLockLocked(now)

	if e.vault == nil {
		v, err := e.store.Load()
		if err != nil {
			return Status{}, nil
		}
		return Status{Initialized: v.Initialized, EntryCount: len(v.Entries)}, nil
	}
	return Status{
		Initialized:  e.vault.Initialized,
		Unlocked:     e.session.IsUnlocked(),
		EntryCount:   len(e.vault.Entries),
		LastActivity: e.session.LastActivity(),
	}, nil
}

// autoLockLocked runs the idle-timeout check against the vault's own
// auto_lock_minutes setting. Must be called with e.mu held.
func (e *Engine) autoLockLocked(now int64) {
	if e.vault == nil {
		return
	}
	if e.session.CheckAutoLock(now, e.vault.Settings.AutoLockMinutes) {
		logAudit(e.vault, audit.ActionVaultAutoLocked, now)
		_ = e.store.Commit(e.vault)
		log.Info("vault auto-locked")
	}
}

// requireUnlockedLocked is the guard every authenticated operation opens
// with. Must be called with e.mu held; on success it touches activity.
func (e *Engine) requireUnlockedLocked(now int64) error {
	e.autoLockLocked(now)
	if !e.session.IsUnlocked() {
		return vaulterrors.ErrVaultLocked
	}
	e.session.Touch(now)
	e.vault.LastActivity = now
	return nil
}

// SessionKey exposes the cached derived key for a host (the CLI) that
// needs to persist a resumable session token across process invocations
// (see internal/vaultconfig.PersistSession). Only meaningful while
// Unlocked.
func (e *Engine) SessionKey() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	key, _, err := e.keyAndSaltLocked()
	if err != nil {
		return nil
	}
	return key
}

// ResumeWithKey restores an Unlocked session from a derived key already
// authenticated in a prior process (via a resumed session.json token),
// without re-running verifier.Verify or PBKDF2. Callers must only pass a
// key that has already come out of Unlock's DeriveKey call in some
// process.
func (e *Engine) ResumeWithKey(key []byte, now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.store.Load()
	if err != nil {
		return vaulterrors.ErrNotInitialized
	}
	e.vault = v
	e.session.Unlock(now, true, key)
	return nil
}

// AutoLockBudgetMillis returns the current vault's configured idle budget,
// in milliseconds, or a safe default if no vault is loaded yet.
func (e *Engine) AutoLockBudgetMillis() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.vault == nil {
		return 5 * 60_000
	}
	return int64(e.vault.Settings.AutoLockMinutes) * 60_000
}

// keyAndSaltLocked returns the key cached by session.Manager for the
// duration of Unlocked, plus the verifier salt it was derived from. Every
// entry envelope this engine writes shares that one salt — a bulk rekey
// only ever happens via export (old key) followed by initialize+import
// (new key), never in place — so a single cached key is valid for
// SealWithKey/OpenWithKey across every entry until the vault is reset.
// Callers must hold e.mu.
func (e *Engine) keyAndSaltLocked() (key, salt []byte, err error) {
	key = e.session.Key()
	if e.vault == nil {
		return nil, nil, vaulterrors.ErrVaultLocked
	}
	salt, err = verifier.Salt(e.vault.Verifier)
	if err != nil {
		return nil, nil, err
	}
	return key, salt, nil
}

// AddInput mirrors spec.md §6's add(record).
type AddInput struct {
	ServiceName string
	Plaintext   string
	Environment vaultstore.Environment
	Tags        []string
	Domains     []string
	Notes       string
	Favorite    bool
	ExpiresAt   *int64
	RateLimit   string
}

// Add encrypts in.Plaintext and inserts a new entry.
func (e *Engine) Add(id string, in AddInput, now int64) (*vaultstore.EntryView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlockedLocked(now); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ServiceName) == "" {
		return nil, vaulterrors.NewValidationError("service_name", "must not be empty")
	}
	if in.Plaintext == "" {
		return nil, vaulterrors.NewValidationError("plaintext", "must not be empty")
	}

	key, salt, err := e.keyAndSaltLocked()
	if err != nil {
		return nil, err
	}
	ct, err := entrycodec.SealWithKey(key, salt, []byte(in.Plaintext), nil)
	if err != nil {
		return nil, err
	}

	entry := e.vault.Add(vaultstore.AddInput{
		ID:          id,
		ServiceName: in.ServiceName,
		Ciphertext:  ct,
		Environment: in.Environment,
		Tags:        in.Tags,
		Domains:     in.Domains,
		Notes:       in.Notes,
		Favorite:    in.Favorite,
		ExpiresAt:   in.ExpiresAt,
		RateLimit:   in.RateLimit,
		Color:       vaultstore.RandomColor(len(e.vault.Entries)),
	}, now)

	logAudit(e.vault, audit.ActionEntryAdded, now)
	if err := e.store.Commit(e.vault); err != nil {
		return nil, err
	}
	view := entry.View()
	return &view, nil
}

// Get decrypts and returns the plaintext for the entry with id, recording
// a usage event.
func (e *Engine) Get(id string, now int64) (plaintext string, view vaultstore.EntryView, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlockedLocked(now); err != nil {
		return "", vaultstore.EntryView{}, err
	}
	entry := e.vault.Get(id)
	if entry == nil {
		return "", vaultstore.EntryView{}, vaulterrors.ErrNotFound
	}

	key, _, err := e.keyAndSaltLocked()
	if err != nil {
		return "", vaultstore.EntryView{}, err
	}
	pt, err := entrycodec.OpenWithKey(key, entry.Ciphertext, nil)
	if err != nil {
		if vaulterrors.Corrupt(err) {
			return "", vaultstore.EntryView{}, vaulterrors.ErrVaultCorrupt
		}
		return "", vaultstore.EntryView{}, err
	}

	e.vault.RecordUsage(id, "", now)
	logAudit(e.vault, audit.ActionEntryUsed, now)
	if err := e.store.Commit(e.vault); err != nil {
		return "", vaultstore.EntryView{}, err
	}
	return string(pt), entry.View(), nil
}

// Update applies a partial update to the entry with id. If in.Plaintext is
// non-nil the secret itself is rotated.
func (e *Engine) Update(id string, in vaultstore.UpdateInput, plaintext *string, now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlockedLocked(now); err != nil {
		return err
	}
	if e.vault.Get(id) == nil {
		return vaulterrors.ErrNotFound
	}

	if plaintext != nil {
		key, salt, err := e.keyAndSaltLocked()
		if err != nil {
			return err
		}
		ct, err := entrycodec.SealWithKey(key, salt, []byte(*plaintext), nil)
		if err != nil {
			return err
		}
		in.Ciphertext = ct
	}

	e.vault.Update(id, in)
	logAudit(e.vault, audit.ActionEntryUpdated, now)
	return e.store.Commit(e.vault)
}

// Delete removes the entry with id.
func (e *Engine) Delete(id string, now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlockedLocked(now); err != nil {
		return err
	}
	if !e.vault.Delete(id) {
		return vaulterrors.ErrNotFound
	}
	logAudit(e.vault, audit.ActionEntryDeleted, now)
	return e.store.Commit(e.vault)
}

// List returns metadata-only views matching filter.
func (e *Engine) List(filter vaultstore.Filter, now int64) ([]vaultstore.EntryView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireUnlockedLocked(now); err != nil {
		return nil, err
	}
	return e.vault.List(filter, now), nil
}

// Search returns metadata-only views matching query.
func (e *Engine) Search(query string, now int64) ([]vaultstore.EntryView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireUnlockedLocked(now); err != nil {
		return nil, err
	}
	return e.vault.Search(query, now), nil
}

// RecordUsage touches the entry's usage counters without decrypting it
// (distinct from Get, which always records usage as a side effect of
// reading the plaintext).
func (e *Engine) RecordUsage(id, domain string, now int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireUnlockedLocked(now); err != nil {
		return err
	}
	if !e.vault.RecordUsage(id, domain, now) {
		return vaulterrors.ErrNotFound
	}
	logAudit(e.vault, audit.ActionEntryUsed, now)
	return e.store.Commit(e.vault)
}

// Export produces a backup envelope of the current vault, sealed under
// backupPassword.
func (e *Engine) Export(backupPassword string, now int64) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireUnlockedLocked(now); err != nil {
		return nil, err
	}

	key, _, err := e.keyAndSaltLocked()
	if err != nil {
		return nil, err
	}
	decrypt := func(ct []byte) ([]byte, error) { return entrycodec.OpenWithKey(key, ct, nil) }

	data, err := backup.Export(e.vault, decrypt, backupPassword, now)
	if err != nil {
		return nil, err
	}
	logAudit(e.vault, audit.ActionBackupExported, now)
	if err := e.store.Commit(e.vault); err != nil {
		return nil, err
	}
	return data, nil
}

// Import merges a backup envelope into the current vault per policy,
// re-encrypting every entry under the current master key.
func (e *Engine) Import(data []byte, backupPassword string, policy backup.Policy, now int64) (*backup.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireUnlockedLocked(now); err != nil {
		return nil, err
	}

	key, salt, err := e.keyAndSaltLocked()
	if err != nil {
		return nil, err
	}
	encrypt := func(pt []byte) ([]byte, error) { return entrycodec.SealWithKey(key, salt, pt, nil) }

	report, err := backup.Import(data, backupPassword, policy, e.vault, encrypt, now)
	if err != nil {
		return nil, err
	}
	logAudit(e.vault, audit.ActionBackupImported, now)
	if err := e.store.Commit(e.vault); err != nil {
		return nil, err
	}
	return report, nil
}

// AuditTail returns the n most recent audit records, newest first. Unlike
// the authenticated operations above, this never requires Unlocked — audit
// records are action tags and timestamps, never plaintext.
func (e *Engine) AuditTail(n int, now int64) []audit.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoLockLocked(now)
	if e.vault == nil {
		return nil
	}
	return audit.Tail(e.vault.AuditLog, n)
}

// GenerateSecret is the library half of the generate_secret convenience
// operation; it needs no session state at all.
func GenerateSecret(length int) (string, error) {
	return vaultcrypto.GenerateSecret(length)
}
