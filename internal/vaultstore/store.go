package vaultstore

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"keyvault/internal/log"
	"keyvault/internal/vaulterrors"
)

// fileMode is applied to the vault root file; secrets-adjacent files stay
// unreadable to other local users.
const fileMode = 0o600

// Store is single-writer, crash-safe persistence for a Vault root
// (spec.md §4.4). One Store corresponds to one directory on disk; it holds
// no key material and performs no cryptography itself.
type Store struct {
	dir      string
	lockPath string
	locked   bool
}

// Open prepares a Store rooted at dir, creating the directory if needed and
// taking the advisory lockfile. Cross-process mutual exclusion is out of
// scope (spec.md §4.4); the lockfile is a best-effort hint for cooperating
// processes on the same machine, not a correctness guarantee.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, vaulterrors.NewIOError("mkdir", dir, err)
	}
	s := &Store{dir: dir, lockPath: filepath.Join(dir, ".lock")}
	s.tryLock()
	return s, nil
}

func (s *Store) tryLock() {
	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		log.Debug("advisory lockfile already present, continuing", log.String("path", s.lockPath))
		return
	}
	f.Close()
	s.locked = true
}

// Close releases the advisory lockfile, if this Store created it.
func (s *Store) Close() {
	if s.locked {
		_ = os.Remove(s.lockPath)
		s.locked = false
	}
}

// Path returns the canonical vault root file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, "vault.json")
}

// Load reads and parses the Vault root. Returns ErrNotInitialized wrapped
// as a plain os.ErrNotExist-compatible error when no file exists yet — the
// vaultapi facade turns that into the spec's NotInitialized/NotFound
// semantics as appropriate for the calling operation.
func (s *Store) Load() (*Vault, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, vaulterrors.NewIOError("read", s.Path(), err)
	}

	var v Vault
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.ErrVaultCorrupt, err.Error())
	}
	if v.Entries == nil {
		v.Entries = make(map[string]*Entry)
	}
	return &v, nil
}

// Initialize writes a fresh root atomically. It fails with
// ErrAlreadyInitialized unless overwrite is true and no prior file exists,
// or overwrite is explicitly requested.
func (s *Store) Initialize(v *Vault, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(s.Path()); err == nil {
			return vaulterrors.ErrAlreadyInitialized
		}
	}
	return s.Commit(v)
}

// Commit serializes v to a temporary file in the same directory, fsyncs
// it, then renames it over the target path — the rename is atomic on any
// POSIX filesystem and on NTFS, so a crash between write and rename always
// leaves the previous vault.json intact and readable (spec.md §4.4, §8
// "Atomic commit").
func (s *Store) Commit(v *Vault) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return vaulterrors.Wrap(err, "marshal vault")
	}

	tmp, err := os.CreateTemp(s.dir, ".vault-*.tmp")
	if err != nil {
		return vaulterrors.NewIOError("create-temp", s.dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return vaulterrors.NewIOError("write", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return vaulterrors.NewIOError("fsync", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return vaulterrors.NewIOError("close", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, fileMode); err != nil {
		return vaulterrors.NewIOError("chmod", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return vaulterrors.NewIOError("rename", s.Path(), err)
	}
	return nil
}
