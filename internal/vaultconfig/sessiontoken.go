package vaultconfig

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"keyvault/internal/vaultcrypto"
	"keyvault/internal/vaulterrors"
)

// sessionAAD binds a wrapped session key to its purpose, the same way
// backup and entry envelopes bind their own associated data — a
// session.json blob can never be fed into entrycodec.Open by mistake.
var sessionAAD = []byte("session:v1")

// sessionToken is the on-disk shape of session.json: the unlocked vault's
// derived key, sealed under a host-local wrapping key, plus an absolute
// expiry so a stale token can never resurrect a session past its budget.
type sessionToken struct {
	Wrapped   []byte `json:"wrapped"`
	ExpiresAt int64  `json:"expires_at"`
}

func sessionPath(dir string) string {
	return filepath.Join(dir, "session.json")
}

// wrappingKey derives the host-local secret session.json is sealed under,
// from the install salt recorded in config.json and the host's machine id.
// Without the same host (or at least the same install salt, which never
// leaves config.json), a stolen session.json alone cannot be unwrapped.
func wrappingKey(installSalt []byte, machineID string) []byte {
	h := sha3.New256()
	h.Write(installSalt)
	h.Write([]byte(machineID))
	return h.Sum(nil)
}

// machineID returns a best-effort per-host identifier. It need not be
// secret or globally unique — it only needs to differ across hosts so a
// copied session.json doesn't unwrap on a machine it wasn't written on.
func machineID() string {
	if id, err := os.ReadFile("/etc/machine-id"); err == nil && len(id) > 0 {
		return string(id)
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "keyvault-fallback-host"
}

// PersistSession seals key under the host-local wrapping secret and writes
// it to session.json in dir, expiring at expiresAt (an absolute timestamp
// in the same clock the rest of the engine uses).
func PersistSession(dir string, cfg *HostConfig, key []byte, expiresAt int64) error {
	wrap := wrappingKey(cfg.InstallSalt, machineID())
	defer vaultcrypto.Zeroize(wrap)

	wrapped, err := vaultcrypto.Seal(wrap, key, sessionAAD)
	if err != nil {
		return err
	}

	tok := sessionToken{Wrapped: wrapped, ExpiresAt: expiresAt}
	data, err := json.Marshal(&tok)
	if err != nil {
		return vaulterrors.Wrap(err, "marshal session.json")
	}
	path := sessionPath(dir)
	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return vaulterrors.NewIOError("write", path, err)
	}
	return nil
}

// ResumeSession reads session.json from dir and, if present and not
// expired as of now, unwraps and returns the cached derived key. Any
// failure (missing file, expired token, wrapping-key mismatch, tampering)
// returns ErrVaultLocked — resumption is best-effort, never a hard
// dependency; callers fall back to a normal password unlock.
func ResumeSession(dir string, cfg *HostConfig, now int64) ([]byte, error) {
	data, err := os.ReadFile(sessionPath(dir))
	if err != nil {
		return nil, vaulterrors.ErrVaultLocked
	}

	var tok sessionToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, vaulterrors.ErrVaultLocked
	}
	if now >= tok.ExpiresAt {
		return nil, vaulterrors.ErrVaultLocked
	}

	wrap := wrappingKey(cfg.InstallSalt, machineID())
	defer vaultcrypto.Zeroize(wrap)

	key, err := vaultcrypto.Open(wrap, tok.Wrapped, sessionAAD)
	if err != nil {
		return nil, vaulterrors.ErrVaultLocked
	}
	return key, nil
}

// ClearSession removes session.json, if present. Called on an explicit
// lock so a lingering token can't outlive the in-memory session it mirrors.
func ClearSession(dir string) error {
	err := os.Remove(sessionPath(dir))
	if err != nil && !os.IsNotExist(err) {
		return vaulterrors.NewIOError("remove", sessionPath(dir), err)
	}
	return nil
}
