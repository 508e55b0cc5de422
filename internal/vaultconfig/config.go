// Package vaultconfig implements the ambient host configuration spec.md §6
// assumes every implementation has: a small fixed-shape config.json for
// host preferences, distinct from the vault's own Settings, plus the
// session.json token file that lets a short-lived host process (a CLI
// invocation) resume an unlocked session without re-deriving the master
// key every time.
//
// Unlike vaultstore's vault.json, these are simple fixed-shape records with
// no forward-compatibility requirement, so they use encoding/json directly
// rather than the unknown-field-preserving YAML codec.
package vaultconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"keyvault/internal/vaultcrypto"
	"keyvault/internal/vaulterrors"
)

// HostConfig is the host-level preference record stored at config.json,
// alongside (not inside) the vault directory.
type HostConfig struct {
	VaultDir    string `json:"vault_dir"`
	InstallSalt []byte `json:"install_salt"`
}

const configFileMode = 0o600

// DefaultDir resolves the directory keyvault stores its host config and,
// by default, the vault itself in — ~/.keyvault, expanded the way the
// teacher's CLI expands a leading "~" in a user-supplied path.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", vaulterrors.NewIOError("resolve-home", "", err)
	}
	return filepath.Join(home, ".keyvault"), nil
}

// ExpandPath expands a leading "~" against the user's home directory;
// paths without one are returned unchanged.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", vaulterrors.NewIOError("resolve-home", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func configPath(dir string) string {
	return filepath.Join(dir, "config.json")
}

// LoadOrInit reads config.json from dir, creating it (with a fresh random
// install salt) if it does not yet exist.
func LoadOrInit(dir string) (*HostConfig, error) {
	path := configPath(dir)
	data, err := os.ReadFile(path)
	if err == nil {
		var cfg HostConfig
		if uerr := json.Unmarshal(data, &cfg); uerr != nil {
			return nil, vaulterrors.Wrap(uerr, "parse config.json")
		}
		return &cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, vaulterrors.NewIOError("read", path, err)
	}

	salt, err := vaultcrypto.RandomBytes(vaultcrypto.SaltSize)
	if err != nil {
		return nil, err
	}
	cfg := &HostConfig{VaultDir: dir, InstallSalt: salt}
	if err := Save(dir, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to config.json in dir, creating dir if needed.
func Save(dir string, cfg *HostConfig) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return vaulterrors.NewIOError("mkdir", dir, err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return vaulterrors.Wrap(err, "marshal config.json")
	}
	path := configPath(dir)
	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return vaulterrors.NewIOError("write", path, err)
	}
	return nil
}
