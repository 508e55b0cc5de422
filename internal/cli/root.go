// Package cli is the CLI host for the keyvault engine: a cobra-based
// command tree wiring every operation in internal/vaultapi's surface to a
// subcommand, with the exit codes the engine's error taxonomy calls for.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
	"keyvault/internal/vaultconfig"
	"keyvault/internal/vaulterrors"
)

// Version is set by main at build time; dev is the fallback for a plain
// `go build`.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "keyvault",
	Short:   "A local, password-protected store for API credentials",
	Version: Version,
}

var vaultDirFlag string

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&vaultDirFlag, "vault-dir", "", "vault directory (default: ~/.keyvault)")
}

// Execute runs the CLI and returns the process exit code spec.md §6
// specifies: 0 success, 1 generic failure, 2 misuse, 3 auth failure, 4 not
// initialized, 5 not found.
func Execute() int {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		return exitCodeForErr(err)
	}
	return 0
}

func exitCodeForErr(err error) int {
	switch {
	case err == nil:
		return 0
	case vaulterrors.Is(err, vaulterrors.ErrNotInitialized):
		return 4
	case vaulterrors.Is(err, vaulterrors.ErrNotFound):
		return 5
	case vaulterrors.Is(err, vaulterrors.ErrBadPassword),
		vaulterrors.Is(err, vaulterrors.ErrBadBackupPassword),
		vaulterrors.Is(err, vaulterrors.ErrVaultLocked):
		return 3
	case vaulterrors.As(err, new(*vaulterrors.ValidationError)):
		return 2
	default:
		return 1
	}
}

// now is the single place the CLI reads the wall clock; the engine itself
// never calls time.Now(), so every timestamp flowing through it traces
// back to one of these calls.
func now() int64 {
	return time.Now().UnixMilli()
}

func resolveDir() (string, error) {
	if vaultDirFlag != "" {
		return vaultconfig.ExpandPath(vaultDirFlag)
	}
	return vaultconfig.DefaultDir()
}

// openEngine opens the vault store and loads (or creates) the host config
// record alongside it.
func openEngine() (*vaultapi.Engine, *vaultconfig.HostConfig, string, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, nil, "", err
	}
	cfg, err := vaultconfig.LoadOrInit(dir)
	if err != nil {
		return nil, nil, "", err
	}
	engine, err := vaultapi.Open(dir)
	if err != nil {
		return nil, nil, "", err
	}
	return engine, cfg, dir, nil
}

// resumeOrFail tries to resume a previously unlocked session from
// session.json; on any failure (missing, expired, wrong host) it surfaces
// ErrVaultLocked so the host's exit code correctly tells the caller to run
// `keyvault unlock` again.
func resumeOrFail(engine *vaultapi.Engine, cfg *vaultconfig.HostConfig, dir string, t int64) error {
	key, err := vaultconfig.ResumeSession(dir, cfg, t)
	if err != nil {
		return vaulterrors.ErrVaultLocked
	}
	return engine.ResumeWithKey(key, t)
}

func fail(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// withUnlocked opens the engine, resumes the session from session.json
// (failing with ErrVaultLocked if there isn't one or it has expired), and
// runs fn. Every authenticated subcommand (add, get, list, search, update,
// delete, export, import, record-usage) shares this wiring.
func withUnlocked(fn func(engine *vaultapi.Engine, t int64) error) error {
	engine, cfg, dir, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	t := now()
	if err := resumeOrFail(engine, cfg, dir, t); err != nil {
		printError("%v", err)
		return err
	}
	return fn(engine, t)
}
