package cli

import (
	"github.com/spf13/cobra"

	"keyvault/internal/vaultconfig"
)

func init() {
	lockCmd.SilenceErrors = true
	lockCmd.SilenceUsage = true
	rootCmd.AddCommand(lockCmd)
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the vault, discarding the cached session",
	Long: `End the current session: zeroize the cached key and remove
session.json so no later command can resume it without a fresh unlock.`,
	RunE: runLock,
}

func runLock(cmd *cobra.Command, args []string) error {
	engine, cfg, dir, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	t := now()
	_ = resumeOrFail(engine, cfg, dir, t) // best-effort; locking an already-locked vault is a no-op
	if err := engine.Lock(t); err != nil {
		return err
	}
	if err := vaultconfig.ClearSession(dir); err != nil {
		return err
	}

	printSuccess("Vault locked.")
	return nil
}
