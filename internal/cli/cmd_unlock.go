package cli

import (
	"github.com/spf13/cobra"

	"keyvault/internal/vaultconfig"
)

func init() {
	unlockCmd.SilenceErrors = true
	unlockCmd.SilenceUsage = true
	rootCmd.AddCommand(unlockCmd)
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the vault for subsequent commands",
	Long: `Verify the master password and start an unlocked session.

keyvault is a short-lived CLI process: the derived key cannot stay cached in
memory between invocations, so unlock seals it into session.json (itself
wrapped under a host-local secret, see internal/vaultconfig) with an expiry
tied to the vault's auto_lock_minutes setting. Every subsequent authenticated
command resumes that session automatically; run unlock again once it has
expired or after an explicit lock.

Examples:
  keyvault unlock
  echo "mypassword" | keyvault unlock -P`,
	RunE: runUnlock,
}

var unlockPasswordStdin bool

func init() {
	unlockCmd.Flags().BoolVarP(&unlockPasswordStdin, "password-stdin", "P", false, "Read master password from stdin")
}

func runUnlock(cmd *cobra.Command, args []string) error {
	password, err := resolvePassword(unlockPasswordStdin, false)
	if err != nil {
		return err
	}

	engine, cfg, dir, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	t := now()
	count, err := engine.Unlock([]byte(password), t)
	if err != nil {
		printError("%v", err)
		return err
	}

	budget := engine.AutoLockBudgetMillis()
	if budget <= 0 {
		budget = defaultSessionTTLMillis
	}
	if err := vaultconfig.PersistSession(dir, cfg, engine.SessionKey(), t+budget); err != nil {
		return err
	}

	printSuccess("Vault unlocked (%d entries).", count)
	return nil
}

// defaultSessionTTLMillis bounds how long session.json stays resumable when
// auto_lock_minutes is 0 (auto-lock disabled) — an on-disk session token
// should never be allowed to live forever even if the in-memory session
// would.
const defaultSessionTTLMillis = 24 * 60 * 60 * 1000
