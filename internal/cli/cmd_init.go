package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	initCmd.SilenceErrors = true
	initCmd.SilenceUsage = true
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new vault",
	Long: `Create a new vault at the configured vault directory (default: ~/.keyvault).

Fails if a vault already exists there; there is no password reset, so the
only way to start over is to delete the vault directory yourself.

Examples:
  keyvault init
  echo "mypassword" | keyvault init -P`,
	RunE: runInit,
}

var initPasswordStdin bool

func init() {
	initCmd.Flags().BoolVarP(&initPasswordStdin, "password-stdin", "P", false, "Read master password from stdin")
}

func runInit(cmd *cobra.Command, args []string) error {
	password, err := resolvePassword(initPasswordStdin, true)
	if err != nil {
		return err
	}

	engine, _, _, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Initialize([]byte(password), now()); err != nil {
		printError("%v", err)
		return err
	}

	printSuccess("Vault initialized.")
	return nil
}

// resolvePassword centralizes the three ways every password-accepting
// command can receive a master password: stdin (for scripts), or an
// interactive terminal prompt with optional confirmation.
func resolvePassword(fromStdin, confirm bool) (string, error) {
	if fromStdin {
		return ReadPasswordFromStdin()
	}
	return ReadPasswordInteractive(confirm)
}
