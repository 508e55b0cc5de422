package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
)

func init() {
	getCmd.SilenceErrors = true
	getCmd.SilenceUsage = true
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Decrypt and print a secret",
	Long: `Decrypt the entry with the given id, print its plaintext to stdout,
and record a usage event. Decrypting bumps usage_count and last_used_at the
same way a host's autofill would.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withUnlocked(func(engine *vaultapi.Engine, t int64) error {
		plaintext, _, err := engine.Get(id, t)
		if err != nil {
			printError("%v", err)
			return err
		}
		fmt.Println(plaintext)
		return nil
	})
}
