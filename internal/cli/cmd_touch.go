package cli

import (
	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
)

func init() {
	touchCmd.SilenceErrors = true
	touchCmd.SilenceUsage = true
	rootCmd.AddCommand(touchCmd)
}

var touchCmd = &cobra.Command{
	Use:   "touch <id>",
	Short: "Record a usage event without decrypting the secret",
	Long: `Sets last_used_at, increments usage_count, and unions --domain into
the entry's domain set, the same bookkeeping Get performs as a side effect
of decrypting — without actually revealing the plaintext. A host that only
needs to record that a field was autofilled (not that it read the secret
directly) uses this instead of get.`,
	Args: cobra.ExactArgs(1),
	RunE: runTouch,
}

var touchDomain string

func init() {
	touchCmd.Flags().StringVar(&touchDomain, "domain", "", "hostname to union into the entry's domains")
}

func runTouch(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withUnlocked(func(engine *vaultapi.Engine, t int64) error {
		if err := engine.RecordUsage(id, touchDomain, t); err != nil {
			printError("%v", err)
			return err
		}
		printSuccess("Recorded usage for %s.", id)
		return nil
	})
}
