package cli

import (
	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
)

func init() {
	deleteCmd.SilenceErrors = true
	deleteCmd.SilenceUsage = true
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withUnlocked(func(engine *vaultapi.Engine, t int64) error {
		if err := engine.Delete(id, t); err != nil {
			printError("%v", err)
			return err
		}
		printSuccess("Deleted %s.", id)
		return nil
	})
}
