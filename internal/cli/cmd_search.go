package cli

import (
	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
)

func init() {
	searchCmd.SilenceErrors = true
	searchCmd.SilenceUsage = true
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Case-insensitive substring search over service name, tags, environment, notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	return withUnlocked(func(engine *vaultapi.Engine, t int64) error {
		views, err := engine.Search(query, t)
		if err != nil {
			printError("%v", err)
			return err
		}
		printViews(views)
		return nil
	})
}
