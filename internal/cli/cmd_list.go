package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
	"keyvault/internal/vaultstore"
)

func init() {
	listCmd.SilenceErrors = true
	listCmd.SilenceUsage = true
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries (metadata only, never decrypts)",
	RunE:  runList,
}

var (
	listDomain            string
	listEnvironment       string
	listTag               string
	listFavoriteOnly      bool
	listExpiredWithinDays int
)

func init() {
	listCmd.Flags().StringVar(&listDomain, "domain", "", "filter: entries associated with this domain")
	listCmd.Flags().StringVar(&listEnvironment, "environment", "", "filter: exact environment match")
	listCmd.Flags().StringVar(&listTag, "tag", "", "filter: entries carrying this tag")
	listCmd.Flags().BoolVar(&listFavoriteOnly, "favorite", false, "filter: only favorites")
	listCmd.Flags().IntVar(&listExpiredWithinDays, "expired-within-days", -1, "filter: expires within N days (-1 disables)")
}

func runList(cmd *cobra.Command, args []string) error {
	filter := vaultstore.Filter{
		Domain:      listDomain,
		Environment: vaultstore.Environment(listEnvironment),
		Tag:         listTag,
	}
	if listFavoriteOnly {
		t := true
		filter.Favorite = &t
	}
	if listExpiredWithinDays >= 0 {
		filter.ExpiredWithinDays = &listExpiredWithinDays
	}

	return withUnlocked(func(engine *vaultapi.Engine, t int64) error {
		views, err := engine.List(filter, t)
		if err != nil {
			printError("%v", err)
			return err
		}
		printViews(views)
		return nil
	})
}

// printViews renders a metadata-only listing to stdout, one line per
// entry: id, service name, environment, and favorite/tag hints. Never
// touches ciphertext or plaintext.
func printViews(views []vaultstore.EntryView) {
	for _, v := range views {
		star := " "
		if v.Favorite {
			star = "*"
		}
		fmt.Printf("%s %-36s %-12s %-11s %s\n", star, v.ID, v.ServiceName, v.Environment, v.Tags)
	}
}
