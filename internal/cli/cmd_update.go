package cli

import (
	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
	"keyvault/internal/vaultstore"
)

func init() {
	updateCmd.SilenceErrors = true
	updateCmd.SilenceUsage = true
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Apply a partial update to an entry",
	Long: `Update only the fields explicitly passed; everything else is left
unchanged. --tag/--domain, if passed (even zero times with the flag present),
replace the entire set rather than appending to it.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var (
	updService      string
	updEnvironment  string
	updTags         []string
	updTagsSet      bool
	updDomains      []string
	updDomainsSet   bool
	updNotes        string
	updNotesSet     bool
	updFavorite     bool
	updFavoriteSet  bool
	updRateLimit    string
	updRateLimitSet bool
	updSecret       string
	updSecretStdin  bool
	updSecretSet    bool
)

func init() {
	updateCmd.Flags().StringVar(&updService, "service", "", "new service name")
	updateCmd.Flags().StringVar(&updEnvironment, "environment", "", "new environment")
	updateCmd.Flags().StringArrayVar(&updTags, "tag", nil, "replace the tag set (repeatable)")
	updateCmd.Flags().StringArrayVar(&updDomains, "domain", nil, "replace the domain set (repeatable)")
	updateCmd.Flags().StringVar(&updNotes, "notes", "", "new notes")
	updateCmd.Flags().BoolVar(&updFavorite, "favorite", false, "new favorite value")
	updateCmd.Flags().StringVar(&updRateLimit, "rate-limit", "", "new rate limit hint")
	updateCmd.Flags().StringVar(&updSecret, "secret", "", "rotate the secret plaintext")
	updateCmd.Flags().BoolVar(&updSecretStdin, "secret-stdin", false, "rotate the secret, reading plaintext from stdin")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id := args[0]

	in := vaultstore.UpdateInput{}
	if cmd.Flags().Changed("service") {
		in.ServiceName = &updService
	}
	if cmd.Flags().Changed("environment") {
		env := vaultstore.Environment(updEnvironment)
		in.Environment = &env
	}
	if cmd.Flags().Changed("tag") {
		in.Tags, in.TagsSet = updTags, true
	}
	if cmd.Flags().Changed("domain") {
		in.Domains, in.DomainsSet = updDomains, true
	}
	if cmd.Flags().Changed("notes") {
		in.Notes = &updNotes
	}
	if cmd.Flags().Changed("favorite") {
		in.Favorite = &updFavorite
	}
	if cmd.Flags().Changed("rate-limit") {
		in.RateLimit = &updRateLimit
	}

	var plaintext *string
	if updSecretStdin {
		pt, err := ReadPasswordFromStdin()
		if err != nil {
			return err
		}
		plaintext = &pt
	} else if cmd.Flags().Changed("secret") {
		plaintext = &updSecret
	}

	return withUnlocked(func(engine *vaultapi.Engine, t int64) error {
		if err := engine.Update(id, in, plaintext, t); err != nil {
			printError("%v", err)
			return err
		}
		printSuccess("Updated %s.", id)
		return nil
	})
}
