package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
	"keyvault/internal/vaultstore"
)

func init() {
	addCmd.SilenceErrors = true
	addCmd.SilenceUsage = true
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new secret to the vault",
	Long: `Add a new entry. The secret itself is read from --secret, or from
stdin with --secret-stdin so it never appears in shell history.

Examples:
  keyvault add --service OpenAI --environment development --tag ai --secret sk-AAA
  echo "sk-AAA" | keyvault add --service OpenAI --secret-stdin`,
	RunE: runAdd,
}

var (
	addService     string
	addSecret      string
	addSecretStdin bool
	addEnvironment string
	addTags        []string
	addDomains     []string
	addNotes       string
	addFavorite    bool
	addRateLimit   string
)

func init() {
	addCmd.Flags().StringVar(&addService, "service", "", "service name (required)")
	addCmd.Flags().StringVar(&addSecret, "secret", "", "secret plaintext")
	addCmd.Flags().BoolVar(&addSecretStdin, "secret-stdin", false, "read secret plaintext from stdin")
	addCmd.Flags().StringVar(&addEnvironment, "environment", "production", "production|development|staging|testing")
	addCmd.Flags().StringArrayVar(&addTags, "tag", nil, "tag (repeatable)")
	addCmd.Flags().StringArrayVar(&addDomains, "domain", nil, "associated domain (repeatable)")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "free-text notes")
	addCmd.Flags().BoolVar(&addFavorite, "favorite", false, "mark as favorite")
	addCmd.Flags().StringVar(&addRateLimit, "rate-limit", "", "free-text rate limit hint")
	_ = addCmd.MarkFlagRequired("service")
}

func runAdd(cmd *cobra.Command, args []string) error {
	secret := addSecret
	if addSecretStdin {
		var err error
		secret, err = ReadPasswordFromStdin()
		if err != nil {
			return err
		}
	}

	return withUnlocked(func(engine *vaultapi.Engine, t int64) error {
		view, err := engine.Add(uuid.NewString(), vaultapi.AddInput{
			ServiceName: addService,
			Plaintext:   secret,
			Environment: vaultstore.Environment(addEnvironment),
			Tags:        addTags,
			Domains:     addDomains,
			Notes:       addNotes,
			Favorite:    addFavorite,
			RateLimit:   addRateLimit,
		}, t)
		if err != nil {
			printError("%v", err)
			return err
		}
		fmt.Println(view.ID)
		printSuccess("Added %q (%s).", view.ServiceName, view.ID)
		return nil
	})
}
