package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
)

func init() {
	genpassCmd.SilenceErrors = true
	genpassCmd.SilenceUsage = true
	rootCmd.AddCommand(genpassCmd)
}

var genpassCmd = &cobra.Command{
	Use:   "genpass",
	Short: "Generate a random secret (alphanumeric plus -_, rejection-sampled)",
	Long: `A convenience unrelated to any stored entry: cryptographically
secure random bytes mapped onto the 64-character alphabet spec.md §6 names,
uniform via rejection sampling. Needs no unlocked session.`,
	RunE: runGenpass,
}

var genpassLength int

func init() {
	genpassCmd.Flags().IntVarP(&genpassLength, "length", "l", 32, "length of the generated secret")
}

func runGenpass(cmd *cobra.Command, args []string) error {
	secret, err := vaultapi.GenerateSecret(genpassLength)
	if err != nil {
		return err
	}
	fmt.Println(secret)
	return nil
}
