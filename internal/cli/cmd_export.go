package cli

import (
	"os"

	"github.com/spf13/cobra"

	"keyvault/internal/vaultapi"
)

func init() {
	exportCmd.SilenceErrors = true
	exportCmd.SilenceUsage = true
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <output-file>",
	Short: "Export a full-vault backup envelope",
	Long: `Collect every entry's plaintext, settings, and the export timestamp
into a snapshot, then seal it under a (possibly different) backup password.
The result is written to output-file and is itself just another envelope in
the spec.md §4.3 layout, bound to associated data "backup:v1" so it can
never be mistaken for a live entry envelope.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var exportPasswordStdin bool

func init() {
	exportCmd.Flags().BoolVarP(&exportPasswordStdin, "password-stdin", "P", false, "read backup password from stdin")
}

func runExport(cmd *cobra.Command, args []string) error {
	outputFile := args[0]

	var backupPassword string
	if exportPasswordStdin {
		pw, err := ReadPasswordFromStdin()
		if err != nil {
			return err
		}
		backupPassword = pw
	} else {
		pw, err := readPasswordSecure("Backup password: ")
		if err != nil {
			return err
		}
		backupPassword = pw
	}

	return withUnlocked(func(engine *vaultapi.Engine, t int64) error {
		data, err := engine.Export(backupPassword, t)
		if err != nil {
			printError("%v", err)
			return err
		}
		if err := os.WriteFile(outputFile, data, 0o600); err != nil {
			return fail("writing backup file: %v", err)
		}
		printSuccess("Exported to %s.", outputFile)
		return nil
	})
}
