package cli

import (
	"os"

	"github.com/spf13/cobra"

	"keyvault/internal/backup"
	"keyvault/internal/vaultapi"
	"keyvault/internal/vaulterrors"
)

func init() {
	importCmd.SilenceErrors = true
	importCmd.SilenceUsage = true
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <input-file>",
	Short: "Import a backup envelope, re-encrypting under the current vault",
	Long: `Unwrap input-file under the given backup password and merge each
entry into the currently unlocked vault, re-encrypted under its own master
key. --policy controls how a service_name collision (case-insensitive,
advisory per spec.md §3) is resolved:

  skip_duplicate   leave the existing entry untouched (default)
  overwrite        replace the existing entry's secret and tag/domain sets
  rename           insert the incoming entry under a new id with "(imported)"
                   appended to its service name`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importPasswordStdin bool
	importPolicy        string
)

func init() {
	importCmd.Flags().BoolVarP(&importPasswordStdin, "password-stdin", "P", false, "read backup password from stdin")
	importCmd.Flags().StringVar(&importPolicy, "policy", string(backup.PolicySkipDuplicate), "skip_duplicate|overwrite|rename")
}

func runImport(cmd *cobra.Command, args []string) error {
	inputFile := args[0]

	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fail("reading backup file: %v", err)
	}

	policy := backup.Policy(importPolicy)
	switch policy {
	case backup.PolicySkipDuplicate, backup.PolicyOverwrite, backup.PolicyRename:
	default:
		err := vaulterrors.NewValidationError("policy", "must be skip_duplicate, overwrite, or rename")
		printError("%v", err)
		return err
	}

	var backupPassword string
	if importPasswordStdin {
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
		report, err := engine.Import(data, backupPassword, policy, t)
		if err != nil {
			printError("%v", err)
			return err
		}
		printSuccess("Imported: %d inserted, %d skipped, %d overwritten, %d renamed.",
			report.Inserted, report.Skipped, report.Overwritten, report.Renamed)
		return nil
	})
}
