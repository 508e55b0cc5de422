package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	auditCmd.SilenceErrors = true
	auditCmd.SilenceUsage = true
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the n most recent audit log records, newest first",
	Long: `Never requires Unlocked: audit records are action tags and
timestamps, never plaintext (spec.md §4.8). Returns nothing if the vault
isn't initialized or the log was disabled at the time an action occurred.`,
	RunE: runAudit,
}

var auditCount int

func init() {
	auditCmd.Flags().IntVarP(&auditCount, "count", "n", 20, "number of records to show")
}

func runAudit(cmd *cobra.Command, args []string) error {
	engine, cfg, dir, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	t := now()
	_ = resumeOrFail(engine, cfg, dir, t) // audit_tail never requires Unlocked; best-effort only so autolock ticks

	for _, rec := range engine.AuditTail(auditCount, t) {
		fmt.Printf("%s  %s\n", time.UnixMilli(rec.Timestamp).UTC().Format(time.RFC3339), rec.Action)
	}
	return nil
}
