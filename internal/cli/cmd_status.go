package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	statusCmd.SilenceErrors = true
	statusCmd.SilenceUsage = true
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the vault is initialized and unlocked",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	engine, cfg, dir, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	t := now()
	_ = resumeOrFail(engine, cfg, dir, t)

	st, err := engine.Status(t)
	if err != nil {
		return err
	}

	fmt.Printf("initialized: %t\n", st.Initialized)
	fmt.Printf("unlocked: %t\n", st.Unlocked)
	fmt.Printf("entry_count: %d\n", st.EntryCount)
	if st.Unlocked {
		fmt.Printf("last_activity: %d\n", st.LastActivity)
	}
	return nil
}
