package cli

import (
	"github.com/spf13/cobra"
)

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove all persisted state",
		Long: `Wipes the entire quarantine root: quarantined files, backup records,
snapshots, the watchlist, and the timeline log. Restore is impossible
afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm("Are you sure you want to uninstall? This removes all quarantined items, logs, and snapshots.") {
				printWarn("Uninstall cancelled.")
				return nil
			}
			if err := st.Wipe(); err != nil {
				return err
			}
			printSuccess("All macwatchdog data cleaned up.")
			return nil
		},
	}
}
