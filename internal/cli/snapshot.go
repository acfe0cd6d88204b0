package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ianheil/macwatchdog-cli/internal/store"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture and compare profile/MDM snapshots",
	}

	cmd.AddCommand(newSnapshotTakeCmd())
	cmd.AddCommand(newSnapshotListCmd())
	cmd.AddCommand(newSnapshotDiffCmd())
	cmd.AddCommand(newSnapshotClearCmd())

	return cmd
}

func newSnapshotTakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "take",
		Aliases: []string{"create"},
		Short:   "Capture the current profile list and MDM state",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, snap, err := snapshotManager().Take()
			if err != nil {
				return err
			}
			printSuccess("Snapshot exported to %s (%d profile(s)).", id, len(snap.Profiles))
			return nil
		},
	}
}

func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := snapshotManager().List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots found.")
				return nil
			}
			for i, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, rec.Name)
			}
			return nil
		},
	}
}

// resolveRecord turns a record name, full path, or 1-based listing index
// into a record ID.
func resolveRecord(records []store.Record, arg string) (string, error) {
	for i, rec := range records {
		if rec.Name == arg || rec.ID == arg || fmt.Sprintf("%d", i+1) == arg {
			return rec.ID, nil
		}
	}
	return "", fmt.Errorf("no record matches %q", arg)
}

func newSnapshotDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "diff <first> <second>",
		Aliases: []string{"compare"},
		Short:   "Compare two snapshots by profile identifier",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := snapshotManager()
			records, err := m.List()
			if err != nil {
				return err
			}
			if len(records) < 2 {
				return fmt.Errorf("at least two snapshots are required to compare")
			}

			idA, err := resolveRecord(records, args[0])
			if err != nil {
				return err
			}
			idB, err := resolveRecord(records, args[1])
			if err != nil {
				return err
			}

			diff, err := m.Diff(idA, idB)
			if err != nil {
				return err
			}
			if diff.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile changes detected between snapshots.")
				return nil
			}
			if len(diff.Added) > 0 {
				printSuccess("Profiles added: %s", strings.Join(diff.Added, ", "))
			}
			if len(diff.Removed) > 0 {
				printFailure("Profiles removed: %s", strings.Join(diff.Removed, ", "))
			}
			exitCode = ExitAlerts
			return nil
		},
	}
}

func newSnapshotClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm("Are you sure you want to delete all snapshots?") {
				printWarn("Snapshots not deleted.")
				return nil
			}

			removed, errs := snapshotManager().Clear()
			for _, err := range errs {
				printFailure("%v", err)
			}
			printSuccess("%d snapshot(s) deleted.", removed)
			return nil
		},
	}
}
