package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newPortsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "Manage network listeners",
	}

	cmd.AddCommand(newPortsListCmd())
	cmd.AddCommand(newPortsBackupCmd())
	cmd.AddCommand(newPortsCloseCmd())
	cmd.AddCommand(newPortsRestoreCmd())
	cmd.AddCommand(newPortsDeleteBackupCmd())

	return cmd
}

func newPortsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List processes listening on network ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			listeners, err := portManager().List()
			if err != nil {
				return err
			}
			if len(listeners) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No open listeners found.")
				return nil
			}
			for i, l := range listeners {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, l.Describe())
			}
			return nil
		},
	}
}

func newPortsBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Back up the current port state",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := portManager().BackupState()
			if err != nil {
				printFailure("%v", err)
				exitCode = ExitAlerts
				return nil
			}
			printSuccess("Port state backed up: %s", id)
			return nil
		},
	}
}

func newPortsCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <port>",
		Short: "Terminate the process listening on a port",
		Long: `Resolves the PID currently bound to the port, backs up the full
listener table, then sends the process a termination signal. The close
is aborted if the backup fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port := args[0]
			if !confirm(fmt.Sprintf("Terminate the process listening on port %s?", port)) {
				printWarn("Close cancelled.")
				return nil
			}

			ok, msg := portManager().Close(port)
			if !ok {
				printFailure("%s", msg)
				exitCode = ExitAlerts
				return nil
			}
			printSuccess("%s", msg)
			return nil
		},
	}
}

func newPortsRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [record]",
		Short: "Relaunch processes from a port state backup",
		Long: `Best-effort restore: each backed-up process name is looked up on
PATH and started fresh, without its original arguments or environment.
With no argument the most recent backup is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := portManager()

			backups, err := m.Backups()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				return fmt.Errorf("no port state backups found")
			}

			recordID := backups[0].ID
			if len(args) == 1 {
				recordID, err = resolveRecord(backups, args[0])
				if err != nil {
					return err
				}
			}

			ok, msg, res := m.RestoreState(recordID)
			for _, item := range res.Items {
				if item.Err != nil {
					printFailure("%s: %v", item.Item, item.Err)
				} else {
					printSuccess("Restarted: %s", item.Item)
				}
			}
			if !ok {
				printFailure("%s", msg)
				exitCode = ExitAlerts
				return nil
			}
			printSuccess("%s", msg)
			return nil
		},
	}
}

func newPortsDeleteBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-backup <record>",
		Short: "Delete a port state backup record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backups, err := portManager().Backups()
			if err != nil {
				return err
			}
			id, err := resolveRecord(backups, args[0])
			if err != nil {
				return err
			}
			if !confirm(fmt.Sprintf("Delete backup %s?", filepath.Base(id))) {
				printWarn("Backup not deleted.")
				return nil
			}
			if err := st.DeleteRecord(id); err != nil {
				return err
			}
			printSuccess("Backup deleted: %s", filepath.Base(id))
			return nil
		},
	}
}
