package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

func newLoginItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login-items",
		Short: "Manage login items",
	}

	cmd.AddCommand(newLoginItemsListCmd())
	cmd.AddCommand(newLoginItemsBackupCmd())
	cmd.AddCommand(newLoginItemsRemoveCmd())
	cmd.AddCommand(newLoginItemsRestoreCmd())
	cmd.AddCommand(newLoginItemsDeleteBackupCmd())

	return cmd
}

func newLoginItemsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current login items and their backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := loginItemManager()

			items, err := m.List()
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No login items found.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Current login items:")
				for i, item := range items {
					fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, item.Describe())
				}
			}

			backups, err := m.Backups()
			if err != nil {
				return err
			}
			if len(backups) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nBackups (most recent first):")
				for i, rec := range backups {
					fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, rec.Name)
				}
			}
			return nil
		},
	}
}

// findLoginItem resolves a name against the current login items.
func findLoginItem(items []types.LoginItem, name string) (types.LoginItem, bool) {
	for _, item := range items {
		if item.Name == name {
			return item, true
		}
	}
	return types.LoginItem{}, false
}

func newLoginItemsBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <name>",
		Short: "Back up a login item without removing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := loginItemManager()
			items, err := m.List()
			if err != nil {
				return err
			}
			item, ok := findLoginItem(items, args[0])
			if !ok {
				return fmt.Errorf("no login item named %q", args[0])
			}

			id, err := m.Backup(item)
			if err != nil {
				return err
			}
			printSuccess("Backup created: %s", id)
			return nil
		},
	}
}

func newLoginItemsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a login item (backs it up first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := loginItemManager()
			name := args[0]

			items, err := m.List()
			if err != nil {
				return err
			}
			item, found := findLoginItem(items, name)
			if found {
				if _, err := m.Backup(item); err != nil {
					printWarn("Backup failed (%v); removal will proceed without one.", err)
				}
			}

			if !confirm(fmt.Sprintf("Remove login item %q?", name)) {
				printWarn("Removal cancelled.")
				return nil
			}

			ok, msg := m.Remove(name)
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

func newLoginItemsRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [record]",
		Short: "Restore a login item from a backup record",
		Long: `Re-adds a login item from a backup record by path. With no argument
the most recent backup is used; otherwise pass a record filename or full
path from 'login-items list'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := loginItemManager()

			backups, err := m.Backups()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				return fmt.Errorf("no login item backups found")
			}

			recordID := backups[0].ID
			if len(args) == 1 {
				recordID, err = resolveRecord(backups, args[0])
				if err != nil {
					return err
				}
			}

			ok, msg := m.Restore(recordID)
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

func newLoginItemsDeleteBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-backup <record>",
		Short: "Delete a login item backup record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backups, err := loginItemManager().Backups()
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
