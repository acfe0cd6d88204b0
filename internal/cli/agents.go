package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage suspicious launch agents and daemons",
	}

	cmd.AddCommand(newAgentsListCmd())
	cmd.AddCommand(newAgentsQuarantineCmd())
	cmd.AddCommand(newAgentsRestoreCmd())
	cmd.AddCommand(newAgentsPurgeCmd())

	return cmd
}

func newAgentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List flagged agents and quarantined files",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := agentManager()

			flagged := m.Detect()
			if len(flagged) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No suspicious launch agents/daemons found on system.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Suspicious agents/daemons currently on system:")
				for i, a := range flagged {
					fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, a.Describe())
				}
			}

			quarantined, err := m.QuarantinedFiles()
			if err != nil {
				return err
			}
			if len(quarantined) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nQuarantined agents/daemons:")
				for i, path := range quarantined {
					fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, path)
				}
			}
			return nil
		},
	}
}

func newAgentsQuarantineCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "quarantine [path...]",
		Short: "Back up and quarantine flagged agents",
		Long: `Moves flagged launchd plists into a timestamped quarantine folder.
Each file's contents and metadata are recorded in the store before the
move, so quarantined agents can be restored later.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := agentManager()
			flagged := m.Detect()
			if len(flagged) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No suspicious launch agents/daemons found.")
				return nil
			}

			var selected []types.LaunchAgent
			if all {
				selected = flagged
			} else {
				if len(args) == 0 {
					return fmt.Errorf("specify plist paths to quarantine, or use --all")
				}
				byPath := make(map[string]types.LaunchAgent, len(flagged))
				for _, a := range flagged {
					byPath[a.Path] = a
				}
				for _, path := range args {
					a, ok := byPath[path]
					if !ok {
						return fmt.Errorf("%s is not among the flagged agents", path)
					}
					selected = append(selected, a)
				}
			}

			if !confirm(fmt.Sprintf("Quarantine %d agent(s)?", len(selected))) {
				printWarn("Quarantine cancelled.")
				return nil
			}

			backupDir, res, err := m.Quarantine(selected)
			if err != nil {
				return err
			}
			for _, item := range res.Failed() {
				printFailure("Failed to quarantine %s: %v", item.Item, item.Err)
			}
			for _, item := range res.Succeeded() {
				printSuccess("Quarantined: %s", item)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Quarantined files are in: %s\n", backupDir)
			if !res.OK() {
				exitCode = ExitAlerts
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "quarantine every flagged agent")
	return cmd
}

func newAgentsRestoreCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "restore [file...]",
		Short: "Restore quarantined agents to their original directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := agentManager()
			quarantined, err := m.QuarantinedFiles()
			if err != nil {
				return err
			}
			if len(quarantined) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No quarantined agents/daemons found.")
				return nil
			}

			selected := args
			if all {
				selected = quarantined
			}
			if len(selected) == 0 {
				return fmt.Errorf("specify quarantined files to restore, or use --all")
			}

			res := m.Restore(selected)
			for _, item := range res.Failed() {
				printFailure("Failed to restore %s: %v", item.Item, item.Err)
			}
			for _, item := range res.Succeeded() {
				printSuccess("Restored: %s", item)
			}
			if !res.OK() {
				exitCode = ExitAlerts
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "restore every quarantined file")
	return cmd
}

func newAgentsPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete all quarantined agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm("Are you sure you want to purge all quarantined items? This is irreversible.") {
				printWarn("Purge cancelled.")
				return nil
			}

			removed, res := agentManager().Purge()
			for _, item := range res.Failed() {
				printFailure("%v", item.Err)
			}
			printSuccess("%d quarantined item(s) purged.", removed)
			return nil
		},
	}
}
