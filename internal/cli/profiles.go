package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage configuration profiles and MDM state",
	}

	cmd.AddCommand(newProfilesListCmd())
	cmd.AddCommand(newProfilesRemoveCmd())
	cmd.AddCommand(newProfilesWatchCmd())
	cmd.AddCommand(newProfilesSweepCmd())
	cmd.AddCommand(newProfilesStatusCmd())

	return cmd
}

func newProfilesListCmd() *cobra.Command {
	var flaggedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configuration profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := profileManager()

			profiles, err := m.List()
			if err != nil {
				return err
			}
			if flaggedOnly {
				profiles, err = m.ListFlagged()
				if err != nil {
					return err
				}
			}
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No configuration profiles found.")
				return nil
			}
			for i, p := range profiles {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, p.Describe())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flaggedOnly, "flagged", false, "show only profiles with risk flags")
	return cmd
}

func newProfilesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <identifier>",
		Short: "Remove a configuration profile by identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier := args[0]
			if !confirm(fmt.Sprintf("Remove profile %q?", identifier)) {
				printWarn("Removal cancelled.")
				return nil
			}

			ok, msg := profileManager().Remove(identifier)
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

func newProfilesWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <identifier>",
		Short: "Add a profile to the auto-remove watchlist",
		Long: `Marks a non-MDM, removable profile for automatic removal: each
'profiles sweep' run removes any watched profile found installed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := profileManager().Watch(args[0]); err != nil {
				return err
			}
			printSuccess("Profile %q added to the auto-remove watchlist.", args[0])
			return nil
		},
	}
}

func newProfilesSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove installed profiles that are on the watchlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			res := profileManager().Sweep()
			if len(res.Items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No watched profiles are currently installed.")
				return nil
			}
			for _, item := range res.Failed() {
				printFailure("%s: %v", item.Item, item.Err)
			}
			for _, item := range res.Succeeded() {
				printSuccess("Removed watched profile: %s", item)
			}
			if !res.OK() {
				exitCode = ExitAlerts
			}
			return nil
		},
	}
}

func newProfilesStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"mdm"},
		Short:   "Show MDM enrollment state and detect changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, previous, changed, err := profileManager().CheckMDMChange()
			if err != nil {
				return err
			}
			switch {
			case previous == "":
				fmt.Fprintf(cmd.OutOrStdout(), "MDM status recorded:\n%s\n", current)
			case changed:
				printWarn("MDM status has changed!")
				fmt.Fprintf(cmd.OutOrStdout(), "Previous:\n%s\n\nCurrent:\n%s\n", previous, current)
				exitCode = ExitAlerts
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "MDM status unchanged:\n%s\n", current)
			}
			return nil
		},
	}
}
