package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTimelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "View or clear the action timeline log",
	}

	cmd.AddCommand(newTimelineShowCmd())
	cmd.AddCommand(newTimelineClearCmd())

	return cmd
}

func newTimelineShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the timeline log",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := st.ReadTimeline()
			if err != nil {
				return err
			}
			if strings.TrimSpace(content) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Timeline is empty.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}
}

func newTimelineClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the timeline log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm("Are you sure you want to clear the timeline?") {
				printWarn("Timeline not cleared.")
				return nil
			}
			if err := st.ClearTimeline(); err != nil {
				return err
			}
			printSuccess("Timeline cleared.")
			return nil
		},
	}
}
