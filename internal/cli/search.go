package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// searchHit is one search result with its source kind.
type searchHit struct {
	Kind   string
	Value  string
	Detail string
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search agents, profiles, login items, and quarantine by keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.ToLower(strings.TrimSpace(args[0]))
			if keyword == "" {
				return fmt.Errorf("keyword must not be empty")
			}

			hits := searchAll(keyword)
			if len(hits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches found for that keyword.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Search results for %q:\n", keyword)
			for i, hit := range hits {
				line := fmt.Sprintf("%2d. [%s] %s", i+1, hit.Kind, hit.Value)
				if hit.Detail != "" {
					line += " (" + hit.Detail + ")"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func searchAll(keyword string) []searchHit {
	var hits []searchHit

	// Agent/daemon plists by filename.
	for _, dir := range cfg.AgentDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Name()), keyword) {
				hits = append(hits, searchHit{Kind: "Agent/Daemon", Value: filepath.Join(dir, e.Name())})
			}
		}
	}

	// Profile listing lines.
	if out, _, err := env.Runner.Run("profiles", "list", "-all"); err == nil {
		for _, line := range strings.Split(out, "\n") {
			if strings.Contains(strings.ToLower(line), keyword) {
				hits = append(hits, searchHit{Kind: "Profile", Value: strings.TrimSpace(line)})
			}
		}
	}

	// Login items by name or path.
	if items, err := env.Bridge.List(); err == nil {
		for _, item := range items {
			if strings.Contains(strings.ToLower(item.Name), keyword) ||
				strings.Contains(strings.ToLower(item.Path), keyword) {
				hits = append(hits, searchHit{Kind: "Login Item", Value: item.Name, Detail: item.Path})
			}
		}
	}

	// Quarantined files by filename.
	hits = append(hits, searchQuarantine(keyword)...)
	return hits
}

func searchQuarantine(keyword string) []searchHit {
	var hits []searchHit
	root := st.Root()
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.Contains(strings.ToLower(d.Name()), keyword) {
			hits = append(hits, searchHit{Kind: "Quarantined", Value: path})
		}
		return nil
	})
	return hits
}
