package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ianheil/macwatchdog-cli/internal/probe"
)

func newReportCmd() *cobra.Command {
	var format string
	var outFile string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run all checks and export a full report",
		Long: `Runs the complete probe catalog and writes the report to a file.
The format is inferred from the file extension (.json, .jsonl, .yaml,
anything else is text) unless --format is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outFile == "" {
				return fmt.Errorf("--output is required")
			}
			if format == "" {
				format = formatFromExtension(outFile)
			}

			report := buildReport(probe.Catalog())

			f, err := os.Create(outFile)
			if err != nil {
				return fmt.Errorf("cannot create report file: %w", err)
			}
			defer f.Close()

			formatter, err := newFormatter(format, f)
			if err != nil {
				return err
			}
			if err := formatter.Write(f, report); err != nil {
				return err
			}

			if err := st.AppendTimeline(fmt.Sprintf("Report exported: %s", outFile)); err != nil {
				log.Debug().Err(err).Msg("timeline append failed")
			}
			printSuccess("Report exported to %s", outFile)
			if report.Summary.Alerts > 0 || report.Summary.Errors > 0 {
				exitCode = ExitAlerts
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: text, json, jsonl, yaml")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "report file path")

	return cmd
}

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".jsonl", ".ndjson":
		return "jsonl"
	case ".yaml", ".yml":
		return "yaml"
	}
	return "text"
}
