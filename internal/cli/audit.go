package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"golang.org/x/term"

	"github.com/ianheil/macwatchdog-cli/internal/output"
	"github.com/ianheil/macwatchdog-cli/internal/probe"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// runAudit executes the selected probes and renders the report. Alerts
// or probe errors set the process exit code without aborting the run.
func runAudit(w io.Writer) error {
	probes, err := selectProbes(checksSpec)
	if err != nil {
		return err
	}

	report := buildReport(probes)

	switch {
	case report.Summary.Errors > 0, report.Summary.Alerts > 0:
		exitCode = ExitAlerts
	}

	dest := w
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("cannot create report file: %w", err)
		}
		defer f.Close()
		dest = f
	}

	formatter, err := newFormatter(formatName, dest)
	if err != nil {
		return err
	}
	if err := formatter.Write(dest, report); err != nil {
		return err
	}
	if outputPath != "" {
		printSuccess("Report exported to %s", outputPath)
	}
	return nil
}

// newFormatter builds the requested formatter; the text formatter picks
// up terminal width and dumb-terminal state when writing to a TTY.
func newFormatter(name string, dest io.Writer) (output.Formatter, error) {
	formatter, err := output.New(name)
	if err != nil {
		return nil, err
	}
	if text, ok := formatter.(*output.TextFormatter); ok {
		text.Quiet = quiet
		text.Dumb = output.IsDumbTerm()
		if f, isFile := dest.(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
			if width, _, err := term.GetSize(int(f.Fd())); err == nil {
				text.Width = width
			}
		}
	}
	return formatter, nil
}

// selectProbes filters the catalog by the --checks spec: comma separated
// 1-based numbers or case-insensitive label substrings. An empty spec
// selects everything.
func selectProbes(spec string) ([]probe.Probe, error) {
	catalog := probe.Catalog()
	if strings.TrimSpace(spec) == "" {
		return catalog, nil
	}

	var selected []probe.Probe
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			if n < 1 || n > len(catalog) {
				return nil, fmt.Errorf("check number %d out of range (1-%d)", n, len(catalog))
			}
			selected = append(selected, catalog[n-1])
			continue
		}
		matched := false
		for _, p := range catalog {
			if strings.Contains(strings.ToLower(p.Label), strings.ToLower(part)) {
				selected = append(selected, p)
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("no check matches %q", part)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no checks selected")
	}
	return selected, nil
}

func buildReport(probes []probe.Probe) *types.AuditReport {
	start := time.Now()
	categories := probe.RunAll(env, probes)

	report := &types.AuditReport{
		Version:    Version,
		Timestamp:  start,
		System:     systemInfo(),
		Categories: categories,
	}
	report.Tally()
	report.Summary.DurationMS = time.Since(start).Milliseconds()
	return report
}

func systemInfo() types.AuditSystem {
	info := types.AuditSystem{
		OS:     runtime.GOOS,
		Arch:   runtime.GOARCH,
		IsRoot: os.Geteuid() == 0,
	}
	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}
	if hi, err := host.Info(); err == nil {
		if hi.Platform != "" {
			info.OS = hi.Platform
		}
		info.OSVersion = hi.PlatformVersion
	}
	return info
}

func printCheckList(w io.Writer) {
	for i, p := range probe.Catalog() {
		fmt.Fprintf(w, "%2d. %s (%s)\n", i+1, p.Label, p.Category)
	}
}
