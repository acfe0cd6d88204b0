package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

const (
	ruleWidth = 50  // width of horizontal divider rules
	maxLine   = 110 // hard wrap cap, even on ultra-wide terminals
)

// TextFormatter writes a colored, human-readable audit report: a banner,
// findings grouped under category dividers, and a summary footer.
type TextFormatter struct {
	Quiet bool // suppress banner and OK results, show only findings
	Width int  // terminal width for wrapping; 0 = unknown
	Dumb  bool // TERM=dumb, fall back to single-char ASCII icons
}

var (
	cBold    = color.New(color.Bold).SprintFunc()
	cGreen   = color.New(color.FgHiGreen).SprintFunc()
	cYellow  = color.New(color.FgHiYellow).SprintFunc()
	cRed     = color.New(color.FgRed).SprintFunc()
	cCyan    = color.New(color.FgHiCyan).SprintFunc()
	cMagenta = color.New(color.FgHiMagenta).SprintFunc()
	cDim     = color.New(color.Faint).SprintFunc()
)

// IsDumbTerm returns true when the terminal doesn't support Unicode.
func IsDumbTerm() bool {
	t := os.Getenv("TERM")
	return t == "dumb" || t == ""
}

func (f *TextFormatter) icon(status types.FindingStatus) string {
	if f.Dumb {
		switch status {
		case types.StatusOK:
			return "+"
		case types.StatusAlert:
			return "!"
		case types.StatusError:
			return "x"
		default:
			return "?"
		}
	}
	switch status {
	case types.StatusOK:
		return "✓"
	case types.StatusAlert:
		return "!"
	case types.StatusError:
		return "✗"
	default:
		return "•"
	}
}

func (f *TextFormatter) statusColor(status types.FindingStatus) func(a ...interface{}) string {
	switch status {
	case types.StatusOK:
		return cGreen
	case types.StatusAlert:
		return cYellow
	case types.StatusError:
		return cRed
	default:
		return cCyan
	}
}

func (f *TextFormatter) bullet() string {
	if f.Dumb {
		return "*"
	}
	return "•"
}

// wrapWidth returns the effective line width: min(terminal, maxLine).
func (f *TextFormatter) wrapWidth() int {
	if f.Width > 0 && f.Width < maxLine {
		return f.Width
	}
	return maxLine
}

// Write renders the full text report.
func (f *TextFormatter) Write(w io.Writer, report *types.AuditReport) error {
	if !f.Quiet {
		f.writeBanner(w, report)
	}
	for _, cat := range report.Categories {
		f.writeCategory(w, cat)
	}
	f.writeSummary(w, report)
	return nil
}

func (f *TextFormatter) writeBanner(w io.Writer, r *types.AuditReport) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s v%s\n", cBold("macWatchdog"), r.Version)
	fmt.Fprintf(w, "  %s\n", cDim("Your Mac's loyal security watchdog"))
	fmt.Fprintf(w, "  %s %s\n", cDim("Audit started:"), r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  %s %s (%s %s, %s)\n", cDim("Host:"),
		r.System.Hostname, r.System.OS, r.System.OSVersion, r.System.Arch)
	if !r.System.IsRoot {
		fmt.Fprintf(w, "  %s %s\n", cYellow("!"),
			"Some checks may require administrator (sudo) privileges for full results.")
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) writeCategory(w io.Writer, cat types.CategoryResults) {
	if f.Quiet && !categoryHasFindings(cat) {
		return
	}

	rule := cMagenta(strings.Repeat("─", ruleWidth))
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "%s\n", cMagenta(fmt.Sprintf("== %s ==", cat.Category)))
	fmt.Fprintf(w, "%s\n", rule)

	for _, finding := range cat.Findings {
		if f.Quiet && finding.Status == types.StatusOK {
			continue
		}
		f.writeFinding(w, finding)
	}
}

func categoryHasFindings(cat types.CategoryResults) bool {
	for _, finding := range cat.Findings {
		if finding.Status != types.StatusOK {
			return true
		}
	}
	return false
}

func (f *TextFormatter) writeFinding(w io.Writer, finding types.Finding) {
	c := f.statusColor(finding.Status)
	fmt.Fprintf(w, "%s %s\n", c(f.icon(finding.Status)),
		c(fmt.Sprintf("%s: %s", finding.Label, finding.Status)))

	for _, line := range finding.Info {
		for _, wrapped := range wrap(line, f.wrapWidth()-6) {
			fmt.Fprintf(w, "    %s %s\n", cMagenta(f.bullet()), cCyan(wrapped))
		}
	}
	if finding.Tip != "" {
		for _, wrapped := range wrap(finding.Tip, f.wrapWidth()-2) {
			fmt.Fprintf(w, "  %s\n", cCyan(wrapped))
		}
	}
}

func (f *TextFormatter) writeSummary(w io.Writer, r *types.AuditReport) {
	s := r.Summary
	fmt.Fprintf(w, "%s\n", cMagenta(strings.Repeat("─", ruleWidth)))

	parts := []string{
		cGreen(fmt.Sprintf("%d OK", s.OK)),
		cYellow(fmt.Sprintf("%d alerts", s.Alerts)),
	}
	if s.Errors > 0 {
		parts = append(parts, cRed(fmt.Sprintf("%d errors", s.Errors)))
	}
	if s.Suggestions > 0 {
		parts = append(parts, cCyan(fmt.Sprintf("%d suggestions", s.Suggestions)))
	}
	if s.Unknown > 0 {
		parts = append(parts, cDim(fmt.Sprintf("%d unknown", s.Unknown)))
	}

	fmt.Fprintf(w, "%s %d check(s): %s\n", cBold("Summary:"), s.TotalProbes, strings.Join(parts, " · "))
	fmt.Fprintf(w, "%s %.1fs\n", cDim("Completed in"), float64(s.DurationMS)/1000.0)
}

// wrap splits s into lines no longer than width, breaking on spaces.
// Words longer than width stay intact on their own line.
func wrap(s string, width int) []string {
	if width <= 0 || len(s) <= width {
		return []string{s}
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(s) {
		if current.Len() > 0 && current.Len()+1+len(word) > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	if len(lines) == 0 {
		return []string{s}
	}
	return lines
}
