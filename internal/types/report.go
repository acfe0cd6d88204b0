package types

import "time"

// AuditReport is the top-level structure for a complete audit run.
// It is serialized directly for the --format=json and --format=yaml outputs.
type AuditReport struct {
	// Version is the macwatchdog version that produced this report.
	Version string `json:"version" yaml:"version"`

	// Timestamp is when the audit started.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// System describes the audited host.
	System AuditSystem `json:"system" yaml:"system"`

	// Summary provides aggregate statistics.
	Summary AuditSummary `json:"summary" yaml:"summary"`

	// Categories lists findings grouped by category, in probe-catalog order.
	Categories []CategoryResults `json:"categories" yaml:"categories"`
}

// CategoryResults groups the findings of one audit category.
type CategoryResults struct {
	// Category is the category name.
	Category string `json:"category" yaml:"category"`

	// Findings are the category's findings in probe order.
	Findings []Finding `json:"findings" yaml:"findings"`
}

// AuditSystem describes the host that was audited.
type AuditSystem struct {
	// Hostname is the system hostname.
	Hostname string `json:"hostname" yaml:"hostname"`

	// OS is the operating system name.
	OS string `json:"os" yaml:"os"`

	// OSVersion is the macOS product or kernel version.
	OSVersion string `json:"os_version" yaml:"os_version"`

	// Arch is the CPU architecture.
	Arch string `json:"arch" yaml:"arch"`

	// IsRoot indicates whether the audit ran as root/sudo.
	IsRoot bool `json:"is_root" yaml:"is_root"`
}

// AuditSummary provides aggregate statistics for a run.
type AuditSummary struct {
	// TotalProbes is the number of probes executed.
	TotalProbes int `json:"total_probes" yaml:"total_probes"`

	// OK is the number of healthy findings.
	OK int `json:"ok" yaml:"ok"`

	// Alerts is the number of findings needing attention.
	Alerts int `json:"alerts" yaml:"alerts"`

	// Errors is the number of probes that could not complete.
	Errors int `json:"errors" yaml:"errors"`

	// Suggestions is the number of manual hardening suggestions.
	Suggestions int `json:"suggestions" yaml:"suggestions"`

	// Unknown is the number of unclassifiable results.
	Unknown int `json:"unknown" yaml:"unknown"`

	// DurationMS is the total run duration in milliseconds.
	DurationMS int64 `json:"duration_ms" yaml:"duration_ms"`
}

// Tally recomputes the summary counters from the grouped findings.
func (r *AuditReport) Tally() {
	s := AuditSummary{DurationMS: r.Summary.DurationMS}
	for _, cat := range r.Categories {
		for _, f := range cat.Findings {
			s.TotalProbes++
			switch f.Status {
			case StatusOK:
				s.OK++
			case StatusAlert:
				s.Alerts++
			case StatusError:
				s.Errors++
			case StatusSuggestion:
				s.Suggestions++
			default:
				s.Unknown++
			}
		}
	}
	r.Summary = s
}
