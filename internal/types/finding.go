// Package types defines shared type definitions used across all macwatchdog packages.
package types

import "time"

// FindingStatus classifies the outcome of a single audit probe.
type FindingStatus string

const (
	// StatusOK means the probed condition looks healthy.
	StatusOK FindingStatus = "OK"
	// StatusAlert means the probe found something that needs attention.
	StatusAlert FindingStatus = "ALERT"
	// StatusError means the probe could not complete (command missing,
	// unparseable output, permission denied). Probes never propagate
	// errors past their boundary; they return a Finding with this status.
	StatusError FindingStatus = "ERROR"
	// StatusSuggestion means the probe has a manual hardening suggestion
	// rather than a pass/fail verdict.
	StatusSuggestion FindingStatus = "SUGGESTION"
	// StatusUnknown means the probe ran but could not classify the result.
	StatusUnknown FindingStatus = "UNKNOWN"
)

// Finding is the normalized result of one audit probe.
// Immutable once produced.
type Finding struct {
	// Label is the human-readable probe name.
	Label string `json:"label" yaml:"label"`

	// Category groups related findings (e.g. "System Hardening & Security").
	Category string `json:"category" yaml:"category"`

	// Status is the probe verdict.
	Status FindingStatus `json:"status" yaml:"status"`

	// Info holds the detail lines, in display order.
	Info []string `json:"info" yaml:"info"`

	// Tip is an optional remediation hint.
	Tip string `json:"tip,omitempty" yaml:"tip,omitempty"`

	// Duration is how long the probe took (not serialized).
	Duration time.Duration `json:"-" yaml:"-"`

	// DurationMS is the probe duration in milliseconds.
	DurationMS int64 `json:"duration_ms" yaml:"duration_ms"`

	// Agents carries the structured launch-agent payload, when the
	// probe produced one.
	Agents []LaunchAgent `json:"agents,omitempty" yaml:"agents,omitempty"`

	// LoginItems carries the structured login-item payload.
	LoginItems []LoginItem `json:"login_items,omitempty" yaml:"login_items,omitempty"`

	// Listeners carries the structured port-listener payload.
	Listeners []PortListener `json:"listeners,omitempty" yaml:"listeners,omitempty"`

	// Profiles carries the structured configuration-profile payload.
	Profiles []ConfigProfile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
}

// ErrorFinding builds a StatusError Finding for a probe that could not run.
func ErrorFinding(label, category string, err error) Finding {
	return Finding{
		Label:    label,
		Category: category,
		Status:   StatusError,
		Info:     []string{err.Error()},
	}
}
