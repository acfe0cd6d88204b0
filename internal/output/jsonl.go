package output

import (
	"encoding/json"
	"io"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// JSONLFormatter writes the audit as newline-delimited JSON (one object
// per line). The first line is a header with system and summary
// information; subsequent lines are individual findings.
type JSONLFormatter struct{}

// Write renders the audit as JSONL: header line + one line per finding.
func (f *JSONLFormatter) Write(w io.Writer, report *types.AuditReport) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	header := struct {
		Type      string             `json:"type"`
		Version   string             `json:"version"`
		Timestamp string             `json:"timestamp"`
		System    types.AuditSystem  `json:"system"`
		Summary   types.AuditSummary `json:"summary"`
	}{
		Type:      "header",
		Version:   report.Version,
		Timestamp: report.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		System:    report.System,
		Summary:   report.Summary,
	}
	if err := enc.Encode(header); err != nil {
		return err
	}

	for _, cat := range report.Categories {
		for _, finding := range cat.Findings {
			line := struct {
				Type    string        `json:"type"`
				Finding types.Finding `json:"finding"`
			}{
				Type:    "finding",
				Finding: finding,
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
	}
	return nil
}
