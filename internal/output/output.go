// Package output provides formatters that render audit reports in
// different formats.
package output

import (
	"fmt"
	"io"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// Formatter writes an audit report to the given writer.
type Formatter interface {
	Write(w io.Writer, report *types.AuditReport) error
}

// New returns the formatter for a format name: "text", "json", "jsonl",
// or "yaml".
func New(format string) (Formatter, error) {
	switch format {
	case "", "text":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "jsonl":
		return &JSONLFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want text, json, jsonl, or yaml)", format)
}
