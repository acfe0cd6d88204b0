package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// YAMLFormatter writes the audit report as a YAML document.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Write(w io.Writer, report *types.AuditReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(report)
}
