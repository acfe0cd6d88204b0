package types

import (
	"fmt"
	"strings"
)

// ManagedResource is the minimal shared interface over the resource kinds
// the quarantine subsystem can act on. Identity is stable within one run
// only; port listeners in particular are racy (PIDs recycle), so callers
// must re-resolve before acting.
type ManagedResource interface {
	// Identity returns the key that identifies this resource within a run.
	Identity() string

	// Describe returns a one-line human-readable description.
	Describe() string
}

// LaunchAgent is a launchd agent or daemon plist flagged by detection.
type LaunchAgent struct {
	// Path is the absolute plist path. Identity for this kind.
	Path string `json:"path" yaml:"path"`

	// Signal names the detection signal that flagged the file:
	// "keyword", "world-writable", or "unsigned".
	Signal string `json:"signal" yaml:"signal"`

	// Mode is the file permission bits at detection time.
	Mode uint32 `json:"mode" yaml:"mode"`
}

func (a LaunchAgent) Identity() string { return a.Path }

func (a LaunchAgent) Describe() string {
	return fmt.Sprintf("%s (%s)", a.Path, a.Signal)
}

// LoginItemKind distinguishes app-bundle login items from scripts.
type LoginItemKind string

const (
	LoginItemApplication LoginItemKind = "Application"
	LoginItemScript      LoginItemKind = "Script"
)

// LoginItem is an app or script registered to run at user login.
type LoginItem struct {
	// Name is the System Events login item name. Identity for this kind.
	Name string `json:"name" yaml:"name"`

	// Path is the item path. May be empty when the scripting bridge
	// returned fewer paths than names (degraded info, not an error).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Kind is Application when Path ends in an .app bundle, else Script.
	Kind LoginItemKind `json:"kind" yaml:"kind"`
}

func (i LoginItem) Identity() string { return i.Name }

func (i LoginItem) Describe() string {
	if i.Path != "" {
		return fmt.Sprintf("%s (%s) [%s]", i.Name, i.Path, i.Kind)
	}
	return fmt.Sprintf("%s [%s]", i.Name, i.Kind)
}

// ClassifyLoginItemKind returns Application for .app bundle paths, else Script.
func ClassifyLoginItemKind(path string) LoginItemKind {
	if strings.HasSuffix(path, ".app") || strings.Contains(path, ".app/") {
		return LoginItemApplication
	}
	return LoginItemScript
}

// PortListener is a process listening on a network port.
// Its identity (process, port, pid) is NOT durable: a PID can be reused by
// an unrelated process between listing and acting on it.
type PortListener struct {
	// Process is the owning process name.
	Process string `json:"process" yaml:"process"`

	// Port is the listen address, possibly with a protocol/address prefix
	// (e.g. "*:8080" or "127.0.0.1:5432").
	Port string `json:"port" yaml:"port"`

	// PID is the process ID at listing time.
	PID int32 `json:"pid" yaml:"pid"`
}

func (l PortListener) Identity() string {
	return fmt.Sprintf("%s/%s/%d", l.Process, l.Port, l.PID)
}

func (l PortListener) Describe() string {
	return fmt.Sprintf("%s %s (PID: %d)", l.Process, l.Port, l.PID)
}

// ConfigProfile is one parsed configuration profile.
type ConfigProfile struct {
	// Identifier is the profile identifier. Identity for this kind.
	// May be empty; identifier-less profiles cannot be tracked in diffs.
	Identifier string `json:"profileIdentifier,omitempty" yaml:"profileIdentifier,omitempty"`

	// DisplayName is the profile display name.
	DisplayName string `json:"profileDisplayName,omitempty" yaml:"profileDisplayName,omitempty"`

	// Attributes holds every key:value pair parsed from the profiles output.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	// Risk lists the risk flags raised for this profile
	// ("Root certificate", "VPN", "Certificate payload").
	Risk []string `json:"risk" yaml:"risk"`

	// MDM is true when the profile identifier or payload type indicates
	// a device-management origin.
	MDM bool `json:"mdm" yaml:"mdm"`

	// Removable is false when the profile carries an explicit
	// removal-disallowed flag.
	Removable bool `json:"removable" yaml:"removable"`
}

func (p ConfigProfile) Identity() string { return p.Identifier }

func (p ConfigProfile) Describe() string {
	risk := "None"
	if len(p.Risk) > 0 {
		risk = strings.Join(p.Risk, ", ")
	}
	s := fmt.Sprintf("Identifier: %s | Name: %s | Risk: %s", orNA(p.Identifier), orNA(p.DisplayName), risk)
	if p.MDM {
		s += " [MDM]"
	}
	if !p.Removable {
		s += " [LOCKED]"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
