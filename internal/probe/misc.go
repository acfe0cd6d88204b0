package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gopsnet "github.com/shirou/gopsutil/v4/net"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

func checkUSB(env *Env) types.Finding {
	out, _, err := env.Runner.Run("system_profiler", "SPUSBDataType")
	if err != nil {
		return types.ErrorFinding("Connected USB Devices", "USB", err)
	}

	var devices []string
	var current []string
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Product ID:"):
			if len(current) > 0 {
				devices = append(devices, strings.Join(current, " | "))
				current = nil
			}
			current = append(current, trimmed)
		case strings.HasPrefix(trimmed, "Vendor ID:"), strings.HasPrefix(trimmed, "Serial Number:"):
			if len(current) > 0 {
				current = append(current, trimmed)
			}
		}
	}
	if len(current) > 0 {
		devices = append(devices, strings.Join(current, " | "))
	}

	f := types.Finding{
		Label:  "Connected USB Devices",
		Status: types.StatusOK,
		Info:   []string{"No USB devices detected."},
		Tip:    "Tip: Unrecognized USB devices can be a risk. Only trusted devices should be connected.",
	}
	if len(devices) > 0 {
		f.Status = types.StatusAlert
		f.Info = devices
	}
	return f
}

func checkNetwork(env *Env) types.Finding {
	out, _, err := env.Runner.Run("ifconfig")
	if err != nil {
		return types.ErrorFinding("Network Interfaces & Connections", "Network", err)
	}

	var interfaces []string
	for _, line := range strings.Split(out, "\n") {
		if line == "" || strings.HasPrefix(line, "\t") || strings.HasPrefix(line, " ") {
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		interfaces = append(interfaces, name)
	}

	established := 0
	if conns, err := gopsnet.Connections("inet"); err == nil {
		for _, c := range conns {
			if c.Status == "ESTABLISHED" {
				established++
			}
		}
	}

	f := types.Finding{
		Label:  "Network Interfaces & Connections",
		Status: types.StatusOK,
		Info: []string{fmt.Sprintf("Interfaces: %s | Active connections: %d",
			strings.Join(interfaces, ", "), established)},
		Tip: "Tip: Unexpected network connections may indicate unwanted remote access or malware.",
	}
	if established > 0 {
		f.Status = types.StatusAlert
	}
	return f
}

func checkWorldWritable(env *Env) types.Finding {
	var suspicious []string
	for _, dir := range env.Cfg.SensitiveDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			full := filepath.Join(dir, e.Name())
			info, err := os.Stat(full)
			if err != nil {
				continue
			}
			if info.Mode().Perm()&0o002 != 0 {
				suspicious = append(suspicious, full)
			}
		}
	}

	f := types.Finding{
		Label:  "World-writable/Suspicious Files",
		Status: types.StatusOK,
		Info:   []string{"None found"},
		Tip:    "Tip: World-writable files in sensitive locations can be abused by malware or attackers. Remove or restrict permissions on anything you don't recognize.",
	}
	if len(suspicious) > 0 {
		f.Status = types.StatusAlert
		f.Info = suspicious
	}
	return f
}

// systemAccounts are admin-group members that are expected on a stock
// install and never flagged.
var systemAccounts = map[string]struct{}{
	"root":         {},
	"_mbsetupuser": {},
	"daemon":       {},
	"nobody":       {},
	"Guest":        {},
	"admin":        {},
}

func checkAdminUsers(env *Env) types.Finding {
	out, _, err := env.Runner.Run("dscl", ".", "-read", "/Groups/admin", "GroupMembership")
	if err != nil {
		return types.ErrorFinding("Admin Users/Groups", "Users", err)
	}

	fields := strings.Fields(strings.TrimSpace(out))
	var suspicious []string
	if len(fields) > 1 {
		for _, u := range fields[1:] {
			if _, known := systemAccounts[u]; !known {
				suspicious = append(suspicious, u)
			}
		}
	}

	f := types.Finding{
		Label:  "Admin Users/Groups",
		Status: types.StatusOK,
		Info:   []string{"No unknown admin users found"},
		Tip:    "Tip: Only trusted users should have admin privileges. Remove any unknown users from the admin group.",
	}
	if len(suspicious) > 0 {
		f.Status = types.StatusAlert
		f.Info = suspicious
	}
	return f
}

func tccDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Application Support", "com.apple.TCC", "TCC.db")
}

// tccServices maps display labels to TCC service identifiers, in the
// order they are reported.
var tccServices = []struct {
	label   string
	service string
}{
	{"Screen Recording", "kTCCServiceScreenCapture"},
	{"Input Monitoring", "kTCCServiceListenEvent"},
	{"Camera", "kTCCServiceCamera"},
	{"Microphone", "kTCCServiceMicrophone"},
	{"Location", "kTCCServiceLocation"},
	{"Full Disk Access", "kTCCServiceSystemPolicyAllFiles"},
	{"Automation", "kTCCServiceAppleEvents"},
	{"Accessibility", "kTCCServiceAccessibility"},
}

func queryTCCClients(r Runner, db, service string) ([]string, error) {
	query := fmt.Sprintf("SELECT client FROM access WHERE service='%s' AND allowed=1;", service)
	out, _, err := r.Run("sqlite3", db, query)
	if err != nil {
		return nil, err
	}
	var clients []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			clients = append(clients, l)
		}
	}
	return clients, nil
}

func checkTCCPermissions(env *Env) types.Finding {
	db := tccDatabasePath()
	if db == "" || !fileExists(db) {
		return types.Finding{
			Label:  "TCC Privacy Permissions",
			Status: types.StatusOK,
			Info:   []string{"TCC.db not found"},
		}
	}

	var results []string
	for _, s := range tccServices {
		clients, err := queryTCCClients(env.Runner, db, s.service)
		if err != nil {
			results = append(results, fmt.Sprintf("%s: ERROR: %v", s.label, err))
			continue
		}
		if len(clients) > 0 {
			results = append(results, fmt.Sprintf("%s: %s", s.label, strings.Join(clients, ", ")))
		}
	}

	f := types.Finding{
		Label:  "TCC Privacy Permissions",
		Status: types.StatusOK,
		Info:   []string{"No apps with sensitive permissions found."},
		Tip:    "Tip: Review which apps have sensitive permissions. Remove any you don't recognize in System Preferences > Security & Privacy.",
	}
	if len(results) > 0 {
		f.Status = types.StatusAlert
		f.Info = results
	}
	return f
}

func checkAccessibilityApps(env *Env) types.Finding {
	db := tccDatabasePath()
	if db == "" || !fileExists(db) {
		return types.Finding{
			Label:  "Accessibility/Full Disk Access",
			Status: types.StatusOK,
			Info:   []string{"TCC.db not found"},
		}
	}

	query := "SELECT client, service FROM access WHERE service IN ('kTCCServiceAccessibility', 'kTCCServiceSystemPolicyAllFiles') AND allowed=1;"
	out, _, err := env.Runner.Run("sqlite3", db, query)
	if err != nil {
		return types.ErrorFinding("Accessibility/Full Disk Access", "Accessibility", err)
	}

	var apps []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			apps = append(apps, l)
		}
	}

	f := types.Finding{
		Label:  "Accessibility/Full Disk Access",
		Status: types.StatusOK,
		Info:   []string{"No apps with Accessibility or Full Disk Access found"},
		Tip:    "Tip: Only trusted apps should have Accessibility or Full Disk Access. Review and remove any unknown apps from System Preferences > Security & Privacy.",
	}
	if len(apps) > 0 {
		f.Status = types.StatusAlert
		f.Info = apps
	}
	return f
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
