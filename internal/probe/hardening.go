package probe

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

const hardeningCategory = "System Hardening & Security"

func checkSIP(env *Env) types.Finding {
	out, _, err := env.Runner.Run("csrutil", "status")
	if err != nil {
		return types.ErrorFinding("System Integrity Protection (SIP)", hardeningCategory, err)
	}
	enabled := strings.Contains(strings.ToLower(out), "enabled")
	f := types.Finding{
		Label:  "System Integrity Protection (SIP)",
		Status: types.StatusOK,
		Info:   []string{strings.TrimSpace(out)},
	}
	if !enabled {
		f.Status = types.StatusAlert
		f.Tip = "Tip: SIP should be enabled for maximum system protection."
	}
	return f
}

func checkGatekeeper(env *Env) types.Finding {
	out, _, err := env.Runner.Run("spctl", "--status")
	if err != nil {
		return types.ErrorFinding("Gatekeeper", hardeningCategory, err)
	}
	enabled := strings.Contains(strings.ToLower(out), "assessments enabled")
	f := types.Finding{
		Label:  "Gatekeeper",
		Status: types.StatusOK,
		Info:   []string{strings.TrimSpace(out)},
	}
	if !enabled {
		f.Status = types.StatusAlert
		f.Tip = "Tip: Gatekeeper helps protect your Mac from untrusted apps."
	}
	return f
}

const xprotectPlist = "/Library/Apple/System/Library/CoreServices/XProtect.bundle/Contents/Info.plist"

var xprotectVersionRe = regexp.MustCompile(`(?s)<key>CFBundleShortVersionString</key>\s*<string>([^<]*)</string>`)

func checkXProtect(env *Env) types.Finding {
	data, err := os.ReadFile(xprotectPlist)
	if os.IsNotExist(err) {
		return types.Finding{
			Label:  "XProtect",
			Status: types.StatusAlert,
			Info:   []string{"XProtect not found!"},
			Tip:    "Tip: XProtect is a built-in malware scanner. It should be present on all modern Macs.",
		}
	}
	if err != nil {
		return types.ErrorFinding("XProtect", hardeningCategory, fmt.Errorf("unable to check XProtect status: %w", err))
	}
	version := "Unknown"
	if m := xprotectVersionRe.FindSubmatch(data); m != nil {
		version = string(m[1])
	}
	return types.Finding{
		Label:  "XProtect",
		Status: types.StatusOK,
		Info:   []string{fmt.Sprintf("XProtect version: %s", version)},
	}
}

// firewallState runs socketfilterfw --getglobalstate and returns whether the
// firewall is on. ok is false when the output cannot be classified.
func firewallState(env *Env) (enabled, ok bool, err error) {
	out, _, err := env.Runner.Run("socketfilterfw", "--getglobalstate")
	if err != nil {
		return false, false, err
	}
	lower := strings.ToLower(strings.TrimSpace(out))
	switch {
	case strings.Contains(lower, "enabled"), strings.Contains(lower, "state = 1"):
		return true, true, nil
	case strings.Contains(lower, "disabled"), strings.Contains(lower, "state = 0"):
		return false, true, nil
	}
	return false, false, nil
}

// checkFirewallAndStealth yields two findings: the firewall state and
// the stealth-mode state. Stealth mode only applies when the firewall
// is on, so a disabled firewall turns stealth into a suggestion.
func checkFirewallAndStealth(env *Env) []types.Finding {
	fwEnabled, ok, err := firewallState(env)
	if err != nil {
		return []types.Finding{
			types.ErrorFinding("Firewall", hardeningCategory, err),
			types.ErrorFinding("Firewall Stealth Mode", hardeningCategory, err),
		}
	}
	if !ok {
		return []types.Finding{
			{
				Label:  "Firewall",
				Status: types.StatusError,
				Info:   []string{"Unable to determine firewall status."},
			},
			{
				Label:  "Firewall Stealth Mode",
				Status: types.StatusError,
				Info:   []string{"Unable to determine firewall status."},
			},
		}
	}

	fw := types.Finding{Label: "Firewall", Status: types.StatusOK, Info: []string{"Firewall is enabled."}}
	if !fwEnabled {
		fw.Status = types.StatusAlert
		fw.Info = []string{"Firewall is disabled."}
		fw.Tip = "Tip: The firewall helps block unwanted incoming connections. Enable it in System Settings > Network > Firewall."
	}

	stealth := checkStealthMode(env, fwEnabled)
	return []types.Finding{fw, stealth}
}

func checkStealthMode(env *Env, fwEnabled bool) types.Finding {
	if !fwEnabled {
		return types.Finding{
			Label:  "Firewall Stealth Mode",
			Status: types.StatusSuggestion,
			Info:   []string{"Stealth mode requires the firewall to be enabled. Enable the firewall first in System Settings > Network > Firewall."},
			Tip:    "Tip: The firewall must be enabled before you can enable stealth mode.",
		}
	}
	out, _, err := env.Runner.Run("socketfilterfw", "--getstealthmode")
	if err != nil {
		return types.ErrorFinding("Firewall Stealth Mode", hardeningCategory, err)
	}
	lower := strings.ToLower(strings.TrimSpace(out))
	enabled := strings.Contains(lower, "enabled") ||
		strings.Contains(lower, "state = 1") ||
		strings.Contains(lower, "stealth mode is on") ||
		strings.Contains(lower, "firewall stealth mode is on")
	f := types.Finding{
		Label:  "Firewall Stealth Mode",
		Status: types.StatusOK,
		Info:   []string{"Stealth mode is enabled."},
	}
	if !enabled {
		f.Status = types.StatusAlert
		f.Info = []string{"Stealth mode is disabled."}
		f.Tip = "Tip: Stealth mode makes your Mac ignore unsolicited network probes. Enable it in System Settings > Network > Firewall > Options."
	}
	return f
}

func checkBluetooth(env *Env) types.Finding {
	out, _, err := env.Runner.Run("system_profiler", "SPBluetoothDataType")
	if err != nil {
		return types.ErrorFinding("Bluetooth", hardeningCategory, err)
	}
	enabled := false
	for _, line := range strings.Split(strings.ToLower(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "bluetooth power: on") ||
			strings.Contains(line, "state: on") ||
			strings.Contains(line, "connected: yes") {
			enabled = true
			break
		}
	}
	f := types.Finding{
		Label:  "Bluetooth",
		Status: types.StatusOK,
		Info:   []string{"Bluetooth is disabled."},
	}
	if enabled {
		f.Status = types.StatusAlert
		f.Info = []string{"Bluetooth is enabled."}
		f.Tip = "Tip: Disable Bluetooth when not in use to reduce attack surface."
	}
	return f
}

func checkGuestAccount(env *Env) types.Finding {
	out, _, err := env.Runner.Run("defaults", "read", "/Library/Preferences/com.apple.loginwindow", "GuestEnabled")
	if err != nil {
		return types.ErrorFinding("Guest Account", hardeningCategory, err)
	}
	enabled := strings.TrimSpace(out) == "1"
	f := types.Finding{
		Label:  "Guest Account",
		Status: types.StatusOK,
		Info:   []string{"Guest account is disabled."},
	}
	if enabled {
		f.Status = types.StatusAlert
		f.Info = []string{"Guest account is enabled."}
		f.Tip = "Tip: Disable the guest account in System Settings > Users & Groups unless you need it."
	}
	return f
}

func checkRemoteAppleEvents(env *Env) types.Finding {
	out, _, err := env.Runner.Run("systemsetup", "-getremoteappleevents")
	if err != nil {
		return types.ErrorFinding("Remote Apple Events", hardeningCategory, err)
	}
	enabled := strings.Contains(strings.ToLower(out), "on")
	f := types.Finding{
		Label:  "Remote Apple Events",
		Status: types.StatusOK,
		Info:   []string{strings.TrimSpace(out)},
	}
	if enabled {
		f.Status = types.StatusAlert
		f.Tip = "Tip: Remote Apple Events allow other Macs to control this machine. Disable unless required."
	}
	return f
}

func checkScreenSharing(env *Env) types.Finding {
	out, _, err := env.Runner.Run("launchctl", "print-disabled", "system")
	if err != nil {
		return types.ErrorFinding("Screen Sharing", hardeningCategory, err)
	}
	enabled := false
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "com.apple.screensharing") {
			// A "false" in the disabled table means the service is enabled.
			if strings.Contains(strings.ReplaceAll(line, " ", ""), "=false") {
				enabled = true
			}
			break
		}
	}
	f := types.Finding{
		Label:  "Screen Sharing",
		Status: types.StatusOK,
		Info:   []string{"Screen sharing is disabled."},
	}
	if enabled {
		f.Status = types.StatusAlert
		f.Info = []string{"Screen sharing is enabled."}
		f.Tip = "Tip: Screen sharing allows remote control of this Mac. Disable it in System Settings > General > Sharing unless needed."
	}
	return f
}

// softwareUpdateKeys are the preference keys read to classify the
// automatic-update posture, in display order.
var softwareUpdateKeys = []struct {
	label  string
	domain string
	key    string
}{
	{"Automatic check", "com.apple.SoftwareUpdate", "AutomaticCheckEnabled"},
	{"Automatic download", "com.apple.SoftwareUpdate", "AutomaticDownload"},
	{"Security updates", "com.apple.SoftwareUpdate", "CriticalUpdateInstall"},
	{"macOS updates", "com.apple.SoftwareUpdate", "AutomaticallyInstallMacOSUpdates"},
	{"App Store updates", "com.apple.commerce", "AutoUpdate"},
}

func checkAutomaticUpdates(env *Env) types.Finding {
	values := make(map[string]string, len(softwareUpdateKeys))
	readable := false
	for _, k := range softwareUpdateKeys {
		out, _, err := env.Runner.Run("defaults", "read", k.domain, k.key)
		val := strings.TrimSpace(out)
		if err == nil && val != "" {
			values[k.key] = val
			readable = true
		}
	}
	if !readable {
		return types.Finding{
			Label:  "Automatic Software Updates",
			Status: types.StatusUnknown,
			Info: []string{
				"Could not read software update preferences.",
				"Check manually in System Settings > General > Software Update.",
				"Automatic security updates should be enabled.",
				"Automatic macOS updates are recommended.",
			},
		}
	}

	info := make([]string, 0, len(softwareUpdateKeys))
	for _, k := range softwareUpdateKeys {
		state := "Disabled"
		if values[k.key] == "1" {
			state = "Enabled"
		}
		info = append(info, fmt.Sprintf("%s: %s", k.label, state))
	}

	ok := values["AutomaticDownload"] == "1" && values["CriticalUpdateInstall"] == "1"
	f := types.Finding{
		Label:  "Automatic Software Updates",
		Status: types.StatusOK,
		Info:   info,
	}
	if !ok {
		f.Status = types.StatusAlert
		f.Tip = "Tip: Enable automatic download and security updates in System Settings > General > Software Update."
	}
	return f
}

func checkFileVault(env *Env) types.Finding {
	out, _, err := env.Runner.Run("fdesetup", "status")
	if err != nil {
		return types.ErrorFinding("FileVault", hardeningCategory, err)
	}
	enabled := strings.Contains(strings.ToLower(out), "filevault is on")
	f := types.Finding{
		Label:  "FileVault",
		Status: types.StatusOK,
		Info:   []string{strings.TrimSpace(out)},
	}
	if !enabled {
		f.Status = types.StatusAlert
		f.Tip = "Tip: FileVault encrypts your disk. Enable it in System Settings > Privacy & Security > FileVault."
	}
	return f
}

func checkFirmwarePassword(env *Env) types.Finding {
	out, _, err := env.Runner.Run("firmwarepasswd", "-check")
	if err != nil {
		return types.ErrorFinding("Firmware Password", hardeningCategory, err)
	}
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "password enabled: yes"):
		return types.Finding{
			Label:  "Firmware Password",
			Status: types.StatusOK,
			Info:   []string{"Firmware password is set."},
		}
	case strings.Contains(lower, "password enabled: no"):
		return types.Finding{
			Label:  "Firmware Password",
			Status: types.StatusAlert,
			Info:   []string{"Firmware password is not set."},
			Tip:    "Tip: A firmware password prevents booting from external media. Set one with firmwarepasswd.",
		}
	}
	return types.Finding{
		Label:  "Firmware Password",
		Status: types.StatusSuggestion,
		Info:   []string{"Firmware password status unavailable. T2 and Apple Silicon Macs manage boot security through Recovery instead."},
		Tip:    "Tip: On Apple Silicon, review Startup Security in Recovery mode.",
	}
}
