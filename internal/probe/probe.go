package probe

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ianheil/macwatchdog-cli/internal/config"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// Env carries the dependencies every probe receives: configuration,
// the command runner, and the diagnostic logger. Probes hold no state
// of their own.
type Env struct {
	Cfg    *config.Config
	Runner Runner
	Bridge LoginItemBridge
	Log    zerolog.Logger
}

// NewEnv builds a probe environment with the default exec runner and
// osascript bridge.
func NewEnv(cfg *config.Config, log zerolog.Logger) *Env {
	runner := NewExecRunner(cfg.CommandTimeout())
	return &Env{
		Cfg:    cfg,
		Runner: runner,
		Bridge: &OsascriptBridge{Runner: runner},
		Log:    log,
	}
}

// Probe names one audit check. Run never returns an error: every failure
// is classified into a StatusError Finding at the probe boundary.
type Probe struct {
	// Label is the human-readable check name shown in reports.
	Label string

	// Category groups the probe's findings.
	Category string

	// Run executes the probe. Most probes yield one Finding; a few
	// (firewall + stealth) yield several.
	Run func(env *Env) []types.Finding
}

// Catalog returns the full ordered probe set.
func Catalog() []Probe {
	return []Probe{
		{"MDM Enrollment", "MDM", one(checkMDMAndDEP)},
		{"Remote Access", "Remote Access", one(checkRemoteManagement)},
		{"Launch Agents/Daemons", "Launch Agents/Daemons", one(checkLaunchAgents)},
		{"Configuration Profiles (All, with Risk Analysis)", "Profiles", one(checkProfiles)},
		{"USB Devices", "USB", one(checkUSB)},
		{"Network Interfaces & Connections", "Network", one(checkNetwork)},
		{"World-writable/Suspicious Files", "Permissions", one(checkWorldWritable)},
		{"Admin Users/Groups", "Users", one(checkAdminUsers)},
		{"Login Items", "Login Items", one(checkLoginItems)},
		{"Network Listeners (Open Ports)", "Network Listeners", one(checkNetworkListeners)},
		{"Accessibility/Full Disk Access", "Accessibility", one(checkAccessibilityApps)},
		{"TCC Privacy Permissions", "TCC Privacy", one(checkTCCPermissions)},
		{"System Integrity Protection (SIP)", "System Hardening & Security", one(checkSIP)},
		{"Gatekeeper", "System Hardening & Security", one(checkGatekeeper)},
		{"XProtect", "System Hardening & Security", one(checkXProtect)},
		{"Firewall & Stealth Mode", "System Hardening & Security", checkFirewallAndStealth},
		{"Bluetooth", "System Hardening & Security", one(checkBluetooth)},
		{"Guest Account", "System Hardening & Security", one(checkGuestAccount)},
		{"Remote Apple Events", "System Hardening & Security", one(checkRemoteAppleEvents)},
		{"Screen Sharing", "System Hardening & Security", one(checkScreenSharing)},
		{"Automatic Software Updates", "System Hardening & Security", one(checkAutomaticUpdates)},
		{"FileVault", "System Hardening & Security", one(checkFileVault)},
		{"Firmware Password", "System Hardening & Security", one(checkFirmwarePassword)},
	}
}

// one lifts a single-Finding probe into the multi-Finding shape.
func one(fn func(env *Env) types.Finding) func(env *Env) []types.Finding {
	return func(env *Env) []types.Finding {
		return []types.Finding{fn(env)}
	}
}

// RunAll executes every probe in the catalog and returns findings grouped
// by category, preserving catalog order.
func RunAll(env *Env, probes []Probe) []types.CategoryResults {
	order := make(map[string]int)
	var groups []types.CategoryResults

	for _, p := range probes {
		start := time.Now()
		findings := p.Run(env)
		dur := time.Since(start)

		idx, ok := order[p.Category]
		if !ok {
			idx = len(groups)
			order[p.Category] = idx
			groups = append(groups, types.CategoryResults{Category: p.Category})
		}
		for _, f := range findings {
			f.Category = p.Category
			f.Duration = dur
			f.DurationMS = dur.Milliseconds()
			groups[idx].Findings = append(groups[idx].Findings, f)
		}
		env.Log.Debug().Str("probe", p.Label).Dur("took", dur).Msg("probe finished")
	}
	return groups
}
