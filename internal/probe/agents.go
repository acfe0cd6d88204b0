package probe

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ianheil/macwatchdog-cli/internal/config"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// DetectLaunchAgents scans the configured launchd directories and flags
// plists by three signals, checked in order: a keyword in the filename,
// world-writable permissions, or a missing code signature. The first
// matching signal wins. Missing directories are skipped.
func DetectLaunchAgents(cfg *config.Config, r Runner) []types.LaunchAgent {
	var flagged []types.LaunchAgent
	for _, dir := range cfg.AgentDirs {
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
			mode := uint32(info.Mode().Perm())

			if kw := matchKeyword(e.Name(), cfg.AgentKeywords); kw {
				flagged = append(flagged, types.LaunchAgent{Path: full, Signal: "keyword", Mode: mode})
				continue
			}
			if mode&0o002 != 0 {
				flagged = append(flagged, types.LaunchAgent{Path: full, Signal: "world-writable", Mode: mode})
				continue
			}
			if isUnsigned(r, full) {
				flagged = append(flagged, types.LaunchAgent{Path: full, Signal: "unsigned", Mode: mode})
			}
		}
	}
	return flagged
}

func matchKeyword(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// isUnsigned reports whether codesign found no signature on the file.
// codesign writes its verdict to stderr.
func isUnsigned(r Runner, path string) bool {
	_, stderr, err := r.Run("codesign", "-dv", path)
	if err != nil {
		return false
	}
	return strings.Contains(stderr, "code object is not signed")
}

func checkLaunchAgents(env *Env) types.Finding {
	flagged := DetectLaunchAgents(env.Cfg, env.Runner)
	f := types.Finding{
		Label:  "Suspicious Launch Agents/Daemons",
		Status: types.StatusOK,
		Info:   []string{"None found"},
		Tip:    "Tip: Suspicious or unsigned launch agents/daemons can be used for persistence or remote control. Remove anything you don't recognize.",
	}
	if len(flagged) > 0 {
		f.Status = types.StatusAlert
		f.Info = nil
		for _, a := range flagged {
			f.Info = append(f.Info, a.Describe())
		}
		f.Agents = flagged
	}
	return f
}
