package probe

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ianheil/macwatchdog-cli/internal/config"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// ParseProfiles lists all installed configuration profiles and parses the
// semi-structured `profiles list -all` output. Profiles are blank-line
// separated blocks of "key: value" lines. Risk flags come from the
// configured patterns, matched case-insensitively against every value;
// flag labels are sorted so output is deterministic.
func ParseProfiles(cfg *config.Config, r Runner) ([]types.ConfigProfile, error) {
	out, _, err := r.Run("profiles", "list", "-all")
	if err != nil {
		return nil, err
	}

	risks := compileRiskPatterns(cfg.ProfileRiskPatterns)

	var parsed []types.ConfigProfile
	for _, block := range strings.Split(out, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		attrs := make(map[string]string)
		for _, line := range strings.Split(block, "\n") {
			k, v, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			attrs[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		if len(attrs) == 0 {
			continue
		}
		parsed = append(parsed, classifyProfile(attrs, risks))
	}
	return parsed, nil
}

type riskPattern struct {
	label string
	re    *regexp.Regexp
}

func compileRiskPatterns(patterns map[string]string) []riskPattern {
	labels := make([]string, 0, len(patterns))
	for l := range patterns {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	out := make([]riskPattern, 0, len(labels))
	for _, l := range labels {
		re, err := regexp.Compile("(?i)" + patterns[l])
		if err != nil {
			continue
		}
		out = append(out, riskPattern{label: l, re: re})
	}
	return out
}

func classifyProfile(attrs map[string]string, risks []riskPattern) types.ConfigProfile {
	p := types.ConfigProfile{
		Identifier:  firstAttr(attrs, "profileIdentifier", "ProfileIdentifier"),
		DisplayName: firstAttr(attrs, "profileDisplayName", "ProfileDisplayName"),
		Attributes:  attrs,
		Risk:        []string{},
		Removable:   true,
	}

	for _, r := range risks {
		for _, v := range attrs {
			if r.re.MatchString(v) {
				p.Risk = append(p.Risk, r.label)
				break
			}
		}
	}

	if strings.Contains(strings.ToLower(attrs["PayloadType"]), "mdm") ||
		strings.Contains(strings.ToLower(p.Identifier), "mdm") {
		p.MDM = true
	}

	switch strings.ToLower(firstAttr(attrs, "PayloadRemovalDisallowed", "profileRemovalDisallowed")) {
	case "yes", "true", "1":
		p.Removable = false
	}
	return p
}

func firstAttr(attrs map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := attrs[k]; ok {
			return v
		}
	}
	return ""
}

func checkProfiles(env *Env) types.Finding {
	parsed, err := ParseProfiles(env.Cfg, env.Runner)
	if err != nil {
		return types.ErrorFinding("Configuration Profiles (All, with Risk Analysis)", "Profiles", err)
	}
	if len(parsed) == 0 {
		return types.Finding{
			Label:  "Configuration Profiles (All, with Risk Analysis)",
			Status: types.StatusOK,
			Info:   []string{"No configuration profiles found."},
		}
	}

	var flagged []string
	for _, p := range parsed {
		if len(p.Risk) > 0 {
			flagged = append(flagged, p.Describe())
		}
	}

	f := types.Finding{
		Label:    "Configuration Profiles (All, with Risk Analysis)",
		Status:   types.StatusOK,
		Info:     []string{"No risky configuration profiles found."},
		Tip:      "Tip: Remove suspicious profiles in System Preferences > Profiles. Profiles that install root certificates or VPNs can be risky.",
		Profiles: parsed,
	}
	if len(flagged) > 0 {
		f.Status = types.StatusAlert
		f.Info = flagged
	}
	return f
}
