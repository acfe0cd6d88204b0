package probe

import (
	"os"
	"strings"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// MDMStatus is the parsed enrollment state from `profiles status -type enrollment`.
type MDMStatus struct {
	Enrolled    bool
	DEPEnrolled bool
	Raw         string
}

// FetchMDMStatus queries the system enrollment state. Results are most
// accurate when running as root.
func FetchMDMStatus(r Runner) (MDMStatus, error) {
	out, _, err := r.Run("profiles", "status", "-type", "enrollment")
	if err != nil {
		return MDMStatus{}, err
	}
	raw := strings.TrimSpace(out)
	return MDMStatus{
		Enrolled:    strings.Contains(raw, "MDM enrollment: Yes"),
		DEPEnrolled: strings.Contains(raw, "Enrolled via DEP: Yes"),
		Raw:         raw,
	}, nil
}

func checkMDMAndDEP(env *Env) types.Finding {
	status, err := FetchMDMStatus(env.Runner)
	if err != nil {
		return types.ErrorFinding("MDM & DEP Enrollment", "MDM", err)
	}

	var info []string
	for _, line := range strings.Split(status.Raw, "\n") {
		if strings.Contains(line, "MDM enrollment:") || strings.Contains(line, "Enrolled via DEP:") {
			info = append(info, strings.TrimSpace(line))
		}
	}
	if len(info) == 0 {
		info = []string{status.Raw}
	}

	f := types.Finding{
		Label:  "MDM & DEP Enrollment",
		Status: types.StatusOK,
		Info:   info,
	}
	if status.Enrolled {
		f.Status = types.StatusAlert
	}
	if os.Geteuid() != 0 {
		f.Tip = "Run as root (sudo) for most accurate results."
	}
	return f
}

func checkRemoteManagement(env *Env) types.Finding {
	out, _, err := env.Runner.Run("systemsetup", "-getremotelogin")
	if err != nil {
		return types.ErrorFinding("Remote Login (SSH)", "Remote Access", err)
	}
	f := types.Finding{
		Label:  "Remote Login (SSH)",
		Status: types.StatusOK,
		Info:   []string{strings.TrimSpace(out)},
	}
	if strings.Contains(out, "On") {
		f.Status = types.StatusAlert
		f.Tip = "Tip: Remote login allows SSH access to this Mac. Disable it unless you need it."
	}
	return f
}
