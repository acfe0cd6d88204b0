// Package probe contains the audit probes: stateless functions that query
// the live system through external utilities, parse their semi-structured
// output, and classify the result into a Finding. Command execution goes
// through an allowlist so probes can never run arbitrary binaries, and
// every invocation is timeout-bounded.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes an external command and returns its stdout and stderr.
// Probes and managers depend on this interface so tests can supply
// captured sample outputs instead of touching the live OS.
type Runner interface {
	Run(cmd string, args ...string) (stdout, stderr string, err error)
}

// CommandSpec defines the constraints for an allowlisted command.
type CommandSpec struct {
	// Path is the resolved absolute path to the command binary.
	// Resolved at construction time via exec.LookPath, with a hardcoded
	// fallback for binaries outside PATH.
	Path string

	// FallbackPath is the hardcoded path used when LookPath fails.
	FallbackPath string

	// AllowedFlags are the flags/subcommands that can be passed.
	AllowedFlags []string

	// MaxArgs is the maximum number of positional (non-flag) arguments.
	MaxArgs int

	// Timeout is the maximum execution time for this command.
	Timeout time.Duration
}

// ExecRunner executes only pre-approved macOS utilities with validated
// arguments. This is the security boundary against arbitrary execution.
type ExecRunner struct {
	allowlist map[string]CommandSpec
}

// resolveCommandPath finds the command via exec.LookPath, falling back to
// the hardcoded default path.
func resolveCommandPath(name, fallbackPath string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return fallbackPath
}

// NewExecRunner creates a runner with the default allowlist of macOS
// system utilities. defaultTimeout applies to every command; utilities
// known to be slow (system_profiler) get a longer bound.
func NewExecRunner(defaultTimeout time.Duration) *ExecRunner {
	if defaultTimeout <= 0 {
		defaultTimeout = 15 * time.Second
	}

	type entry struct {
		name         string
		fallbackPath string
		allowedFlags []string
		maxArgs      int
		timeout      time.Duration
	}

	entries := []entry{
		{"profiles", "/usr/bin/profiles", []string{"list", "status", "remove", "-all", "-type", "-identifier"}, 3, defaultTimeout},
		{"codesign", "/usr/bin/codesign", []string{"-dv", "--verify"}, 1, defaultTimeout},
		{"osascript", "/usr/bin/osascript", []string{"-e"}, 4, defaultTimeout},
		{"lsof", "/usr/sbin/lsof", []string{"-i", "-n", "-P"}, 0, defaultTimeout},
		{"csrutil", "/usr/bin/csrutil", []string{"status"}, 1, defaultTimeout},
		{"spctl", "/usr/sbin/spctl", []string{"--status"}, 0, defaultTimeout},
		{"socketfilterfw", "/usr/libexec/ApplicationFirewall/socketfilterfw", []string{"--getglobalstate", "--getstealthmode"}, 0, defaultTimeout},
		{"defaults", "/usr/bin/defaults", []string{"read", "-currentHost"}, 3, defaultTimeout},
		{"fdesetup", "/usr/bin/fdesetup", []string{"status"}, 1, defaultTimeout},
		{"firmwarepasswd", "/usr/sbin/firmwarepasswd", []string{"-check"}, 0, defaultTimeout},
		{"dscl", "/usr/bin/dscl", []string{"-read", "."}, 4, defaultTimeout},
		{"system_profiler", "/usr/sbin/system_profiler", []string{"-detailLevel"}, 3, 2 * defaultTimeout},
		{"networksetup", "/usr/sbin/networksetup", []string{"-listallhardwareports"}, 0, defaultTimeout},
		{"ifconfig", "/sbin/ifconfig", nil, 1, defaultTimeout},
		{"sqlite3", "/usr/bin/sqlite3", []string{"-separator"}, 3, defaultTimeout},
		{"systemsetup", "/usr/sbin/systemsetup", []string{"-getremotelogin", "-getremoteappleevents"}, 0, defaultTimeout},
		{"launchctl", "/bin/launchctl", []string{"list"}, 2, defaultTimeout},
	}

	allowlist := make(map[string]CommandSpec, len(entries))
	for _, e := range entries {
		allowlist[e.name] = CommandSpec{
			Path:         resolveCommandPath(e.name, e.fallbackPath),
			FallbackPath: e.fallbackPath,
			AllowedFlags: e.allowedFlags,
			MaxArgs:      e.maxArgs,
			Timeout:      e.timeout,
		}
	}

	return &ExecRunner{allowlist: allowlist}
}

// IsAllowed checks whether a command is in the allowlist.
func (r *ExecRunner) IsAllowed(cmd string) bool {
	_, ok := r.allowlist[cmd]
	return ok
}

// Run executes an allowlisted command with validated arguments. Never uses
// shell invocation. A non-zero exit is not an error by itself: several
// macOS utilities (codesign, profiles) report their verdict via exit code
// plus stderr, so both streams are returned and the caller classifies.
// A timeout is reported as an error so the probe surfaces StatusError.
func (r *ExecRunner) Run(cmd string, args ...string) (string, string, error) {
	spec, ok := r.allowlist[cmd]
	if !ok {
		return "", "", fmt.Errorf("command %q not in allowlist", cmd)
	}

	if err := validateArgs(spec, args); err != nil {
		return "", "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), spec.Timeout)
	defer cancel()

	execCmd := exec.CommandContext(ctx, spec.Path, args...)
	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr
	err := execCmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return stdout.String(), stderr.String(),
			fmt.Errorf("command %q timed out after %v", cmd, spec.Timeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Verdict-by-exit-code utilities: let the caller classify.
			return stdout.String(), stderr.String(), nil
		}
		return stdout.String(), stderr.String(),
			fmt.Errorf("failed to execute %q: %w", cmd, err)
	}

	return stdout.String(), stderr.String(), nil
}

// validateArgs checks that all arguments comply with the CommandSpec.
func validateArgs(spec CommandSpec, args []string) error {
	positionalCount := 0

	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			if !isAllowedFlag(spec.AllowedFlags, arg) {
				return fmt.Errorf("flag %q not allowed for this command (allowed: %s)",
					arg, strings.Join(spec.AllowedFlags, ", "))
			}
		} else {
			positionalCount++
		}
	}

	if positionalCount > spec.MaxArgs {
		return fmt.Errorf("too many positional arguments: got %d, max %d",
			positionalCount, spec.MaxArgs)
	}

	return nil
}

// isAllowedFlag checks if a flag is in the allowed list.
func isAllowedFlag(allowed []string, flag string) bool {
	for _, f := range allowed {
		if f == flag {
			return true
		}
	}
	return false
}
