package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_RejectsUnknownCommand(t *testing.T) {
	r := NewExecRunner(time.Second)

	_, _, err := r.Run("rm", "-rf", "/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in allowlist")
}

func TestExecRunner_RejectsShellWrappers(t *testing.T) {
	r := NewExecRunner(time.Second)

	for _, cmd := range []string{"sh", "bash", "/bin/sh", ""} {
		_, _, err := r.Run(cmd, "-c", "echo pwned")
		require.Error(t, err, cmd)
		assert.Contains(t, err.Error(), "not in allowlist")
	}
}

func TestExecRunner_RejectsDisallowedFlag(t *testing.T) {
	r := NewExecRunner(time.Second)

	_, _, err := r.Run("csrutil", "--bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestExecRunner_RejectsTooManyPositionals(t *testing.T) {
	r := NewExecRunner(time.Second)

	_, _, err := r.Run("csrutil", "status", "extra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many")
}

func TestExecRunner_AllowlistContents(t *testing.T) {
	r := NewExecRunner(time.Second)

	for _, cmd := range []string{
		"profiles", "codesign", "osascript", "lsof", "csrutil", "spctl",
		"socketfilterfw", "defaults", "fdesetup", "firmwarepasswd",
		"dscl", "system_profiler", "systemsetup", "launchctl", "sqlite3",
	} {
		assert.True(t, r.IsAllowed(cmd), cmd)
	}
	assert.False(t, r.IsAllowed("curl"))
}

func TestResolveCommandPath_Fallback(t *testing.T) {
	path := resolveCommandPath("definitely-not-a-real-binary-xyz", "/usr/bin/fallback")
	assert.Equal(t, "/usr/bin/fallback", path)
}

func TestValidateArgs_FlagAndPositionalMix(t *testing.T) {
	spec := CommandSpec{AllowedFlags: []string{"-type", "status"}, MaxArgs: 2}

	assert.NoError(t, validateArgs(spec, []string{"status", "-type", "enrollment"}))
	assert.Error(t, validateArgs(spec, []string{"-identifier"}))
	assert.Error(t, validateArgs(spec, []string{"a", "b", "c"}))
}
