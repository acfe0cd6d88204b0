package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Contains(t, cfg.QuarantineRoot, ".macwatchdog")
	assert.Contains(t, cfg.AgentDirs, "/Library/LaunchAgents")
	assert.Contains(t, cfg.AgentDirs, "/Library/LaunchDaemons")
	assert.Contains(t, cfg.AgentKeywords, "backdoor")
	assert.Contains(t, cfg.SensitiveDirs, "/etc")
	assert.Equal(t, 15, cfg.CommandTimeoutSeconds)
	assert.Equal(t, 15*time.Second, cfg.CommandTimeout())
	assert.Contains(t, cfg.ProfileRiskPatterns, "Root certificate")
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
quarantine_root: /tmp/wd-quarantine
agent_keywords:
  - evilcorp
command_timeout_seconds: 30
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/wd-quarantine", cfg.QuarantineRoot)
	assert.Equal(t, []string{"evilcorp"}, cfg.AgentKeywords)
	assert.Equal(t, 30, cfg.CommandTimeoutSeconds)

	// Untouched keys keep their defaults.
	assert.Contains(t, cfg.AgentDirs, "/Library/LaunchDaemons")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MACWATCHDOG_QUARANTINE_ROOT", "/tmp/env-root")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-root", cfg.QuarantineRoot)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read config")
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("command_timeout_seconds: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent_dirs: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
