// Package config loads and validates the macwatchdog configuration.
// All values that drive probes and managers (scan directories, keyword
// denylists, risk patterns, the quarantine root) live here so tests can
// supply alternates instead of patching globals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every tunable the probes and managers consume.
type Config struct {
	// QuarantineRoot is the persisted-state root directory.
	QuarantineRoot string `mapstructure:"quarantine_root" validate:"required"`

	// AgentDirs are the launchd agent/daemon directories to scan.
	AgentDirs []string `mapstructure:"agent_dirs" validate:"required,min=1,dive,required"`

	// AgentKeywords is the suspicious-filename denylist. A single match
	// flags a file; signals are OR'd, not scored.
	AgentKeywords []string `mapstructure:"agent_keywords" validate:"required,min=1"`

	// ProfileRiskPatterns maps a risk flag name to the case-insensitive
	// pattern matched against profile attribute values.
	ProfileRiskPatterns map[string]string `mapstructure:"profile_risk_patterns" validate:"required,min=1"`

	// SensitiveDirs are the directories scanned for world-writable files.
	SensitiveDirs []string `mapstructure:"sensitive_dirs" validate:"required,min=1"`

	// CommandTimeoutSeconds bounds every external command invocation.
	CommandTimeoutSeconds int `mapstructure:"command_timeout_seconds" validate:"min=1,max=300"`
}

// CommandTimeout returns the per-command timeout as a duration.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

// Defaults mirror the reference scan surface.
func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("quarantine_root", filepath.Join(home, ".macwatchdog", "quarantine"))
	v.SetDefault("agent_dirs", []string{
		"/Library/LaunchAgents",
		"/Library/LaunchDaemons",
		filepath.Join(home, "Library", "LaunchAgents"),
	})
	v.SetDefault("agent_keywords", []string{
		"remote", "mdm", "backdoor", "rat", "suspicious", "hack", "keylog", "spy",
	})
	v.SetDefault("profile_risk_patterns", map[string]string{
		"Root certificate":    `root`,
		"VPN":                 `vpn`,
		"Certificate payload": `payloadtype.*certificate`,
	})
	v.SetDefault("sensitive_dirs", []string{
		"/Library/LaunchAgents",
		"/Library/LaunchDaemons",
		filepath.Join(home, "Library", "LaunchAgents"),
		"/etc",
		"/usr/local/bin",
		"/usr/local/sbin",
	})
	v.SetDefault("command_timeout_seconds", 15)
}

// Load reads the configuration from cfgFile if given, otherwise from
// $HOME/.macwatchdog/config.yaml when present. Environment variables
// prefixed MACWATCHDOG_ override file values. A missing config file is
// not an error; defaults apply.
func Load(cfgFile string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot resolve home directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, home)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(filepath.Join(home, ".macwatchdog"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("MACWATCHDOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Only an explicitly named file must exist.
		if cfgFile != "" {
			return nil, fmt.Errorf("cannot read config %q: %w", cfgFile, err)
		}
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
