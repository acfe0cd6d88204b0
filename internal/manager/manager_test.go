package manager

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ianheil/macwatchdog-cli/internal/config"
	"github.com/ianheil/macwatchdog-cli/internal/store"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(t.TempDir())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		QuarantineRoot: t.TempDir(),
		AgentDirs:      []string{t.TempDir()},
		AgentKeywords:  []string{"remote", "keylog"},
		ProfileRiskPatterns: map[string]string{
			"Root certificate": `root`,
			"VPN":              `vpn`,
		},
		SensitiveDirs:         []string{t.TempDir()},
		CommandTimeoutSeconds: 5,
	}
}

// fakeRunner serves canned outputs keyed by the full command line,
// falling back to the bare command name, and records every invocation.
type fakeRunner struct {
	responses map[string]fakeResponse
	calls     []string
}

type fakeResponse struct {
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) Run(cmd string, args ...string) (string, string, error) {
	key := strings.Join(append([]string{cmd}, args...), " ")
	f.calls = append(f.calls, key)
	if resp, ok := f.responses[key]; ok {
		return resp.stdout, resp.stderr, resp.err
	}
	if resp, ok := f.responses[cmd]; ok {
		return resp.stdout, resp.stderr, resp.err
	}
	return "", "", fmt.Errorf("unexpected command %q", key)
}

func (f *fakeRunner) called(key string) bool {
	for _, c := range f.calls {
		if c == key {
			return true
		}
	}
	return false
}

// fakeBridge stands in for the System Events scripting bridge.
type fakeBridge struct {
	items     []types.LoginItem
	listErr   error
	removeErr error
	addErr    error

	removed []string
	added   []string
}

func (b *fakeBridge) List() ([]types.LoginItem, error) {
	return b.items, b.listErr
}

func (b *fakeBridge) Remove(name string) error {
	if b.removeErr != nil {
		return b.removeErr
	}
	b.removed = append(b.removed, name)
	return nil
}

func (b *fakeBridge) Add(path string) error {
	if b.addErr != nil {
		return b.addErr
	}
	b.added = append(b.added, path)
	return nil
}

func nopLog() zerolog.Logger {
	return zerolog.Nop()
}

const sampleProfilesOutput = `There are 2 configuration profiles installed

profileIdentifier: com.corp.vpn.config
profileDisplayName: Corp VPN
PayloadType: com.apple.vpn.managed

profileIdentifier: com.mdm.enroll
profileDisplayName: Device Management
PayloadType: com.apple.mdm
PayloadRemovalDisallowed: yes`
