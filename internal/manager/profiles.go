package manager

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ianheil/macwatchdog-cli/internal/config"
	"github.com/ianheil/macwatchdog-cli/internal/probe"
	"github.com/ianheil/macwatchdog-cli/internal/store"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

const (
	mdmStateFile  = "mdm_state.json"
	watchlistFile = "auto_remove_watchlist.json"
)

// ProfileManager lists and removes configuration profiles, tracks MDM
// enrollment changes, and maintains the auto-remove watchlist.
type ProfileManager struct {
	cfg    *config.Config
	store  *store.Store
	runner probe.Runner
	log    zerolog.Logger
}

func NewProfileManager(cfg *config.Config, st *store.Store, r probe.Runner, log zerolog.Logger) *ProfileManager {
	return &ProfileManager{cfg: cfg, store: st, runner: r, log: log}
}

// List returns every installed configuration profile.
func (m *ProfileManager) List() ([]types.ConfigProfile, error) {
	return probe.ParseProfiles(m.cfg, m.runner)
}

// ListFlagged returns profiles with a non-empty risk set.
func (m *ProfileManager) ListFlagged() ([]types.ConfigProfile, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}
	var flagged []types.ConfigProfile
	for _, p := range all {
		if len(p.Risk) > 0 {
			flagged = append(flagged, p)
		}
	}
	return flagged, nil
}

// Remove uninstalls a profile by identifier. Locked profiles are rejected
// before the underlying command runs; privilege problems surface as a
// permission failure, not a raw command error.
func (m *ProfileManager) Remove(identifier string) (bool, string) {
	profiles, err := m.List()
	if err != nil {
		return false, fmt.Sprintf("Cannot list profiles: %v", err)
	}

	var target *types.ConfigProfile
	for i := range profiles {
		if profiles[i].Identifier == identifier {
			target = &profiles[i]
			break
		}
	}
	if target == nil {
		return false, fmt.Sprintf("No profile with identifier %q found.", identifier)
	}
	if !target.Removable {
		return false, fmt.Sprintf("Profile %q is locked (removal disallowed): %v", identifier, ErrPermission)
	}

	_, stderr, err := m.runner.Run("profiles", "remove", "-identifier", identifier)
	if err != nil {
		return false, fmt.Sprintf("Failed to remove profile %q: %v", identifier, err)
	}
	if s := strings.ToLower(stderr); strings.Contains(s, "must be run as root") || strings.Contains(s, "permission") {
		return false, fmt.Sprintf("Removing profile %q requires elevated privilege: %s", identifier, strings.TrimSpace(stderr))
	}

	if err := m.store.AppendTimeline(fmt.Sprintf("Removed profile: %s", identifier)); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return true, fmt.Sprintf("Profile %q removed.", identifier)
}

// CheckMDMChange compares the live MDM enrollment state against the last
// recorded one and persists the current state. changed is false on the
// first run, when there is no previous state to compare.
func (m *ProfileManager) CheckMDMChange() (current, previous string, changed bool, err error) {
	status, err := probe.FetchMDMStatus(m.runner)
	if err != nil {
		return "", "", false, err
	}
	current = status.Raw

	path := m.store.FlatPath(mdmStateFile)
	prev, readErr := os.ReadFile(path)
	if readErr == nil {
		previous = string(prev)
		changed = previous != current
	}

	if err := os.MkdirAll(m.store.Root(), 0o755); err != nil {
		return current, previous, changed, err
	}
	if err := os.WriteFile(path, []byte(current), 0o644); err != nil {
		return current, previous, changed, err
	}
	if changed {
		if err := m.store.AppendTimeline("MDM enrollment state changed"); err != nil {
			m.log.Debug().Err(err).Msg("timeline append failed")
		}
	}
	return current, previous, changed, nil
}

// Watchlist returns the profile identifiers marked for auto-removal.
func (m *ProfileManager) Watchlist() ([]string, error) {
	data, err := os.ReadFile(m.store.FlatPath(watchlistFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: corrupt watchlist: %v", ErrNotFound, err)
	}
	return list, nil
}

// Watch adds an identifier to the auto-remove watchlist. Only non-MDM,
// removable profiles can be watched.
func (m *ProfileManager) Watch(identifier string) error {
	profiles, err := m.List()
	if err != nil {
		return err
	}
	for _, p := range profiles {
		if p.Identifier != identifier {
			continue
		}
		if p.MDM || !p.Removable {
			return fmt.Errorf("%w: profile %q is MDM-managed or locked", ErrPermission, identifier)
		}
	}

	list, err := m.Watchlist()
	if err != nil {
		return err
	}
	for _, id := range list {
		if id == identifier {
			return nil
		}
	}
	list = append(list, identifier)

	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.store.Root(), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(m.store.FlatPath(watchlistFile), data, 0o644); err != nil {
		return err
	}
	if err := m.store.AppendTimeline(fmt.Sprintf("Watching profile for auto-removal: %s", identifier)); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return nil
}

// Sweep removes every installed profile that is on the watchlist.
func (m *ProfileManager) Sweep() BatchResult {
	var res BatchResult
	list, err := m.Watchlist()
	if err != nil || len(list) == 0 {
		return res
	}

	installed, err := m.List()
	if err != nil {
		res.add("sweep", err)
		return res
	}
	present := make(map[string]struct{}, len(installed))
	for _, p := range installed {
		present[p.Identifier] = struct{}{}
	}

	for _, id := range list {
		if _, ok := present[id]; !ok {
			continue
		}
		ok, msg := m.Remove(id)
		if !ok {
			res.add(id, fmt.Errorf("%s", msg))
			continue
		}
		res.add(id, nil)
	}
	return res
}
