package manager

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ianheil/macwatchdog-cli/internal/store"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// SnapshotManager captures point-in-time profile/MDM snapshots and
// computes diffs between them. Snapshots are immutable once written.
type SnapshotManager struct {
	store    *store.Store
	profiles *ProfileManager
	log      zerolog.Logger
}

func NewSnapshotManager(st *store.Store, profiles *ProfileManager, log zerolog.Logger) *SnapshotManager {
	return &SnapshotManager{store: st, profiles: profiles, log: log}
}

// Take captures the current profile list and MDM enrollment string and
// writes them as a new snapshot record.
func (m *SnapshotManager) Take() (string, types.Snapshot, error) {
	profiles, err := m.profiles.List()
	if err != nil {
		return "", types.Snapshot{}, err
	}
	mdm, _, _, err := m.profiles.CheckMDMChange()
	if err != nil {
		return "", types.Snapshot{}, err
	}

	snap := types.Snapshot{
		Timestamp: time.Now(),
		Profiles:  profiles,
		MDM:       mdm,
	}
	id, err := m.store.WriteRecord(store.CategorySnapshots, snap)
	if err != nil {
		return "", types.Snapshot{}, err
	}
	if err := m.store.AppendTimeline(fmt.Sprintf("Snapshot exported: %s", id)); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return id, snap, nil
}

// List returns snapshot records, most recent first.
func (m *SnapshotManager) List() ([]store.Record, error) {
	return m.store.ListRecords(store.CategorySnapshots)
}

// Read loads one snapshot record.
func (m *SnapshotManager) Read(recordID string) (types.Snapshot, error) {
	var snap types.Snapshot
	if err := m.store.ReadRecord(recordID, &snap); err != nil {
		return types.Snapshot{}, err
	}
	return snap, nil
}

// Diff compares two snapshots by profile identifier. Profiles without an
// identifier cannot be tracked and are excluded. Every invocation appends
// one timeline entry.
func (m *SnapshotManager) Diff(idA, idB string) (types.SnapshotDiff, error) {
	a, err := m.Read(idA)
	if err != nil {
		return types.SnapshotDiff{}, err
	}
	b, err := m.Read(idB)
	if err != nil {
		return types.SnapshotDiff{}, err
	}

	diff := DiffSnapshots(a, b)

	entry := fmt.Sprintf("Compared snapshots: %s vs %s", idA, idB)
	switch {
	case diff.Empty():
		entry += " (no profile changes)"
	default:
		if len(diff.Added) > 0 {
			entry += fmt.Sprintf(" (added: %s)", strings.Join(diff.Added, ", "))
		}
		if len(diff.Removed) > 0 {
			entry += fmt.Sprintf(" (removed: %s)", strings.Join(diff.Removed, ", "))
		}
	}
	if err := m.store.AppendTimeline(entry); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return diff, nil
}

// DiffSnapshots is the pure set difference over profile identifiers,
// from a to b: added = in b only, removed = in a only.
func DiffSnapshots(a, b types.Snapshot) types.SnapshotDiff {
	setA := identifierSet(a.Profiles)
	setB := identifierSet(b.Profiles)

	var diff types.SnapshotDiff
	for id := range setB {
		if _, ok := setA[id]; !ok {
			diff.Added = append(diff.Added, id)
		}
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	return diff
}

func identifierSet(profiles []types.ConfigProfile) map[string]struct{} {
	set := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		if p.Identifier == "" {
			continue
		}
		set[p.Identifier] = struct{}{}
	}
	return set
}

// Clear deletes every snapshot. Idempotent; clearing an empty category
// succeeds with zero removed.
func (m *SnapshotManager) Clear() (int, []error) {
	removed, errs := m.store.PurgeCategory(store.CategorySnapshots)
	if err := m.store.AppendTimeline(fmt.Sprintf("Cleared snapshots: %d removed", removed)); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return removed, errs
}
