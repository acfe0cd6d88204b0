package types

import "time"

// Snapshot captures the profile list and MDM enrollment state at one point
// in time. Immutable once written; used only for later diffing.
type Snapshot struct {
	// Timestamp is when the snapshot was taken.
	Timestamp time.Time `json:"timestamp"`

	// Profiles is the full parsed profile list.
	Profiles []ConfigProfile `json:"profiles"`

	// MDM is the raw MDM enrollment status string.
	MDM string `json:"mdm"`
}

// SnapshotDiff is the set difference between two snapshots, computed over
// profile identifiers. Profiles with no identifier are excluded (they
// cannot be tracked).
type SnapshotDiff struct {
	// Added lists identifiers present in the second snapshot only.
	Added []string `json:"added"`

	// Removed lists identifiers present in the first snapshot only.
	Removed []string `json:"removed"`
}

// Empty reports whether the diff contains no changes.
func (d SnapshotDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}
