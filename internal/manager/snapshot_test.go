package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

func newTestSnapshotManager(t *testing.T, r *fakeRunner) (*SnapshotManager, *ProfileManager) {
	t.Helper()
	profiles := newTestProfileManager(t, r)
	return NewSnapshotManager(profiles.store, profiles, nopLog()), profiles
}

func snapshotOf(ids ...string) types.Snapshot {
	var snap types.Snapshot
	for _, id := range ids {
		snap.Profiles = append(snap.Profiles, types.ConfigProfile{Identifier: id})
	}
	return snap
}

func TestDiffSnapshots(t *testing.T) {
	a := snapshotOf("com.a", "com.b")
	b := snapshotOf("com.b", "com.c", "com.d")

	diff := DiffSnapshots(a, b)
	assert.Equal(t, []string{"com.c", "com.d"}, diff.Added)
	assert.Equal(t, []string{"com.a"}, diff.Removed)
	assert.False(t, diff.Empty())
}

func TestDiffSnapshots_SelfIsEmpty(t *testing.T) {
	a := snapshotOf("com.a", "com.b")

	diff := DiffSnapshots(a, a)
	assert.True(t, diff.Empty())
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
}

func TestDiffSnapshots_IgnoresIdentifierless(t *testing.T) {
	a := snapshotOf("com.a")
	b := snapshotOf("com.a", "")

	diff := DiffSnapshots(a, b)
	assert.True(t, diff.Empty())
}

func TestSnapshotTakeAndDiff(t *testing.T) {
	r := profilesRunner(map[string]fakeResponse{
		"profiles status -type enrollment": {stdout: "MDM enrollment: No\n"},
	})
	m, _ := newTestSnapshotManager(t, r)

	idA, snapA, err := m.Take()
	require.NoError(t, err)
	assert.Len(t, snapA.Profiles, 2)
	assert.Equal(t, "MDM enrollment: No", snapA.MDM)
	assert.False(t, snapA.Timestamp.IsZero())

	// The MDM profile disappears before the second snapshot.
	r.responses["profiles list -all"] = fakeResponse{stdout: `profileIdentifier: com.corp.vpn.config
profileDisplayName: Corp VPN
PayloadType: com.apple.vpn.managed
`}
	idB, snapB, err := m.Take()
	require.NoError(t, err)
	assert.Len(t, snapB.Profiles, 1)

	diff, err := m.Diff(idA, idB)
	require.NoError(t, err)
	assert.Empty(t, diff.Added)
	assert.Equal(t, []string{"com.mdm.enroll"}, diff.Removed)

	timeline, err := m.store.ReadTimeline()
	require.NoError(t, err)
	assert.Contains(t, timeline, "Compared snapshots")
	assert.Contains(t, timeline, "removed: com.mdm.enroll")
}

func TestSnapshotDiff_MissingRecord(t *testing.T) {
	r := profilesRunner(map[string]fakeResponse{
		"profiles status -type enrollment": {stdout: "MDM enrollment: No\n"},
	})
	m, _ := newTestSnapshotManager(t, r)

	id, _, err := m.Take()
	require.NoError(t, err)

	_, err = m.Diff(id, "/no/such/record.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotReadBack(t *testing.T) {
	r := profilesRunner(map[string]fakeResponse{
		"profiles status -type enrollment": {stdout: "MDM enrollment: No\n"},
	})
	m, _ := newTestSnapshotManager(t, r)

	id, taken, err := m.Take()
	require.NoError(t, err)

	read, err := m.Read(id)
	require.NoError(t, err)
	assert.Equal(t, len(taken.Profiles), len(read.Profiles))
	assert.Equal(t, taken.MDM, read.MDM)

	records, err := m.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
}

func TestSnapshotClear_Idempotent(t *testing.T) {
	r := profilesRunner(map[string]fakeResponse{
		"profiles status -type enrollment": {stdout: "MDM enrollment: No\n"},
	})
	m, _ := newTestSnapshotManager(t, r)

	_, _, err := m.Take()
	require.NoError(t, err)

	removed, errs := m.Clear()
	assert.Empty(t, errs)
	assert.Equal(t, 1, removed)

	removed, errs = m.Clear()
	assert.Empty(t, errs)
	assert.Zero(t, removed)
}
