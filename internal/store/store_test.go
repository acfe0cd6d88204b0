package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "quarantine"))
}

func TestWriteRecord_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	id, err := s.WriteRecord(CategoryPorts, payload{Name: "node", N: 8080})
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(id), "ports_backup_")

	var got payload
	require.NoError(t, s.ReadRecord(id, &got))
	assert.Equal(t, "node", got.Name)
	assert.Equal(t, 8080, got.N)
}

func TestWriteRecord_SameSecondDoesNotOverwrite(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	s.now = func() time.Time { return fixed }

	first, err := s.WriteRecord(CategoryPorts, map[string]string{"which": "first"})
	require.NoError(t, err)
	second, err := s.WriteRecord(CategoryPorts, map[string]string{"which": "second"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "ports_backup_20250314_092653.json", filepath.Base(first))
	assert.Equal(t, "ports_backup_20250314_092653.2.json", filepath.Base(second))

	var got map[string]string
	require.NoError(t, s.ReadRecord(first, &got))
	assert.Equal(t, "first", got["which"])
	require.NoError(t, s.ReadRecord(second, &got))
	assert.Equal(t, "second", got["which"])
}

func TestListRecords_MostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return ts }
		_, err := s.WriteRecord(CategorySnapshots, map[string]int{"i": i})
		require.NoError(t, err)
	}

	records, err := s.ListRecords(CategorySnapshots)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "snapshot_20250314_090200.json", records[0].Name)
	assert.Equal(t, "snapshot_20250314_090000.json", records[2].Name)
	assert.Equal(t, base.Add(2*time.Minute), records[0].Timestamp)
}

func TestListRecords_MissingCategory(t *testing.T) {
	s := newTestStore(t)

	records, err := s.ListRecords(CategoryAgents)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadRecord_Missing(t *testing.T) {
	s := newTestStore(t)

	var out map[string]string
	err := s.ReadRecord(filepath.Join(s.Root(), "ports", "nope.json"), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadRecord_Corrupt(t *testing.T) {
	s := newTestStore(t)
	dir, err := s.EnsureCategoryDir(CategoryPorts)
	require.NoError(t, err)

	path := filepath.Join(dir, "ports_backup_20250101_000000.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var out map[string]string
	err = s.ReadRecord(path, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRecord(t *testing.T) {
	s := newTestStore(t)
	id, err := s.WriteRecord(CategoryLoginItems, map[string]string{"name": "Dropbox"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRecord(id))
	err = s.DeleteRecord(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeCategory_Idempotent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.WriteRecord(CategoryPorts, map[string]string{})
	require.NoError(t, err)
	_, err = s.NewBackupDir(CategoryPorts)
	require.NoError(t, err)

	removed, errs := s.PurgeCategory(CategoryPorts)
	assert.Empty(t, errs)
	assert.Equal(t, 2, removed)

	removed, errs = s.PurgeCategory(CategoryPorts)
	assert.Empty(t, errs)
	assert.Zero(t, removed)
}

func TestPurgeCategory_AbsentDir(t *testing.T) {
	s := newTestStore(t)

	removed, errs := s.PurgeCategory(CategorySnapshots)
	assert.Zero(t, removed)
	assert.Empty(t, errs)
}

func TestNewBackupDir_CollisionSuffix(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	s.now = func() time.Time { return fixed }

	first, err := s.NewBackupDir(CategoryAgents)
	require.NoError(t, err)
	second, err := s.NewBackupDir(CategoryAgents)
	require.NoError(t, err)

	assert.Equal(t, "backup_20250314_092653", filepath.Base(first))
	assert.Equal(t, "backup_20250314_092653.2", filepath.Base(second))

	info, err := os.Stat(second)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestTimeline_AppendReadClear(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	s.now = func() time.Time { return fixed }

	content, err := s.ReadTimeline()
	require.NoError(t, err)
	assert.Empty(t, content)

	require.NoError(t, s.AppendTimeline("Snapshot exported: snap1"))
	require.NoError(t, s.AppendTimeline("Closed port 8080"))

	content, err = s.ReadTimeline()
	require.NoError(t, err)
	assert.Equal(t,
		"[2025-03-14 09:26:53] Snapshot exported: snap1\n[2025-03-14 09:26:53] Closed port 8080\n",
		content)

	require.NoError(t, s.ClearTimeline())
	content, err = s.ReadTimeline()
	require.NoError(t, err)
	assert.Empty(t, content)

	// Clearing an already-empty timeline is fine.
	require.NoError(t, s.ClearTimeline())
}

func TestWipe(t *testing.T) {
	s := newTestStore(t)
	_, err := s.WriteRecord(CategoryPorts, map[string]string{})
	require.NoError(t, err)

	require.NoError(t, s.Wipe())
	_, statErr := os.Stat(s.Root())
	assert.True(t, os.IsNotExist(statErr))
}

func TestFlatPath(t *testing.T) {
	s := New("/tmp/q")
	assert.Equal(t, "/tmp/q/mdm_state.json", s.FlatPath("mdm_state.json"))
}
