package manager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianheil/macwatchdog-cli/internal/probe"
	"github.com/ianheil/macwatchdog-cli/internal/store"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

var testListeners = []types.PortListener{
	{Process: "node", Port: "*:8080", PID: 100},
	{Process: "postgres", Port: "127.0.0.1:5432", PID: 200},
}

func newTestPortManager(st *store.Store, listeners []types.PortListener) (*PortManager, *[]int32) {
	var terminated []int32
	m := NewPortManager(st, &fakeRunner{}, nopLog())
	m.list = func(probe.Runner) ([]types.PortListener, error) {
		return listeners, nil
	}
	m.terminate = func(pid int32) error {
		terminated = append(terminated, pid)
		return nil
	}
	return m, &terminated
}

func TestPortBackupState(t *testing.T) {
	st := newTestStore(t)
	m, _ := newTestPortManager(st, testListeners)

	id, err := m.BackupState()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var saved []types.PortListener
	require.NoError(t, st.ReadRecord(id, &saved))
	assert.Equal(t, testListeners, saved)

	timeline, err := st.ReadTimeline()
	require.NoError(t, err)
	assert.Contains(t, timeline, "Backed up port state: 2 listener(s)")
}

func TestPortBackupState_NoListeners(t *testing.T) {
	m, _ := newTestPortManager(newTestStore(t), nil)

	_, err := m.BackupState()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPortClose_BacksUpThenTerminates(t *testing.T) {
	st := newTestStore(t)
	m, terminated := newTestPortManager(st, testListeners)

	ok, msg := m.Close("8080")
	assert.True(t, ok)
	assert.Contains(t, msg, "node")
	assert.Equal(t, []int32{100}, *terminated)

	// The full listener table was backed up before the terminate.
	records, err := st.ListRecords(store.CategoryPorts)
	require.NoError(t, err)
	require.Len(t, records, 1)

	var saved []types.PortListener
	require.NoError(t, st.ReadRecord(records[0].ID, &saved))
	assert.Len(t, saved, 2)
}

func TestPortClose_MatchesAddressedPort(t *testing.T) {
	m, terminated := newTestPortManager(newTestStore(t), testListeners)

	ok, msg := m.Close("5432")
	assert.True(t, ok)
	assert.Contains(t, msg, "postgres")
	assert.Equal(t, []int32{200}, *terminated)
}

func TestPortClose_NoListenerOnPort(t *testing.T) {
	m, terminated := newTestPortManager(newTestStore(t), testListeners)

	ok, msg := m.Close("9999")
	assert.False(t, ok)
	assert.Contains(t, msg, "No process found listening on port 9999")
	assert.Empty(t, *terminated)
}

func TestPortClose_AbortsWhenBackupFails(t *testing.T) {
	// A store rooted at a regular file cannot persist records.
	badRoot := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(badRoot, []byte("x"), 0o644))
	st := store.New(badRoot)

	m, terminated := newTestPortManager(st, testListeners)

	ok, msg := m.Close("8080")
	assert.False(t, ok)
	assert.Contains(t, msg, "refusing to close port 8080")
	assert.Empty(t, *terminated)
}

func TestPortRestoreState_ExecutableNotOnPath(t *testing.T) {
	st := newTestStore(t)
	m, _ := newTestPortManager(st, nil)

	id, err := st.WriteRecord(store.CategoryPorts, []types.PortListener{
		{Process: "macwatchdog-no-such-binary", Port: "*:9999", PID: 42},
	})
	require.NoError(t, err)

	ok, msg, res := m.RestoreState(id)
	assert.False(t, ok)
	assert.Contains(t, msg, "No processes could be restored")
	require.Len(t, res.Failed(), 1)
	assert.ErrorIs(t, res.Failed()[0].Err, ErrNotFound)
}

func TestPortRestoreState_DedupsByProcessName(t *testing.T) {
	st := newTestStore(t)
	m, _ := newTestPortManager(st, nil)

	id, err := st.WriteRecord(store.CategoryPorts, []types.PortListener{
		{Process: "macwatchdog-no-such-binary", Port: "*:8080", PID: 1},
		{Process: "macwatchdog-no-such-binary", Port: "*:8081", PID: 2},
	})
	require.NoError(t, err)

	_, _, res := m.RestoreState(id)
	assert.Len(t, res.Items, 1)
}

func TestPortRestoreState_RelaunchesByName(t *testing.T) {
	st := newTestStore(t)
	m, _ := newTestPortManager(st, nil)

	id, err := st.WriteRecord(store.CategoryPorts, []types.PortListener{
		{Process: "true", Port: "*:9999", PID: 42},
	})
	require.NoError(t, err)

	ok, msg, res := m.RestoreState(id)
	assert.True(t, ok)
	assert.Contains(t, msg, "Restarted 1 process(es)")
	assert.True(t, res.OK())
}

func TestPortRestoreState_MissingRecord(t *testing.T) {
	m, _ := newTestPortManager(newTestStore(t), nil)

	ok, msg, _ := m.RestoreState(filepath.Join(t.TempDir(), "nope.json"))
	assert.False(t, ok)
	assert.Contains(t, msg, "Cannot read backup record")
}

func TestMatchPort(t *testing.T) {
	l, ok := matchPort(testListeners, "*:8080")
	assert.True(t, ok)
	assert.Equal(t, "node", l.Process)

	_, ok = matchPort(testListeners, "80")
	assert.False(t, ok, "suffix match must not treat 80 as 8080")

	_, ok = matchPort(nil, "8080")
	assert.False(t, ok)
}
