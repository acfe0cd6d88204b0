package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

func TestLoginItemBackupRestore_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	bridge := &fakeBridge{}
	m := NewLoginItemManager(st, bridge, nopLog())

	script := filepath.Join(t.TempDir(), "backup.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755))

	item := types.LoginItem{Name: "BackupScript", Path: script, Kind: types.LoginItemScript}
	id, err := m.Backup(item)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	ok, msg := m.Restore(id)
	assert.True(t, ok)
	assert.Contains(t, msg, "BackupScript")
	assert.Equal(t, []string{script}, bridge.added)
}

func TestLoginItemRestore_OriginalPathGone(t *testing.T) {
	st := newTestStore(t)
	m := NewLoginItemManager(st, &fakeBridge{}, nopLog())

	item := types.LoginItem{
		Name: "Ghost",
		Path: filepath.Join(t.TempDir(), "gone.app"),
		Kind: types.LoginItemApplication,
	}
	id, err := m.Backup(item)
	require.NoError(t, err)

	ok, msg := m.Restore(id)
	assert.False(t, ok)
	assert.Contains(t, msg, "no longer exists")
}

func TestLoginItemRestore_BackupWithoutPath(t *testing.T) {
	st := newTestStore(t)
	m := NewLoginItemManager(st, &fakeBridge{}, nopLog())

	id, err := m.Backup(types.LoginItem{Name: "NamelessPath", Kind: types.LoginItemScript})
	require.NoError(t, err)

	ok, msg := m.Restore(id)
	assert.False(t, ok)
	assert.Contains(t, msg, "has no path")
}

func TestLoginItemRestore_MissingRecord(t *testing.T) {
	st := newTestStore(t)
	m := NewLoginItemManager(st, &fakeBridge{}, nopLog())

	ok, msg := m.Restore(filepath.Join(t.TempDir(), "nope.json"))
	assert.False(t, ok)
	assert.Contains(t, msg, "Cannot read backup record")
}

func TestLoginItemRemove(t *testing.T) {
	st := newTestStore(t)
	bridge := &fakeBridge{}
	m := NewLoginItemManager(st, bridge, nopLog())

	ok, msg := m.Remove("Dropbox")
	assert.True(t, ok)
	assert.Contains(t, msg, "Dropbox")
	assert.Equal(t, []string{"Dropbox"}, bridge.removed)

	timeline, err := st.ReadTimeline()
	require.NoError(t, err)
	assert.Contains(t, timeline, "Removed login item: Dropbox")
}

func TestLoginItemRemove_BridgeFailure(t *testing.T) {
	bridge := &fakeBridge{removeErr: fmt.Errorf("System Events got an error")}
	m := NewLoginItemManager(newTestStore(t), bridge, nopLog())

	ok, msg := m.Remove("Dropbox")
	assert.False(t, ok)
	assert.Contains(t, msg, "Failed to remove")
}

func TestLoginItemList_PassesThrough(t *testing.T) {
	bridge := &fakeBridge{items: []types.LoginItem{
		{Name: "Dropbox", Path: "/Applications/Dropbox.app", Kind: types.LoginItemApplication},
	}}
	m := NewLoginItemManager(newTestStore(t), bridge, nopLog())

	items, err := m.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Dropbox", items[0].Name)
}
