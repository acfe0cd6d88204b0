package manager

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ianheil/macwatchdog-cli/internal/probe"
	"github.com/ianheil/macwatchdog-cli/internal/store"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// LoginItemManager backs up, removes, and restores login items through
// the System Events scripting bridge.
type LoginItemManager struct {
	store  *store.Store
	bridge probe.LoginItemBridge
	log    zerolog.Logger
}

func NewLoginItemManager(st *store.Store, bridge probe.LoginItemBridge, log zerolog.Logger) *LoginItemManager {
	return &LoginItemManager{store: st, bridge: bridge, log: log}
}

// List returns the current login items.
func (m *LoginItemManager) List() ([]types.LoginItem, error) {
	return m.bridge.List()
}

// Backup serializes the item to the quarantine store and returns the
// record ID. Call this before Remove for a backup-before-destroy
// guarantee; Remove does not verify a backup exists.
func (m *LoginItemManager) Backup(item types.LoginItem) (string, error) {
	id, err := m.store.WriteRecord(store.CategoryLoginItems, item)
	if err != nil {
		return "", err
	}
	if err := m.store.AppendTimeline(fmt.Sprintf("Backed up login item: %s", item.Name)); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return id, nil
}

// Remove deletes the login item by name. Removal proceeds even when no
// backup exists; it must stay possible after a failed backup, so the
// caller is responsible for warning the user.
func (m *LoginItemManager) Remove(name string) (bool, string) {
	if err := m.bridge.Remove(name); err != nil {
		return false, fmt.Sprintf("Failed to remove login item %q: %v", name, err)
	}
	if err := m.store.AppendTimeline(fmt.Sprintf("Removed login item: %s", name)); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return true, fmt.Sprintf("Login item %q removed.", name)
}

// Restore re-adds the item from a backup record by path. Fails when the
// original path no longer exists on disk.
func (m *LoginItemManager) Restore(recordID string) (bool, string) {
	var item types.LoginItem
	if err := m.store.ReadRecord(recordID, &item); err != nil {
		return false, fmt.Sprintf("Cannot read backup record: %v", err)
	}
	if item.Path == "" {
		err := &RestoreError{Reason: fmt.Sprintf("backup of %q has no path to restore from", item.Name)}
		return false, err.Error()
	}
	if _, statErr := os.Stat(item.Path); statErr != nil {
		err := &RestoreError{Reason: fmt.Sprintf("original path %s no longer exists", item.Path)}
		return false, err.Error()
	}
	if err := m.bridge.Add(item.Path); err != nil {
		restoreErr := &RestoreError{Reason: err.Error()}
		return false, restoreErr.Error()
	}
	if err := m.store.AppendTimeline(fmt.Sprintf("Restored login item: %s", item.Name)); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return true, fmt.Sprintf("Login item %q restored from %s.", item.Name, item.Path)
}

// Backups lists login-item backup records, most recent first.
func (m *LoginItemManager) Backups() ([]store.Record, error) {
	return m.store.ListRecords(store.CategoryLoginItems)
}
