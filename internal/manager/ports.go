package manager

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/ianheil/macwatchdog-cli/internal/probe"
	"github.com/ianheil/macwatchdog-cli/internal/store"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// PortManager backs up the network listener table and can terminate the
// process bound to a port. Listener identity is racy: PIDs recycle, so
// Close re-resolves the PID immediately before signaling.
type PortManager struct {
	store  *store.Store
	runner probe.Runner
	log    zerolog.Logger

	// list and terminate are swappable for tests.
	list      func(probe.Runner) ([]types.PortListener, error)
	terminate func(pid int32) error
}

func NewPortManager(st *store.Store, r probe.Runner, log zerolog.Logger) *PortManager {
	return &PortManager{
		store:     st,
		runner:    r,
		log:       log,
		list:      probe.ListListeners,
		terminate: terminateProcess,
	}
}

func terminateProcess(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	return p.Terminate()
}

// List returns the current network listeners.
func (m *PortManager) List() ([]types.PortListener, error) {
	return m.list(m.runner)
}

// BackupState snapshots the listener table to the store. Only identifying
// metadata is preserved, not process state. Returns ErrNoData when there
// are no listeners.
func (m *PortManager) BackupState() (string, error) {
	listeners, err := m.list(m.runner)
	if err != nil {
		return "", err
	}
	if len(listeners) == 0 {
		return "", fmt.Errorf("%w: no listeners to back up", ErrNoData)
	}

	id, err := m.store.WriteRecord(store.CategoryPorts, listeners)
	if err != nil {
		return "", err
	}
	if err := m.store.AppendTimeline(fmt.Sprintf("Backed up port state: %d listener(s)", len(listeners))); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return id, nil
}

// Close terminates the process currently bound to port. The PID comes
// from a fresh lookup, not any cached listing, and the listener table is
// backed up first. A failed backup aborts the close: termination is
// irreversible, so backup-before-destroy is non-negotiable here.
func (m *PortManager) Close(port string) (bool, string) {
	listeners, err := m.list(m.runner)
	if err != nil {
		return false, fmt.Sprintf("Cannot list listeners: %v", err)
	}

	target, ok := matchPort(listeners, port)
	if !ok {
		return false, fmt.Sprintf("No process found listening on port %s.", port)
	}

	if _, err := m.BackupState(); err != nil {
		return false, fmt.Sprintf("Backup failed, refusing to close port %s: %v", port, err)
	}

	if err := m.terminate(target.PID); err != nil {
		return false, fmt.Sprintf("Failed to terminate %s (PID %d): %v", target.Process, target.PID, err)
	}
	if err := m.store.AppendTimeline(fmt.Sprintf("Closed port %s (%s, PID %d)", port, target.Process, target.PID)); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return true, fmt.Sprintf("Terminated %s (PID %d) listening on %s.", target.Process, target.PID, target.Port)
}

// matchPort finds the listener bound to port. The stored Port field may
// carry an address prefix ("*:8080"), so a bare port number matches on
// the ":port" suffix.
func matchPort(listeners []types.PortListener, port string) (types.PortListener, bool) {
	for _, l := range listeners {
		if l.Port == port || strings.HasSuffix(l.Port, ":"+port) {
			return l, true
		}
	}
	return types.PortListener{}, false
}

// RestoreState relaunches each backed-up process by bare executable name
// on the search path. No arguments, working directory, or environment
// are restored: this is a deliberately weak guarantee. Overall success
// requires at least one entry restored.
func (m *PortManager) RestoreState(recordID string) (bool, string, BatchResult) {
	var listeners []types.PortListener
	var res BatchResult
	if err := m.store.ReadRecord(recordID, &listeners); err != nil {
		return false, fmt.Sprintf("Cannot read backup record: %v", err), res
	}

	seen := make(map[string]struct{})
	restored := 0
	for _, l := range listeners {
		if _, dup := seen[l.Process]; dup {
			continue
		}
		seen[l.Process] = struct{}{}

		path, err := exec.LookPath(l.Process)
		if err != nil {
			res.add(l.Process, fmt.Errorf("%w: executable not on PATH", ErrNotFound))
			continue
		}
		if err := exec.Command(path).Start(); err != nil {
			res.add(l.Process, &RestoreError{Reason: err.Error()})
			continue
		}
		res.add(l.Process, nil)
		restored++
	}

	if err := m.store.AppendTimeline(fmt.Sprintf("Restored port state: %s", res.Summary())); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	if restored == 0 {
		return false, "No processes could be restored.", res
	}
	return true, fmt.Sprintf("Restarted %d process(es).", restored), res
}

// Backups lists port-state backup records, most recent first.
func (m *PortManager) Backups() ([]store.Record, error) {
	return m.store.ListRecords(store.CategoryPorts)
}
