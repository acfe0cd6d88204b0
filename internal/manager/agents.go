package manager

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ianheil/macwatchdog-cli/internal/config"
	"github.com/ianheil/macwatchdog-cli/internal/probe"
	"github.com/ianheil/macwatchdog-cli/internal/store"
	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// AgentManager quarantines suspicious launchd plists: it records file
// bytes and metadata in the store, then moves the file into a timestamped
// backup folder so launchd no longer loads it.
type AgentManager struct {
	cfg    *config.Config
	store  *store.Store
	runner probe.Runner
	log    zerolog.Logger
}

func NewAgentManager(cfg *config.Config, st *store.Store, r probe.Runner, log zerolog.Logger) *AgentManager {
	return &AgentManager{cfg: cfg, store: st, runner: r, log: log}
}

// agentRecord is the per-file backup payload written before the move.
type agentRecord struct {
	Agent      types.LaunchAgent `json:"agent"`
	SourcePath string            `json:"source_path"`
	Contents   []byte            `json:"contents"`
}

// Detect returns the currently flagged agents.
func (m *AgentManager) Detect() []types.LaunchAgent {
	return probe.DetectLaunchAgents(m.cfg, m.runner)
}

// Quarantine backs up and moves each agent into a fresh timestamped backup
// folder. Each file is handled independently: a record-write or move
// failure skips that file only. The move never happens before the record
// is durably written.
func (m *AgentManager) Quarantine(agents []types.LaunchAgent) (string, BatchResult, error) {
	var res BatchResult
	if len(agents) == 0 {
		return "", res, fmt.Errorf("%w: no agents to quarantine", ErrNoData)
	}

	backupDir, err := m.store.NewBackupDir(store.CategoryAgents)
	if err != nil {
		return "", res, err
	}

	for _, agent := range agents {
		if err := m.quarantineOne(agent, backupDir); err != nil {
			m.log.Debug().Str("agent", agent.Path).Err(err).Msg("quarantine failed")
			res.add(agent.Path, err)
			continue
		}
		res.add(agent.Path, nil)
	}

	if err := m.store.AppendTimeline(fmt.Sprintf("Quarantined agents: %s", res.Summary())); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return backupDir, res, nil
}

func (m *AgentManager) quarantineOne(agent types.LaunchAgent, backupDir string) error {
	contents, err := os.ReadFile(agent.Path)
	if err != nil {
		return fmt.Errorf("cannot read agent file: %w", err)
	}

	rec := agentRecord{Agent: agent, SourcePath: agent.Path, Contents: contents}
	if _, err := m.store.WriteRecord(store.CategoryAgents, rec); err != nil {
		return fmt.Errorf("backup record failed, refusing to move file: %w", err)
	}

	dest := filepath.Join(backupDir, filepath.Base(agent.Path))
	if err := moveFile(agent.Path, dest); err != nil {
		return fmt.Errorf("cannot move to quarantine: %w", err)
	}
	return nil
}

// QuarantinedFiles lists every file currently sitting in agent backup
// folders, newest folder first.
func (m *AgentManager) QuarantinedFiles() ([]string, error) {
	dir := filepath.Join(m.store.Root(), string(store.CategoryAgents))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.IsDir() {
			continue
		}
		sub, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		for _, f := range sub {
			files = append(files, filepath.Join(dir, e.Name(), f.Name()))
		}
	}
	return files, nil
}

// Restore moves quarantined files back to their original directory. The
// destination comes from the backup record when one matches the file's
// basename; otherwise it falls back to the LaunchAgents/LaunchDaemons
// substring heuristic on the quarantined path. Per-file failures are
// collected, not fatal.
func (m *AgentManager) Restore(paths []string) BatchResult {
	var res BatchResult
	sources := m.recordedSources()

	for _, path := range paths {
		dest := m.restoreDest(path, sources)
		if err := moveFile(path, filepath.Join(dest, filepath.Base(path))); err != nil {
			res.add(path, &RestoreError{Reason: err.Error()})
			continue
		}
		res.add(path, nil)
	}

	if err := m.store.AppendTimeline(fmt.Sprintf("Restored agents: %s", res.Summary())); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return res
}

// recordedSources maps quarantined basenames to their recorded original
// directories. Later records win, matching most-recent-first listing.
func (m *AgentManager) recordedSources() map[string]string {
	records, err := m.store.ListRecords(store.CategoryAgents)
	if err != nil {
		return nil
	}
	sources := make(map[string]string)
	for i := len(records) - 1; i >= 0; i-- {
		var rec agentRecord
		if err := m.store.ReadRecord(records[i].ID, &rec); err != nil {
			continue
		}
		sources[filepath.Base(rec.SourcePath)] = filepath.Dir(rec.SourcePath)
	}
	return sources
}

func (m *AgentManager) restoreDest(path string, sources map[string]string) string {
	if dir, ok := sources[filepath.Base(path)]; ok {
		return dir
	}
	if strings.Contains(path, "LaunchAgents") {
		return "/Library/LaunchAgents"
	}
	return "/Library/LaunchDaemons"
}

// Purge permanently deletes everything in the agents category, backup
// folders and records alike. Irreversible. Purging an empty category
// succeeds with zero removed.
func (m *AgentManager) Purge() (int, BatchResult) {
	removed, errs := m.store.PurgeCategory(store.CategoryAgents)

	var res BatchResult
	for _, err := range errs {
		res.add("purge", err)
	}
	if err := m.store.AppendTimeline(fmt.Sprintf("Purged agent quarantine: %d item(s) removed", removed)); err != nil {
		m.log.Debug().Err(err).Msg("timeline append failed")
	}
	return removed, res
}

// moveFile renames src to dst, copying across filesystems when rename
// fails.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
