// Package store implements the quarantine store: durable, append-mostly
// storage keyed by category under a single root directory. Backup records
// and snapshots are located purely by directory + filename pattern; there
// is no index file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Category names one persisted resource area under the store root.
type Category string

const (
	CategoryAgents     Category = "agents"
	CategoryLoginItems Category = "login_items"
	CategoryPorts      Category = "ports"
	CategorySnapshots  Category = "snapshots"
)

// ErrNotFound is returned when a record is missing or its payload is corrupt.
var ErrNotFound = errors.New("record not found")

// timestampLayout is embedded in every record filename. Collisions within
// the same second get a monotonic counter suffix; records are never
// silently overwritten.
const timestampLayout = "20060102_150405"

// Record describes one stored backup or snapshot file.
type Record struct {
	// ID is the absolute file path. Used for read/delete.
	ID string

	// Category is the record's store category.
	Category Category

	// Name is the bare filename.
	Name string

	// Timestamp is parsed from the filename; zero when unparseable.
	Timestamp time.Time
}

// Store is the quarantine store rooted at a single directory.
// Single-process, single-session use is assumed; no locking.
type Store struct {
	root string

	// now is swappable for tests.
	now func() time.Time
}

// New returns a Store rooted at root. The directory tree is created
// lazily on first use.
func New(root string) *Store {
	return &Store{root: root, now: time.Now}
}

// Root returns the store root directory.
func (s *Store) Root() string { return s.root }

// FlatPath returns the path of a flat state file directly under the root
// (e.g. mdm_state.json, auto_remove_watchlist.json).
func (s *Store) FlatPath(name string) string {
	return filepath.Join(s.root, name)
}

// filePrefix returns the filename prefix for a category's records.
// Snapshots embed a "snapshot" marker instead of "backup".
func filePrefix(cat Category) string {
	if cat == CategorySnapshots {
		return "snapshot"
	}
	return string(cat) + "_backup"
}

// EnsureCategoryDir creates the category directory tree if absent and
// returns its path. Idempotent; a write failure (e.g. unwritable root)
// is surfaced, not retried.
func (s *Store) EnsureCategoryDir(cat Category) (string, error) {
	dir := filepath.Join(s.root, string(cat))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s directory: %w", cat, err)
	}
	return dir, nil
}

// WriteRecord serializes data as JSON to a new timestamped record file and
// returns its ID. Two writes within the same second do not collide: the
// second gets a counter suffix, preserving the append-only invariant.
func (s *Store) WriteRecord(cat Category, data interface{}) (string, error) {
	dir, err := s.EnsureCategoryDir(cat)
	if err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cannot serialize %s record: %w", cat, err)
	}

	base := fmt.Sprintf("%s_%s", filePrefix(cat), s.now().Format(timestampLayout))
	path, err := s.claimPath(dir, base, ".json")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("cannot write %s record: %w", cat, err)
	}
	return path, nil
}

// NewBackupDir creates a fresh timestamped directory under the category
// for file-moving quarantine (launch agents). Same-second collisions get
// a counter suffix.
func (s *Store) NewBackupDir(cat Category) (string, error) {
	dir, err := s.EnsureCategoryDir(cat)
	if err != nil {
		return "", err
	}

	base := "backup_" + s.now().Format(timestampLayout)
	path, err := s.claimPath(dir, base, "")
	if err != nil {
		return "", err
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		return "", fmt.Errorf("cannot create backup directory: %w", err)
	}
	return path, nil
}

// claimPath returns dir/base+ext, appending ".N" before ext until the name
// is unused. Bounded so a pathological directory cannot loop forever.
func (s *Store) claimPath(dir, base, ext string) (string, error) {
	path := filepath.Join(dir, base+ext)
	for n := 2; ; n++ {
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			return path, nil
		}
		if n > 10000 {
			return "", fmt.Errorf("cannot find free record name for %s", base)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s.%d%s", base, n, ext))
	}
}

// ListRecords returns the category's records, most recent first.
// A missing category directory yields an empty list, not an error.
func (s *Store) ListRecords(cat Category) ([]Record, error) {
	dir := filepath.Join(s.root, string(cat))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot list %s records: %w", cat, err)
	}

	prefix := filePrefix(cat) + "_"
	var records []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		records = append(records, Record{
			ID:        filepath.Join(dir, e.Name()),
			Category:  cat,
			Name:      e.Name(),
			Timestamp: parseRecordTime(e.Name(), prefix),
		})
	}

	// Timestamped names sort lexicographically; counter suffixes keep
	// same-second records in write order.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name > records[j].Name
	})
	return records, nil
}

// parseRecordTime extracts the embedded timestamp from a record filename.
func parseRecordTime(name, prefix string) time.Time {
	rest := strings.TrimPrefix(name, prefix)
	rest = strings.TrimSuffix(rest, ".json")
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		rest = rest[:i]
	}
	t, err := time.ParseInLocation(timestampLayout, rest, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ReadRecord deserializes the record at id into out. Missing files and
// corrupt payloads both yield an ErrNotFound-wrapped error so callers can
// surface them without crashing.
func (s *Store) ReadRecord(id string, out interface{}) error {
	data, err := os.ReadFile(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: corrupt record %s: %v", ErrNotFound, id, err)
	}
	return nil
}

// DeleteRecord removes a single record file.
func (s *Store) DeleteRecord(id string) error {
	if err := os.Remove(id); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("cannot delete record %s: %w", id, err)
	}
	return nil
}

// PurgeCategory removes every record (and backup directory) in a category.
// Best-effort: individual failures are collected, not fatal to the batch.
// Purging an empty or absent category succeeds with zero removed.
func (s *Store) PurgeCategory(cat Category) (removed int, errs []error) {
	dir := filepath.Join(s.root, string(cat))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, []error{fmt.Errorf("cannot read %s directory: %w", cat, err)}
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("cannot remove %s: %w", path, err))
			continue
		}
		removed++
	}
	return removed, errs
}

// Wipe removes the entire persisted-state root. Used by uninstall.
func (s *Store) Wipe() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("cannot remove %s: %w", s.root, err)
	}
	return nil
}
