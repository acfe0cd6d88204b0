package store

import (
	"fmt"
	"os"
)

// timelineName is the append-only action log under the store root.
const timelineName = "watchdog_timeline.log"

// AppendTimeline appends one timestamped event line to the timeline log.
// The log is never rewritten in place; only appended or wholly cleared.
func (s *Store) AppendTimeline(event string) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("cannot create store root: %w", err)
	}

	f, err := os.OpenFile(s.FlatPath(timelineName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open timeline log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", s.now().Format("2006-01-02 15:04:05"), event)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("cannot append to timeline log: %w", err)
	}
	return nil
}

// ReadTimeline returns the full timeline contents. A missing log reads
// as empty.
func (s *Store) ReadTimeline() (string, error) {
	data, err := os.ReadFile(s.FlatPath(timelineName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("cannot read timeline log: %w", err)
	}
	return string(data), nil
}

// ClearTimeline deletes the timeline log. Destructive; the caller is
// responsible for confirming with the user first.
func (s *Store) ClearTimeline() error {
	if err := os.Remove(s.FlatPath(timelineName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot clear timeline log: %w", err)
	}
	return nil
}
