// Package manager implements the resource managers for the four managed
// categories: launch agents, login items, port listeners, and
// configuration profiles. Every destructive path backs up to the
// quarantine store before mutating, and every operation returns an
// explicit result instead of surfacing internal errors to the caller.
package manager

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ianheil/macwatchdog-cli/internal/store"
)

var (
	// ErrNotFound means the resource or backup record does not exist.
	// Wraps the store sentinel so errors.Is works across both layers.
	ErrNotFound = store.ErrNotFound

	// ErrPermission means the operation needs elevated privilege or the
	// target is locked (MDM-protected, removal-disallowed).
	ErrPermission = errors.New("insufficient privilege or locked resource")

	// ErrNoData means there was nothing to back up. A no-backup-needed
	// condition, not a failure of the store.
	ErrNoData = errors.New("nothing to back up")
)

// RestoreError means a best-effort restore could not reconstruct the
// original state.
type RestoreError struct {
	Reason string
}

func (e *RestoreError) Error() string {
	return "restore failed: " + e.Reason
}

// ItemResult is the outcome for one item in a batch operation.
type ItemResult struct {
	Item string
	Err  error
}

// BatchResult aggregates per-item outcomes of a batch operation. A batch
// with failures is "succeeded with errors", never silently dropped.
type BatchResult struct {
	Items []ItemResult
}

func (r *BatchResult) add(item string, err error) {
	r.Items = append(r.Items, ItemResult{Item: item, Err: err})
}

// Succeeded returns the items that completed without error.
func (r BatchResult) Succeeded() []string {
	var out []string
	for _, it := range r.Items {
		if it.Err == nil {
			out = append(out, it.Item)
		}
	}
	return out
}

// Failed returns the items that errored.
func (r BatchResult) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

// OK reports whether every item succeeded.
func (r BatchResult) OK() bool {
	return len(r.Failed()) == 0
}

// Partial reports whether the batch had both successes and failures.
func (r BatchResult) Partial() bool {
	failed := len(r.Failed())
	return failed > 0 && failed < len(r.Items)
}

// Summary renders a one-line human-readable outcome.
func (r BatchResult) Summary() string {
	ok := len(r.Succeeded())
	failed := r.Failed()
	if len(failed) == 0 {
		return fmt.Sprintf("%d item(s) processed", ok)
	}
	parts := make([]string, 0, len(failed))
	for _, f := range failed {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Item, f.Err))
	}
	return fmt.Sprintf("%d item(s) processed, %d failed (%s)", ok, len(failed), strings.Join(parts, "; "))
}
