// Package lock provides the file-based exclusion lock that prevents two
// ingestion runs from overlapping. The marker file is an external,
// process-visible artifact: it works across process restarts and is shared
// between the API process (which reports busy state) and the worker (which
// releases it when a run finishes).
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// PullLock guards the ingestion pipeline with a single marker file.
// The marker present means a run is active; absent means the system is
// idle. TryStart is the only racing entry point and is atomic via
// O_CREATE|O_EXCL.
type PullLock struct {
	path string

	// ttl, when positive, lets TryStart reclaim a marker older than this
	// duration. The original behavior has no expiry; a crashed run then
	// requires a manual clear, so the TTL is an opt-in hardening knob.
	ttl time.Duration
}

// New creates a PullLock over the marker file at path. A zero ttl disables
// stale-marker reclaim.
func New(path string, ttl time.Duration) *PullLock {
	return &PullLock{path: path, ttl: ttl}
}

// TryStart attempts to acquire the lock by creating the marker file.
// Returns true if this caller newly acquired it, false if another run
// already holds it. Among concurrent callers exactly one observes true.
func (l *PullLock) TryStart() (bool, error) {
	acquired, err := l.create()
	if err != nil || acquired {
		return acquired, err
	}

	// Marker already present. Reclaim it only when a TTL is configured
	// and the marker has clearly gone stale.
	if l.ttl <= 0 {
		return false, nil
	}

	info, err := os.Stat(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Holder released between our create attempt and the stat;
			// race again.
			return l.create()
		}
		return false, fmt.Errorf("failed to stat lock marker: %w", err)
	}

	if time.Since(info.ModTime()) < l.ttl {
		return false, nil
	}

	// Remove the stale marker and retry the atomic create. A concurrent
	// reclaimer may win the retry; that is still exactly one winner.
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to remove stale lock marker: %w", err)
	}
	return l.create()
}

// Stop releases the lock by removing the marker file. Removing an
// already-absent marker is not an error, so Stop may be called from every
// exit path without bookkeeping.
func (l *PullLock) Stop() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock marker: %w", err)
	}
	return nil
}

// IsRunning reports whether an ingestion run currently holds the lock.
func (l *PullLock) IsRunning() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// create performs the atomic create-if-absent. Returns true when this call
// created the marker.
func (l *PullLock) create() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create lock marker: %w", err)
	}

	// Contents are informational only; presence is what matters.
	_, writeErr := fmt.Fprintf(f, "running since %s\n", time.Now().UTC().Format(time.RFC3339))
	closeErr := f.Close()
	if writeErr != nil {
		return true, fmt.Errorf("failed to write lock marker: %w", writeErr)
	}
	if closeErr != nil {
		return true, fmt.Errorf("failed to close lock marker: %w", closeErr)
	}
	return true, nil
}
