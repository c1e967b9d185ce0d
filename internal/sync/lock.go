package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LockFileName is the advisory lock artifact kept at the root of each
// replica directory. Other tools must treat its contents as opaque.
const LockFileName = ".papercli_sync.lock"

// staleLockAge is how old a lock artifact may be before any caller may
// reclaim it regardless of owner liveness.
const staleLockAge = 30 * time.Minute

// ErrBusy is returned when another sync holds a live lock on either
// replica.
var ErrBusy = errors.New("another sync operation is already in progress")

// lockInfo is the JSON payload of a lock artifact. Timestamp is a naive
// local ISO-8601 string, the format existing deployments write.
type lockInfo struct {
	ProcessID int    `json:"process_id"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"timestamp"`
}

// lockTimestampLayout is the write-side timestamp format.
const lockTimestampLayout = "2006-01-02T15:04:05.000000"

// lockTimestampLayouts are accepted on read: naive with and without
// fractional seconds, and timezone-aware RFC 3339 variants.
var lockTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

func parseLockTimestamp(s string) (time.Time, error) {
	for _, layout := range lockTimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized lock timestamp %q", s)
}

// lockManager guards a replica pair with advisory lock artifacts. The
// artifacts are cooperative: they exclude other papercli syncs, not
// arbitrary writers.
type lockManager struct {
	lockPaths []string
}

func newLockManager(localDir, remoteDir string) *lockManager {
	return &lockManager{
		// Local before remote: every caller checks in the same order.
		lockPaths: []string{
			filepath.Join(localDir, LockFileName),
			filepath.Join(remoteDir, LockFileName),
		},
	}
}

// acquire checks both sides for live locks, reclaiming stale or dead ones,
// then writes a fresh artifact on each side. Returns ErrBusy when a live
// lock is found; any artifact written before a failure is rolled back.
func (m *lockManager) acquire() error {
	if err := m.checkExisting(); err != nil {
		return err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	payload, err := json.Marshal(lockInfo{
		ProcessID: os.Getpid(),
		Hostname:  hostname,
		Timestamp: time.Now().Format(lockTimestampLayout),
	})
	if err != nil {
		return fmt.Errorf("encoding lock info: %w", err)
	}

	for _, path := range m.lockPaths {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			m.release()
			return fmt.Errorf("creating replica directory: %w", err)
		}
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			m.release()
			return fmt.Errorf("writing lock file %s: %w", path, err)
		}
	}
	return nil
}

// checkExisting inspects both lock artifacts in order. Malformed, stale,
// and dead-owner locks are removed; a live lock aborts with ErrBusy.
func (m *lockManager) checkExisting() error {
	for _, path := range m.lockPaths {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			// Unreadable lock: treat as stale.
			_ = os.Remove(path)
			continue
		}

		var info lockInfo
		if err := json.Unmarshal(data, &info); err != nil {
			_ = os.Remove(path)
			continue
		}

		created, err := parseLockTimestamp(info.Timestamp)
		if err != nil || time.Since(created) > staleLockAge {
			_ = os.Remove(path)
			continue
		}

		if info.ProcessID > 0 && processAlive(info.ProcessID) {
			return ErrBusy
		}
		// Owner is gone; reclaim.
		_ = os.Remove(path)
	}
	return nil
}

// release removes both artifacts. Best-effort and idempotent: the artifacts
// are advisory, so removal failures are swallowed.
func (m *lockManager) release() {
	for _, path := range m.lockPaths {
		_ = os.Remove(path)
	}
}
