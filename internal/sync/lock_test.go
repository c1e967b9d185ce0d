package sync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lockDirs(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	local := filepath.Join(base, "local")
	remote := filepath.Join(base, "remote")
	for _, dir := range []string{local, remote} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("creating replica dir: %v", err)
		}
	}
	return local, remote
}

func writeLock(t *testing.T, dir string, info lockInfo) {
	t.Helper()
	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("encoding lock info: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, LockFileName), data, 0o644); err != nil {
		t.Fatalf("writing lock file: %v", err)
	}
}

func TestLockAcquireRelease(t *testing.T) {
	local, remote := lockDirs(t)
	m := newLockManager(local, remote)

	if err := m.acquire(); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	for _, dir := range []string{local, remote} {
		data, err := os.ReadFile(filepath.Join(dir, LockFileName))
		if err != nil {
			t.Fatalf("lock file missing in %s: %v", dir, err)
		}
		var info lockInfo
		if err := json.Unmarshal(data, &info); err != nil {
			t.Fatalf("lock file not valid JSON: %v", err)
		}
		if info.ProcessID != os.Getpid() {
			t.Errorf("lock pid = %d, want %d", info.ProcessID, os.Getpid())
		}
		if _, err := parseLockTimestamp(info.Timestamp); err != nil {
			t.Errorf("lock timestamp unparseable: %v", err)
		}
	}

	m.release()
	for _, dir := range []string{local, remote} {
		if _, err := os.Stat(filepath.Join(dir, LockFileName)); !os.IsNotExist(err) {
			t.Errorf("lock file still present in %s after release", dir)
		}
	}

	// Release is idempotent.
	m.release()
}

func TestLockBusyWhenOwnerAlive(t *testing.T) {
	local, remote := lockDirs(t)
	writeLock(t, remote, lockInfo{
		ProcessID: os.Getpid(),
		Hostname:  "testhost",
		Timestamp: time.Now().Format(lockTimestampLayout),
	})

	m := newLockManager(local, remote)
	if err := m.acquire(); err != ErrBusy {
		t.Fatalf("acquire = %v, want ErrBusy", err)
	}

	// The loser must not leave a lock of its own behind.
	if _, err := os.Stat(filepath.Join(local, LockFileName)); !os.IsNotExist(err) {
		t.Error("busy acquisition left a local lock file")
	}
}

func TestLockReclaim(t *testing.T) {
	tests := []struct {
		name string
		info func() lockInfo
		raw  string
	}{
		{
			name: "stale timestamp",
			info: func() lockInfo {
				return lockInfo{
					ProcessID: os.Getpid(),
					Hostname:  "testhost",
					Timestamp: time.Now().Add(-31 * time.Minute).Format(lockTimestampLayout),
				}
			},
		},
		{
			name: "dead owner process",
			info: func() lockInfo {
				// PID max on Linux defaults well below this; the probe sees ESRCH.
				return lockInfo{
					ProcessID: 1 << 30,
					Hostname:  "testhost",
					Timestamp: time.Now().Format(lockTimestampLayout),
				}
			},
		},
		{
			name: "malformed lock file",
			raw:  "not json{",
		},
		{
			name: "unparseable timestamp",
			info: func() lockInfo {
				return lockInfo{ProcessID: os.Getpid(), Hostname: "testhost", Timestamp: "yesterday"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, remote := lockDirs(t)
			if tt.raw != "" {
				if err := os.WriteFile(filepath.Join(local, LockFileName), []byte(tt.raw), 0o644); err != nil {
					t.Fatalf("writing raw lock: %v", err)
				}
			} else {
				writeLock(t, local, tt.info())
			}

			m := newLockManager(local, remote)
			if err := m.acquire(); err != nil {
				t.Fatalf("acquire should reclaim: %v", err)
			}
			m.release()
		})
	}
}

func TestParseLockTimestampFormats(t *testing.T) {
	inputs := []string{
		"2026-01-15T10:30:00.123456",
		"2026-01-15T10:30:00",
		"2026-01-15T10:30:00Z",
		"2026-01-15T10:30:00+02:00",
	}
	for _, in := range inputs {
		if _, err := parseLockTimestamp(in); err != nil {
			t.Errorf("parseLockTimestamp(%q) failed: %v", in, err)
		}
	}
	if _, err := parseLockTimestamp("15/01/2026"); err == nil {
		t.Error("parseLockTimestamp accepted a non-ISO string")
	}
}
