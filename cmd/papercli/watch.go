package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/SXKDZ/papercli/internal/config"
	syncengine "github.com/SXKDZ/papercli/internal/sync"
	"github.com/SXKDZ/papercli/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the local workspace and auto-sync on changes",
	Long: `Watch the local workspace for changes to the database or PDF
directory and trigger an auto-mode sync after a quiet period. Conflicts are
resolved with the configured prefer setting; without one they are resolved
interactively when attached to a terminal and left unresolved otherwise.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		remoteDir, _ := cmd.Flags().GetString("remote")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		if remoteDir == "" {
			remoteDir = config.GetString("remote-path")
		}
		if remoteDir == "" {
			return fmt.Errorf("no remote path configured (set remote-path or pass --remote)")
		}
		localDir := config.GetString("data-dir")

		return watchAndSync(localDir, remoteDir, debounce)
	},
}

// watchAndSync blocks, debouncing filesystem events under the workspace
// into auto-mode syncs, until interrupted.
func watchAndSync(localDir, remoteDir string, debounce time.Duration) error {
	if err := os.MkdirAll(filepath.Join(localDir, syncengine.PDFDirName), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(localDir); err != nil {
		return fmt.Errorf("watching %s: %w", localDir, err)
	}
	if err := watcher.Add(filepath.Join(localDir, syncengine.PDFDirName)); err != nil {
		return fmt.Errorf("watching pdf directory: %w", err)
	}

	trigger := newDebouncer(debounce, func() {
		prefer := config.GetString("prefer")
		result, err := runSync(localDir, remoteDir, true, prefer, false)
		if err != nil {
			fmt.Fprintln(os.Stderr, ui.Warning("auto-sync: %v", err))
			return
		}
		fmt.Println(ui.Success("%s", result.Summary()))
	})
	defer trigger.stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	fmt.Println(ui.Step("Watching %s (debounce %s)", localDir, debounce))
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isWatchRelevant(event) {
				trigger.bump()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, ui.Warning("watcher: %v", err))
		case <-stop:
			fmt.Println(ui.Success("Watch stopped"))
			return nil
		}
	}
}

// isWatchRelevant filters out chmod noise, lock-file churn, and other
// dot-files. Writes a sync makes to papers.db or the PDF directory still
// count as changes.
func isWatchRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	if name == syncengine.LockFileName || name == ".sync.lock" {
		return false
	}
	return !strings.HasPrefix(name, ".") || name == ".papercli"
}

// debouncer coalesces bursts of bumps into one callback after a quiet
// period.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fn    func()
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) bump() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func init() {
	watchCmd.Flags().String("remote", "", "Remote replica directory (default: remote-path config)")
	watchCmd.Flags().Duration("debounce", 5*time.Second, "Quiet period before an auto-sync fires")
	rootCmd.AddCommand(watchCmd)
}
