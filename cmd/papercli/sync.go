package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/SXKDZ/papercli/internal/config"
	syncengine "github.com/SXKDZ/papercli/internal/sync"
	"github.com/SXKDZ/papercli/internal/types"
	"github.com/SXKDZ/papercli/internal/ui"
)

// phaseMessages maps engine phase tags to the lines shown to the user.
var phaseMessages = map[string]string{
	syncengine.PhaseCreatingRemoteDir:  "Creating remote directory...",
	syncengine.PhaseCheckingRemoteDB:   "Checking remote database...",
	syncengine.PhaseDetectingConflicts: "Detecting conflicts...",
	syncengine.PhaseResolvingConflicts: "Resolving conflicts...",
	syncengine.PhaseSyncingRecords:     "Synchronizing papers...",
	syncengine.PhaseSyncingCollections: "Synchronizing collections...",
	syncengine.PhaseSyncingArtifacts:   "Synchronizing PDF files...",
	syncengine.PhaseComplete:           "Sync complete",
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the local workspace with the remote replica",
	Long: `Synchronize the local workspace with the remote replica:
1. Lock both replicas against concurrent syncs
2. Match papers across replicas by content similarity
3. Detect and resolve conflicts
4. Propagate papers, collections, and PDF files in both directions

Conflicts are resolved interactively when attached to a terminal.
Use --prefer local|remote|keep-both for unattended resolution.
Use --auto for auto-sync mode (used by 'papercli watch').`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		remoteDir, _ := cmd.Flags().GetString("remote")
		autoSync, _ := cmd.Flags().GetBool("auto")
		prefer, _ := cmd.Flags().GetString("prefer")
		verbose, _ := cmd.Flags().GetBool("verbose")

		if remoteDir == "" {
			remoteDir = config.GetString("remote-path")
		}
		if remoteDir == "" {
			return fmt.Errorf("no remote path configured (set remote-path or pass --remote)")
		}
		if prefer == "" {
			prefer = config.GetString("prefer")
		}

		localDir := config.GetString("data-dir")
		result, err := runSync(localDir, remoteDir, autoSync, prefer, verbose)
		if err != nil {
			return err
		}
		printResult(result, verbose)
		return nil
	},
}

// runSync guards the engine invocation with a host-level flock so a second
// CLI invocation on this machine fails at once with one error instead of
// racing the advisory lock artifacts.
func runSync(localDir, remoteDir string, autoSync bool, prefer string, verbose bool) (*syncengine.Result, error) {
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	lock := flock.New(filepath.Join(localDir, ".sync.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring sync lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another sync is in progress")
	}
	defer func() { _ = lock.Unlock() }()

	resolver, err := buildResolver(prefer)
	if err != nil {
		return nil, err
	}

	logFn, closeLog := traceLogger()
	defer closeLog()

	engine := syncengine.New(localDir, remoteDir, syncengine.Options{
		Progress: printProgress,
		Log:      logFn,
		Resolver: resolver,
	})
	return engine.Sync(rootCtx, autoSync)
}

// buildResolver picks the conflict resolver: a fixed preference when given,
// the interactive form on a TTY, and none otherwise (conflicts are then
// reported unresolved).
func buildResolver(prefer string) (syncengine.Resolver, error) {
	switch prefer {
	case "":
		if ui.IsTerminal() {
			return interactiveResolver(), nil
		}
		return nil, nil
	case "local":
		return syncengine.FixedResolver(types.DecisionLocal), nil
	case "remote":
		return syncengine.FixedResolver(types.DecisionRemote), nil
	case "keep-both":
		return syncengine.FixedResolver(types.DecisionKeepBoth), nil
	default:
		return nil, fmt.Errorf("invalid --prefer value %q (want local, remote, or keep-both)", prefer)
	}
}

func printProgress(phase string, counts *syncengine.Progress) {
	msg, ok := phaseMessages[phase]
	if !ok {
		msg = phase
	}
	if phase == syncengine.PhaseComplete {
		return // the summary line follows
	}
	if counts != nil && counts.PapersTotal > 0 {
		fmt.Println(ui.Step("%s (%d papers, %d collections)", msg, counts.PapersTotal, counts.CollectionsTotal))
		return
	}
	fmt.Println(ui.Step("%s", msg))
}

func printResult(result *syncengine.Result, verbose bool) {
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, ui.Warning("%s", e))
	}

	if result.HasConflicts() {
		fmt.Println(ui.Warning("%d conflicts need resolution:", len(result.Conflicts)))
		for _, c := range result.Conflicts {
			fmt.Println(ui.Detail("%s '%s': %d fields differ", c.Kind, c.ItemID, len(c.Differences)))
		}
	}

	if verbose {
		for _, line := range result.Detailed.PapersAdded {
			fmt.Println(ui.Detail("added %s", line))
		}
		for _, line := range result.Detailed.PapersUpdated {
			fmt.Println(ui.Detail("updated %s", line))
		}
		for _, line := range result.Detailed.CollectionsAdded {
			fmt.Println(ui.Detail("added collection %s", line))
		}
		for _, line := range result.Detailed.CollectionsUpdated {
			fmt.Println(ui.Detail("updated collection %s", line))
		}
	}

	fmt.Println(ui.Success("%s", result.Summary()))
}

func init() {
	syncCmd.Flags().String("remote", "", "Remote replica directory (default: remote-path config)")
	syncCmd.Flags().Bool("auto", false, "Auto-sync mode")
	syncCmd.Flags().String("prefer", "", "Resolve all conflicts with a fixed decision: local, remote, or keep-both")
	syncCmd.Flags().BoolP("verbose", "v", false, "Print per-item change details")
	rootCmd.AddCommand(syncCmd)
}
