// papercli synchronizes a local reference-manager workspace with a remote
// replica (a mounted directory, network share, or cloud-synced folder).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/SXKDZ/papercli/internal/config"
	syncengine "github.com/SXKDZ/papercli/internal/sync"
	"github.com/SXKDZ/papercli/internal/ui"
)

var version = "dev"

var rootCtx = context.Background()

var rootCmd = &cobra.Command{
	Use:   "papercli",
	Short: "Personal reference manager replica sync",
	Long: `papercli keeps two reference-manager replicas in sync: a local
workspace and a remote one on a mounted or cloud-synced directory.

Each replica holds a papers.db relational store and a pdfs/ directory of
artifact files. Records are matched across replicas by content similarity,
conflicts are resolved interactively or with a fixed preference, and
artifacts are deduplicated by content hash.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := config.Initialize(); err != nil {
			return err
		}
		ui.Configure(config.GetBool("no-color"))
		return nil
	},
}

// FatalError prints a styled error and exits.
func FatalError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ui.Error(format, args...))
	os.Exit(1)
}

// traceLogger returns the engine's log callback, backed by a rotating file
// under the data directory. The engine never inspects the sink; returning a
// closer lets the command flush on exit.
func traceLogger() (syncengine.LogFunc, func()) {
	logDir := filepath.Join(config.GetString("data-dir"), "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		// Tracing is best-effort; sync proceeds without it.
		return func(string, string) {}, func() {}
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "sync.log"),
		MaxSize:    config.GetInt("log-max-size-mb"),
		MaxBackups: config.GetInt("log-max-backups"),
	}
	logFn := func(event, details string) {
		fmt.Fprintf(w, "%s: %s\n", event, details)
	}
	return logFn, func() { _ = w.Close() }
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		FatalError("%v", err)
	}
}
