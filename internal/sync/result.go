// Package sync implements bidirectional replica synchronization for
// papercli workspaces: content-similarity record matching, conflict
// detection and resolution, record/collection propagation, and
// content-addressed artifact deduplication between a local and a remote
// replica directory.
package sync

import (
	"fmt"
	"strings"

	"github.com/SXKDZ/papercli/internal/types"
)

// Progress carries phase counters. When a progress callback receives a
// non-nil Progress it supersedes all previously reported counters.
type Progress struct {
	PapersTotal          int
	PapersProcessed      int
	CollectionsTotal     int
	CollectionsProcessed int
	PDFsTotal            int
	PDFsProcessed        int
}

// Phase identifiers passed to the progress callback, in invocation order.
const (
	PhaseCreatingRemoteDir  = "creating-remote-dir"
	PhaseCheckingRemoteDB   = "checking-remote-db"
	PhaseDetectingConflicts = "detecting-conflicts"
	PhaseResolvingConflicts = "resolving-conflicts"
	PhaseSyncingRecords     = "syncing-records"
	PhaseSyncingCollections = "syncing-collections"
	PhaseSyncingArtifacts   = "syncing-artifacts"
	PhaseComplete           = "complete"
)

// ProgressFunc receives phase transitions. counts is nil when a phase has
// no counter update to report.
type ProgressFunc func(phase string, counts *Progress)

// LogFunc receives structured trace events. The engine never inspects what
// the sink does with them.
type LogFunc func(event, details string)

// Resolver decides conflicts. Returning a nil map cancels the sync before
// any propagation writes. The engine must be usable headless, so this is an
// interface value, never a UI reference.
type Resolver interface {
	Resolve(conflicts []*types.Conflict) map[string]types.Decision
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(conflicts []*types.Conflict) map[string]types.Decision

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(conflicts []*types.Conflict) map[string]types.Decision {
	return f(conflicts)
}

// FixedResolver returns a resolver that applies the same decision to every
// conflict. Used for batch syncs and tests.
func FixedResolver(d types.Decision) Resolver {
	return ResolverFunc(func(conflicts []*types.Conflict) map[string]types.Decision {
		decisions := make(map[string]types.Decision, len(conflicts))
		for _, c := range conflicts {
			decisions[c.Key()] = d
		}
		return decisions
	})
}

// Changes accumulates per-category counters of applied changes.
type Changes struct {
	PapersAdded        int
	PapersUpdated      int
	CollectionsAdded   int
	CollectionsUpdated int
	PDFsCopied         int
	PDFsUpdated        int
}

func (c Changes) total() int {
	return c.PapersAdded + c.PapersUpdated + c.CollectionsAdded +
		c.CollectionsUpdated + c.PDFsCopied + c.PDFsUpdated
}

// DetailedChanges carries human-readable per-item change lines.
type DetailedChanges struct {
	PapersAdded        []string
	PapersUpdated      []string
	CollectionsAdded   []string
	CollectionsUpdated []string
}

// Result is the outcome of one sync operation. Errors holds step-scoped
// failures that did not abort the run; Conflicts is non-empty only when no
// resolver was supplied.
type Result struct {
	Conflicts []*types.Conflict
	Changes   Changes
	Detailed  DetailedChanges
	Errors    []string
	Cancelled bool
}

// HasConflicts reports whether unresolved conflicts remain.
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary renders a one-line human summary of the sync outcome.
func (r *Result) Summary() string {
	if r.Cancelled {
		return "Sync operation was cancelled by user"
	}
	if r.HasConflicts() {
		return fmt.Sprintf("Sync completed with %d conflicts that need resolution", len(r.Conflicts))
	}
	if r.Changes.total() == 0 {
		return "No changes to sync - local and remote are already in sync"
	}

	var parts []string
	if n := r.Changes.PapersAdded; n > 0 {
		parts = append(parts, fmt.Sprintf("%d papers added", n))
	}
	if n := r.Changes.PapersUpdated; n > 0 {
		parts = append(parts, fmt.Sprintf("%d papers updated", n))
	}
	if n := r.Changes.CollectionsAdded; n > 0 {
		parts = append(parts, fmt.Sprintf("%d collections added", n))
	}
	if n := r.Changes.CollectionsUpdated; n > 0 {
		parts = append(parts, fmt.Sprintf("%d collections updated", n))
	}
	if n := r.Changes.PDFsCopied; n > 0 {
		parts = append(parts, fmt.Sprintf("%d PDFs copied", n))
	}
	if n := r.Changes.PDFsUpdated; n > 0 {
		parts = append(parts, fmt.Sprintf("%d PDFs updated", n))
	}
	return "Sync completed: " + strings.Join(parts, ", ")
}
