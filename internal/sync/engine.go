package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SXKDZ/papercli/internal/storage"
	"github.com/SXKDZ/papercli/internal/storage/sqlite"
)

// DBFileName is the relational store inside a replica directory.
const DBFileName = "papers.db"

// PDFDirName is the artifact subdirectory inside a replica directory.
const PDFDirName = "pdfs"

// Options configures an Engine. All callbacks are optional; a nil Resolver
// leaves conflicts unresolved in the result.
type Options struct {
	Progress ProgressFunc
	Log      LogFunc
	Resolver Resolver
}

// Engine synchronizes a local and a remote replica directory.
type Engine struct {
	localDir  string
	remoteDir string

	localDBPath  string
	remoteDBPath string
	localPDFDir  string
	remotePDFDir string

	progress ProgressFunc
	log      LogFunc
	resolver Resolver

	// Stores are open only for the duration of one Sync call.
	local  storage.Store
	remote storage.Store
}

// New creates an engine for the given replica pair.
func New(localDir, remoteDir string, opts Options) *Engine {
	return &Engine{
		localDir:     localDir,
		remoteDir:    remoteDir,
		localDBPath:  filepath.Join(localDir, DBFileName),
		remoteDBPath: filepath.Join(remoteDir, DBFileName),
		localPDFDir:  filepath.Join(localDir, PDFDirName),
		remotePDFDir: filepath.Join(remoteDir, PDFDirName),
		progress:     opts.Progress,
		log:          opts.Log,
		resolver:     opts.Resolver,
	}
}

func (e *Engine) emitProgress(phase string, counts *Progress) {
	if e.progress != nil {
		e.progress(phase, counts)
	}
}

func (e *Engine) logf(event, format string, args ...any) {
	if e.log != nil {
		e.log(event, fmt.Sprintf(format, args...))
	}
}

// Sync performs one full synchronization pass. Only lock failures return a
// non-nil error (ErrBusy when a peer sync is running); every other failure
// is step-scoped, recorded in Result.Errors, and the sync continues.
func (e *Engine) Sync(ctx context.Context, autoSync bool) (*Result, error) {
	locks := newLockManager(e.localDir, e.remoteDir)
	if err := locks.acquire(); err != nil {
		return nil, err
	}
	defer locks.release()

	result := &Result{}

	e.emitProgress(PhaseCreatingRemoteDir, nil)
	if err := os.MkdirAll(e.remotePDFDir, 0o755); err != nil {
		result.addError("creating remote directory: %v", err)
		return result, nil
	}

	e.emitProgress(PhaseCheckingRemoteDB, nil)
	if _, err := os.Stat(e.remoteDBPath); os.IsNotExist(err) {
		e.bootstrapRemote(ctx, result)
		e.emitProgress(PhaseComplete, nil)
		return result, nil
	}

	local, err := sqlite.Open(ctx, e.localDBPath)
	if err != nil {
		result.addError("opening local store: %v", err)
		return result, nil
	}
	defer local.Close()
	remote, err := sqlite.Open(ctx, e.remoteDBPath)
	if err != nil {
		result.addError("opening remote store: %v", err)
		return result, nil
	}
	defer remote.Close()
	e.local, e.remote = local, remote
	defer func() { e.local, e.remote = nil, nil }()

	localPapers, err := local.ListPapers(ctx)
	if err != nil {
		result.addError("loading local papers: %v", err)
		return result, nil
	}
	remotePapers, err := remote.ListPapers(ctx)
	if err != nil {
		result.addError("loading remote papers: %v", err)
		return result, nil
	}

	m := newMatcher(e.localPDFDir, e.remotePDFDir)
	matches := m.matchPapers(localPapers, remotePapers)

	e.emitProgress(PhaseDetectingConflicts, nil)
	conflicts, err := e.detectConflicts(m, localPapers, remotePapers, matches)
	if err != nil {
		result.addError("detecting artifact conflicts: %v", err)
	}

	if len(conflicts) > 0 {
		result.Conflicts = conflicts
		e.logf("sync_conflicts", "Detected %d conflicts", len(conflicts))

		if e.resolver == nil {
			e.logf("sync_conflicts_unresolved", "Found %d unresolved conflicts", len(conflicts))
			return result, nil
		}

		e.emitProgress(PhaseResolvingConflicts, nil)
		decisions := e.resolver.Resolve(conflicts)
		if decisions == nil {
			result.Cancelled = true
			result.Conflicts = nil
			e.logf("sync_cancelled", "Sync cancelled by user during conflict resolution")
			return result, nil
		}
		e.logf("sync_resolutions", "Applied %d conflict resolutions", len(decisions))
		e.applyResolutions(ctx, conflicts, decisions, result)
		result.Conflicts = nil
	}

	localPaperCount := len(localPapers)
	remotePaperCount := len(remotePapers)
	localColCount, err := local.CountCollections(ctx)
	if err != nil {
		result.addError("counting local collections: %v", err)
	}
	remoteColCount, err := remote.CountCollections(ctx)
	if err != nil {
		result.addError("counting remote collections: %v", err)
	}
	localPDFCount := countArtifacts(e.localPDFDir)
	remotePDFCount := countArtifacts(e.remotePDFDir)

	papersTotal := maxInt(localPaperCount, remotePaperCount)
	colsTotal := maxInt(localColCount, remoteColCount)
	pdfsTotal := maxInt(localPDFCount, remotePDFCount)

	e.emitProgress(PhaseSyncingRecords, &Progress{
		PapersTotal:      papersTotal,
		CollectionsTotal: colsTotal,
	})
	e.syncPapers(ctx, result, localPapers, remotePapers, matches, autoSync)

	e.emitProgress(PhaseSyncingCollections, &Progress{
		PapersTotal:      papersTotal,
		PapersProcessed:  papersTotal,
		CollectionsTotal: colsTotal,
	})
	e.syncCollections(ctx, result)

	e.emitProgress(PhaseSyncingArtifacts, &Progress{
		PapersTotal:          papersTotal,
		PapersProcessed:      papersTotal,
		CollectionsTotal:     colsTotal,
		CollectionsProcessed: colsTotal,
		PDFsTotal:            pdfsTotal,
	})
	e.syncArtifactsBidirectional(result)

	e.emitProgress(PhaseComplete, nil)
	e.logf("sync_complete", "Sync completed successfully: %s", result.Summary())
	return result, nil
}

// bootstrapRemote clones the local replica into an empty remote: the store
// is copied byte-for-byte, then artifacts are pushed by name.
func (e *Engine) bootstrapRemote(ctx context.Context, result *Result) {
	if err := copyFilePreserveMtime(e.localDBPath, e.remoteDBPath); err != nil {
		result.addError("creating initial remote database: %v", err)
		return
	}

	local, err := sqlite.Open(ctx, e.localDBPath)
	if err != nil {
		result.addError("opening local store: %v", err)
		return
	}
	defer local.Close()

	papers, err := local.CountPapers(ctx)
	if err != nil {
		result.addError("counting local papers: %v", err)
	}
	collections, err := local.CountCollections(ctx)
	if err != nil {
		result.addError("counting local collections: %v", err)
	}
	result.Changes.PapersAdded = papers
	result.Changes.CollectionsAdded = collections
	e.logf("sync_initial",
		"Created initial remote database with %d papers and %d collections", papers, collections)

	e.pushArtifactsToRemote(result)
}

func countArtifacts(dir string) int {
	names, err := listArtifacts(dir)
	if err != nil {
		return 0
	}
	return len(names)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
