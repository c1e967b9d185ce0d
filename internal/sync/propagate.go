package sync

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/SXKDZ/papercli/internal/storage"
	"github.com/SXKDZ/papercli/internal/types"
)

// paperFromSnapshot rebuilds a propagatable paper from a conflict
// snapshot.
func paperFromSnapshot(snap map[string]string) *types.Paper {
	year, _ := strconv.Atoi(snap["year"])
	return &types.Paper{
		Title:        snap["title"],
		Abstract:     snap["abstract"],
		VenueFull:    snap["venue_full"],
		VenueAcronym: snap["venue_acronym"],
		Year:         year,
		Volume:       snap["volume"],
		Issue:        snap["issue"],
		Pages:        snap["pages"],
		PaperType:    snap["paper_type"],
		DOI:          snap["doi"],
		PreprintID:   snap["preprint_id"],
		Category:     snap["category"],
		URL:          snap["url"],
		Notes:        snap["notes"],
		PDFPath:      snap["pdf_path"],
		Authors:      snap["authors"],
	}
}

// copyPaperTo inserts a source paper snapshot into the target store. An
// absolute artifact reference is rewritten relative to the target's
// artifact directory; if relativization fails the reference is left as-is.
func copyPaperTo(ctx context.Context, p *types.Paper, target storage.Store, targetPDFDir string) error {
	copied := *p
	if copied.PDFPath != "" && filepath.IsAbs(copied.PDFPath) {
		if rel, err := filepath.Rel(targetPDFDir, copied.PDFPath); err == nil {
			copied.PDFPath = rel
		}
	}
	_, err := target.InsertPaper(ctx, &copied)
	return err
}

// syncPapers propagates unmatched papers in both directions. Matched pairs
// were already reconciled through conflict resolution; their merge here is
// a no-op.
func (e *Engine) syncPapers(ctx context.Context, result *Result, localPapers, remotePapers []*types.Paper, matches map[int64]int64, autoSync bool) {
	matchedLocal := make(map[int64]bool, len(matches))
	matchedRemote := make(map[int64]bool, len(matches))
	for localID, remoteID := range matches {
		matchedLocal[localID] = true
		matchedRemote[remoteID] = true
	}

	for _, p := range localPapers {
		if matchedLocal[p.ID] {
			continue
		}
		if err := copyPaperTo(ctx, p, e.remote, e.remotePDFDir); err != nil {
			result.addError("copying paper '%s' to remote: %v", p.Title, err)
			continue
		}
		result.Changes.PapersAdded++
		result.Detailed.PapersAdded = append(result.Detailed.PapersAdded, "'"+p.Title+"'")
		e.logf("paper_added_remote", "Added paper '%s' to remote", p.Title)
	}

	for _, p := range remotePapers {
		if matchedRemote[p.ID] {
			continue
		}
		if err := copyPaperTo(ctx, p, e.local, e.localPDFDir); err != nil {
			result.addError("copying paper '%s' to local: %v", p.Title, err)
			continue
		}
		result.Changes.PapersAdded++
		result.Detailed.PapersAdded = append(result.Detailed.PapersAdded, "'"+p.Title+"' (from remote)")
		e.logf("paper_added_local", "Added paper '%s' to local (from remote)", p.Title)
	}

	if autoSync {
		// Deletion propagation needs tombstones the schema does not carry;
		// auto mode only announces the pass and deletes nothing.
		e.logf("auto_sync_deletions", "Auto-sync mode: handling potential deletions")
	}
}

// applyResolutions applies the resolver's decisions to the conflict set.
func (e *Engine) applyResolutions(ctx context.Context, conflicts []*types.Conflict, decisions map[string]types.Decision, result *Result) {
	for _, c := range conflicts {
		decision, ok := decisions[c.Key()]
		if !ok {
			continue
		}
		switch decision {
		case types.DecisionLocal:
			// Local state wins by default; nothing to write.
		case types.DecisionRemote:
			e.applyRemoteVersion(ctx, c, result)
		case types.DecisionKeepBoth:
			e.keepBothVersions(ctx, c, result)
		}
	}
}

func (e *Engine) applyRemoteVersion(ctx context.Context, c *types.Conflict, result *Result) {
	switch c.Kind {
	case types.ConflictPaper:
		p := paperFromSnapshot(c.RemoteData)
		found, err := e.local.UpdatePaperByTitle(ctx, p)
		if err != nil {
			result.addError("updating paper '%s' from remote: %v", p.Title, err)
			return
		}
		if !found {
			return
		}
		result.Changes.PapersUpdated++
		result.Detailed.PapersUpdated = append(result.Detailed.PapersUpdated, "'"+p.Title+"' (from remote)")
		e.logf("paper_updated_local", "Updated local paper '%s' with remote changes", p.Title)

	case types.ConflictPDF:
		src := filepath.Join(e.remotePDFDir, c.ItemID)
		dst := filepath.Join(e.localPDFDir, c.ItemID)
		if err := copyFilePreserveMtime(src, dst); err != nil {
			result.addError("updating PDF '%s' from remote: %v", c.ItemID, err)
			return
		}
		result.Changes.PDFsUpdated++
		e.logf("pdf_updated_local", "Updated local PDF '%s' with remote version", c.ItemID)
	}
}

func (e *Engine) keepBothVersions(ctx context.Context, c *types.Conflict, result *Result) {
	switch c.Kind {
	case types.ConflictPaper:
		p := paperFromSnapshot(c.RemoteData)
		p.Title += " (Remote Version)"
		if err := copyPaperTo(ctx, p, e.local, e.localPDFDir); err != nil {
			result.addError("adding duplicate paper '%s': %v", p.Title, err)
			return
		}
		result.Changes.PapersAdded++
		result.Detailed.PapersAdded = append(result.Detailed.PapersAdded, "'"+p.Title+"' (kept both versions)")
		e.logf("paper_added_kept_both", "Added duplicate paper '%s' (kept both versions)", p.Title)

	case types.ConflictPDF:
		variant := remoteVariantName(c.ItemID)
		src := filepath.Join(e.remotePDFDir, c.ItemID)
		dst := filepath.Join(e.localPDFDir, variant)
		if err := copyFilePreserveMtime(src, dst); err != nil {
			result.addError("copying PDF '%s' as '%s': %v", c.ItemID, variant, err)
			return
		}
		result.Changes.PDFsCopied++
		e.logf("pdf_added_kept_both", "Copied remote PDF '%s' to local as '%s' (kept both versions)", c.ItemID, variant)
	}
}
