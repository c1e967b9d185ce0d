package sync

import (
	"context"

	"github.com/SXKDZ/papercli/internal/storage"
	"github.com/SXKDZ/papercli/internal/types"
)

// syncCollections propagates collections by their unique name and
// reconciles memberships on both sides. Membership transfers pair papers by
// exact title only; binding memberships to a fuzzy match would attach
// papers to the wrong collection.
func (e *Engine) syncCollections(ctx context.Context, result *Result) {
	localCols, err := e.local.ListCollections(ctx)
	if err != nil {
		result.addError("listing local collections: %v", err)
		return
	}
	remoteCols, err := e.remote.ListCollections(ctx)
	if err != nil {
		result.addError("listing remote collections: %v", err)
		return
	}

	remoteByName := make(map[string]*types.Collection, len(remoteCols))
	for _, c := range remoteCols {
		remoteByName[c.Name] = c
	}
	localByName := make(map[string]*types.Collection, len(localCols))
	for _, c := range localCols {
		localByName[c.Name] = c
	}

	for _, c := range localCols {
		if _, ok := remoteByName[c.Name]; ok {
			continue
		}
		newID, err := e.remote.InsertCollection(ctx, c)
		if err != nil {
			result.addError("copying collection '%s' to remote: %v", c.Name, err)
			continue
		}
		e.copyMemberships(ctx, result, e.local, c.ID, e.remote, newID, c.Name)
		result.Changes.CollectionsAdded++
		result.Detailed.CollectionsAdded = append(result.Detailed.CollectionsAdded, "'"+c.Name+"'")
		e.logf("collection_added_remote", "Added collection '%s' to remote", c.Name)
	}

	for _, c := range remoteCols {
		if _, ok := localByName[c.Name]; ok {
			continue
		}
		newID, err := e.local.InsertCollection(ctx, c)
		if err != nil {
			result.addError("copying collection '%s' to local: %v", c.Name, err)
			continue
		}
		e.copyMemberships(ctx, result, e.remote, c.ID, e.local, newID, c.Name)
		result.Changes.CollectionsAdded++
		result.Detailed.CollectionsAdded = append(result.Detailed.CollectionsAdded, "'"+c.Name+"' (from remote)")
		e.logf("collection_added_local", "Added collection '%s' to local (from remote)", c.Name)
	}

	// Collections present on both sides: reconcile memberships only.
	for _, lc := range localCols {
		rc, ok := remoteByName[lc.Name]
		if !ok {
			continue
		}
		e.reconcileMemberships(ctx, result, lc, rc)
	}
}

// copyMemberships replicates a freshly created collection's membership:
// every source paper title that exists on the target gets linked.
func (e *Engine) copyMemberships(ctx context.Context, result *Result, src storage.Store, srcID int64, dst storage.Store, dstID int64, name string) {
	titles, err := src.CollectionPaperTitles(ctx, srcID)
	if err != nil {
		result.addError("reading membership of collection '%s': %v", name, err)
		return
	}
	for _, title := range titles {
		if _, err := dst.AddPaperToCollectionByTitle(ctx, title, dstID); err != nil {
			result.addError("linking '%s' into collection '%s': %v", title, name, err)
		}
	}
}

// reconcileMemberships set-differences the two sides' membership titles and
// fills each side's gaps. Inserts are idempotent, so reruns are no-ops.
func (e *Engine) reconcileMemberships(ctx context.Context, result *Result, localCol, remoteCol *types.Collection) {
	localTitles, err := e.local.CollectionPaperTitles(ctx, localCol.ID)
	if err != nil {
		result.addError("reading local membership of '%s': %v", localCol.Name, err)
		return
	}
	remoteTitles, err := e.remote.CollectionPaperTitles(ctx, remoteCol.ID)
	if err != nil {
		result.addError("reading remote membership of '%s': %v", remoteCol.Name, err)
		return
	}

	localSet := make(map[string]bool, len(localTitles))
	for _, t := range localTitles {
		localSet[t] = true
	}
	remoteSet := make(map[string]bool, len(remoteTitles))
	for _, t := range remoteTitles {
		remoteSet[t] = true
	}

	for _, t := range localTitles {
		if remoteSet[t] {
			continue
		}
		if _, err := e.remote.AddPaperToCollectionByTitle(ctx, t, remoteCol.ID); err != nil {
			result.addError("linking '%s' into remote collection '%s': %v", t, remoteCol.Name, err)
		}
	}
	for _, t := range remoteTitles {
		if localSet[t] {
			continue
		}
		if _, err := e.local.AddPaperToCollectionByTitle(ctx, t, localCol.ID); err != nil {
			result.addError("linking '%s' into local collection '%s': %v", t, localCol.Name, err)
		}
	}
}
