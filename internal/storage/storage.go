// Package storage defines the interface the sync engine uses to read and
// write a replica's relational store.
//
// Every mutating method is one logical sync step and executes inside its own
// transaction: a failed step rolls back completely and the engine moves on,
// recording the error. Implementations must open connections with foreign-key
// enforcement on.
package storage

import (
	"context"
	"errors"

	"github.com/SXKDZ/papercli/internal/types"
)

// ErrNotFound reports a missing row. The lookups of Store do not return it;
// they report absence through their bool result.
var ErrNotFound = errors.New("not found")

// Store is a replica's relational store of papers, authors, and collections.
type Store interface {
	// ListPapers returns all papers ordered by replica-local id, each with
	// its rendered position-ordered author string populated.
	ListPapers(ctx context.Context) ([]*types.Paper, error)

	// FindPaperIDByTitle looks a paper up by exact title. The bool reports
	// whether a row was found.
	FindPaperIDByTitle(ctx context.Context, title string) (int64, bool, error)

	// InsertPaper inserts a paper and its author links as one step. The
	// source id is ignored; the new replica-local id is returned. Authors
	// are parsed from the rendered string, upserted by exact full name, and
	// linked at positions 0..n-1.
	InsertPaper(ctx context.Context, p *types.Paper) (int64, error)

	// UpdatePaperByTitle locates a paper by exact title, updates its
	// non-empty scalar fields, and rebuilds its author links from the
	// rendered string. Reports whether a paper matched.
	UpdatePaperByTitle(ctx context.Context, p *types.Paper) (bool, error)

	// CountPapers and CountCollections feed progress totals.
	CountPapers(ctx context.Context) (int, error)
	CountCollections(ctx context.Context) (int, error)

	// ListCollections returns all collections ordered by id.
	ListCollections(ctx context.Context) ([]*types.Collection, error)

	// FindCollectionIDByName looks a collection up by its unique name.
	FindCollectionIDByName(ctx context.Context, name string) (int64, bool, error)

	// InsertCollection creates a collection, returning its new id.
	InsertCollection(ctx context.Context, c *types.Collection) (int64, error)

	// CollectionPaperTitles returns the titles of the papers in a
	// collection. Titles, not ids: membership transfers across replicas by
	// exact title match.
	CollectionPaperTitles(ctx context.Context, collectionID int64) ([]string, error)

	// AddPaperToCollectionByTitle links the paper with the given title into
	// the collection if both exist. The insert is idempotent. Reports
	// whether a link target was found.
	AddPaperToCollectionByTitle(ctx context.Context, title string, collectionID int64) (bool, error)

	Close() error
}
