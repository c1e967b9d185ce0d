package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SXKDZ/papercli/internal/types"
)

// ListCollections returns all collections ordered by id.
func (s *Store) ListCollections(ctx context.Context) ([]*types.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, last_modified
		FROM collections
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var collections []*types.Collection
	for rows.Next() {
		var c types.Collection
		var description sql.NullString
		var created, lastModified sql.NullTime
		if err := rows.Scan(&c.ID, &c.Name, &description, &created, &lastModified); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		c.Description = description.String
		c.CreatedAt = created.Time
		c.LastModified = lastModified.Time
		collections = append(collections, &c)
	}
	return collections, rows.Err()
}

// FindCollectionIDByName looks a collection up by its unique name.
func (s *Store) FindCollectionIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM collections WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up collection by name: %w", err)
	}
	return id, true, nil
}

// CountCollections returns the number of collections in the store.
func (s *Store) CountCollections(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting collections: %w", err)
	}
	return n, nil
}

// InsertCollection creates a collection, filling a missing created_at with
// the current instant. One transactional step.
func (s *Store) InsertCollection(ctx context.Context, c *types.Collection) (int64, error) {
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	var newID int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO collections (name, description, created_at, last_modified)
			VALUES (?, ?, ?, ?)
		`, c.Name, nullStr(c.Description), created, nullableTime(c.LastModified))
		if err != nil {
			return fmt.Errorf("inserting collection: %w", err)
		}
		newID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading new collection id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// CollectionPaperTitles returns the titles of the papers in a collection.
func (s *Store) CollectionPaperTitles(ctx context.Context, collectionID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.title
		FROM papers p
		JOIN paper_collections pc ON p.id = pc.paper_id
		WHERE pc.collection_id = ?
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("querying collection papers: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scanning collection paper title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// AddPaperToCollectionByTitle links the paper with the given exact title
// into the collection. The membership insert is idempotent. Reports whether
// a paper with that title existed.
func (s *Store) AddPaperToCollectionByTitle(ctx context.Context, title string, collectionID int64) (bool, error) {
	found := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var paperID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM papers WHERE title = ?`, title).Scan(&paperID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("looking up paper by title: %w", err)
		}
		found = true

		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO paper_collections (paper_id, collection_id) VALUES (?, ?)`,
			paperID, collectionID)
		if err != nil {
			return fmt.Errorf("linking paper to collection: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
