package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SXKDZ/papercli/internal/types"
)

// paperColumns is the scalar column list used by list queries. The rendered
// author string is aggregated separately.
const paperColumns = `p.id, p.uuid, p.title, p.abstract, p.venue_full, p.venue_acronym,
	p.year, p.volume, p.issue, p.pages, p.paper_type, p.doi, p.preprint_id,
	p.category, p.url, p.pdf_path, p.html_snapshot_path, p.notes,
	p.added_date, p.modified_date`

// ListPapers returns all papers ordered by id, each carrying its rendered
// author string in position order.
func (s *Store) ListPapers(ctx context.Context) ([]*types.Paper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+paperColumns+`,
			GROUP_CONCAT(a.full_name, ', ' ORDER BY pa.position) AS authors
		FROM papers p
		LEFT JOIN paper_authors pa ON p.id = pa.paper_id
		LEFT JOIN authors a ON pa.author_id = a.id
		GROUP BY p.id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []*types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func scanPaper(rows *sql.Rows) (*types.Paper, error) {
	var p types.Paper
	var abstract, venueFull, venueAcronym, volume, issue, pages sql.NullString
	var paperType, doi, preprintID, category, url, pdfPath, htmlPath, notes sql.NullString
	var year sql.NullInt64
	var added, modified sql.NullTime
	var authors sql.NullString

	err := rows.Scan(&p.ID, &p.UUID, &p.Title, &abstract, &venueFull, &venueAcronym,
		&year, &volume, &issue, &pages, &paperType, &doi, &preprintID,
		&category, &url, &pdfPath, &htmlPath, &notes,
		&added, &modified, &authors)
	if err != nil {
		return nil, fmt.Errorf("scanning paper: %w", err)
	}

	p.Abstract = abstract.String
	p.VenueFull = venueFull.String
	p.VenueAcronym = venueAcronym.String
	p.Year = int(year.Int64)
	p.Volume = volume.String
	p.Issue = issue.String
	p.Pages = pages.String
	p.PaperType = paperType.String
	p.DOI = doi.String
	p.PreprintID = preprintID.String
	p.Category = category.String
	p.URL = url.String
	p.PDFPath = pdfPath.String
	p.HTMLSnapshotPath = htmlPath.String
	p.Notes = notes.String
	p.AddedDate = added.Time
	p.ModifiedDate = modified.Time
	p.Authors = authors.String
	return &p, nil
}

// FindPaperIDByTitle looks a paper up by exact title.
func (s *Store) FindPaperIDByTitle(ctx context.Context, title string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM papers WHERE title = ?`, title).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up paper by title: %w", err)
	}
	return id, true, nil
}

// CountPapers returns the number of papers in the store.
func (s *Store) CountPapers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// InsertPaper inserts a paper and its author links as one transactional
// step. Source-side id and uuid are discarded: ids are replica-local, and
// each replica assigns its own uuid on insert. Missing timestamps are filled
// with the current instant.
func (s *Store) InsertPaper(ctx context.Context, p *types.Paper) (int64, error) {
	added := p.AddedDate
	if added.IsZero() {
		added = time.Now()
	}
	modified := p.ModifiedDate
	if modified.IsZero() {
		modified = time.Now()
	}

	var newID int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO papers (
				uuid, title, abstract, venue_full, venue_acronym, year,
				volume, issue, pages, paper_type, doi, preprint_id,
				category, url, pdf_path, html_snapshot_path, notes,
				added_date, modified_date
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			uuid.New().String(), p.Title, nullStr(p.Abstract), nullStr(p.VenueFull),
			nullStr(p.VenueAcronym), nullInt(p.Year), nullStr(p.Volume), nullStr(p.Issue),
			nullStr(p.Pages), nullStr(p.PaperType), nullStr(p.DOI), nullStr(p.PreprintID),
			nullStr(p.Category), nullStr(p.URL), nullStr(p.PDFPath),
			nullStr(p.HTMLSnapshotPath), nullStr(p.Notes), added, modified,
		)
		if err != nil {
			return fmt.Errorf("inserting paper: %w", err)
		}
		newID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading new paper id: %w", err)
		}
		return replaceAuthorLinks(ctx, tx, newID, p.Authors, false)
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// UpdatePaperByTitle applies a snapshot's non-empty scalar fields to the
// paper with the exact same title and rebuilds its author links from the
// snapshot's rendered authors. One transactional step. Reports whether a
// paper with that title existed.
func (s *Store) UpdatePaperByTitle(ctx context.Context, p *types.Paper) (bool, error) {
	found := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM papers WHERE title = ?`, p.Title).Scan(&id)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("looking up paper by title: %w", err)
		}
		found = true

		_, err = tx.ExecContext(ctx, `
			UPDATE papers SET
				title = ?,
				abstract = COALESCE(?, abstract),
				venue_full = COALESCE(?, venue_full),
				venue_acronym = COALESCE(?, venue_acronym),
				year = COALESCE(?, year),
				volume = COALESCE(?, volume),
				issue = COALESCE(?, issue),
				pages = COALESCE(?, pages),
				paper_type = COALESCE(?, paper_type),
				doi = COALESCE(?, doi),
				preprint_id = COALESCE(?, preprint_id),
				category = COALESCE(?, category),
				url = COALESCE(?, url),
				pdf_path = COALESCE(?, pdf_path),
				html_snapshot_path = COALESCE(?, html_snapshot_path),
				notes = COALESCE(?, notes),
				modified_date = ?
			WHERE id = ?
		`,
			p.Title, nullStr(p.Abstract), nullStr(p.VenueFull), nullStr(p.VenueAcronym),
			nullInt(p.Year), nullStr(p.Volume), nullStr(p.Issue), nullStr(p.Pages),
			nullStr(p.PaperType), nullStr(p.DOI), nullStr(p.PreprintID),
			nullStr(p.Category), nullStr(p.URL), nullStr(p.PDFPath),
			nullStr(p.HTMLSnapshotPath), nullStr(p.Notes), time.Now(), id,
		)
		if err != nil {
			return fmt.Errorf("updating paper: %w", err)
		}

		return replaceAuthorLinks(ctx, tx, id, p.Authors, true)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// replaceAuthorLinks upserts each rendered author by exact full name and
// links it at its token position. When clear is set, existing links are
// removed first (the keep-remote rebuild path).
func replaceAuthorLinks(ctx context.Context, tx *sql.Tx, paperID int64, rendered string, clear bool) error {
	if clear {
		if _, err := tx.ExecContext(ctx, `DELETE FROM paper_authors WHERE paper_id = ?`, paperID); err != nil {
			return fmt.Errorf("clearing author links: %w", err)
		}
	}

	for i, name := range types.SplitAuthors(rendered) {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO authors (full_name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("upserting author %q: %w", name, err)
		}
		var authorID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM authors WHERE full_name = ?`, name).Scan(&authorID); err != nil {
			return fmt.Errorf("resolving author %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO paper_authors (paper_id, author_id, position) VALUES (?, ?, ?)`,
			paperID, authorID, i); err != nil {
			return fmt.Errorf("linking author %q: %w", name, err)
		}
	}
	return nil
}
