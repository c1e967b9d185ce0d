package sqlite

const schema = `
-- Papers table
CREATE TABLE IF NOT EXISTS papers (
    id INTEGER PRIMARY KEY,
    uuid TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL CHECK(length(title) > 0),
    abstract TEXT,
    venue_full TEXT,
    venue_acronym TEXT,
    year INTEGER,
    volume TEXT,
    issue TEXT,
    pages TEXT,
    paper_type TEXT,
    doi TEXT,
    preprint_id TEXT,
    category TEXT,
    url TEXT,
    pdf_path TEXT,
    html_snapshot_path TEXT,
    notes TEXT,
    added_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_papers_title ON papers(title);
CREATE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi);
CREATE INDEX IF NOT EXISTS idx_papers_preprint_id ON papers(preprint_id);

-- Authors table (deduplicated by exact full_name)
CREATE TABLE IF NOT EXISTS authors (
    id INTEGER PRIMARY KEY,
    full_name TEXT NOT NULL,
    first_name TEXT,
    last_name TEXT,
    email TEXT,
    affiliation TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_authors_full_name ON authors(full_name);

-- Ordered paper-author links. The position triple is the identity of a
-- link; author order is reconstructed by ORDER BY position.
CREATE TABLE IF NOT EXISTS paper_authors (
    paper_id INTEGER NOT NULL,
    author_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (paper_id, author_id, position),
    FOREIGN KEY (paper_id) REFERENCES papers(id) ON DELETE CASCADE,
    FOREIGN KEY (author_id) REFERENCES authors(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_paper_authors_paper ON paper_authors(paper_id);

-- Collections table
CREATE TABLE IF NOT EXISTS collections (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_modified DATETIME
);

-- Unordered paper-collection membership
CREATE TABLE IF NOT EXISTS paper_collections (
    paper_id INTEGER NOT NULL,
    collection_id INTEGER NOT NULL,
    PRIMARY KEY (paper_id, collection_id),
    FOREIGN KEY (paper_id) REFERENCES papers(id) ON DELETE CASCADE,
    FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_paper_collections_collection ON paper_collections(collection_id);
`
