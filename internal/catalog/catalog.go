package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/docsyard/drive-mirror/pkg/models"
)

// Catalog is the relational metadata store: one documents row per remote
// file, plus an append-only ledger of sync runs.
type Catalog struct {
	*sql.DB
}

// Open opens (and if needed creates) the catalog database at path.
func Open(path string) (*Catalog, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	c := &Catalog{sqlDB}
	if err := c.initialize(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) initialize() error {
	_, err := c.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			remote_id TEXT NOT NULL UNIQUE,
			mirrored_path TEXT NOT NULL,
			category TEXT NOT NULL,
			brand TEXT NOT NULL,
			title TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			checksum TEXT NOT NULL,
			storage_path TEXT NOT NULL,
			parsed_ok BOOLEAN,
			page_count INTEGER,
			extracted_text TEXT,
			inserted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
		CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			files_scanned INTEGER NOT NULL,
			files_changed INTEGER NOT NULL,
			files_skipped INTEGER NOT NULL,
			files_failed INTEGER NOT NULL,
			notes TEXT NOT NULL
		);
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA busy_timeout=5000;
	`)
	if err != nil {
		return fmt.Errorf("initialize catalog schema: %w", err)
	}
	return nil
}

// Ref is the projection the change detector needs for its point lookup.
type Ref struct {
	ID          int64
	Checksum    string
	StoragePath string
}

// GetRef looks up a document by remote id. A nil Ref means no row exists.
func (c *Catalog) GetRef(remoteID string) (*Ref, error) {
	var ref Ref
	err := c.QueryRow(`
		SELECT id, checksum, storage_path FROM documents WHERE remote_id = ?
	`, remoteID).Scan(&ref.ID, &ref.Checksum, &ref.StoragePath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup document %s: %w", remoteID, err)
	}
	return &ref, nil
}

// UpsertDocument inserts or replaces the row for doc.RemoteID. The remote id
// is the upsert key, so retries and renames can never produce a second row.
func (c *Catalog) UpsertDocument(doc *models.Document) error {
	_, err := c.Exec(`
		INSERT INTO documents (
			remote_id, mirrored_path, category, brand, title,
			mime_type, checksum, storage_path,
			parsed_ok, page_count, extracted_text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			mirrored_path = excluded.mirrored_path,
			category = excluded.category,
			brand = excluded.brand,
			title = excluded.title,
			mime_type = excluded.mime_type,
			checksum = excluded.checksum,
			storage_path = excluded.storage_path,
			parsed_ok = excluded.parsed_ok,
			page_count = excluded.page_count,
			extracted_text = excluded.extracted_text,
			updated_at = CURRENT_TIMESTAMP
	`,
		doc.RemoteID, doc.MirroredPath, doc.Category, doc.Brand, doc.Title,
		doc.MimeType, doc.Checksum, doc.StoragePath,
		doc.ParsedOK, doc.PageCount, doc.ExtractedText,
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.RemoteID, err)
	}
	return nil
}

// UpdatePlacement rewrites the path-derived columns of an existing row
// without touching checksum or enrichment fields. Used when a file was
// renamed or moved but its bytes are unchanged.
func (c *Catalog) UpdatePlacement(remoteID, mirroredPath, storagePath, category, brand, title string) error {
	_, err := c.Exec(`
		UPDATE documents SET
			mirrored_path = ?,
			storage_path = ?,
			category = ?,
			brand = ?,
			title = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE remote_id = ?
	`, mirroredPath, storagePath, category, brand, title, remoteID)
	if err != nil {
		return fmt.Errorf("update placement of %s: %w", remoteID, err)
	}
	return nil
}

// InsertRun appends one row to the run ledger.
func (c *Catalog) InsertRun(run *models.RunRecord) error {
	_, err := c.Exec(`
		INSERT INTO sync_runs (
			id, started_at, finished_at,
			files_scanned, files_changed, files_skipped, files_failed, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.StartedAt, run.FinishedAt,
		run.FilesScanned, run.FilesChanged, run.FilesSkipped, run.FilesFailed, run.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent run records, newest first.
func (c *Catalog) RecentRuns(limit int) ([]models.RunRecord, error) {
	rows, err := c.Query(`
		SELECT id, started_at, finished_at,
		       files_scanned, files_changed, files_skipped, files_failed, notes
		FROM sync_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		var r models.RunRecord
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt,
			&r.FilesScanned, &r.FilesChanged, &r.FilesSkipped, &r.FilesFailed, &r.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

const documentColumns = `
	id, remote_id, mirrored_path, category, brand, title,
	mime_type, checksum, storage_path,
	parsed_ok, page_count, extracted_text, inserted_at, updated_at`

// GetDocument returns the full row for a remote id.
func (c *Catalog) GetDocument(remoteID string) (*models.Document, error) {
	row := c.QueryRow(`SELECT`+documentColumns+` FROM documents WHERE remote_id = ?`, remoteID)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", remoteID, err)
	}
	return doc, nil
}

// ListDocuments returns catalog rows ordered by path, optionally filtered by
// category, with limit/offset paging.
func (c *Catalog) ListDocuments(category string, limit, offset int) ([]models.Document, error) {
	query := `SELECT` + documentColumns + ` FROM documents`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY mirrored_path LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := c.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of catalog rows.
func (c *Catalog) CountDocuments() (int64, error) {
	var n int64
	if err := c.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(s scanner) (*models.Document, error) {
	var doc models.Document
	err := s.Scan(
		&doc.ID, &doc.RemoteID, &doc.MirroredPath, &doc.Category, &doc.Brand, &doc.Title,
		&doc.MimeType, &doc.Checksum, &doc.StoragePath,
		&doc.ParsedOK, &doc.PageCount, &doc.ExtractedText, &doc.InsertedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
