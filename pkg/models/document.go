package models

import (
	"database/sql"
	"time"
)

// Document is one catalog row. Exactly one row exists per RemoteID;
// Checksum always matches the bytes stored at StoragePath.
type Document struct {
	ID           int64
	RemoteID     string
	MirroredPath string
	Category     string
	Brand        string
	Title        string
	MimeType     string
	Checksum     string
	StoragePath  string

	// Enrichment fields, owned by the enrichment step.
	ParsedOK      sql.NullBool
	PageCount     sql.NullInt64
	ExtractedText sql.NullString

	InsertedAt time.Time
	UpdatedAt  time.Time
}
