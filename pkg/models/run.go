package models

import "time"

// RunRecord is one append-only row per sync invocation.
type RunRecord struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	FilesScanned int64
	FilesChanged int64
	FilesSkipped int64
	FilesFailed  int64
	Notes        string
}
