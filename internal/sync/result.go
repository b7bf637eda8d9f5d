package sync

import "github.com/docsyard/drive-mirror/pkg/models"

// Status classifies what happened to one file during a run.
type Status int

const (
	// StatusUnchanged means checksum and path both matched; zero writes.
	StatusUnchanged Status = iota
	// StatusPathUpdated means the bytes were unchanged but the file moved,
	// so the object was rewritten at the new key and the row's path columns
	// were updated.
	StatusPathUpdated
	// StatusMirrored means new or changed bytes were uploaded and upserted.
	StatusMirrored
	// StatusSkippedTooLarge means the file exceeded the size limit, either
	// by reported size or by actual downloaded length.
	StatusSkippedTooLarge
	// StatusFailed means the file's pipeline errored; the run continues.
	StatusFailed
)

// Outcome is the tagged result of one file's pipeline. The orchestrator
// aggregates a run by folding outcomes, so there is no control flow hidden
// in error handling.
type Outcome struct {
	File   models.RemoteFile
	Status Status
	Bytes  int64
	Err    error
}
