package models

// RunStats accumulates per-file outcomes over one sync run.
type RunStats struct {
	Scanned         int64
	Changed         int64
	Unchanged       int64
	PathUpdated     int64
	SkippedTooLarge int64
	Failed          int64
	UploadedBytes   int64
}

// Skipped is the combined skip count reported in summaries.
func (s RunStats) Skipped() int64 {
	return s.Unchanged + s.SkippedTooLarge
}
