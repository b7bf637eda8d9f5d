package models

// RemoteFile describes one file found during a remote tree walk.
// Instances are rebuilt on every run and never persisted.
type RemoteFile struct {
	RemoteID     string
	Name         string
	MimeType     string
	SizeBytes    int64 // provider-reported, may be absent (0) or wrong
	MirroredPath string
}
