package sync

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/docsyard/drive-mirror/internal/catalog"
	"github.com/docsyard/drive-mirror/internal/drive"
	"github.com/docsyard/drive-mirror/internal/enrich"
	"github.com/docsyard/drive-mirror/internal/storage"
	"github.com/docsyard/drive-mirror/pkg/models"
)

// Config holds tunables for one syncer.
type Config struct {
	MaxUploadBytes int64
	Workers        int
	ShowProgress   bool
}

// Syncer mirrors a remote folder tree into the object store and catalog.
// All collaborators are handed in at construction so tests can substitute
// fakes without process-wide state.
type Syncer struct {
	src      drive.Source
	store    storage.ObjectStore
	cat      *catalog.Catalog
	enricher enrich.Enricher
	cfg      Config
	logger   *zap.Logger
}

// New creates a syncer. enricher may be nil to disable content extraction.
func New(src drive.Source, store storage.ObjectStore, cat *catalog.Catalog, enricher enrich.Enricher, cfg Config, logger *zap.Logger) *Syncer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Syncer{
		src:      src,
		store:    store,
		cat:      cat,
		enricher: enricher,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run walks the remote tree once and mirrors every new or changed file.
// A listing failure is fatal; per-file failures are logged, counted, and
// never abort the run. The run record is written even on the fatal path.
func (s *Syncer) Run(ctx context.Context, rootFolderID string) (*models.RunRecord, error) {
	record := &models.RunRecord{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	files, err := drive.Walk(ctx, s.src, rootFolderID)
	if err != nil {
		record.FinishedAt = time.Now().UTC()
		record.Notes = fmt.Sprintf("error: %v", err)
		// Best effort: a failure writing the record must not mask the
		// walk error being reported.
		if insErr := s.cat.InsertRun(record); insErr != nil {
			s.logger.Error("failed to record aborted run", zap.Error(insErr))
		}
		return nil, fmt.Errorf("tree walk: %w", err)
	}

	outcomes := s.processAll(ctx, files)

	stats := models.RunStats{}
	for _, o := range outcomes {
		stats.Scanned++
		switch o.Status {
		case StatusUnchanged:
			stats.Unchanged++
		case StatusPathUpdated:
			stats.PathUpdated++
		case StatusMirrored:
			stats.Changed++
			stats.UploadedBytes += o.Bytes
		case StatusSkippedTooLarge:
			stats.SkippedTooLarge++
			s.logger.Info("skipped, too large",
				zap.String("remote_id", o.File.RemoteID),
				zap.String("path", o.File.MirroredPath),
				zap.Int64("bytes", o.Bytes))
		case StatusFailed:
			stats.Failed++
			s.logger.Warn("file failed",
				zap.String("remote_id", o.File.RemoteID),
				zap.String("path", o.File.MirroredPath),
				zap.Error(o.Err))
		}
	}

	record.FinishedAt = time.Now().UTC()
	record.FilesScanned = stats.Scanned
	record.FilesChanged = stats.Changed + stats.PathUpdated
	record.FilesSkipped = stats.Skipped()
	record.FilesFailed = stats.Failed
	if stats.Failed > 0 {
		record.Notes = fmt.Sprintf("completed with %d per-file failures", stats.Failed)
	} else {
		record.Notes = "success"
	}

	if err := s.cat.InsertRun(record); err != nil {
		return nil, fmt.Errorf("finalize run record: %w", err)
	}
	return record, nil
}

// processAll runs the per-file pipeline over every file. Files are
// partitioned across workers by a hash of their remote id, so two files with
// the same id can never be processed concurrently.
func (s *Syncer) processAll(ctx context.Context, files []models.RemoteFile) []Outcome {
	var bar *pb.ProgressBar
	if s.cfg.ShowProgress && len(files) > 0 {
		bar = pb.StartNew(len(files))
		defer bar.Finish()
	}

	buckets := make([][]models.RemoteFile, s.cfg.Workers)
	for _, f := range files {
		i := bucketFor(f.RemoteID, s.cfg.Workers)
		buckets[i] = append(buckets[i], f)
	}

	results := make([][]Outcome, s.cfg.Workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := range buckets {
		i := i
		g.Go(func() error {
			for _, f := range buckets[i] {
				results[i] = append(results[i], s.processFile(ctx, f))
				if bar != nil {
					bar.Increment()
				}
			}
			return nil
		})
	}
	// workers only report outcomes, never errors
	_ = g.Wait()

	outcomes := make([]Outcome, 0, len(files))
	for _, r := range results {
		outcomes = append(outcomes, r...)
	}
	return outcomes
}

func bucketFor(remoteID string, workers int) int {
	h := fnv.New32a()
	h.Write([]byte(remoteID))
	return int(h.Sum32() % uint32(workers))
}

// processFile is the per-file pipeline: size gate, download, fingerprint,
// checksum compare, then mirror. Every exit is a tagged outcome.
func (s *Syncer) processFile(ctx context.Context, f models.RemoteFile) Outcome {
	if f.SizeBytes > s.cfg.MaxUploadBytes {
		return Outcome{File: f, Status: StatusSkippedTooLarge, Bytes: f.SizeBytes}
	}

	ref, err := s.cat.GetRef(f.RemoteID)
	if err != nil {
		return Outcome{File: f, Status: StatusFailed, Err: err}
	}

	data, err := s.src.Download(ctx, f.RemoteID)
	if err != nil {
		return Outcome{File: f, Status: StatusFailed, Err: fmt.Errorf("download: %w", err)}
	}

	// The reported size is untrusted; re-check against the actual bytes.
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return Outcome{File: f, Status: StatusSkippedTooLarge, Bytes: int64(len(data))}
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	if ref != nil && ref.Checksum == checksum {
		if ref.StoragePath == f.MirroredPath {
			// unchanged rerun: zero writes
			return Outcome{File: f, Status: StatusUnchanged}
		}
		// Same bytes, new path. The object must exist at the new key and
		// the row's derived columns must follow the move.
		if err := s.store.Upload(ctx, f.MirroredPath, data, contentType(f.MimeType, f.Name)); err != nil {
			return Outcome{File: f, Status: StatusFailed, Err: err}
		}
		category, brand, title := derivePlacement(f.MirroredPath)
		if err := s.cat.UpdatePlacement(f.RemoteID, f.MirroredPath, f.MirroredPath, category, brand, title); err != nil {
			return Outcome{File: f, Status: StatusFailed, Err: err}
		}
		return Outcome{File: f, Status: StatusPathUpdated}
	}

	return s.mirror(ctx, f, data, checksum)
}

// mirror uploads the bytes and upserts the catalog row, in that order. If
// the upsert fails after the upload, the next run recomputes the same
// checksum, finds the row stale or missing, and replays both writes; the
// object write is idempotent, so no transaction is needed.
func (s *Syncer) mirror(ctx context.Context, f models.RemoteFile, data []byte, checksum string) Outcome {
	ct := contentType(f.MimeType, f.Name)
	if err := s.store.Upload(ctx, f.MirroredPath, data, ct); err != nil {
		return Outcome{File: f, Status: StatusFailed, Err: err}
	}

	category, brand, title := derivePlacement(f.MirroredPath)
	doc := &models.Document{
		RemoteID:     f.RemoteID,
		MirroredPath: f.MirroredPath,
		Category:     category,
		Brand:        brand,
		Title:        title,
		MimeType:     ct,
		Checksum:     checksum,
		StoragePath:  f.MirroredPath,
	}
	s.applyEnrichment(doc, f, data)

	if err := s.cat.UpsertDocument(doc); err != nil {
		return Outcome{File: f, Status: StatusFailed, Err: err}
	}
	return Outcome{File: f, Status: StatusMirrored, Bytes: int64(len(data))}
}

// applyEnrichment runs optional content extraction. Failures mark the row
// parsedOk=false and nothing more; the raw bytes are mirrored regardless.
func (s *Syncer) applyEnrichment(doc *models.Document, f models.RemoteFile, data []byte) {
	if s.enricher == nil {
		return
	}
	res, err := s.enricher.Enrich(f.Name, f.MimeType, data)
	if err != nil {
		doc.ParsedOK = sql.NullBool{Bool: false, Valid: true}
		s.logger.Warn("enrichment failed",
			zap.String("remote_id", f.RemoteID),
			zap.String("path", f.MirroredPath),
			zap.Error(err))
		return
	}
	if res == nil {
		return
	}
	doc.ParsedOK = sql.NullBool{Bool: true, Valid: true}
	if res.PageCount > 0 {
		doc.PageCount = sql.NullInt64{Int64: int64(res.PageCount), Valid: true}
	}
	if res.ExtractedText != "" {
		doc.ExtractedText = sql.NullString{String: res.ExtractedText, Valid: true}
	}
}
