package state

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"resound/internal/catalog"
	"resound/internal/config"
	"resound/internal/logging"
	"resound/internal/pipeline"
	"resound/internal/publication"
	"resound/internal/services"
)

const lockFilename = ".lock"

// Manager is the single entry point to the migration state. All mutation
// flows through it so the three views stay consistent with each other.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	catalog     *catalog.View
	pipeline    *pipeline.Tracker
	publication *publication.View
}

// Open loads the three views under cfg.Paths.StateDir and acquires the
// state lock. A lock held by another process is an immediate error, not a
// wait.
func Open(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("state manager requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "state")

	root := cfg.Paths.StateDir
	lockPath := filepath.Join(root, lockFilename)
	lock := flock.New(lockPath)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("state directory %s is locked by another process", root)
	}

	cat, err := catalog.LoadFromDirectory(root, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	pipe, err := pipeline.LoadFromDirectory(root, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	pub, err := publication.LoadFromDirectory(root, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	logger.Info("state loaded",
		logging.String("root", root),
		logging.Int("catalog", cat.Len()),
		logging.Int("pipeline", pipe.Len()),
		logging.Int("publication", pub.Len()))

	return &Manager{
		cfg:         cfg,
		logger:      logger,
		lockPath:    lockPath,
		lock:        lock,
		catalog:     cat,
		pipeline:    pipe,
		publication: pub,
	}, nil
}

// Close flushes the catalog tree, saves the view indexes, and releases the
// lock.
func (m *Manager) Close() error {
	var firstErr error
	for _, save := range []func() error{
		m.catalog.PersistAll,
		m.pipeline.SaveIndex,
		m.publication.SaveIndex,
	} {
		if err := save(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := m.lock.Unlock(); err != nil {
		m.logger.Warn("failed to release state lock", logging.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Catalog exposes the archive catalog view.
func (m *Manager) Catalog() *catalog.View { return m.catalog }

// Pipeline exposes the processing tracker.
func (m *Manager) Pipeline() *pipeline.Tracker { return m.pipeline }

// Publication exposes the publication view.
func (m *Manager) Publication() *publication.View { return m.publication }

// RegisterEpisode records a discovered catalog item and seeds its pipeline
// record. Re-registering a known episode refreshes the catalog document but
// never touches pipeline progress.
func (m *Manager) RegisterEpisode(item *catalog.Item) (created bool, err error) {
	if err := m.catalog.AddOrUpdate(item); err != nil {
		return false, err
	}
	_, created, err = m.pipeline.Register(item.Identifier, item.Title, item.Date)
	return created, err
}

// sortByIdentifier gives the batch passes a stable processing order; the
// identifiers embed the broadcast date, so this is chronological order too.
func sortByIdentifier(records []*pipeline.Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Identifier() < records[j].Identifier()
	})
}

// GetPendingDownloads returns discovered episodes awaiting download, filtered
// to the optional broadcast date window. Zero times mean unbounded; limit <= 0
// means no limit.
func (m *Manager) GetPendingDownloads(limit int, start, end time.Time) []*pipeline.Record {
	pending := m.pipeline.QueryByStage(pipeline.StageDiscovered)
	var out []*pipeline.Record
	for _, rec := range pending {
		date := rec.Identification.Date
		if !start.IsZero() && date.Before(start) {
			continue
		}
		if !end.IsZero() && date.After(end) {
			continue
		}
		out = append(out, rec)
	}
	sortByIdentifier(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetPendingConversions returns downloaded episodes awaiting conversion.
func (m *Manager) GetPendingConversions(limit int) []*pipeline.Record {
	out := m.pipeline.QueryByStage(pipeline.StageDownloaded)
	sortByIdentifier(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetPendingUploads returns converted episodes awaiting upload.
func (m *Manager) GetPendingUploads(limit int) []*pipeline.Record {
	out := m.pipeline.QueryByStage(pipeline.StageConverted)
	sortByIdentifier(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DownloadedEpisodes returns every record with a recorded audio artifact.
func (m *Manager) DownloadedEpisodes() []*pipeline.Record {
	var out []*pipeline.Record
	for _, rec := range m.pipeline.QueryByStage(pipeline.StageDownloaded) {
		out = append(out, rec)
	}
	sortByIdentifier(out)
	return out
}

// ConvertedEpisodes returns every record with a recorded video artifact.
func (m *Manager) ConvertedEpisodes() []*pipeline.Record {
	out := m.pipeline.QueryByStage(pipeline.StageConverted)
	sortByIdentifier(out)
	return out
}

// MarkDownloaded records a completed download with its artifact path and
// audio metrics.
func (m *Manager) MarkDownloaded(identifier, audioPath string, sizeBytes int64, durationSeconds float64) error {
	rec := m.pipeline.Get(identifier)
	if rec != nil {
		rec.Metrics.AudioSizeBytes = sizeBytes
		rec.Metrics.AudioDurationSeconds = durationSeconds
	}
	return m.pipeline.Transition(identifier, pipeline.StageDownloaded, audioPath, "download complete")
}

// MarkConverted records a completed conversion.
func (m *Manager) MarkConverted(identifier, videoPath string, sizeBytes int64) error {
	rec := m.pipeline.Get(identifier)
	if rec != nil {
		rec.Metrics.VideoSizeBytes = sizeBytes
	}
	return m.pipeline.Transition(identifier, pipeline.StageConverted, videoPath, "conversion complete")
}

// UploadDetails carries the listing metadata written into the publication
// record when an upload completes.
type UploadDetails struct {
	VideoID      string
	Title        string
	Description  string
	Tags         []string
	ScheduledFor time.Time
}

// MarkUploaded records a completed upload: the pipeline record moves to
// published and a publication document is created. The two writes are not
// atomic with each other; the pipeline record is the authority and the
// publication view is rebuilt from it on divergence.
func (m *Manager) MarkUploaded(identifier string, details UploadDetails) error {
	if err := m.pipeline.Transition(identifier, pipeline.StagePublished, details.VideoID, "upload complete"); err != nil {
		return err
	}
	rec := m.pipeline.Get(identifier)
	if rec == nil {
		return nil
	}

	now := time.Now().UTC()
	rec.Publication.URL = "https://www.youtube.com/watch?v=" + details.VideoID
	if !details.ScheduledFor.IsZero() {
		scheduled := details.ScheduledFor
		rec.Publication.ScheduledPublish = &scheduled
	}
	if _, err := m.pipeline.Persist(rec); err != nil {
		return err
	}

	status := publication.StatusPublished
	var scheduledFor *time.Time
	if !details.ScheduledFor.IsZero() {
		status = publication.StatusScheduled
		scheduled := details.ScheduledFor
		scheduledFor = &scheduled
	}
	return m.publication.AddOrUpdate(&publication.Record{
		Identification: publication.Identification{
			ArchiveIdentifier: identifier,
			VideoID:           details.VideoID,
			Title:             details.Title,
		},
		Publication: publication.Details{
			Status:       status,
			ScheduledFor: scheduledFor,
			UploadedAt:   &now,
		},
		Metadata: publication.Metadata{
			Description:   details.Description,
			Tags:          details.Tags,
			CategoryID:    m.cfg.YouTube.CategoryID,
			PrivacyStatus: m.cfg.YouTube.PrivacyStatus,
		},
	})
}

// MarkFailed records a stage failure against the episode. The error kind is
// derived from the error's marker so retry decisions can distinguish
// transient network trouble from corrupt data.
func (m *Manager) MarkFailed(identifier string, cause error) error {
	kind := services.Kind(cause)
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	return m.pipeline.RecordFailure(identifier, kind, message)
}

// MarkSkipped takes an episode out of the pipeline permanently.
func (m *Manager) MarkSkipped(identifier, reason string) error {
	return m.pipeline.Transition(identifier, pipeline.StageSkipped, "", reason)
}

// RetryableFailures returns failed records whose retry count is still under
// the configured ceiling for the stage they failed at.
func (m *Manager) RetryableFailures() []*pipeline.Record {
	policy := pipeline.RetryPolicy{
		Download:   m.cfg.State.MaxDownloadRetries,
		Conversion: m.cfg.State.MaxConversionRetries,
		Upload:     m.cfg.State.MaxUploadRetries,
	}
	var out []*pipeline.Record
	for _, rec := range m.pipeline.QueryByStage(pipeline.StageFailed) {
		if rec.CanRetry(policy) {
			out = append(out, rec)
		}
	}
	sortByIdentifier(out)
	return out
}

// RequeueRetryable moves every retryable failure back to the stage its
// artifacts support and returns how many were requeued.
func (m *Manager) RequeueRetryable() (int, error) {
	retryable := m.RetryableFailures()
	for _, rec := range retryable {
		if err := m.pipeline.Requeue(rec.Identifier()); err != nil {
			return 0, err
		}
	}
	return len(retryable), nil
}

// Statistics aggregates counts across the three views.
type Statistics struct {
	CatalogTotal     int
	CatalogAvailable int
	Pipeline         pipeline.Statistics
	PublishedVideos  int
}

// Statistics computes the combined migration snapshot.
func (m *Manager) Statistics() Statistics {
	return Statistics{
		CatalogTotal:     m.catalog.Len(),
		CatalogAvailable: len(m.catalog.Available()),
		Pipeline:         m.pipeline.Statistics(),
		PublishedVideos:  m.publication.Len(),
	}
}
