package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"resound/internal/docstore"
	"resound/internal/logging"
)

// Subtree is the directory name of the pipeline document tree under the
// state root.
const Subtree = "processing_history"

// Tracker owns the per-episode processing records and persists every
// mutation immediately.
type Tracker struct {
	store   *docstore.Store[Record]
	logger  *slog.Logger
	records map[string]*Record
}

// LoadFromDirectory reconstructs the tracker from disk. An absent directory
// yields an empty tracker, not an error.
func LoadFromDirectory(stateRoot string, logger *slog.Logger) (*Tracker, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")

	store := docstore.New(
		filepath.Join(stateRoot, Subtree),
		logger,
		func(rec *Record) string { return rec.Identifier() },
		func(rec *Record) string { return rec.Year() },
	)

	records, err := store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load pipeline records: %w", err)
	}

	return &Tracker{store: store, logger: logger, records: records}, nil
}

// Register creates a record at the discovered stage if none exists for this
// identifier and reports whether one was created. Duplicate registration is a
// strict no-op: stage, retry count, artifacts, title, and date of an existing
// record are never touched, so re-running discovery cannot regress progress.
func (t *Tracker) Register(identifier, title string, date time.Time) (*Record, bool, error) {
	if existing, ok := t.records[identifier]; ok {
		return existing, false, nil
	}

	rec := NewRecord(identifier, title, date)
	if _, err := t.store.Save(rec); err != nil {
		return nil, false, fmt.Errorf("persist new record %s: %w", identifier, err)
	}
	t.records[identifier] = rec
	return rec, true, nil
}

// Get returns the record for an identifier, or nil when unknown.
func (t *Tracker) Get(identifier string) *Record {
	return t.records[identifier]
}

// Len returns the number of tracked records.
func (t *Tracker) Len() int {
	return len(t.records)
}

// QueryByStage returns every record currently at the given stage. Iteration
// order is unspecified.
func (t *Tracker) QueryByStage(stage Stage) []*Record {
	var out []*Record
	for _, rec := range t.records {
		if rec.Status.Stage == stage {
			out = append(out, rec)
		}
	}
	return out
}

// Transition moves a record to a new stage, stores the artifact path in the
// field matching the stage, stamps completion times, and persists. An unknown
// identifier is logged and ignored, never an error for the caller.
func (t *Tracker) Transition(identifier string, stage Stage, artifactPath, message string) error {
	rec, ok := t.records[identifier]
	if !ok {
		t.logger.Warn("transition for unknown identifier",
			logging.String(logging.FieldEpisodeID, identifier),
			logging.String(logging.FieldStage, string(stage)))
		return nil
	}

	now := time.Now().UTC()
	switch stage {
	case StageDownloaded:
		if artifactPath != "" {
			rec.Files.Audio = artifactPath
		}
		rec.Timings.DownloadCompleted = &now
	case StageConverted:
		if artifactPath != "" {
			rec.Files.Video = artifactPath
		}
		rec.Timings.ConversionCompleted = &now
	case StageUploaded, StagePublished:
		if artifactPath != "" {
			rec.Publication.VideoID = artifactPath
		}
		rec.Timings.UploadCompleted = &now
	}

	rec.Status.Stage = stage
	rec.Status.Message = message
	rec.Status.LastUpdated = now

	if _, err := t.store.Save(rec); err != nil {
		return fmt.Errorf("persist transition %s -> %s: %w", identifier, stage, err)
	}
	return nil
}

// RecordFailure appends to the error history, increments the retry count,
// moves the record to failed, and persists. Artifact paths survive so a retry
// starts from the last completed stage. An unknown identifier is logged and
// ignored.
func (t *Tracker) RecordFailure(identifier, kind, message string) error {
	rec, ok := t.records[identifier]
	if !ok {
		t.logger.Warn("failure recorded for unknown identifier",
			logging.String(logging.FieldEpisodeID, identifier),
			logging.String("error_kind", kind))
		return nil
	}

	now := time.Now().UTC()
	rec.Errors = append(rec.Errors, ErrorEntry{
		Timestamp: now,
		Kind:      kind,
		Message:   message,
		Stage:     rec.Status.Stage,
	})
	rec.Status.RetryCount++
	rec.Status.Stage = StageFailed
	rec.Status.Message = message
	rec.Status.LastUpdated = now

	if _, err := t.store.Save(rec); err != nil {
		return fmt.Errorf("persist failure %s: %w", identifier, err)
	}
	return nil
}

// Requeue moves a failed record back to the stage its surviving artifacts
// support. Only failed records move; everything else is left alone.
func (t *Tracker) Requeue(identifier string) error {
	rec, ok := t.records[identifier]
	if !ok || !rec.HasFailed() {
		return nil
	}

	rec.Status.Stage = rec.priorStage()
	rec.Status.Message = "requeued after failure"
	rec.Status.LastUpdated = time.Now().UTC()

	if _, err := t.store.Save(rec); err != nil {
		return fmt.Errorf("persist requeue %s: %w", identifier, err)
	}
	return nil
}

// Persist writes one record's document and returns its location.
func (t *Tracker) Persist(rec *Record) (string, error) {
	return t.store.Save(rec)
}

// Statistics summarizes counts per stage plus the derived pending counters
// the batch driver polls.
type Statistics struct {
	Total              int
	PerStage           map[Stage]int
	PendingDownloads   int
	PendingConversions int
	PendingUploads     int
}

// Statistics computes current per-stage counts.
func (t *Tracker) Statistics() Statistics {
	stats := Statistics{
		Total:    len(t.records),
		PerStage: make(map[Stage]int, len(allStages)),
	}
	for _, stage := range allStages {
		stats.PerStage[stage] = 0
	}
	for _, rec := range t.records {
		stats.PerStage[rec.Status.Stage]++
	}
	stats.PendingDownloads = stats.PerStage[StageDiscovered]
	stats.PendingConversions = stats.PerStage[StageDownloaded]
	stats.PendingUploads = stats.PerStage[StageConverted]
	return stats
}

// Index is the wholesale-rebuilt summary document for the pipeline tree.
type Index struct {
	LastUpdated    time.Time           `yaml:"last_updated"`
	TotalEpisodes  int                 `yaml:"total_episodes"`
	Stages         map[string]int      `yaml:"stages"`
	EpisodesByYear map[string][]string `yaml:"episodes_by_year"`
	Summary        IndexSummary        `yaml:"summary"`
}

// IndexSummary aggregates completion counts.
type IndexSummary struct {
	Completed  int `yaml:"completed"`
	Failed     int `yaml:"failed"`
	InProgress int `yaml:"in_progress"`
}

// SaveIndex rebuilds the pipeline index document wholesale.
func (t *Tracker) SaveIndex() error {
	stats := t.Statistics()
	index := Index{
		LastUpdated:    time.Now().UTC(),
		TotalEpisodes:  stats.Total,
		Stages:         make(map[string]int, len(stats.PerStage)),
		EpisodesByYear: make(map[string][]string),
	}
	for stage, count := range stats.PerStage {
		index.Stages[string(stage)] = count
	}
	for _, rec := range t.records {
		index.EpisodesByYear[rec.Year()] = append(index.EpisodesByYear[rec.Year()], rec.Identifier())
		switch {
		case rec.Status.Stage == StagePublished:
			index.Summary.Completed++
		case rec.Status.Stage == StageFailed:
			index.Summary.Failed++
		case !rec.IsComplete():
			index.Summary.InProgress++
		}
	}
	return t.store.SaveIndex(&index)
}
