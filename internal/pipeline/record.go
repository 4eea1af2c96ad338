package pipeline

import (
	"strconv"
	"time"
)

// Identification links a pipeline record to its catalog item. Title and date
// are a convenience snapshot taken at registration; the catalog view holds
// the authoritative metadata.
type Identification struct {
	ArchiveIdentifier string    `yaml:"archive_identifier"`
	Title             string    `yaml:"title"`
	Date              time.Time `yaml:"date"`
}

// StatusInfo is the record's current position and bookkeeping counters.
type StatusInfo struct {
	Stage       Stage     `yaml:"stage"`
	Message     string    `yaml:"message"`
	LastUpdated time.Time `yaml:"last_updated"`
	RetryCount  int       `yaml:"retry_count"`
}

// Files holds artifact locations produced by each stage. A failed stage
// leaves earlier artifacts in place so a retry resumes from the last good
// one.
type Files struct {
	Audio      string `yaml:"audio,omitempty"`
	Video      string `yaml:"video,omitempty"`
	Transcript string `yaml:"transcript,omitempty"`
	Thumbnail  string `yaml:"thumbnail,omitempty"`
}

// Timings captures per-stage start and completion timestamps.
type Timings struct {
	DownloadStarted     *time.Time `yaml:"download_started,omitempty"`
	DownloadCompleted   *time.Time `yaml:"download_completed,omitempty"`
	ConversionStarted   *time.Time `yaml:"conversion_started,omitempty"`
	ConversionCompleted *time.Time `yaml:"conversion_completed,omitempty"`
	UploadStarted       *time.Time `yaml:"upload_started,omitempty"`
	UploadCompleted     *time.Time `yaml:"upload_completed,omitempty"`
}

// Publication holds remote-platform metadata once an upload succeeds.
type Publication struct {
	VideoID          string     `yaml:"video_id,omitempty"`
	URL              string     `yaml:"url,omitempty"`
	ScheduledPublish *time.Time `yaml:"scheduled_publish,omitempty"`
	ActualPublish    *time.Time `yaml:"actual_publish,omitempty"`
}

// Metrics carries size and timing measurements for reporting.
type Metrics struct {
	AudioDurationSeconds  float64 `yaml:"audio_duration_seconds,omitempty"`
	AudioSizeBytes        int64   `yaml:"audio_size_bytes,omitempty"`
	VideoSizeBytes        int64   `yaml:"video_size_bytes,omitempty"`
	ProcessingTimeSeconds float64 `yaml:"processing_time_seconds,omitempty"`
}

// ErrorEntry is one element of the append-only failure history.
type ErrorEntry struct {
	Timestamp time.Time `yaml:"timestamp"`
	Kind      string    `yaml:"type"`
	Message   string    `yaml:"message"`
	Stage     Stage     `yaml:"stage"`
}

// Record is the mutable per-episode processing state. The YAML field layout
// is the persisted-state contract; keep names and nesting stable.
type Record struct {
	Identification Identification `yaml:"identification"`
	Status         StatusInfo     `yaml:"status"`
	Files          Files          `yaml:"files"`
	Timings        Timings        `yaml:"processing_times"`
	Publication    Publication    `yaml:"youtube"`
	Metrics        Metrics        `yaml:"metrics"`
	Errors         []ErrorEntry   `yaml:"errors,omitempty"`
}

// NewRecord creates a record at the discovered stage.
func NewRecord(identifier, title string, date time.Time) *Record {
	return &Record{
		Identification: Identification{
			ArchiveIdentifier: identifier,
			Title:             title,
			Date:              date,
		},
		Status: StatusInfo{
			Stage:       StageDiscovered,
			LastUpdated: time.Now().UTC(),
		},
	}
}

// Identifier returns the catalog identifier this record is keyed by.
func (r *Record) Identifier() string {
	return r.Identification.ArchiveIdentifier
}

// Year returns the partition bucket for this record.
func (r *Record) Year() string {
	if r.Identification.Date.IsZero() {
		return "unknown"
	}
	return strconv.Itoa(r.Identification.Date.Year())
}

// Stage returns the record's current pipeline stage.
func (r *Record) Stage() Stage {
	return r.Status.Stage
}

// IsComplete reports whether processing has finished for good.
func (r *Record) IsComplete() bool {
	return r.Status.Stage.IsTerminal()
}

// HasFailed reports whether the record sits in the failed stage.
func (r *Record) HasFailed() bool {
	return r.Status.Stage == StageFailed
}

// LastError returns the most recent failure entry, or nil when the record has
// never failed.
func (r *Record) LastError() *ErrorEntry {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[len(r.Errors)-1]
}

// RetryPolicy holds the per-stage retry ceilings for failed records.
type RetryPolicy struct {
	Download   int
	Conversion int
	Upload     int
}

// CanRetry reports whether a failed record may be re-queued under the given
// policy. The ceiling is chosen by the stage the record occupied when its
// most recent failure was recorded.
func (r *Record) CanRetry(policy RetryPolicy) bool {
	if !r.HasFailed() {
		return false
	}
	last := r.LastError()
	if last == nil {
		return false
	}

	var ceiling int
	switch last.Stage {
	case StageDiscovered, StageDownloading:
		ceiling = policy.Download
	case StageDownloaded, StageConverting:
		ceiling = policy.Conversion
	case StageConverted, StageUploading:
		ceiling = policy.Upload
	default:
		return false
	}
	return r.Status.RetryCount < ceiling
}

// priorStage returns the stage a failed record should resume from, based on
// its surviving artifacts.
func (r *Record) priorStage() Stage {
	switch {
	case r.Files.Video != "":
		return StageConverted
	case r.Files.Audio != "":
		return StageDownloaded
	default:
		return StageDiscovered
	}
}
