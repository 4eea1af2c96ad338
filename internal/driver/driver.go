package driver

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"resound/internal/archive"
	"resound/internal/config"
	"resound/internal/convert"
	"resound/internal/logging"
	"resound/internal/pipeline"
	"resound/internal/services"
	"resound/internal/state"
	"resound/internal/upload"
)

// Driver wires the stage collaborators to the state manager.
type Driver struct {
	cfg    *config.Config
	mgr    *state.Manager
	logger *slog.Logger

	client     *archive.Client
	downloader *archive.Downloader
	converter  *convert.Converter
}

// New builds a driver over an open state manager.
func New(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Archive.TimeoutSeconds) * time.Second
	return &Driver{
		cfg:        cfg,
		mgr:        mgr,
		logger:     logging.NewComponentLogger(logger, "driver"),
		client:     archive.NewClient(cfg.Archive.BaseURL, timeout, nil),
		downloader: archive.NewDownloader(cfg, nil, logger),
		converter:  convert.New(cfg, logger),
	}
}

// PassSummary reports one pass over a pending set.
type PassSummary struct {
	Stage     string
	Processed int
	Succeeded int
	Failed    int
}

func (d *Driver) passLogger(ctx context.Context, stage string) (context.Context, *slog.Logger) {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	ctx = services.WithStage(ctx, stage)
	logger := d.logger.With(
		logging.String(logging.FieldCorrelationID, requestID),
		logging.String(logging.FieldStage, stage))
	return ctx, logger
}

// Discover runs a full collection scan and registers every catalog item in
// the pipeline.
func (d *Driver) Discover(ctx context.Context) (archive.ScanSummary, error) {
	ctx, logger := d.passLogger(ctx, "discover")

	scanner := archive.NewScanner(d.client, d.mgr.Catalog(), d.cfg, d.logger)
	summary, err := scanner.Scan(ctx, d.cfg.Archive.Collection)
	if err != nil {
		return summary, err
	}

	registered := 0
	for _, item := range d.mgr.Catalog().All() {
		if !item.Status.Available {
			continue
		}
		created, err := d.mgr.RegisterEpisode(item)
		if err != nil {
			return summary, err
		}
		if created {
			registered++
		}
	}
	logger.Info("discovery pass complete",
		logging.Int("catalog", d.mgr.Catalog().Len()),
		logging.Int("registered", registered))
	return summary, nil
}

// Download processes pending downloads, at most limit episodes, optionally
// filtered to a broadcast date window.
func (d *Driver) Download(ctx context.Context, limit int, start, end time.Time) (PassSummary, error) {
	ctx, logger := d.passLogger(ctx, "download")
	summary := PassSummary{Stage: "download"}

	for _, rec := range d.mgr.GetPendingDownloads(limit, start, end) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++

		item := d.mgr.Catalog().Get(rec.Identifier())
		if item == nil {
			d.recordFailure(logger, &summary, rec,
				services.Wrap(services.ErrUnknownIdentifier, "downloading", "download",
					rec.Identifier()+": no catalog item", nil))
			continue
		}

		result, err := d.downloader.Download(ctx, item, d.cfg.Paths.DownloadDir)
		if err != nil {
			d.recordFailure(logger, &summary, rec, err)
			continue
		}
		var duration float64
		if item.Audio != nil {
			duration = item.Audio.Duration
		}
		if err := d.mgr.MarkDownloaded(rec.Identifier(), result.Path, result.Size, duration); err != nil {
			return summary, err
		}
		summary.Succeeded++
		logger.Info("episode downloaded",
			logging.String(logging.FieldEpisodeID, rec.Identifier()),
			logging.String("path", result.Path))
	}
	return summary, nil
}

// Convert processes pending conversions, at most limit episodes.
func (d *Driver) Convert(ctx context.Context, limit int) (PassSummary, error) {
	ctx, logger := d.passLogger(ctx, "convert")
	summary := PassSummary{Stage: "convert"}

	for _, rec := range d.mgr.GetPendingConversions(limit) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++

		result, err := d.converter.Convert(ctx, rec)
		if err != nil {
			d.recordFailure(logger, &summary, rec, err)
			continue
		}
		if err := d.mgr.MarkConverted(rec.Identifier(), result.Path, result.Size); err != nil {
			return summary, err
		}
		summary.Succeeded++
		logger.Info("episode converted",
			logging.String(logging.FieldEpisodeID, rec.Identifier()),
			logging.String("path", result.Path))
	}
	return summary, nil
}

// Upload processes pending uploads, at most limit episodes. In dry-run mode
// the pass logs what it would publish and mutates nothing.
func (d *Driver) Upload(ctx context.Context, limit int, dryRun bool) (PassSummary, error) {
	ctx, logger := d.passLogger(ctx, "upload")
	summary := PassSummary{Stage: "upload"}

	uploader, err := upload.New(d.cfg, d.mgr.Publication().Len(), d.logger)
	if err != nil {
		return summary, err
	}

	for _, rec := range d.mgr.GetPendingUploads(limit) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++

		meta := uploader.BuildMetadata(rec, d.describeEpisode(rec))
		if dryRun {
			logger.Info("dry run, would upload",
				logging.String(logging.FieldEpisodeID, rec.Identifier()),
				logging.String("title", meta.Title))
			summary.Succeeded++
			continue
		}

		videoID, err := uploader.Publish(ctx, rec, meta)
		if err != nil {
			d.recordFailure(logger, &summary, rec, err)
			continue
		}
		err = d.mgr.MarkUploaded(rec.Identifier(), state.UploadDetails{
			VideoID:      videoID,
			Title:        meta.Title,
			Description:  meta.Description,
			Tags:         meta.Tags,
			ScheduledFor: meta.ScheduledFor,
		})
		if err != nil {
			return summary, err
		}
		summary.Succeeded++
		logger.Info("episode uploaded",
			logging.String(logging.FieldEpisodeID, rec.Identifier()),
			logging.String("video_id", videoID))
	}
	return summary, nil
}

// Run chains the download, convert, and upload passes over everything
// pending. Discovery stays a separate explicit step so a full network rescan
// never happens by accident.
func (d *Driver) Run(ctx context.Context, dryRun bool) ([]PassSummary, error) {
	var summaries []PassSummary

	download, err := d.Download(ctx, 0, time.Time{}, time.Time{})
	summaries = append(summaries, download)
	if err != nil {
		return summaries, err
	}

	converted, err := d.Convert(ctx, 0)
	summaries = append(summaries, converted)
	if err != nil {
		return summaries, err
	}

	uploaded, err := d.Upload(ctx, 0, dryRun)
	summaries = append(summaries, uploaded)
	return summaries, err
}

// Resume re-queues retryable failures, then runs only the passes that have
// pending work.
func (d *Driver) Resume(ctx context.Context, dryRun bool) ([]PassSummary, error) {
	requeued, err := d.mgr.RequeueRetryable()
	if err != nil {
		return nil, err
	}
	if requeued > 0 {
		d.logger.Info("requeued retryable failures", logging.Int("count", requeued))
	}

	stats := d.mgr.Statistics()
	var summaries []PassSummary

	if stats.Pipeline.PendingDownloads > 0 {
		summary, err := d.Download(ctx, 0, time.Time{}, time.Time{})
		summaries = append(summaries, summary)
		if err != nil {
			return summaries, err
		}
	}
	if stats := d.mgr.Statistics(); stats.Pipeline.PendingConversions > 0 {
		summary, err := d.Convert(ctx, 0)
		summaries = append(summaries, summary)
		if err != nil {
			return summaries, err
		}
	}
	if stats := d.mgr.Statistics(); stats.Pipeline.PendingUploads > 0 {
		summary, err := d.Upload(ctx, 0, dryRun)
		summaries = append(summaries, summary)
		if err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

func (d *Driver) recordFailure(logger *slog.Logger, summary *PassSummary, rec *pipeline.Record, cause error) {
	summary.Failed++
	logger.Warn("episode failed",
		logging.String(logging.FieldEpisodeID, rec.Identifier()),
		logging.String("error_kind", services.Kind(cause)),
		logging.Error(cause))
	if err := d.mgr.MarkFailed(rec.Identifier(), cause); err != nil {
		logger.Error("failed to record failure", logging.Error(err))
	}
}

func (d *Driver) describeEpisode(rec *pipeline.Record) string {
	var b strings.Builder
	if item := d.mgr.Catalog().Get(rec.Identifier()); item != nil && item.Description != "" {
		b.WriteString(item.Description)
		b.WriteString("\n\n")
	}
	b.WriteString("Originally broadcast ")
	b.WriteString(rec.Identification.Date.Format("2 January 2006"))
	b.WriteString(". Audio preserved at archive.org under ")
	b.WriteString(rec.Identifier())
	b.WriteString(".")
	return b.String()
}
