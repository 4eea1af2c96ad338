// Package upload publishes rendered videos to the video platform. The
// transport is a placeholder: it assigns deterministic synthetic video ids
// and computes the publication schedule, but performs no remote calls.
package upload

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"resound/internal/config"
	"resound/internal/fileutil"
	"resound/internal/logging"
	"resound/internal/pipeline"
	"resound/internal/services"
)

// Metadata is the listing information attached to an uploaded video.
type Metadata struct {
	Title        string
	Description  string
	Tags         []string
	CategoryID   string
	Privacy      string
	ScheduledFor time.Time
}

// Uploader publishes converted episodes on a fixed release schedule.
type Uploader struct {
	logger *slog.Logger

	startDate    time.Time
	intervalDays int
	categoryID   string
	privacy      string
	defaultTags  []string

	uploaded int
}

// New builds an uploader from config. The schedule offset starts after the
// already published records so resumed runs keep the cadence.
func New(cfg *config.Config, alreadyPublished int, logger *slog.Logger) (*Uploader, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var startDate time.Time
	if cfg.YouTube.StartDate != "" {
		parsed, err := time.Parse(time.RFC3339, cfg.YouTube.StartDate)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "uploading", "configure",
				"invalid youtube start_date: "+cfg.YouTube.StartDate, err)
		}
		startDate = parsed.UTC()
	}
	intervalDays := cfg.YouTube.IntervalDays
	if intervalDays <= 0 {
		intervalDays = 1
	}
	return &Uploader{
		logger:       logging.NewComponentLogger(logger, "upload"),
		startDate:    startDate,
		intervalDays: intervalDays,
		categoryID:   cfg.YouTube.CategoryID,
		privacy:      cfg.YouTube.PrivacyStatus,
		defaultTags:  cfg.YouTube.DefaultTags,
		uploaded:     alreadyPublished,
	}, nil
}

// BuildMetadata assembles the listing for one episode, including its slot in
// the release schedule.
func (u *Uploader) BuildMetadata(rec *pipeline.Record, description string) Metadata {
	title := rec.Identification.Title
	if title == "" {
		title = rec.Identifier()
	}
	var scheduled time.Time
	if !u.startDate.IsZero() {
		scheduled = u.startDate.AddDate(0, 0, u.uploaded*u.intervalDays)
	}
	return Metadata{
		Title:        title,
		Description:  description,
		Tags:         append([]string(nil), u.defaultTags...),
		CategoryID:   u.categoryID,
		Privacy:      u.privacy,
		ScheduledFor: scheduled,
	}
}

// Publish uploads one converted episode and returns its video id. The id is
// derived from the identifier so repeated runs against the same episode are
// recognizable in the state documents.
func (u *Uploader) Publish(ctx context.Context, rec *pipeline.Record, meta Metadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rec.Files.Video == "" {
		return "", services.Wrap(services.ErrValidation, "uploading", "publish",
			rec.Identifier()+": no video artifact recorded", nil)
	}
	if !fileutil.FileExists(rec.Files.Video) {
		return "", services.Wrap(services.ErrValidation, "uploading", "publish",
			rec.Identifier()+": video artifact missing on disk: "+rec.Files.Video, nil)
	}

	videoID := syntheticVideoID(rec.Identifier())
	u.uploaded++

	u.logger.Info("upload complete",
		logging.String(logging.FieldEpisodeID, rec.Identifier()),
		logging.String("video_id", videoID),
		logging.String("scheduled_for", meta.ScheduledFor.Format(time.RFC3339)))
	return videoID, nil
}

func syntheticVideoID(identifier string) string {
	sum := sha1.Sum([]byte(identifier))
	return fmt.Sprintf("yt-%s", strings.ToLower(hex.EncodeToString(sum[:])[:11]))
}
