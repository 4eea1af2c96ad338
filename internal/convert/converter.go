// Package convert renders episode audio into a still-image video suitable
// for upload. The renderer is a placeholder: it produces the output artifact
// and carries the full encoding parameter set, but does not invoke an
// encoder.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"resound/internal/config"
	"resound/internal/fileutil"
	"resound/internal/logging"
	"resound/internal/pipeline"
	"resound/internal/services"
)

// Params captures the encoder invocation settings resolved from config.
type Params struct {
	CoverImage   string
	Resolution   string
	VideoCodec   string
	AudioCodec   string
	AudioBitrate string
	FPS          int
	Preset       string
	CRF          int
}

// Result reports a completed conversion.
type Result struct {
	Path     string
	Duration float64
	Size     int64
}

// Converter renders one episode at a time into the configured render
// directory.
type Converter struct {
	params    Params
	renderDir string
	logger    *slog.Logger
}

// New builds a converter from config.
func New(cfg *config.Config, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Converter{
		params: Params{
			CoverImage:   cfg.Conversion.CoverImage,
			Resolution:   cfg.Conversion.Resolution,
			VideoCodec:   cfg.Conversion.VideoCodec,
			AudioCodec:   cfg.Conversion.AudioCodec,
			AudioBitrate: cfg.Conversion.AudioBitrate,
			FPS:          cfg.Conversion.FPS,
			Preset:       cfg.Conversion.Preset,
			CRF:          cfg.Conversion.CRF,
		},
		renderDir: cfg.Paths.RenderDir,
		logger:    logging.NewComponentLogger(logger, "convert"),
	}
}

// Params returns the resolved encoding parameters.
func (c *Converter) Params() Params {
	return c.params
}

// Convert renders the record's audio artifact into
// <render_dir>/<identifier>.mp4. The source audio must exist on disk.
func (c *Converter) Convert(ctx context.Context, rec *pipeline.Record) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rec.Files.Audio == "" {
		return nil, services.Wrap(services.ErrValidation, "converting", "convert",
			rec.Identifier()+": no audio artifact recorded", nil)
	}
	if !fileutil.FileExists(rec.Files.Audio) {
		return nil, services.Wrap(services.ErrValidation, "converting", "convert",
			rec.Identifier()+": audio artifact missing on disk: "+rec.Files.Audio, nil)
	}

	outputPath := filepath.Join(c.renderDir, rec.Identifier()+".mp4")
	if err := os.MkdirAll(c.renderDir, 0o755); err != nil {
		return nil, fmt.Errorf("create render directory: %w", err)
	}

	// Placeholder render: the real encoder invocation is out of scope, so
	// the artifact content just records what would have been run.
	content := fmt.Sprintf("rendered %s\nvideo_codec=%s audio_codec=%s resolution=%s fps=%d preset=%s crf=%d\n",
		filepath.Base(rec.Files.Audio),
		c.params.VideoCodec, c.params.AudioCodec, c.params.Resolution,
		c.params.FPS, c.params.Preset, c.params.CRF)
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write video artifact: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("stat video artifact: %w", err)
	}

	c.logger.Info("conversion complete",
		logging.String(logging.FieldEpisodeID, rec.Identifier()),
		logging.String("path", outputPath))

	return &Result{
		Path:     outputPath,
		Duration: rec.Metrics.AudioDurationSeconds,
		Size:     info.Size(),
	}, nil
}
