package archive

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resound/internal/catalog"
	"resound/internal/config"
	"resound/internal/fileutil"
	"resound/internal/logging"
	"resound/internal/services"
)

// Downloader streams episode audio to disk with on-the-fly MD5 verification.
type Downloader struct {
	client         HTTPDoer
	logger         *slog.Logger
	chunkSize      int
	verifyChecksum bool
}

// NewDownloader builds a downloader. A nil doer uses a default http.Client
// with the configured timeout.
func NewDownloader(cfg *config.Config, doer HTTPDoer, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = logging.NewNop()
	}
	if doer == nil {
		doer = &http.Client{Timeout: time.Duration(cfg.Archive.TimeoutSeconds) * time.Second}
	}
	chunkSize := cfg.Archive.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}
	return &Downloader{
		client:         doer,
		logger:         logging.NewComponentLogger(logger, "downloader"),
		chunkSize:      chunkSize,
		verifyChecksum: cfg.Archive.VerifyChecksum,
	}
}

// DownloadResult reports a completed download.
type DownloadResult struct {
	Path     string
	Size     int64
	MD5      string
	Duration time.Duration
}

// Download fetches the item's audio into outputDir. A checksum mismatch
// deletes the artifact and returns ErrIntegrity; a transport failure deletes
// the partial file and returns ErrNetwork. Either way nothing corrupt is
// left on disk.
func (d *Downloader) Download(ctx context.Context, item *catalog.Item, outputDir string) (*DownloadResult, error) {
	if item.Audio == nil || !item.Status.Available || item.Status.DownloadURL == "" {
		return nil, services.Wrap(services.ErrValidation, "downloading", "download",
			item.Identifier+": no downloadable audio", nil)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, item.Audio.Filename)

	if result := d.reuseExisting(item, outputPath); result != nil {
		return result, nil
	}

	start := time.Now()
	size, digest, err := d.fetch(ctx, item.Status.DownloadURL, outputPath)
	if err != nil {
		return nil, err
	}

	if d.verifyChecksum && item.Audio.MD5 != "" {
		if !strings.EqualFold(digest, item.Audio.MD5) {
			if err := fileutil.RemoveIfExists(outputPath); err != nil {
				d.logger.Warn("failed to remove corrupt artifact",
					logging.String("path", outputPath), logging.Error(err))
			}
			return nil, services.Wrap(services.ErrIntegrity, "downloading", "download",
				fmt.Sprintf("%s: md5 mismatch, expected %s got %s", item.Identifier, item.Audio.MD5, digest), nil)
		}
	}

	elapsed := time.Since(start)
	d.logger.Info("download complete",
		logging.String(logging.FieldEpisodeID, item.Identifier),
		logging.String("path", outputPath),
		logging.Int64("bytes", size),
		logging.Duration("elapsed", elapsed))

	return &DownloadResult{Path: outputPath, Size: size, MD5: digest, Duration: elapsed}, nil
}

// reuseExisting returns a result for an already downloaded file whose digest
// matches the published checksum, so a retried pass skips the transfer.
// Without a published checksum a partial file cannot be told apart from a
// complete one, and the item is fetched again.
func (d *Downloader) reuseExisting(item *catalog.Item, outputPath string) *DownloadResult {
	if !d.verifyChecksum || item.Audio.MD5 == "" || !fileutil.FileExists(outputPath) {
		return nil
	}
	digest, err := fileutil.MD5File(outputPath)
	if err != nil || !strings.EqualFold(digest, item.Audio.MD5) {
		return nil
	}
	info, err := os.Stat(outputPath)
	if err != nil {
		return nil
	}
	d.logger.Info("existing download verified, skipping transfer",
		logging.String(logging.FieldEpisodeID, item.Identifier),
		logging.String("path", outputPath))
	return &DownloadResult{Path: outputPath, Size: info.Size(), MD5: digest}
}

func (d *Downloader) fetch(ctx context.Context, rawURL, outputPath string) (int64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, "", fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", services.Wrap(services.ErrNetwork, "downloading", "download", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, "", services.Wrap(services.ErrNotFound, "downloading", "download", rawURL, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, "", services.Wrap(services.ErrNetwork, "downloading", "download",
			fmt.Sprintf("%s returned %d", rawURL, resp.StatusCode), nil)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return 0, "", fmt.Errorf("create download file: %w", err)
	}

	hasher := md5.New()
	written, err := io.CopyBuffer(io.MultiWriter(file, hasher), resp.Body, make([]byte, d.chunkSize))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		fileutil.RemoveIfExists(outputPath)
		return 0, "", services.Wrap(services.ErrNetwork, "downloading", "download", rawURL, err)
	}

	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}
