package archive

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"resound/internal/catalog"
	"resound/internal/config"
	"resound/internal/logging"
)

// indexSaveInterval is how many newly scanned episodes pass between periodic
// index rebuilds, so an interrupted scan still leaves a mostly current index.
const indexSaveInterval = 10

// Scanner walks a collection and folds every item into the catalog view.
type Scanner struct {
	client  *Client
	view    *catalog.View
	logger  *slog.Logger
	creator string

	pageSize    int
	rateLimit   time.Duration
	rescanAfter time.Duration
}

// NewScanner builds a scanner over the given client and catalog view.
func NewScanner(client *Client, view *catalog.View, cfg *config.Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	pageSize := cfg.Archive.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Scanner{
		client:      client,
		view:        view,
		logger:      logging.NewComponentLogger(logger, "scanner"),
		creator:     cfg.Archive.Creator,
		pageSize:    pageSize,
		rateLimit:   time.Duration(cfg.Archive.RateLimitDelay * float64(time.Second)),
		rescanAfter: time.Duration(cfg.Archive.RescanHours) * time.Hour,
	}
}

// ScanSummary reports what a full scan did.
type ScanSummary struct {
	Total   int
	New     int
	Updated int
	Skipped int
	Failed  int
}

// Scan pages through the collection and updates the catalog. Each episode is
// persisted as soon as its metadata arrives; an interrupted scan loses at
// most the episode in flight. Items checked within the rescan window are
// skipped without a metadata fetch.
func (s *Scanner) Scan(ctx context.Context, collection string) (ScanSummary, error) {
	var summary ScanSummary

	identifiers, err := s.collectIdentifiers(ctx, collection)
	if err != nil {
		return summary, err
	}
	summary.Total = len(identifiers)
	s.logger.Info("collection listed",
		logging.String("collection", collection),
		logging.Int("episodes", len(identifiers)))

	for _, identifier := range identifiers {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		existing := s.view.Get(identifier)
		if existing != nil && s.recentlyChecked(existing) {
			summary.Skipped++
			continue
		}

		item, err := s.fetchItem(ctx, identifier, existing)
		if err != nil {
			s.logger.Warn("episode metadata fetch failed",
				logging.String(logging.FieldEpisodeID, identifier),
				logging.Error(err))
			summary.Failed++
			continue
		}

		if err := s.view.AddOrUpdate(item); err != nil {
			return summary, err
		}
		if existing == nil {
			summary.New++
		} else {
			summary.Updated++
		}

		if (summary.New+summary.Updated)%indexSaveInterval == 0 {
			if err := s.view.SaveIndex(); err != nil {
				s.logger.Warn("periodic index save failed", logging.Error(err))
			}
		}
		s.pause(ctx)
	}

	now := time.Now().UTC()
	s.view.SetLastFullScan(now)
	if err := s.view.SaveIndex(); err != nil {
		return summary, err
	}

	s.logger.Info("scan complete",
		logging.Int("new", summary.New),
		logging.Int("updated", summary.Updated),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

func (s *Scanner) collectIdentifiers(ctx context.Context, collection string) ([]string, error) {
	var identifiers []string
	page := 1
	for {
		result, err := s.client.SearchCollection(ctx, collection, page, s.pageSize)
		if err != nil {
			return nil, err
		}
		if len(result.Docs) == 0 {
			break
		}
		for _, doc := range result.Docs {
			if doc.Identifier != "" {
				identifiers = append(identifiers, doc.Identifier)
			}
		}
		if len(identifiers) >= result.NumFound {
			break
		}
		page++
		s.pause(ctx)
	}
	return identifiers, nil
}

func (s *Scanner) fetchItem(ctx context.Context, identifier string, existing *catalog.Item) (*catalog.Item, error) {
	remote, err := s.client.ItemMetadata(ctx, identifier)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &catalog.Item{
		Identifier:  identifier,
		Title:       string(remote.Metadata.Title),
		Collection:  remote.Metadata.Collection,
		Creator:     string(remote.Metadata.Creator),
		Description: string(remote.Metadata.Description),
		FullText:    string(remote.Metadata.Notes),
		Text: catalog.TextContent{
			SubjectTags: remote.Metadata.Subject,
			Language:    "en",
		},
		Discovery: catalog.Discovery{DiscoveredAt: now, LastChecked: now},
	}
	if item.Creator == "" {
		item.Creator = s.creator
	}
	if date, ok := remote.Metadata.BroadcastDate(); ok {
		item.Date = date
	}
	if existing != nil {
		item.Discovery.DiscoveredAt = existing.Discovery.DiscoveredAt
	}

	if audio := remote.AudioFile(); audio != nil {
		item.Audio = &catalog.Audio{
			Filename: audio.Name,
			Size:     audio.SizeBytes(),
			Duration: audio.DurationSeconds(),
			MD5:      audio.MD5,
		}
		item.Status = catalog.Availability{
			Available:   true,
			DownloadURL: s.client.DownloadURL(identifier, audio.Name),
		}
	}

	if transcript := remote.TranscriptFile(); transcript != nil {
		item.Text.TranscriptFilename = transcript.Name
		text, err := s.client.FetchText(ctx, identifier, transcript.Name)
		if err != nil {
			s.logger.Warn("transcript fetch failed",
				logging.String(logging.FieldEpisodeID, identifier),
				logging.String("file", transcript.Name),
				logging.Error(err))
		} else {
			item.Text.TranscriptText = strings.TrimSpace(text)
		}
	}

	return item, nil
}

func (s *Scanner) recentlyChecked(item *catalog.Item) bool {
	if s.rescanAfter <= 0 || item.Discovery.LastChecked.IsZero() {
		return false
	}
	return time.Since(item.Discovery.LastChecked) < s.rescanAfter
}

func (s *Scanner) pause(ctx context.Context) {
	if s.rateLimit <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.rateLimit):
	}
}
