package driver

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resound/internal/config"
	"resound/internal/logging"
	"resound/internal/pipeline"
	"resound/internal/publication"
	"resound/internal/testsupport"
)

// fakeArchive serves a one-episode collection whose audio payload matches its
// advertised checksum unless corrupt is set.
type fakeArchive struct {
	payload []byte
	corrupt bool
}

func (f *fakeArchive) handler(t *testing.T) http.Handler {
	digest := md5.Sum(f.payload)
	sum := hex.EncodeToString(digest[:])

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/advancedsearch.php":
			w.Write([]byte(`{"response": {"numFound": 1, "start": 0, "docs": [
				{"identifier": "hy0_hooting_yard_2004-04-14", "title": "Burnt Umber", "date": "2004-04-14"}
			]}}`))
		case strings.HasPrefix(r.URL.Path, "/metadata/"):
			fmt.Fprintf(w, `{
				"metadata": {
					"identifier": "hy0_hooting_yard_2004-04-14",
					"title": "Hooting Yard: Burnt Umber",
					"creator": "Frank Key",
					"date": "2004-04-14",
					"description": "The first broadcast.",
					"collection": ["hooting-yard"],
					"mediatype": "audio"
				},
				"files": [
					{"name": "episode.mp3", "format": "VBR MP3", "size": "%d", "md5": "%s", "length": "1704"}
				]
			}`, len(f.payload), sum)
		case strings.HasSuffix(r.URL.Path, "episode.mp3"):
			if f.corrupt {
				w.Write([]byte("garbage"))
				return
			}
			w.Write(f.payload)
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestDriver(t *testing.T, fake *fakeArchive) (*Driver, *config.Config) {
	t.Helper()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Archive.BaseURL = server.URL
	cfg.YouTube.StartDate = "2026-10-01T18:00:00Z"
	cfg.YouTube.IntervalDays = 7

	mgr := testsupport.MustOpenManager(t, cfg)
	return New(cfg, mgr, logging.NewNop()), cfg
}

func TestFullPipelineRun(t *testing.T) {
	drv, _ := newTestDriver(t, &fakeArchive{payload: []byte("episode audio bytes")})
	ctx := context.Background()

	scan, err := drv.Discover(ctx)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if scan.New != 1 {
		t.Fatalf("scan.New = %d", scan.New)
	}

	summaries, err := drv.Run(ctx, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, summary := range summaries {
		if summary.Failed != 0 {
			t.Fatalf("%s pass failed: %+v", summary.Stage, summary)
		}
	}

	rec := drv.mgr.Pipeline().Get("hy0_hooting_yard_2004-04-14")
	if rec == nil {
		t.Fatal("pipeline record missing")
	}
	if rec.Status.Stage != pipeline.StagePublished {
		t.Fatalf("stage = %q, want published", rec.Status.Stage)
	}
	if rec.Files.Audio == "" || rec.Files.Video == "" {
		t.Fatalf("artifacts missing: %+v", rec.Files)
	}
	if rec.Publication.VideoID == "" {
		t.Fatal("video id missing")
	}
	if rec.Metrics.AudioDurationSeconds != 1704 {
		t.Fatalf("duration = %v", rec.Metrics.AudioDurationSeconds)
	}

	pub := drv.mgr.Publication().Get("hy0_hooting_yard_2004-04-14")
	if pub == nil {
		t.Fatal("publication record missing")
	}
	if pub.Publication.Status != publication.StatusScheduled {
		t.Fatalf("publication status = %q", pub.Publication.Status)
	}
}

func TestDryRunMutatesNothing(t *testing.T) {
	drv, _ := newTestDriver(t, &fakeArchive{payload: []byte("episode audio bytes")})
	ctx := context.Background()

	if _, err := drv.Discover(ctx); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if _, err := drv.Download(ctx, 0, time.Time{}, time.Time{}); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if _, err := drv.Convert(ctx, 0); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	summary, err := drv.Upload(ctx, 0, true)
	if err != nil {
		t.Fatalf("dry-run Upload failed: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("dry-run summary = %+v", summary)
	}

	rec := drv.mgr.Pipeline().Get("hy0_hooting_yard_2004-04-14")
	if rec.Status.Stage != pipeline.StageConverted {
		t.Fatalf("dry run advanced stage to %q", rec.Status.Stage)
	}
	if drv.mgr.Publication().Len() != 0 {
		t.Fatal("dry run created publication records")
	}
}

func TestCorruptDownloadIsRecordedAndRetryable(t *testing.T) {
	fake := &fakeArchive{payload: []byte("episode audio bytes"), corrupt: true}
	drv, _ := newTestDriver(t, fake)
	ctx := context.Background()

	if _, err := drv.Discover(ctx); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	summary, err := drv.Download(ctx, 0, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Download pass errored: %v", err)
	}
	if summary.Failed != 1 || summary.Succeeded != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	rec := drv.mgr.Pipeline().Get("hy0_hooting_yard_2004-04-14")
	if !rec.HasFailed() {
		t.Fatal("record should be failed")
	}
	last := rec.LastError()
	if last == nil || last.Kind != "integrity" {
		t.Fatalf("last error = %+v", last)
	}

	// The artifact healed upstream; resume re-queues and completes the
	// download.
	fake.corrupt = false
	summaries, err := drv.Resume(ctx, false)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if len(summaries) == 0 {
		t.Fatal("resume ran no passes")
	}
	rec = drv.mgr.Pipeline().Get("hy0_hooting_yard_2004-04-14")
	if rec.Status.Stage != pipeline.StagePublished {
		t.Fatalf("stage after resume = %q", rec.Status.Stage)
	}
}
