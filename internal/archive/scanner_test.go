package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resound/internal/catalog"
	"resound/internal/logging"
	"resound/internal/testsupport"
)

func newCollectionServer(t *testing.T, metadataHits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/advancedsearch.php":
			w.Write([]byte(`{"response": {"numFound": 1, "start": 0, "docs": [
				{"identifier": "hy0_hooting_yard_2004-04-14", "title": "Burnt Umber", "date": "2004-04-14T00:00:00Z"}
			]}}`))
		case strings.HasPrefix(r.URL.Path, "/metadata/"):
			if metadataHits != nil {
				*metadataHits++
			}
			w.Write([]byte(metadataPayload))
		case strings.HasSuffix(r.URL.Path, ".txt"):
			w.Write([]byte("Transcript of the first broadcast."))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestScanPopulatesCatalog(t *testing.T) {
	server := newCollectionServer(t, nil)
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	view, err := catalog.LoadFromDirectory(cfg.Paths.StateDir, logging.NewNop())
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	client := NewClient(server.URL, time.Second, nil)
	scanner := NewScanner(client, view, cfg, logging.NewNop())

	summary, err := scanner.Scan(context.Background(), "hooting-yard")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if summary.New != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	item := view.Get("hy0_hooting_yard_2004-04-14")
	if item == nil {
		t.Fatal("item missing from catalog")
	}
	if item.Title != "Hooting Yard: Burnt Umber" {
		t.Fatalf("title = %q", item.Title)
	}
	if item.Audio == nil || item.Audio.MD5 != "aabbccdd" {
		t.Fatalf("audio = %+v", item.Audio)
	}
	if !item.Status.Available {
		t.Fatal("item should be available")
	}
	if !strings.Contains(item.Text.TranscriptText, "first broadcast") {
		t.Fatalf("transcript = %q", item.Text.TranscriptText)
	}

	// The catalog must survive a reload without rescanning.
	reloaded, err := catalog.LoadFromDirectory(cfg.Paths.StateDir, logging.NewNop())
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	if reloaded.Get("hy0_hooting_yard_2004-04-14") == nil {
		t.Fatal("item missing after reload")
	}
}

func TestScanSkipsRecentlyChecked(t *testing.T) {
	var metadataHits int
	server := newCollectionServer(t, &metadataHits)
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Archive.RescanHours = 24
	view, err := catalog.LoadFromDirectory(cfg.Paths.StateDir, logging.NewNop())
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	client := NewClient(server.URL, time.Second, nil)
	scanner := NewScanner(client, view, cfg, logging.NewNop())

	if _, err := scanner.Scan(context.Background(), "hooting-yard"); err != nil {
		t.Fatalf("first Scan failed: %v", err)
	}
	firstHits := metadataHits

	summary, err := scanner.Scan(context.Background(), "hooting-yard")
	if err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", summary.Skipped)
	}
	if metadataHits != firstHits {
		t.Fatalf("second scan refetched metadata: %d -> %d", firstHits, metadataHits)
	}
}
