package archive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resound/internal/services"
)

const metadataPayload = `{
  "metadata": {
    "identifier": "hy0_hooting_yard_2004-04-14",
    "title": "Hooting Yard: Burnt Umber",
    "creator": "Frank Key",
    "date": "2004-04-14",
    "description": "The first broadcast.",
    "collection": ["hooting-yard", "radio"],
    "mediatype": "audio"
  },
  "files": [
    {"name": "hy0_hooting_yard_2004-04-14.mp3", "format": "VBR MP3", "size": "27262976", "md5": "aabbccdd", "length": "28:24"},
    {"name": "hy0_hooting_yard_2004-04-14.txt", "format": "Text", "size": "1024"}
  ],
  "server": "ia800000.us.archive.org",
  "dir": "/0/items/hy0_hooting_yard_2004-04-14"
}`

func TestSearchCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/advancedsearch.php" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		query := r.URL.Query()
		if got := query.Get("q"); got != "collection:hooting-yard" {
			t.Errorf("q = %q", got)
		}
		if got := query.Get("page"); got != "2" {
			t.Errorf("page = %q", got)
		}
		w.Write([]byte(`{"response": {"numFound": 250, "start": 100, "docs": [
			{"identifier": "ep-one", "title": "One", "date": "2004-04-14T00:00:00Z"},
			{"identifier": "ep-two", "title": ["Two"], "date": "2004-04-21T00:00:00Z"}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	result, err := client.SearchCollection(context.Background(), "hooting-yard", 2, 100)
	if err != nil {
		t.Fatalf("SearchCollection failed: %v", err)
	}
	if result.NumFound != 250 {
		t.Fatalf("numFound = %d", result.NumFound)
	}
	if len(result.Docs) != 2 {
		t.Fatalf("docs = %d", len(result.Docs))
	}
	if result.Docs[1].Identifier != "ep-two" || string(result.Docs[1].Title) != "Two" {
		t.Fatalf("doc[1] = %+v", result.Docs[1])
	}
}

func TestItemMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metadata/hy0_hooting_yard_2004-04-14" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(metadataPayload))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	item, err := client.ItemMetadata(context.Background(), "hy0_hooting_yard_2004-04-14")
	if err != nil {
		t.Fatalf("ItemMetadata failed: %v", err)
	}
	if string(item.Metadata.Title) != "Hooting Yard: Burnt Umber" {
		t.Fatalf("title = %q", item.Metadata.Title)
	}
	date, ok := item.Metadata.BroadcastDate()
	if !ok || !date.Equal(time.Date(2004, 4, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v ok=%v", date, ok)
	}

	audio := item.AudioFile()
	if audio == nil {
		t.Fatal("audio file not found")
	}
	if audio.SizeBytes() != 27262976 {
		t.Fatalf("size = %d", audio.SizeBytes())
	}
	if got := audio.DurationSeconds(); got != 28*60+24 {
		t.Fatalf("duration = %v", got)
	}

	transcript := item.TranscriptFile()
	if transcript == nil || transcript.Name != "hy0_hooting_yard_2004-04-14.txt" {
		t.Fatalf("transcript = %+v", transcript)
	}
}

func TestItemMetadataNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	_, err := client.ItemMetadata(context.Background(), "no_such_item")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransportErrorIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second, nil)
	_, err := client.ItemMetadata(context.Background(), "anything")
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatal("network errors should be retryable")
	}
}
