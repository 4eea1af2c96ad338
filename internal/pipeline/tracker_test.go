package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"resound/internal/logging"
)

func newTestTracker(t *testing.T, root string) *Tracker {
	t.Helper()
	tracker, err := LoadFromDirectory(root, logging.NewNop())
	if err != nil {
		t.Fatalf("LoadFromDirectory failed: %v", err)
	}
	return tracker
}

func TestRegisterIsIdempotent(t *testing.T) {
	root := t.TempDir()
	tracker := newTestTracker(t, root)

	date := time.Date(2007, 5, 16, 0, 0, 0, 0, time.UTC)
	rec, created, err := tracker.Register("hooting_yard_2007_05_16", "On the Banks", date)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !created {
		t.Fatal("expected first registration to create a record")
	}

	if err := tracker.Transition("hooting_yard_2007_05_16", StageDownloaded, "/audio/ep.mp3", "downloaded"); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	again, created, err := tracker.Register("hooting_yard_2007_05_16", "Different Title", date.AddDate(1, 0, 0))
	if err != nil {
		t.Fatalf("re-Register failed: %v", err)
	}
	if created {
		t.Fatal("duplicate registration must not create a record")
	}
	if again != rec {
		t.Fatal("duplicate registration must return the existing record")
	}
	if again.Status.Stage != StageDownloaded {
		t.Fatalf("stage regressed to %q on re-registration", again.Status.Stage)
	}
	if again.Files.Audio != "/audio/ep.mp3" {
		t.Fatalf("audio artifact lost on re-registration: %q", again.Files.Audio)
	}
	if again.Identification.Title != "On the Banks" {
		t.Fatalf("title overwritten on re-registration: %q", again.Identification.Title)
	}
}

func TestTransitionRecordsArtifactsAndTimings(t *testing.T) {
	tracker := newTestTracker(t, t.TempDir())

	date := time.Date(2009, 2, 4, 0, 0, 0, 0, time.UTC)
	if _, _, err := tracker.Register("hooting_yard_2009_02_04", "Tales", date); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	steps := []struct {
		stage    Stage
		artifact string
	}{
		{StageDownloaded, "/audio/ep.mp3"},
		{StageConverted, "/video/ep.mp4"},
		{StagePublished, "yt-abc123"},
	}
	for _, step := range steps {
		if err := tracker.Transition("hooting_yard_2009_02_04", step.stage, step.artifact, ""); err != nil {
			t.Fatalf("Transition to %s failed: %v", step.stage, err)
		}
	}

	rec := tracker.Get("hooting_yard_2009_02_04")
	if rec.Files.Audio != "/audio/ep.mp3" {
		t.Fatalf("audio path = %q", rec.Files.Audio)
	}
	if rec.Files.Video != "/video/ep.mp4" {
		t.Fatalf("video path = %q", rec.Files.Video)
	}
	if rec.Publication.VideoID != "yt-abc123" {
		t.Fatalf("video id = %q", rec.Publication.VideoID)
	}
	if rec.Timings.DownloadCompleted == nil || rec.Timings.ConversionCompleted == nil || rec.Timings.UploadCompleted == nil {
		t.Fatal("expected all completion timestamps to be set")
	}
	if !rec.IsComplete() {
		t.Fatal("published record should be complete")
	}
}

func TestTransitionUnknownIdentifierIsIgnored(t *testing.T) {
	tracker := newTestTracker(t, t.TempDir())

	if err := tracker.Transition("no_such_episode", StageDownloaded, "/audio/x.mp3", ""); err != nil {
		t.Fatalf("unknown identifier should not error, got %v", err)
	}
	if err := tracker.RecordFailure("no_such_episode", "network", "timeout"); err != nil {
		t.Fatalf("unknown identifier should not error, got %v", err)
	}
	if tracker.Len() != 0 {
		t.Fatalf("tracker should still be empty, has %d records", tracker.Len())
	}
}

func TestStateSurvivesReload(t *testing.T) {
	root := t.TempDir()
	tracker := newTestTracker(t, root)

	date := time.Date(2010, 11, 3, 0, 0, 0, 0, time.UTC)
	if _, _, err := tracker.Register("hooting_yard_2010_11_03", "Pebblehead", date); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := tracker.Transition("hooting_yard_2010_11_03", StageDownloaded, "/audio/ep.mp3", "ok"); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	// A fresh tracker over the same directory models a process restart.
	reloaded := newTestTracker(t, root)
	rec := reloaded.Get("hooting_yard_2010_11_03")
	if rec == nil {
		t.Fatal("record missing after reload")
	}
	if rec.Status.Stage != StageDownloaded {
		t.Fatalf("stage after reload = %q", rec.Status.Stage)
	}
	if rec.Files.Audio != "/audio/ep.mp3" {
		t.Fatalf("audio path after reload = %q", rec.Files.Audio)
	}
	if !rec.Identification.Date.Equal(date) {
		t.Fatalf("date after reload = %v", rec.Identification.Date)
	}
}

func TestLoadSkipsCorruptDocuments(t *testing.T) {
	root := t.TempDir()
	tracker := newTestTracker(t, root)

	for i := 0; i < 10; i++ {
		date := time.Date(2008, 1, 1+i, 0, 0, 0, 0, time.UTC)
		id := "hooting_yard_2008_01_0" + string(rune('0'+i))
		if _, _, err := tracker.Register(id, "Episode", date); err != nil {
			t.Fatalf("Register %s failed: %v", id, err)
		}
	}

	bucket := filepath.Join(root, Subtree, "2008")
	if err := os.WriteFile(filepath.Join(bucket, "broken.yaml"), []byte("status: [unterminated"), 0o644); err != nil {
		t.Fatalf("write corrupt document: %v", err)
	}

	reloaded := newTestTracker(t, root)
	if reloaded.Len() != 10 {
		t.Fatalf("expected 10 records after reload, got %d", reloaded.Len())
	}
}

func TestRecordFailureAccumulatesHistory(t *testing.T) {
	tracker := newTestTracker(t, t.TempDir())

	date := time.Date(2012, 6, 20, 0, 0, 0, 0, time.UTC)
	if _, _, err := tracker.Register("hooting_yard_2012_06_20", "Blodgett", date); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := tracker.RecordFailure("hooting_yard_2012_06_20", "network", "connection reset"); err != nil {
			t.Fatalf("RecordFailure failed: %v", err)
		}
	}

	rec := tracker.Get("hooting_yard_2012_06_20")
	if rec.Status.RetryCount != 3 {
		t.Fatalf("retry count = %d, want 3", rec.Status.RetryCount)
	}
	if len(rec.Errors) != 3 {
		t.Fatalf("error history length = %d, want 3", len(rec.Errors))
	}
	if !rec.HasFailed() {
		t.Fatal("record should be failed")
	}
	if rec.Errors[0].Stage != StageDiscovered {
		t.Fatalf("first failure stage = %q, want discovered", rec.Errors[0].Stage)
	}
	if rec.Errors[1].Stage != StageFailed {
		t.Fatalf("second failure stage = %q, want failed", rec.Errors[1].Stage)
	}
}

func TestFailureKeepsArtifactsAndRequeueResumes(t *testing.T) {
	tracker := newTestTracker(t, t.TempDir())

	date := time.Date(2013, 9, 11, 0, 0, 0, 0, time.UTC)
	if _, _, err := tracker.Register("hooting_yard_2013_09_11", "Dobson", date); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := tracker.Transition("hooting_yard_2013_09_11", StageDownloaded, "/audio/ep.mp3", ""); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if err := tracker.RecordFailure("hooting_yard_2013_09_11", "network", "upload refused"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	rec := tracker.Get("hooting_yard_2013_09_11")
	if rec.Files.Audio != "/audio/ep.mp3" {
		t.Fatalf("audio artifact lost on failure: %q", rec.Files.Audio)
	}

	if err := tracker.Requeue("hooting_yard_2013_09_11"); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	if rec.Status.Stage != StageDownloaded {
		t.Fatalf("requeued stage = %q, want downloaded", rec.Status.Stage)
	}
}

func TestStatisticsCountsPendingWork(t *testing.T) {
	tracker := newTestTracker(t, t.TempDir())

	ids := []struct {
		id    string
		stage Stage
	}{
		{"ep-a", StageDiscovered},
		{"ep-b", StageDiscovered},
		{"ep-c", StageDownloaded},
		{"ep-d", StageConverted},
		{"ep-e", StagePublished},
	}
	date := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, entry := range ids {
		if _, _, err := tracker.Register(entry.id, "Episode", date); err != nil {
			t.Fatalf("Register %s failed: %v", entry.id, err)
		}
		if entry.stage != StageDiscovered {
			if err := tracker.Transition(entry.id, entry.stage, "", ""); err != nil {
				t.Fatalf("Transition %s failed: %v", entry.id, err)
			}
		}
	}

	stats := tracker.Statistics()
	if stats.Total != 5 {
		t.Fatalf("total = %d, want 5", stats.Total)
	}
	if stats.PendingDownloads != 2 {
		t.Fatalf("pending downloads = %d, want 2", stats.PendingDownloads)
	}
	if stats.PendingConversions != 1 {
		t.Fatalf("pending conversions = %d, want 1", stats.PendingConversions)
	}
	if stats.PendingUploads != 1 {
		t.Fatalf("pending uploads = %d, want 1", stats.PendingUploads)
	}
	if stats.PerStage[StagePublished] != 1 {
		t.Fatalf("published = %d, want 1", stats.PerStage[StagePublished])
	}
}

func TestQueryByStage(t *testing.T) {
	tracker := newTestTracker(t, t.TempDir())

	date := time.Date(2016, 7, 7, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"ep-1", "ep-2", "ep-3"} {
		if _, _, err := tracker.Register(id, "Episode", date); err != nil {
			t.Fatalf("Register %s failed: %v", id, err)
		}
	}
	if err := tracker.Transition("ep-2", StageDownloaded, "/audio/2.mp3", ""); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	discovered := tracker.QueryByStage(StageDiscovered)
	if len(discovered) != 2 {
		t.Fatalf("discovered count = %d, want 2", len(discovered))
	}
	downloaded := tracker.QueryByStage(StageDownloaded)
	if len(downloaded) != 1 || downloaded[0].Identifier() != "ep-2" {
		t.Fatalf("downloaded query returned %v", downloaded)
	}
}

func TestSaveIndexSummarizesTree(t *testing.T) {
	root := t.TempDir()
	tracker := newTestTracker(t, root)

	date := time.Date(2011, 4, 9, 0, 0, 0, 0, time.UTC)
	if _, _, err := tracker.Register("hooting_yard_2011_04_09", "Episode", date); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := tracker.Transition("hooting_yard_2011_04_09", StagePublished, "yt-xyz", ""); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if err := tracker.SaveIndex(); err != nil {
		t.Fatalf("SaveIndex failed: %v", err)
	}

	reloaded := newTestTracker(t, root)
	var index Index
	found, err := reloaded.store.LoadIndex(&index)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if !found {
		t.Fatal("index document missing")
	}
	if index.TotalEpisodes != 1 {
		t.Fatalf("total episodes = %d, want 1", index.TotalEpisodes)
	}
	if index.Summary.Completed != 1 {
		t.Fatalf("completed = %d, want 1", index.Summary.Completed)
	}
	if got := index.EpisodesByYear["2011"]; len(got) != 1 || got[0] != "hooting_yard_2011_04_09" {
		t.Fatalf("episodes_by_year = %v", index.EpisodesByYear)
	}
}
