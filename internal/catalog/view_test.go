package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func newItem(identifier, title string, date time.Time, available bool) *Item {
	return &Item{
		Identifier: identifier,
		Title:      title,
		Date:       date,
		Audio: &Audio{
			Filename: identifier + ".mp3",
			Size:     1 << 20,
			MD5:      "0123456789abcdef0123456789abcdef",
		},
		Discovery: Discovery{DiscoveredAt: date, LastChecked: date},
		Status:    Availability{Available: available},
	}
}

func TestViewSurvivesReload(t *testing.T) {
	root := t.TempDir()

	view, err := LoadFromDirectory(root, nil)
	if err != nil {
		t.Fatalf("LoadFromDirectory: %v", err)
	}

	broadcast := time.Date(2008, time.April, 17, 0, 0, 0, 0, time.UTC)
	item := newItem("hy0_hooting_yard_2008-04-17", "On Ponds", broadcast, true)
	item.Text.TranscriptText = "A pond is a body of still water."
	if err := view.AddOrUpdate(item); err != nil {
		t.Fatalf("AddOrUpdate: %v", err)
	}

	wantDoc := filepath.Join(root, Subtree, "2008", "hy0_hooting_yard_2008-04-17.yaml")
	if _, err := os.Stat(wantDoc); err != nil {
		t.Fatalf("document not at year partition: %v", err)
	}

	reloaded, err := LoadFromDirectory(root, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Get("hy0_hooting_yard_2008-04-17")
	if got == nil {
		t.Fatal("item lost on reload")
	}
	if got.Title != "On Ponds" || !got.Date.Equal(broadcast) {
		t.Fatalf("reloaded item = %+v", got)
	}
	if got.Text.TranscriptText == "" {
		t.Fatal("transcript lost on reload")
	}
	if got.Audio == nil || got.Audio.Filename != "hy0_hooting_yard_2008-04-17.mp3" {
		t.Fatalf("audio = %+v", got.Audio)
	}
}

func TestByYearAndAvailable(t *testing.T) {
	view, err := LoadFromDirectory(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("LoadFromDirectory: %v", err)
	}

	for _, item := range []*Item{
		newItem("ep-2007", "Early", time.Date(2007, 1, 4, 0, 0, 0, 0, time.UTC), true),
		newItem("ep-2008a", "Mid", time.Date(2008, 2, 7, 0, 0, 0, 0, time.UTC), true),
		newItem("ep-2008b", "Gone", time.Date(2008, 6, 19, 0, 0, 0, 0, time.UTC), false),
	} {
		if err := view.AddOrUpdate(item); err != nil {
			t.Fatalf("AddOrUpdate %s: %v", item.Identifier, err)
		}
	}

	if got := len(view.ByYear(2008)); got != 2 {
		t.Fatalf("ByYear(2008) = %d items, want 2", got)
	}
	if got := len(view.ByYear(1999)); got != 0 {
		t.Fatalf("ByYear(1999) = %d items, want 0", got)
	}
	available := view.Available()
	if len(available) != 2 {
		t.Fatalf("Available = %d items, want 2", len(available))
	}
	for _, item := range available {
		if item.Identifier == "ep-2008b" {
			t.Fatal("unavailable item returned by Available")
		}
	}
}

func TestItemYearPartition(t *testing.T) {
	if got := newItem("x", "x", time.Date(2010, 3, 1, 0, 0, 0, 0, time.UTC), true).Year(); got != "2010" {
		t.Fatalf("Year = %q", got)
	}
	undated := &Item{Identifier: "x"}
	if got := undated.Year(); got != "unknown" {
		t.Fatalf("Year of undated item = %q", got)
	}
}

func TestSaveIndexSummarizesCatalog(t *testing.T) {
	root := t.TempDir()
	view, err := LoadFromDirectory(root, nil)
	if err != nil {
		t.Fatalf("LoadFromDirectory: %v", err)
	}

	for _, item := range []*Item{
		newItem("ep-a", "A", time.Date(2007, 1, 4, 0, 0, 0, 0, time.UTC), true),
		newItem("ep-b", "B", time.Date(2008, 2, 7, 0, 0, 0, 0, time.UTC), false),
	} {
		if err := view.AddOrUpdate(item); err != nil {
			t.Fatalf("AddOrUpdate %s: %v", item.Identifier, err)
		}
	}
	scanned := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	view.SetLastFullScan(scanned)

	if err := view.PersistAll(); err != nil {
		t.Fatalf("PersistAll: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, Subtree, "index.yaml"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	var index Index
	if err := yaml.Unmarshal(data, &index); err != nil {
		t.Fatalf("parse index: %v", err)
	}
	if index.TotalEpisodes != 2 {
		t.Fatalf("total = %d, want 2", index.TotalEpisodes)
	}
	if index.Summary.Available != 1 || index.Summary.Unavailable != 1 {
		t.Fatalf("summary = %+v", index.Summary)
	}
	if len(index.EpisodesByYear["2007"]) != 1 || len(index.EpisodesByYear["2008"]) != 1 {
		t.Fatalf("episodes by year = %+v", index.EpisodesByYear)
	}
	if index.LastFullScan == nil || !index.LastFullScan.Equal(scanned) {
		t.Fatalf("last full scan = %v", index.LastFullScan)
	}

	reloaded, err := LoadFromDirectory(root, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.LastFullScan().Equal(scanned) {
		t.Fatalf("last full scan after reload = %v", reloaded.LastFullScan())
	}
}
