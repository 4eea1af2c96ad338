package catalog

import (
	"strconv"
	"time"
)

// Audio describes the primary audio file attached to a catalog item.
type Audio struct {
	Filename string  `yaml:"filename"`
	Size     int64   `yaml:"size"`
	Duration float64 `yaml:"duration,omitempty"`
	MD5      string  `yaml:"md5,omitempty"`
}

// TextContent carries transcript material recovered from the archive item.
type TextContent struct {
	TranscriptText     string   `yaml:"transcript_text,omitempty"`
	TranscriptFilename string   `yaml:"transcript_filename,omitempty"`
	SubjectTags        []string `yaml:"subject_tags,omitempty"`
	Language           string   `yaml:"language"`
}

// Discovery records when the item was first seen and last re-checked.
type Discovery struct {
	DiscoveredAt time.Time `yaml:"discovered_at"`
	LastChecked  time.Time `yaml:"last_checked"`
}

// Availability flags whether the source audio is currently downloadable.
type Availability struct {
	Available   bool   `yaml:"available"`
	DownloadURL string `yaml:"download_url,omitempty"`
}

// Item is one episode as seen on the archive host. The YAML field layout is
// the persisted-state contract; keep names and nesting stable.
type Item struct {
	Identifier  string       `yaml:"identifier"`
	Title       string       `yaml:"title"`
	Date        time.Time    `yaml:"date"`
	Collection  []string     `yaml:"collection,omitempty"`
	Creator     string       `yaml:"creator,omitempty"`
	Description string       `yaml:"description,omitempty"`
	FullText    string       `yaml:"full_text,omitempty"`
	Audio       *Audio       `yaml:"mp3,omitempty"`
	Text        TextContent  `yaml:"text_content"`
	Discovery   Discovery    `yaml:"discovery"`
	Status      Availability `yaml:"status"`
}

// Year returns the partition bucket for this item.
func (i *Item) Year() string {
	if i.Date.IsZero() {
		return "unknown"
	}
	return strconv.Itoa(i.Date.Year())
}
