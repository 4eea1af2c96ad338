package publication

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"resound/internal/services"
)

// Status is the publication lifecycle state of an uploaded video.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusPrivate   Status = "private"
	StatusUnlisted  Status = "unlisted"
	StatusFailed    Status = "failed"
)

var statusSet = map[Status]struct{}{
	StatusDraft:     {},
	StatusScheduled: {},
	StatusPublished: {},
	StatusPrivate:   {},
	StatusUnlisted:  {},
	StatusFailed:    {},
}

// ParseStatus validates a status tag read from a document.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if _, ok := statusSet[status]; !ok {
		return "", services.Wrap(services.ErrParse, "", "parse status",
			fmt.Sprintf("unknown publication status %q", raw), nil)
	}
	return status, nil
}

// UnmarshalYAML rejects status tags outside the closed set so a hand-edited
// document cannot smuggle in a state the pipeline does not understand.
func (s *Status) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Identification names the episode and its uploaded video.
type Identification struct {
	ArchiveIdentifier string `yaml:"archive_identifier"`
	VideoID           string `yaml:"youtube_video_id"`
	Title             string `yaml:"title"`
}

// Details carries the publication lifecycle timestamps.
type Details struct {
	Status       Status     `yaml:"status"`
	PublishedAt  *time.Time `yaml:"published_at,omitempty"`
	ScheduledFor *time.Time `yaml:"scheduled_for,omitempty"`
	UploadedAt   *time.Time `yaml:"uploaded_at,omitempty"`
}

// Metadata mirrors the listing fields sent at upload time.
type Metadata struct {
	Description   string   `yaml:"description"`
	Tags          []string `yaml:"tags,omitempty"`
	CategoryID    string   `yaml:"category_id"`
	PrivacyStatus string   `yaml:"privacy_status"`
}

// Metrics holds engagement counters refreshed on later scans.
type Metrics struct {
	ViewCount    int64 `yaml:"view_count"`
	LikeCount    int64 `yaml:"like_count"`
	CommentCount int64 `yaml:"comment_count"`
}

// Record is one publication document.
type Record struct {
	Identification Identification `yaml:"identification"`
	Publication    Details        `yaml:"publication"`
	Metadata       Metadata       `yaml:"metadata"`
	Playlists      []string       `yaml:"playlists,omitempty"`
	Metrics        Metrics        `yaml:"metrics"`
	LastUpdated    time.Time      `yaml:"last_updated"`
}

// Identifier returns the archive identifier keying this record.
func (r *Record) Identifier() string {
	return r.Identification.ArchiveIdentifier
}
