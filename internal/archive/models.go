package archive

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// SearchDoc is one row of an advancedsearch response.
type SearchDoc struct {
	Identifier  string     `json:"identifier"`
	Title       flexString `json:"title"`
	Date        string     `json:"date"`
	Description flexString `json:"description"`
}

// SearchResult is the payload of a collection search page.
type SearchResult struct {
	NumFound int
	Start    int
	Docs     []SearchDoc
}

type searchEnvelope struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Start    int         `json:"start"`
		Docs     []SearchDoc `json:"docs"`
	} `json:"response"`
}

// flexString tolerates the archive's habit of returning either a string or an
// array of strings for the same metadata field.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = flexString(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*f = flexString(strings.Join(many, "\n"))
	return nil
}

type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = flexStrings{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*f = flexStrings(many)
	return nil
}

// ItemMetadata is the metadata block of an item response.
type ItemMetadata struct {
	Identifier  string      `json:"identifier"`
	Title       flexString  `json:"title"`
	Creator     flexString  `json:"creator"`
	Date        string      `json:"date"`
	Description flexString  `json:"description"`
	Collection  flexStrings `json:"collection"`
	MediaType   string      `json:"mediatype"`
	Notes       flexString  `json:"notes"`
	Subject     flexStrings `json:"subject"`
}

// BroadcastDate parses the item's date field. The archive emits several
// layouts over the collection's lifetime.
func (m *ItemMetadata) BroadcastDate() (time.Time, bool) {
	raw := strings.TrimSpace(m.Date)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FileInfo describes one file attached to an item. Size and length arrive as
// strings on the wire.
type FileInfo struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Size   string `json:"size"`
	MD5    string `json:"md5"`
	Length string `json:"length"`
}

// SizeBytes parses the file size, zero on absence.
func (f *FileInfo) SizeBytes() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(f.Size), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// DurationSeconds parses the audio length. The archive emits either plain
// seconds ("1823.45") or a colon-separated clock ("30:23").
func (f *FileInfo) DurationSeconds() float64 {
	raw := strings.TrimSpace(f.Length)
	if raw == "" {
		return 0
	}
	if !strings.Contains(raw, ":") {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0
		}
		return v
	}
	var total float64
	for _, part := range strings.Split(raw, ":") {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0
		}
		total = total*60 + v
	}
	return total
}

// Item is a complete item response.
type Item struct {
	Metadata ItemMetadata `json:"metadata"`
	Files    []FileInfo   `json:"files"`
	Server   string       `json:"server"`
	Dir      string       `json:"dir"`
}

// AudioFile returns the primary MP3 file, or nil when the item carries none.
func (i *Item) AudioFile() *FileInfo {
	for idx := range i.Files {
		if i.Files[idx].Format == "VBR MP3" {
			return &i.Files[idx]
		}
	}
	return nil
}

// TranscriptFile returns the first text-format file, or nil.
func (i *Item) TranscriptFile() *FileInfo {
	for idx := range i.Files {
		name := strings.ToLower(i.Files[idx].Name)
		format := strings.ToLower(i.Files[idx].Format)
		if strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".srt") ||
			strings.HasSuffix(name, ".vtt") || strings.Contains(format, "text") {
			return &i.Files[idx]
		}
	}
	return nil
}
