package publication

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"resound/internal/docstore"
	"resound/internal/logging"
)

// Subtree is the directory name of the publication document tree under the
// state root.
const Subtree = "youtube"

// View owns the publication documents. The layout is flat: uploads number in
// the hundreds, not the tens of thousands, so year buckets would only add
// noise.
type View struct {
	store   *docstore.Store[Record]
	logger  *slog.Logger
	records map[string]*Record
}

// LoadFromDirectory reconstructs the view from disk. An absent directory
// yields an empty view.
func LoadFromDirectory(stateRoot string, logger *slog.Logger) (*View, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "publication")

	store := docstore.New(
		filepath.Join(stateRoot, Subtree),
		logger,
		func(rec *Record) string { return rec.Identifier() },
		nil,
	)

	records, err := store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load publication records: %w", err)
	}

	return &View{store: store, logger: logger, records: records}, nil
}

// AddOrUpdate stores a record in memory and persists it, stamping
// last_updated.
func (v *View) AddOrUpdate(rec *Record) error {
	rec.LastUpdated = time.Now().UTC()
	if _, err := v.store.Save(rec); err != nil {
		return fmt.Errorf("persist publication %s: %w", rec.Identifier(), err)
	}
	v.records[rec.Identifier()] = rec
	return nil
}

// Get returns the record for an archive identifier, or nil when unknown.
func (v *View) Get(identifier string) *Record {
	return v.records[identifier]
}

// Len returns the number of publication records.
func (v *View) Len() int {
	return len(v.records)
}

// ByStatus returns every record at the given status. No ordering guarantee.
func (v *View) ByStatus(status Status) []*Record {
	var out []*Record
	for _, rec := range v.records {
		if rec.Publication.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every record keyed by archive identifier. Callers must not
// mutate the map.
func (v *View) All() map[string]*Record {
	return v.records
}

// Index is the summary document for the publication tree.
type Index struct {
	LastUpdated time.Time      `yaml:"last_updated"`
	TotalVideos int            `yaml:"total_videos"`
	ByStatus    map[string]int `yaml:"by_status"`
}

// SaveIndex rebuilds the publication index wholesale.
func (v *View) SaveIndex() error {
	index := Index{
		LastUpdated: time.Now().UTC(),
		TotalVideos: len(v.records),
		ByStatus:    make(map[string]int),
	}
	for _, rec := range v.records {
		index.ByStatus[string(rec.Publication.Status)]++
	}
	return v.store.SaveIndex(&index)
}
