package catalog

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"resound/internal/docstore"
	"resound/internal/logging"
)

// Subtree is the directory name of the catalog document tree under the state
// root.
const Subtree = "archive_org"

// Index is the wholesale-rebuilt summary document for the catalog tree.
type Index struct {
	LastFullScan   *time.Time          `yaml:"last_full_scan"`
	TotalEpisodes  int                 `yaml:"total_episodes"`
	EpisodesByYear map[string][]string `yaml:"episodes_by_year"`
	Summary        IndexSummary        `yaml:"summary"`
}

// IndexSummary aggregates availability counts.
type IndexSummary struct {
	Available   int `yaml:"available"`
	Unavailable int `yaml:"unavailable"`
}

// View is the in-memory index over all discovered catalog items.
type View struct {
	store        *docstore.Store[Item]
	logger       *slog.Logger
	items        map[string]*Item
	lastFullScan time.Time
}

// LoadFromDirectory reconstructs the full view from disk. An absent directory
// yields an empty view, not an error.
func LoadFromDirectory(stateRoot string, logger *slog.Logger) (*View, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "catalog")

	store := docstore.New(
		filepath.Join(stateRoot, Subtree),
		logger,
		func(item *Item) string { return item.Identifier },
		func(item *Item) string { return item.Year() },
	)

	items, err := store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	view := &View{store: store, logger: logger, items: items}

	var index Index
	if ok, err := store.LoadIndex(&index); err != nil {
		logger.Warn("catalog index unreadable, will rebuild", logging.Error(err))
	} else if ok && index.LastFullScan != nil {
		view.lastFullScan = *index.LastFullScan
	}

	return view, nil
}

// AddOrUpdate inserts or replaces an item by identifier and writes its
// document, so an interrupted discovery pass keeps everything already seen.
func (v *View) AddOrUpdate(item *Item) error {
	if _, err := v.store.Save(item); err != nil {
		return fmt.Errorf("persist %s: %w", item.Identifier, err)
	}
	v.items[item.Identifier] = item
	return nil
}

// Get returns the item for an identifier, or nil when unknown.
func (v *View) Get(identifier string) *Item {
	return v.items[identifier]
}

// Len returns the number of discovered items.
func (v *View) Len() int {
	return len(v.items)
}

// All returns every item in the view. Iteration order is unspecified.
func (v *View) All() []*Item {
	out := make([]*Item, 0, len(v.items))
	for _, item := range v.items {
		out = append(out, item)
	}
	return out
}

// ByYear returns every item whose publication date falls in the given year.
func (v *View) ByYear(year int) []*Item {
	var out []*Item
	for _, item := range v.items {
		if item.Date.Year() == year {
			out = append(out, item)
		}
	}
	return out
}

// Available returns every item flagged as downloadable.
func (v *View) Available() []*Item {
	var out []*Item
	for _, item := range v.items {
		if item.Status.Available {
			out = append(out, item)
		}
	}
	return out
}

// PersistAll writes every item's document, then rebuilds the index.
func (v *View) PersistAll() error {
	for _, item := range v.items {
		if _, err := v.store.Save(item); err != nil {
			return fmt.Errorf("persist %s: %w", item.Identifier, err)
		}
	}
	return v.SaveIndex()
}

// LastFullScan reports when the collection was last scanned end to end.
func (v *View) LastFullScan() time.Time {
	return v.lastFullScan
}

// SetLastFullScan records a completed full collection scan.
func (v *View) SetLastFullScan(t time.Time) {
	v.lastFullScan = t
}

// SaveIndex rebuilds the catalog index document wholesale.
func (v *View) SaveIndex() error {
	index := Index{
		TotalEpisodes:  len(v.items),
		EpisodesByYear: make(map[string][]string),
	}
	if !v.lastFullScan.IsZero() {
		scan := v.lastFullScan
		index.LastFullScan = &scan
	}
	for _, item := range v.items {
		year := item.Year()
		index.EpisodesByYear[year] = append(index.EpisodesByYear[year], item.Identifier)
		if item.Status.Available {
			index.Summary.Available++
		} else {
			index.Summary.Unavailable++
		}
	}
	return v.store.SaveIndex(&index)
}
