package docstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"resound/internal/logging"
	"resound/internal/services"
)

const indexFilename = "index.yaml"

// Store manages one document tree of records of type T.
type Store[T any] struct {
	dir       string
	logger    *slog.Logger
	key       func(*T) string
	partition func(*T) string
}

// New constructs a Store rooted at dir. key yields a record's identifier
// (used as the document filename); partition yields the subdirectory bucket,
// or "" for a flat layout.
func New[T any](dir string, logger *slog.Logger, key func(*T) string, partition func(*T) string) *Store[T] {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store[T]{
		dir:       dir,
		logger:    logging.NewComponentLogger(logger, "docstore"),
		key:       key,
		partition: partition,
	}
}

// Dir returns the root directory of the document tree.
func (s *Store[T]) Dir() string {
	return s.dir
}

// Path returns the document location a record would be saved to.
func (s *Store[T]) Path(rec *T) (string, error) {
	id := strings.TrimSpace(s.key(rec))
	if id == "" {
		return "", services.Wrap(services.ErrValidation, "", "save", "record has empty identifier", nil)
	}
	dir := s.dir
	if s.partition != nil {
		if bucket := strings.TrimSpace(s.partition(rec)); bucket != "" {
			dir = filepath.Join(dir, bucket)
		}
	}
	return filepath.Join(dir, id+".yaml"), nil
}

// Save serializes the record and writes it to its derived location,
// creating parent directories as needed. Last write wins.
func (s *Store[T]) Save(rec *T) (string, error) {
	path, err := s.Path(rec)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads one document. Malformed documents, including unknown enum tags,
// surface as ErrParse.
func (s *Store[T]) Load(path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	rec := new(T)
	if err := yaml.Unmarshal(data, rec); err != nil {
		return nil, services.Wrap(services.ErrParse, "", "load", filepath.Base(path), err)
	}
	if strings.TrimSpace(s.key(rec)) == "" {
		return nil, services.Wrap(services.ErrParse, "", "load", filepath.Base(path)+": missing identifier", nil)
	}
	return rec, nil
}

// LoadAll walks the document tree and returns every readable record keyed by
// identifier. An unreadable individual document is logged and excluded; the
// overall load never fails because of one bad file. An absent root directory
// yields an empty map.
func (s *Store[T]) LoadAll() (map[string]*T, error) {
	records := make(map[string]*T)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return records, nil
		}
		return nil, fmt.Errorf("read store directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			sub := filepath.Join(s.dir, entry.Name())
			subEntries, err := os.ReadDir(sub)
			if err != nil {
				s.logger.Warn("skipping unreadable partition",
					logging.String("dir", sub), logging.Error(err))
				continue
			}
			for _, subEntry := range subEntries {
				if subEntry.IsDir() || !isDocument(subEntry.Name()) {
					continue
				}
				s.loadInto(records, filepath.Join(sub, subEntry.Name()))
			}
			continue
		}
		if !isDocument(entry.Name()) {
			continue
		}
		s.loadInto(records, filepath.Join(s.dir, entry.Name()))
	}

	return records, nil
}

func (s *Store[T]) loadInto(records map[string]*T, path string) {
	rec, err := s.Load(path)
	if err != nil {
		s.logger.Warn("skipping corrupt document",
			logging.String("path", path), logging.Error(err))
		return
	}
	records[strings.TrimSpace(s.key(rec))] = rec
}

// SaveIndex rebuilds the tree's index document wholesale from the provided
// summary value.
func (s *Store[T]) SaveIndex(summary any) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	return writeAtomic(s.IndexPath(), data)
}

// LoadIndex reads the index document into v. Returns false without error when
// no index exists yet.
func (s *Store[T]) LoadIndex(v any) (bool, error) {
	data, err := os.ReadFile(s.IndexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read index: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, services.Wrap(services.ErrParse, "", "load index", indexFilename, err)
	}
	return true, nil
}

// IndexPath returns the well-known index document location for this tree.
func (s *Store[T]) IndexPath() string {
	return filepath.Join(s.dir, indexFilename)
}

func isDocument(name string) bool {
	return strings.HasSuffix(name, ".yaml") && name != indexFilename
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp document: %w", err)
	}
	return nil
}
