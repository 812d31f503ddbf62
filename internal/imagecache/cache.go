// Package imagecache serves precomputed image-search results from per-split
// sqlite artifacts. The artifacts are produced offline and are read-only
// here: a partition is loaded into memory at most once per process and never
// invalidated or written back.
package imagecache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hquan/msearch/internal/logger"
)

const (
	PartitionTrain = "train"
	PartitionTest  = "test"
)

// PartitionForSplit picks the cache partition for a split hint: anything
// mentioning "train" (case-insensitive) maps to the train partition,
// everything else to test.
func PartitionForSplit(hint string) string {
	if strings.Contains(strings.ToLower(hint), PartitionTrain) {
		return PartitionTrain
	}
	return PartitionTest
}

// Ref is a tagged variant: either a URL to fetch or already-encoded image
// bytes. Exactly one field is set.
type Ref struct {
	URL   string `json:"url,omitempty"`
	Image []byte `json:"image,omitempty"`
}

// Entry is the cached result list for one item. Titles and Refs may have
// unequal lengths; Title pads the shorter side.
type Entry struct {
	Titles []string
	Refs   []Ref
}

// Title returns the stored title for position i (0-based), synthesizing
// "Result N" when none is stored.
func (e Entry) Title(i int) string {
	if i < len(e.Titles) && strings.TrimSpace(e.Titles[i]) != "" {
		return e.Titles[i]
	}
	return fmt.Sprintf("Result %d", i+1)
}

type partition struct {
	once    sync.Once
	entries map[string]Entry
	err     error
}

// Store lazily loads cache partitions from a directory of sqlite files
// (<dir>/train.db, <dir>/test.db). Safe for concurrent use; concurrent first
// access to a partition loads it exactly once.
type Store struct {
	dir string

	mu    sync.Mutex
	parts map[string]*partition
}

// NewStore creates a cache store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		parts: make(map[string]*partition),
	}
}

// Path returns the artifact path for a partition name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".db")
}

// Lookup resolves itemID in the named partition. The boolean reports whether
// the item exists; a missing partition file is an empty partition, not an
// error.
func (s *Store) Lookup(name, itemID string) (Entry, bool, error) {
	s.mu.Lock()
	part, ok := s.parts[name]
	if !ok {
		part = &partition{}
		s.parts[name] = part
	}
	s.mu.Unlock()

	part.once.Do(func() {
		part.entries, part.err = s.load(name)
	})

	if part.err != nil {
		return Entry{}, false, part.err
	}

	entry, found := part.entries[itemID]
	return entry, found, nil
}

// load reads an entire partition artifact into memory.
func (s *Store) load(name string) (map[string]Entry, error) {
	entries := make(map[string]Entry)

	path := s.Path(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn("cache partition %s not found at %s, using empty mapping", name, path)
		return entries, nil
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache partition %s: %w", name, err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT item_id, titles, refs FROM entries")
	if err != nil {
		return nil, fmt.Errorf("failed to read cache partition %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, titlesJSON, refsJSON string
		if err := rows.Scan(&itemID, &titlesJSON, &refsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}

		var entry Entry
		if titlesJSON != "" {
			if err := json.Unmarshal([]byte(titlesJSON), &entry.Titles); err != nil {
				return nil, fmt.Errorf("failed to parse titles for %s: %w", itemID, err)
			}
		}
		if refsJSON != "" {
			if err := json.Unmarshal([]byte(refsJSON), &entry.Refs); err != nil {
				return nil, fmt.Errorf("failed to parse refs for %s: %w", itemID, err)
			}
		}

		entries[itemID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading cache partition %s: %w", name, err)
	}

	logger.Info("loaded cache partition %s: %d entries", name, len(entries))
	return entries, nil
}
