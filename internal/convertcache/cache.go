package convertcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"docsmith/internal/fileutil"
	"docsmith/internal/logging"
)

// schemaVersion is bumped when the index layout changes. Any mismatch is
// treated as an absent index.
const schemaVersion = 1

const (
	indexFileName = "cache_index.json"
	lockFileName  = "docsmith.lock"
)

// ErrLocked indicates another docsmith process holds the cache directory.
var ErrLocked = errors.New("cache directory is locked by another run")

// Entry records one completed conversion.
type Entry struct {
	Hash             string            `json:"hash"`
	Mode             string            `json:"mode"`
	OriginalFilename string            `json:"original_filename"`
	CachedOn         time.Time         `json:"cached_on"`
	OutputPath       string            `json:"output_path"`
	FileType         string            `json:"file_type"`
	IsLarge          bool              `json:"is_large"`
	Stats            map[string]string `json:"stats,omitempty"`
}

type indexMetadata struct {
	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"last_updated"`
	FileCount   int       `json:"file_count"`
}

type indexFile struct {
	SchemaVersion int           `json:"schema_version"`
	Metadata      indexMetadata `json:"metadata"`
	Entries       []Entry       `json:"entries"`
}

// Cache provides thread-safe access to the conversion cache.
type Cache struct {
	dir     string
	logger  *slog.Logger
	lock    *flock.Flock
	mu      sync.RWMutex
	created time.Time
	entries map[string]Entry // keyed by hash + "|" + mode
}

// Open loads (or initializes) the cache in dir and acquires the directory
// lock so two runs never race on the same index. Callers must Close.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	logger = logging.NewComponentLogger(logger, "cache")

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	c := &Cache{
		dir:     dir,
		logger:  logger,
		lock:    lock,
		created: time.Now().UTC(),
		entries: make(map[string]Entry),
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load cache index, starting fresh",
			logging.String(logging.FieldEventType, "cache_index_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "previously converted files will be reprocessed"))
		c.entries = make(map[string]Entry)
		c.created = time.Now().UTC()
	}

	return c, nil
}

// Close releases the cache directory lock.
func (c *Cache) Close() error {
	if c == nil || c.lock == nil {
		return nil
	}
	return c.lock.Unlock()
}

// Lookup returns the entry for (hash, mode) if present. An entry stored
// under a different conversion mode is not a hit.
func (c *Cache) Lookup(hash, mode string) (Entry, bool) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return Entry{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[entryKey(hash, mode)]
	return entry, found
}

// Store records a completed conversion and persists the index. Storing the
// same (hash, mode) twice overwrites the prior entry and refreshes its
// timestamp. The rendered content is also copied into the cache directory
// under its hash so later runs can replay the artifact.
func (c *Cache) Store(entry Entry, content []byte) error {
	entry.Hash = strings.TrimSpace(entry.Hash)
	if entry.Hash == "" {
		return errors.New("entry hash cannot be empty")
	}
	if strings.TrimSpace(entry.Mode) == "" {
		return errors.New("entry mode cannot be empty")
	}
	entry.CachedOn = time.Now().UTC()

	if err := fileutil.WriteFileAtomic(c.ContentPath(entry.Hash), content, 0o644); err != nil {
		return fmt.Errorf("persist cached content: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[entryKey(entry.Hash, entry.Mode)] = entry

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache index: %w", err)
	}

	c.logger.Debug("cached conversion",
		logging.String(logging.FieldHash, entry.Hash),
		logging.String(logging.FieldMode, entry.Mode),
		logging.String(logging.FieldFile, entry.OriginalFilename))

	return nil
}

// ReadContent returns the cache-local copy of the rendered artifact.
func (c *Cache) ReadContent(hash string) ([]byte, error) {
	return os.ReadFile(c.ContentPath(hash))
}

// ContentPath returns the cache-local path for a hash's rendered content.
func (c *Cache) ContentPath(hash string) string {
	return filepath.Join(c.dir, hash+".md")
}

// Count returns the number of cached entries.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// List returns all entries sorted newest-first.
func (c *Cache) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedOn.After(entries[j].CachedOn)
	})
	return entries
}

// Clear removes all entries and cached content files, then persists the
// empty index.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		_ = os.Remove(c.ContentPath(entry.Hash))
		delete(c.entries, key)
	}
	c.created = time.Now().UTC()
	return c.save()
}

func entryKey(hash, mode string) string {
	return hash + "|" + strings.ToLower(strings.TrimSpace(mode))
}

func (c *Cache) indexPath() string {
	return filepath.Join(c.dir, indexFileName)
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.indexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache index: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var index indexFile
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("parse cache index: %w", err)
	}
	if index.SchemaVersion != schemaVersion {
		return fmt.Errorf("cache index schema version %d, expected %d", index.SchemaVersion, schemaVersion)
	}

	c.entries = make(map[string]Entry, len(index.Entries))
	for _, entry := range index.Entries {
		if strings.TrimSpace(entry.Hash) == "" || strings.TrimSpace(entry.Mode) == "" {
			continue
		}
		c.entries[entryKey(entry.Hash, entry.Mode)] = entry
	}
	if !index.Metadata.Created.IsZero() {
		c.created = index.Metadata.Created
	}

	c.logger.Debug("loaded cache index",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.indexPath()))

	return nil
}

// save assumes c.mu is held.
func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Hash != entries[j].Hash {
			return entries[i].Hash < entries[j].Hash
		}
		return entries[i].Mode < entries[j].Mode
	})

	index := indexFile{
		SchemaVersion: schemaVersion,
		Metadata: indexMetadata{
			Created:     c.created,
			LastUpdated: time.Now().UTC(),
			FileCount:   len(entries),
		},
		Entries: entries,
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache index: %w", err)
	}
	return fileutil.WriteFileAtomic(c.indexPath(), data, 0o644)
}
