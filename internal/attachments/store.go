package attachments

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docsmith/internal/fileutil"
	"docsmith/internal/logging"
	"docsmith/internal/textutil"
)

// Store deduplicates attachment blobs for a single output directory. Safe
// for concurrent use; the dedup table is guarded by one mutex per store.
type Store struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	byHash map[string]string // content hash -> assigned filename
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on first save.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "attachments"),
		byHash: make(map[string]string),
	}
}

// Save persists payload under the requested filename, returning the
// filename actually used. Duplicate content returns the previously assigned
// name without writing again. Zero-byte payloads are rejected by policy:
// logged, not stored, and the sanitized name is returned unsaved.
func (s *Store) Save(filename string, payload []byte) (string, error) {
	name := textutil.SanitizeFileName(filename)
	if name == "" {
		name = "attachment"
	}

	if len(payload) == 0 {
		s.logger.Debug("skipping empty attachment",
			logging.String(logging.FieldFile, name),
			logging.String(logging.FieldEventType, "attachment_empty"))
		return name, nil
	}

	hash := fileutil.HashBytes(payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byHash[hash]; ok {
		s.logger.Debug("attachment deduplicated",
			logging.String(logging.FieldFile, name),
			logging.String("existing", existing),
			logging.String(logging.FieldHash, hash))
		return existing, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return name, fmt.Errorf("create attachment directory: %w", err)
	}

	final, err := s.resolveCollision(name)
	if err != nil {
		return name, err
	}

	if err := os.WriteFile(filepath.Join(s.dir, final), payload, 0o644); err != nil {
		return name, fmt.Errorf("write attachment %q: %w", final, err)
	}

	s.byHash[hash] = final
	return final, nil
}

// Count returns how many distinct blobs have been stored.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHash)
}

// resolveCollision finds a free filename, appending _1, _2, ... before the
// extension while the requested name is taken by different content.
// Assumes s.mu is held.
func (s *Store) resolveCollision(name string) (string, error) {
	candidate := name
	stem, ext := textutil.SplitExt(name)
	for n := 1; ; n++ {
		_, err := os.Stat(filepath.Join(s.dir, candidate))
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
		if n > 10000 {
			return "", fmt.Errorf("could not find free name for %q", name)
		}
	}
}

// FallbackName builds a filename for an attachment that declared none,
// derived from its content ID when present, otherwise from the payload
// hash. The MIME type picks a reasonable extension.
func FallbackName(contentID, mimeType string, payload []byte) string {
	ext := extensionFor(mimeType)
	if contentID = strings.Trim(strings.TrimSpace(contentID), "<>"); contentID != "" {
		return textutil.SanitizeFileName(contentID) + ext
	}
	hash := fileutil.HashBytes(payload)
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return "attachment_" + hash + ext
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "application/pdf":
		return ".pdf"
	case "text/plain":
		return ".txt"
	case "text/html":
		return ".html"
	default:
		return ".bin"
	}
}
