package mailthread

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"docsmith/internal/attachments"
	"docsmith/internal/fileutil"
	"docsmith/internal/logging"
)

// parseConcurrency bounds the .eml parse fan-out per directory.
const parseConcurrency = 8

// Result summarizes one directory's thread conversion.
type Result struct {
	MessagesParsed   int
	MessagesFailed   int
	ThreadsCreated   int
	AttachmentsSaved int
	Documents        []string // written document paths
}

// ConvertDirectory parses every .eml file in dir, assembles threads, and
// writes one Markdown document per thread into outDir with deduplicated
// attachments beside it. Files that cannot even be read are counted failed
// but never abort the directory.
func ConvertDirectory(ctx context.Context, dir, outDir string, opts RenderOptions, logger *slog.Logger) (Result, error) {
	logger = logging.NewComponentLogger(logger, "threads")
	var result Result

	paths, err := listMessageFiles(dir)
	if err != nil {
		return result, err
	}
	if len(paths) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}

	messages, failed := parseAll(ctx, paths, logger)
	result.MessagesParsed = len(messages)
	result.MessagesFailed = failed

	assembler := NewAssembler(logger)
	threads := assembler.Assemble(messages)
	result.ThreadsCreated = len(threads)

	store := attachments.NewStore(outDir, logger)
	for _, thread := range threads {
		doc := Render(thread, store, opts, logger)
		outPath := filepath.Join(outDir, thread.FileName())
		if err := fileutil.WriteFileAtomic(outPath, []byte(doc), 0o644); err != nil {
			return result, fmt.Errorf("write thread document: %w", err)
		}
		result.Documents = append(result.Documents, outPath)
		logger.Info("thread document written",
			logging.String(logging.FieldFile, outPath),
			logging.Int("messages", len(thread.Messages)))
	}
	result.AttachmentsSaved = store.Count()

	return result, nil
}

// parseAll reads message files concurrently. Parse defects are advisory;
// only unreadable files count as failures.
func parseAll(ctx context.Context, paths []string, logger *slog.Logger) ([]*Message, int) {
	var (
		mu       sync.Mutex
		messages []*Message
		failed   int
	)

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(parseConcurrency)
	for _, path := range paths {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			msg, err := ParseFile(path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				logger.Warn("message file unreadable",
					logging.String(logging.FieldEventType, "eml_read_failed"),
					logging.String(logging.FieldFile, path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "message excluded from thread reconstruction"))
				return nil
			}
			if len(msg.Defects) > 0 {
				logger.Debug("message parsed with defects",
					logging.String(logging.FieldFile, path),
					logging.Int("defects", len(msg.Defects)))
			}
			messages = append(messages, msg)
			return nil
		})
	}
	_ = grp.Wait()

	return messages, failed
}

func listMessageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".eml") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
