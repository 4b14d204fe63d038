package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsmith/internal/config"
	"docsmith/internal/convertcache"
	"docsmith/internal/converters"
	"docsmith/internal/executor"
	"docsmith/internal/logging"
	"docsmith/internal/mailthread"
	"docsmith/internal/ocr"
	"docsmith/internal/runlog"
	"docsmith/internal/services"
	"docsmith/internal/services/gemini"
)

// Deps are the collaborators a run needs. Gemini may be nil in direct mode;
// Ledger may be nil when run history is disabled.
type Deps struct {
	Cache  *convertcache.Cache
	Runner *converters.Runner
	OCR    *ocr.Engine
	Gemini *gemini.Client
	Ledger *runlog.Store
}

// Pipeline drives one batch conversion.
type Pipeline struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

// New wires a pipeline. The mode/collaborator mismatch is caught here, before
// any file is touched.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "config required", nil)
	}
	if deps.Cache == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "cache required", nil)
	}
	if deps.Runner == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "converter runner required", nil)
	}
	if deps.OCR == nil && deps.Gemini == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "image conversion needs an ocr engine or the hosted api", nil)
	}
	if cfg.Conversion.Mode == config.ModeAPIAssisted && deps.Gemini == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "api-assisted mode requires the hosted api client", nil)
	}
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Run converts every file under inputDir into outputDir, mirroring the
// directory layout. Directories containing .eml files go through thread
// reconstruction; everything else is one executor task per file.
func (p *Pipeline) Run(ctx context.Context, inputDir, outputDir string) (*Summary, error) {
	started := time.Now().UTC()

	inputDir, err := filepath.Abs(inputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve input directory: %w", err)
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	files, emailDirs, err := p.scan(inputDir, outputDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:     uuid.NewString(),
		Mode:      p.cfg.Conversion.Mode,
		InputDir:  inputDir,
		OutputDir: outputDir,
		StartedAt: started,
	}

	p.logger.Info("run started",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.String(logging.FieldMode, summary.Mode),
		logging.Int("files", len(files)),
		logging.Int("email_directories", len(emailDirs)))

	p.convertEmailDirs(ctx, emailDirs, inputDir, outputDir, summary)

	tasks := p.buildTasks(files, inputDir, outputDir)
	pool := executor.New(p.cfg.Conversion.Workers,
		time.Duration(p.cfg.Conversion.TaskTimeoutSeconds)*time.Second, p.logger)
	_, stats := pool.Run(ctx, tasks)

	summary.FinishedAt = time.Now().UTC()
	summary.fillCategories(stats)

	if err := p.writeSummaryArtifact(outputDir, summary); err != nil {
		p.logger.Warn("failed to write summary artifact",
			logging.Error(err),
			logging.String(logging.FieldImpact, "console summary remains the only record"))
	}
	p.appendLedger(ctx, summary)

	attempted, succeeded, failed := summary.Totals()
	p.logger.Info("run finished",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.Int("attempted", attempted),
		logging.Int("succeeded", succeeded),
		logging.Int("failed", failed),
		logging.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))

	return summary, nil
}

// scan walks the input tree. Files in directories that contain .eml messages
// are left to thread reconstruction; every other regular file becomes a
// conversion candidate. Hidden files and directories are skipped, as is the
// output directory when it nests inside the input.
func (p *Pipeline) scan(inputDir, outputDir string) (files []string, emailDirs []string, err error) {
	emailDirSet := make(map[string]struct{})

	walkErr := filepath.WalkDir(inputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == outputDir {
				return filepath.SkipDir
			}
			if path != inputDir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if converters.Detect(path) == converters.CategoryEmail {
			emailDirSet[filepath.Dir(path)] = struct{}{}
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("walk input tree: %w", walkErr)
	}

	for dir := range emailDirSet {
		emailDirs = append(emailDirs, dir)
	}
	sort.Strings(emailDirs)
	sort.Strings(files)
	return files, emailDirs, nil
}

func (p *Pipeline) convertEmailDirs(ctx context.Context, emailDirs []string, inputDir, outputDir string, summary *Summary) {
	opts := mailthread.RenderOptions{SaveAttachments: p.cfg.Email.SaveAttachments}
	for _, dir := range emailDirs {
		outSub := outputDir
		if rel, err := filepath.Rel(inputDir, dir); err == nil && rel != "." {
			outSub = filepath.Join(outputDir, rel)
		}
		result, err := mailthread.ConvertDirectory(ctx, dir, outSub, opts, p.logger)
		if err != nil {
			p.logger.Warn("thread conversion failed for directory",
				logging.String(logging.FieldDirectory, dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "messages in this directory are missing from the output"))
		}
		summary.Threads.Directories++
		summary.Threads.MessagesParsed += result.MessagesParsed
		summary.Threads.MessagesFailed += result.MessagesFailed
		summary.Threads.ThreadsCreated += result.ThreadsCreated
		summary.Threads.AttachmentsSaved += result.AttachmentsSaved
	}
}

func (p *Pipeline) buildTasks(files []string, inputDir, outputDir string) []executor.Task {
	tasks := make([]executor.Task, 0, len(files))
	for _, path := range files {
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		outputPath := filepath.Join(outputDir, rel+".md")
		category := converters.Detect(path)
		inputPath := path
		tasks = append(tasks, executor.Task{
			ID:       rel,
			Category: string(category),
			Run: func(ctx context.Context) (string, error) {
				return p.convertOne(ctx, inputPath, outputPath, category)
			},
		})
	}
	return tasks
}

func (p *Pipeline) appendLedger(ctx context.Context, summary *Summary) {
	if p.deps.Ledger == nil {
		return
	}
	record := runlog.Record{
		ID:         summary.RunID,
		Mode:       summary.Mode,
		InputDir:   summary.InputDir,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	}
	for _, c := range summary.Categories {
		record.Categories = append(record.Categories, runlog.CategoryTotals{
			Category:  c.Category,
			Attempted: c.Attempted,
			Succeeded: c.Succeeded,
			Failed:    c.Failed,
		})
	}
	if summary.Threads.Directories > 0 {
		record.Categories = append(record.Categories, runlog.CategoryTotals{
			Category:  string(converters.CategoryEmail),
			Attempted: summary.Threads.MessagesParsed + summary.Threads.MessagesFailed,
			Succeeded: summary.Threads.MessagesParsed,
			Failed:    summary.Threads.MessagesFailed,
		})
	}
	if err := p.deps.Ledger.Append(ctx, record); err != nil {
		p.logger.Warn("failed to record run in ledger",
			logging.String(logging.FieldRunID, summary.RunID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from docsmith runs output"))
	}
}
