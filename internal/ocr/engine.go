package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"docsmith/internal/logging"
	"docsmith/internal/services"
)

const transcribePrompt = "Transcribe every piece of text in this image to Markdown. Preserve structure: headings, lists, tables."

// Settings configure the external vision tool.
type Settings struct {
	Command string
	Model   string
	MaxEdge int
	Timeout time.Duration
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Engine drives one vision model CLI. Safe for concurrent Transcribe calls;
// each call spawns its own subprocess.
type Engine struct {
	settings Settings
	logger   *slog.Logger
	run      commandRunner
}

// Option configures an Engine.
type Option func(*Engine)

// WithCommandRunner overrides subprocess execution (used in tests).
func WithCommandRunner(run commandRunner) Option {
	return func(e *Engine) {
		if run != nil {
			e.run = run
		}
	}
}

// NewEngine builds the shared engine handle.
func NewEngine(settings Settings, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if settings.Command == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ocr", "new", "transcription command required", nil)
	}
	if settings.Model == "" {
		settings.Model = "qwen3-vl"
	}
	if settings.MaxEdge <= 0 {
		settings.MaxEdge = 1024
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 2 * time.Minute
	}
	e := &Engine{
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "ocr"),
		run:      runOutput,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Transcribe runs the vision tool on one image and returns its Markdown.
// Temperature is pinned to zero and the long side bounded so results stay
// deterministic and the model never sees an image it cannot hold. The
// subprocess carries its own deadline independent of the caller's.
func (e *Engine) Transcribe(ctx context.Context, imagePath string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, e.settings.Timeout)
	defer cancel()

	args := []string{
		"--model", e.settings.Model,
		"--temperature", "0",
		"--max-edge", strconv.Itoa(e.settings.MaxEdge),
		"--prompt", transcribePrompt,
		imagePath,
	}

	start := time.Now()
	output, err := e.run(cmdCtx, e.settings.Command, args...)
	if err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return "", services.Wrap(services.ErrTimeout, "ocr", "transcribe",
				fmt.Sprintf("%s exceeded %s", e.settings.Command, e.settings.Timeout), err)
		}
		if detail := strings.TrimSpace(string(output)); detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return "", services.Wrap(services.ErrExternalTool, "ocr", "transcribe",
			fmt.Sprintf("%s failed", e.settings.Command), err)
	}

	text := strings.TrimSpace(string(output))
	if text == "" {
		return "", services.Wrap(services.ErrExternalTool, "ocr", "transcribe", "no text recognized", nil)
	}
	e.logger.Debug("transcribed",
		logging.String(logging.FieldFile, imagePath),
		logging.Duration("elapsed", time.Since(start)))
	return text, nil
}

// runOutput returns the tool's stdout. On failure the captured stderr is
// returned instead so callers can surface the diagnostic.
func runOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, name, args...).Output() //nolint:gosec
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return exitErr.Stderr, err
		}
	}
	return output, err
}
