package converters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"docsmith/internal/fileutil"
	"docsmith/internal/logging"
	"docsmith/internal/services"
)

// commandRunner executes one external command and returns its output.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Runner invokes the external document conversion tool. The subprocess gets
// its own deadline independent of the worker pool's: pool abandonment only
// stops waiting, so the child must limit itself.
type Runner struct {
	command string
	timeout time.Duration
	logger  *slog.Logger
	run     commandRunner
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCommandRunner overrides subprocess execution (used in tests).
func WithCommandRunner(run commandRunner) RunnerOption {
	return func(r *Runner) {
		if run != nil {
			r.run = run
		}
	}
}

// NewRunner creates a Runner for the given tool binary.
func NewRunner(command string, timeout time.Duration, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if command == "" {
		command = "markitdown"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	r := &Runner{
		command: command,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "converter"),
		run:     runTool,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Markdown runs the tool on inputPath and returns the Markdown it emits on
// stdout.
func (r *Runner) Markdown(ctx context.Context, inputPath string) ([]byte, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	output, err := r.run(cmdCtx, r.command, inputPath)
	if err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return nil, services.Wrap(services.ErrTimeout, "converter", "convert",
				fmt.Sprintf("%s exceeded %s", r.command, r.timeout), err)
		}
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, truncate(detail, 500))
		}
		return nil, services.Wrap(services.ErrExternalTool, "converter", "convert",
			fmt.Sprintf("%s failed", r.command), err)
	}
	if len(strings.TrimSpace(string(output))) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "converter", "convert",
			fmt.Sprintf("%s produced no output", r.command), nil)
	}
	r.logger.Debug("converted",
		logging.String(logging.FieldFile, inputPath),
		logging.Duration("elapsed", time.Since(start)))
	return output, nil
}

// Convert runs the tool and writes the result to outputPath atomically.
func (r *Runner) Convert(ctx context.Context, inputPath, outputPath string) error {
	output, err := r.Markdown(ctx, inputPath)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(outputPath, output, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "converter", "convert", "write artifact", err)
	}
	return nil
}

// runTool returns the tool's stdout. On failure the captured stderr is
// returned instead so callers can surface the diagnostic.
func runTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, name, args...).Output() //nolint:gosec
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return exitErr.Stderr, err
		}
	}
	return output, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
