package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"docsmith/internal/logging"
	"docsmith/internal/services"
)

// Task is one unit of work: convert a single input file.
type Task struct {
	ID       string // input identity, typically the source path
	Category string // file category for stats aggregation
	Run      func(ctx context.Context) (string, error)
}

// Result is the terminal outcome of one task. ArtifactPath is empty on
// failure.
type Result struct {
	ID           string
	Category     string
	ArtifactPath string
	Err          error
	TimedOut     bool
	Duration     time.Duration
}

// Succeeded reports whether the task produced an artifact.
func (r Result) Succeeded() bool { return r.Err == nil }

// Pool executes tasks with fixed parallelism and a per-task deadline.
type Pool struct {
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a pool of the given width. workers and timeout fall back to
// sane minimums rather than erroring.
func New(workers int, timeout time.Duration, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Pool{
		workers: workers,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "executor"),
	}
}

// Run executes every task exactly once and returns results in completion
// order alongside aggregated stats. One task's fault never reaches its
// siblings; submission of later tasks never stops because an earlier one
// failed. Run itself returns only when every non-abandoned task has
// reported.
func (p *Pool) Run(ctx context.Context, tasks []Task) ([]Result, *Stats) {
	stats := NewStats()
	if len(tasks) == 0 {
		return nil, stats
	}

	taskCh := make(chan Task)
	resultCh := make(chan Result, len(tasks))

	for i := 0; i < p.workers; i++ {
		go p.worker(ctx, taskCh, resultCh)
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make([]Result, 0, len(tasks))
	for len(results) < len(tasks) {
		select {
		case result := <-resultCh:
			stats.Record(result)
			results = append(results, result)
		case <-ctx.Done():
			// Remaining tasks are recorded as failed so the run can still
			// emit a complete summary.
			for _, task := range tasks {
				if !containsID(results, task.ID) {
					cancelled := Result{ID: task.ID, Category: task.Category, Err: ctx.Err()}
					stats.Record(cancelled)
					results = append(results, cancelled)
				}
			}
			return results, stats
		}
	}
	return results, stats
}

// worker pulls tasks until the channel closes. Each task body runs in its
// own goroutine so a deadline overrun abandons the body without occupying
// the worker slot.
func (p *Pool) worker(ctx context.Context, taskCh <-chan Task, resultCh chan<- Result) {
	for task := range taskCh {
		resultCh <- p.execute(ctx, task)
	}
}

func (p *Pool) execute(ctx context.Context, task Task) Result {
	start := time.Now()

	taskCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type outcome struct {
		artifact string
		err      error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: services.Wrap(services.ErrExternalTool, "executor", "task panic",
					fmt.Sprintf("%v", r), nil)}
				p.logger.Error("task panicked",
					logging.String(logging.FieldEventType, "task_panic"),
					logging.String(logging.FieldFile, task.ID),
					logging.String("panic", fmt.Sprintf("%v", r)),
					logging.String("stack", string(debug.Stack())))
			}
		}()
		artifact, err := task.Run(taskCtx)
		done <- outcome{artifact: artifact, err: err}
	}()

	select {
	case out := <-done:
		result := Result{
			ID:           task.ID,
			Category:     task.Category,
			ArtifactPath: out.artifact,
			Err:          out.err,
			Duration:     time.Since(start),
		}
		if out.err != nil {
			p.logger.Warn("task failed",
				logging.String(logging.FieldEventType, "task_failed"),
				logging.String(logging.FieldFile, task.ID),
				logging.String(logging.FieldCategory, task.Category),
				logging.Error(out.err),
				logging.String(logging.FieldImpact, "input gets an error artifact instead of converted content"))
		}
		return result
	case <-taskCtx.Done():
		// Deadline or run cancellation: stop waiting. The body keeps the
		// buffered channel so its eventual send never blocks.
		err := services.Wrap(services.ErrTimeout, "executor", "task deadline",
			fmt.Sprintf("abandoned after %s", p.timeout), taskCtx.Err())
		p.logger.Warn("task abandoned",
			logging.String(logging.FieldEventType, "task_timeout"),
			logging.String(logging.FieldFile, task.ID),
			logging.String(logging.FieldCategory, task.Category),
			logging.Duration("deadline", p.timeout))
		return Result{
			ID:       task.ID,
			Category: task.Category,
			Err:      err,
			TimedOut: true,
			Duration: time.Since(start),
		}
	}
}

func containsID(results []Result, id string) bool {
	for _, r := range results {
		if r.ID == id {
			return true
		}
	}
	return false
}
