package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"docsmith/internal/executor"
	"docsmith/internal/fileutil"
)

// SummaryFileName is the per-run summary artifact written into the output
// directory.
const SummaryFileName = "conversion_summary.md"

const failedSampleLimit = 5

// CategorySummary is one file category's outcome in a run.
type CategorySummary struct {
	Category      string
	Attempted     int
	Succeeded     int
	Failed        int
	FailedSamples []string // up to failedSampleLimit base names
}

// ThreadSummary aggregates the email thread workflow across directories.
type ThreadSummary struct {
	Directories      int
	MessagesParsed   int
	MessagesFailed   int
	ThreadsCreated   int
	AttachmentsSaved int
}

// Summary is the complete record of one run. It is produced unconditionally,
// including for runs where nothing succeeded.
type Summary struct {
	RunID      string
	Mode       string
	InputDir   string
	OutputDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Categories []CategorySummary
	Threads    ThreadSummary
}

// Totals sums file-task counters across categories. Thread messages are
// reported separately.
func (s *Summary) Totals() (attempted, succeeded, failed int) {
	for _, c := range s.Categories {
		attempted += c.Attempted
		succeeded += c.Succeeded
		failed += c.Failed
	}
	return attempted, succeeded, failed
}

func (s *Summary) fillCategories(stats *executor.Stats) {
	for _, name := range stats.Categories() {
		cs := stats.Category(name)
		samples := cs.FailedItems
		if len(samples) > failedSampleLimit {
			samples = samples[:failedSampleLimit]
		}
		bases := make([]string, 0, len(samples))
		for _, item := range samples {
			bases = append(bases, filepath.Base(item))
		}
		s.Categories = append(s.Categories, CategorySummary{
			Category:      name,
			Attempted:     cs.Attempted,
			Succeeded:     cs.Succeeded,
			Failed:        cs.Failed,
			FailedSamples: bases,
		})
	}
}

func (p *Pipeline) writeSummaryArtifact(outputDir string, s *Summary) error {
	return fileutil.WriteFileAtomic(filepath.Join(outputDir, SummaryFileName), []byte(s.Markdown()), 0o644)
}

// Markdown renders the summary artifact.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("# Conversion Summary\n\n")
	fmt.Fprintf(&b, "- **Run:** %s\n", s.RunID)
	fmt.Fprintf(&b, "- **Mode:** %s\n", s.Mode)
	fmt.Fprintf(&b, "- **Input:** `%s`\n", s.InputDir)
	fmt.Fprintf(&b, "- **Started:** %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Duration:** %s\n\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))

	if len(s.Categories) == 0 && s.Threads.Directories == 0 {
		b.WriteString("No convertible files found.\n")
		return b.String()
	}

	if len(s.Categories) > 0 {
		b.WriteString("| Category | Attempted | Succeeded | Failed |\n")
		b.WriteString("|----------|----------:|----------:|-------:|\n")
		for _, c := range s.Categories {
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", c.Category, c.Attempted, c.Succeeded, c.Failed)
		}
		attempted, succeeded, failed := s.Totals()
		fmt.Fprintf(&b, "| **total** | **%d** | **%d** | **%d** |\n\n", attempted, succeeded, failed)
	}

	var failures []CategorySummary
	for _, c := range s.Categories {
		if len(c.FailedSamples) > 0 {
			failures = append(failures, c)
		}
	}
	if len(failures) > 0 {
		b.WriteString("## Failures\n\n")
		for _, c := range failures {
			fmt.Fprintf(&b, "### %s\n\n", c.Category)
			for _, sample := range c.FailedSamples {
				fmt.Fprintf(&b, "- `%s`\n", sample)
			}
			if remaining := c.Failed - len(c.FailedSamples); remaining > 0 {
				fmt.Fprintf(&b, "- and %d more\n", remaining)
			}
			b.WriteString("\n")
		}
	}

	if s.Threads.Directories > 0 {
		b.WriteString("## Email threads\n\n")
		fmt.Fprintf(&b, "- Directories processed: %d\n", s.Threads.Directories)
		fmt.Fprintf(&b, "- Messages parsed: %d (%d failed)\n", s.Threads.MessagesParsed, s.Threads.MessagesFailed)
		fmt.Fprintf(&b, "- Threads created: %d\n", s.Threads.ThreadsCreated)
		fmt.Fprintf(&b, "- Attachments saved: %d\n", s.Threads.AttachmentsSaved)
	}

	return b.String()
}
