package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docsmith/internal/config"
	"docsmith/internal/convertcache"
	"docsmith/internal/converters"
	"docsmith/internal/logging"
	"docsmith/internal/ocr"
	"docsmith/internal/pipeline"
	"docsmith/internal/runlog"
	"docsmith/internal/services/gemini"
)

func newConvertCommand(cmdCtx *commandContext) *cobra.Command {
	var outputFlag string
	var modeFlag string
	var workersFlag int

	cmd := &cobra.Command{
		Use:   "convert <input-dir>",
		Short: "Convert a directory of documents to Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if modeFlag != "" {
				cfg.Conversion.Mode = modeFlag
			}
			if workersFlag > 0 {
				cfg.Conversion.Workers = workersFlag
			}
			if err := cfg.ValidateForMode(cfg.Conversion.Mode); err != nil {
				return err
			}

			inputDir := args[0]
			outputDir := strings.TrimSpace(outputFlag)
			if outputDir == "" {
				outputDir = strings.TrimRight(inputDir, "/\\") + "_md"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runConversion(ctx, cmdCtx, cfg, inputDir, outputDir)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (default <input-dir>_md)")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Conversion mode: direct or api-assisted")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Worker pool size override")
	return cmd
}

func runConversion(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, inputDir, outputDir string) (*pipeline.Summary, error) {
	logger, err := cmdCtx.newLogger()
	if err != nil {
		return nil, err
	}

	cache, err := convertcache.Open(cfg.Paths.CacheDir, logger)
	if err != nil {
		if errors.Is(err, convertcache.ErrLocked) {
			return nil, fmt.Errorf("another docsmith run is using the cache at %s; wait for it to finish", cfg.Paths.CacheDir)
		}
		return nil, err
	}
	defer func() { _ = cache.Close() }()

	deps := pipeline.Deps{
		Cache: cache,
		Runner: converters.NewRunner(cfg.Converter.Command,
			time.Duration(cfg.Converter.TimeoutSeconds)*time.Second, logger),
	}

	deps.OCR, err = ocr.NewEngine(ocr.Settings{
		Command: cfg.OCR.Command,
		Model:   cfg.OCR.Model,
		MaxEdge: cfg.OCR.MaxEdge,
		Timeout: time.Duration(cfg.OCR.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Conversion.Mode == config.ModeAPIAssisted {
		deps.Gemini, err = gemini.New(ctx, gemini.Config{
			APIKey:     cfg.Gemini.APIKey,
			Model:      cfg.Gemini.Model,
			MaxRetries: cfg.Gemini.MaxRetries,
			BaseDelay:  time.Duration(cfg.Gemini.RetryBaseSeconds) * time.Second,
		}, logger)
		if err != nil {
			return nil, err
		}
	}

	if cfg.RunLog.Enabled {
		ledger, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			logger.Warn("run ledger unavailable, continuing without history", logging.Error(err))
		} else {
			deps.Ledger = ledger
			defer func() { _ = ledger.Close() }()
		}
	}

	p, err := pipeline.New(cfg, deps, logger)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, inputDir, outputDir)
}

func printSummary(out io.Writer, summary *pipeline.Summary) {
	fmt.Fprintf(out, "Run %s (%s mode)\n", summary.RunID, summary.Mode)

	if len(summary.Categories) > 0 {
		rows := make([][]string, 0, len(summary.Categories)+1)
		for _, c := range summary.Categories {
			rows = append(rows, []string{
				c.Category,
				strconv.Itoa(c.Attempted),
				strconv.Itoa(c.Succeeded),
				strconv.Itoa(c.Failed),
			})
		}
		attempted, succeeded, failed := summary.Totals()
		rows = append(rows, []string{"total",
			strconv.Itoa(attempted), strconv.Itoa(succeeded), strconv.Itoa(failed)})
		fmt.Fprintln(out, renderTable(
			[]string{"Category", "Attempted", "Succeeded", "Failed"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}))
	}

	for _, c := range summary.Categories {
		if len(c.FailedSamples) == 0 {
			continue
		}
		fmt.Fprintf(out, "Failed %s files: %s", c.Category, strings.Join(c.FailedSamples, ", "))
		if remaining := c.Failed - len(c.FailedSamples); remaining > 0 {
			fmt.Fprintf(out, " (and %d more)", remaining)
		}
		fmt.Fprintln(out)
	}

	if summary.Threads.Directories > 0 {
		fmt.Fprintf(out, "Email threads: %d created from %d messages (%d unreadable), %d attachments saved\n",
			summary.Threads.ThreadsCreated, summary.Threads.MessagesParsed,
			summary.Threads.MessagesFailed, summary.Threads.AttachmentsSaved)
	}

	fmt.Fprintf(out, "Summary written to %s\n", summary.OutputDir+"/"+pipeline.SummaryFileName)
}
