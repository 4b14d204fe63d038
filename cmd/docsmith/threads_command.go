package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"docsmith/internal/mailthread"
)

func newThreadsCommand(cmdCtx *commandContext) *cobra.Command {
	var outputFlag string
	var skipAttachments bool

	cmd := &cobra.Command{
		Use:   "threads <eml-dir>",
		Short: "Reconstruct email threads from a directory of .eml files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.newLogger()
			if err != nil {
				return err
			}

			inputDir := args[0]
			outputDir := strings.TrimSpace(outputFlag)
			if outputDir == "" {
				outputDir = strings.TrimRight(inputDir, "/\\") + "_threads"
			}

			opts := mailthread.RenderOptions{
				SaveAttachments: cfg.Email.SaveAttachments && !skipAttachments,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := mailthread.ConvertDirectory(ctx, inputDir, outputDir, opts, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Parsed %d messages (%d unreadable)\n", result.MessagesParsed, result.MessagesFailed)
			fmt.Fprintf(out, "Created %d threads, saved %d attachments\n", result.ThreadsCreated, result.AttachmentsSaved)
			for _, doc := range result.Documents {
				fmt.Fprintf(out, "  %s\n", doc)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (default <eml-dir>_threads)")
	cmd.Flags().BoolVar(&skipAttachments, "no-attachments", false, "Do not extract attachments")
	return cmd
}
