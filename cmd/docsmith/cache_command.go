package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"docsmith/internal/convertcache"
)

func newCacheCommand(cmdCtx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the conversion cache",
	}
	cacheCmd.AddCommand(newCacheShowCommand(cmdCtx))
	cacheCmd.AddCommand(newCacheClearCommand(cmdCtx))
	return cacheCmd
}

func (c *commandContext) withCache(fn func(*convertcache.Cache) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.newLogger()
	if err != nil {
		return err
	}
	cache, err := convertcache.Open(cfg.Paths.CacheDir, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()
	return fn(cache)
}

func newCacheShowCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cached conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withCache(func(cache *convertcache.Cache) error {
				entries := cache.List()
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Cache is empty")
					return nil
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					large := ""
					if entry.IsLarge {
						large = "yes"
					}
					rows = append(rows, []string{
						entry.OriginalFilename,
						entry.FileType,
						entry.Mode,
						entry.CachedOn.Local().Format(time.DateTime),
						large,
						shortHash(entry.Hash),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Type", "Mode", "Cached", "Large", "Hash"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
				fmt.Fprintf(out, "%s entries\n", strconv.Itoa(cache.Count()))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many entries (0 = all)")
	return cmd
}

func newCacheClearCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withCache(func(cache *convertcache.Cache) error {
				count := cache.Count()
				if err := cache.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached conversions\n", count)
				return nil
			})
		},
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
