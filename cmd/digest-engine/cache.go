// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/digest-engine/internal/cache"
	"github.com/pdiddy/digest-engine/internal/provider"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the semantic summary cache (clear, stats, export)",
	Long: `Cache manages the local store of summarized (query, week) results.
Entries accumulate append-only; the only removal is a full clear.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCacheStore()
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.ClearAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries\n", removed)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry count and on-disk size",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCacheStore()
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stat(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Entries: %d\nSize:    %d bytes\nThreshold: %.2f\n",
			st.Entries, st.SizeBytes, store.Threshold())
		return nil
	},
}

var cacheExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached summaries as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCacheStore()
		if err != nil {
			return err
		}
		defer store.Close()

		out, _ := cmd.Flags().GetString("out")
		w := os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := store.ExportYAML(cmd.Context(), w); err != nil {
			return err
		}
		if out != "" {
			fmt.Printf("Exported to %s\n", out)
		}
		return nil
	},
}

// openCacheStore opens the store with the configured embedding backend so
// stats and exports see the same model partition the pipeline writes.
func openCacheStore() (*cache.Store, error) {
	cfg := pipelineConfig()
	client, err := provider.New(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return cache.NewStore(cfg.Cache, client)
}

func init() {
	cacheExportCmd.Flags().String("out", "", "write the export to a file instead of stdout")

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheExportCmd)

	rootCmd.AddCommand(cacheCmd)
}
