// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/digest-engine/internal/cache"
	"github.com/pdiddy/digest-engine/internal/pipeline"
	"github.com/pdiddy/digest-engine/internal/provider"
	"github.com/pdiddy/digest-engine/internal/summarize"
	"github.com/pdiddy/digest-engine/internal/toolclient"
	"github.com/pdiddy/digest-engine/pkg/types"
)

var digestCmd = &cobra.Command{
	Use:   "digest [ticker]",
	Short: "Build the weekly news digest for a ticker",
	Long: `Digest runs the full pipeline for one (ticker, week) selection: company
and industry news search, cached or fresh LLM summarization, and sentiment
scoring. Results come from the semantic cache when an equivalent week was
already summarized.`,
	Args: cobra.ExactArgs(1),
	RunE: runDigest,
}

func runDigest(cmd *cobra.Command, args []string) error {
	weekFlag, _ := cmd.Flags().GetString("week")
	weekStart, weekEnd, err := parseWeek(weekFlag)
	if err != nil {
		return err
	}

	companyName, _ := cmd.Flags().GetString("company")
	market, _ := cmd.Flags().GetString("market")
	langFlag, _ := cmd.Flags().GetString("language")

	cfg := pipelineConfig()
	if langFlag != "" {
		cfg.Language = types.Language(langFlag)
	}

	sel := types.Selection{
		Ticker:      strings.ToUpper(args[0]),
		CompanyName: companyName,
		Market:      types.Market(strings.ToUpper(market)),
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
	}

	client, err := provider.New(cfg.Provider)
	if err != nil {
		return err
	}

	store, err := cache.NewStore(cfg.Cache, client)
	if err != nil {
		return err
	}
	defer store.Close()

	tools := toolclient.New(cfg.Tools)
	pool := summarize.NewPool(client, cfg.Summarizer)
	runner := pipeline.NewRunner(client, tools, pool, store, cfg)

	digest, err := runner.Run(cmd.Context(), sel, os.Stderr)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(digest)
	}

	printDigest(sel, digest)
	return nil
}

func printDigest(sel types.Selection, digest *types.Digest) {
	fmt.Printf("%s, week of %s\n\n", sel.Ticker, sel.WeekStart.Format("2006-01-02"))

	fmt.Printf("Company news (%d articles, sentiment %+.2f)\n",
		digest.Counts.Company, digest.CompanySentiment)
	printSummary(digest.CompanySummary)

	fmt.Printf("\nIndustry news (%d articles, sentiment %+.2f)\n",
		digest.Counts.Industry, digest.IndustrySentiment)
	printSummary(digest.IndustrySummary)
}

func printSummary(summary string) {
	if summary == "" {
		fmt.Println("  (no news this week)")
		return
	}
	fmt.Printf("  %s\n", summary)
}

func init() {
	digestCmd.Flags().String("company", "", "company display name (inferred from the ticker when omitted)")
	digestCmd.Flags().String("market", "US", "market the ticker trades on: US or JP")
	digestCmd.Flags().String("week", "", "week start date YYYY-MM-DD (default: current week)")
	digestCmd.Flags().String("language", "", "summary language: zh, ja, or en (default from config)")
	digestCmd.Flags().Bool("json", false, "output the digest as JSON")

	rootCmd.AddCommand(digestCmd)
}
