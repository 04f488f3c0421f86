// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/digest-engine/internal/toolclient"
	"github.com/pdiddy/digest-engine/pkg/types"
)

var priceCmd = &cobra.Command{
	Use:   "price [ticker]",
	Short: "Fetch the weekly closing price series for a ticker",
	Long: `Price fetches the (date, close) series for a ticker from the price tool
server and prints it in date order.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrice,
}

func runPrice(cmd *cobra.Command, args []string) error {
	market, _ := cmd.Flags().GetString("market")
	ticker := strings.ToUpper(args[0])

	cfg := pipelineConfig()
	tools := toolclient.New(cfg.Tools)

	points, source, err := tools.FetchPriceSeries(cmd.Context(), ticker, types.Market(strings.ToUpper(market)))
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("no price data for %s", ticker)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	}

	fmt.Printf("%s (%s, %d points)\n", ticker, source, len(points))
	for _, p := range points {
		fmt.Printf("%s  %10.2f\n", p.Date.Format("2006-01-02"), p.Close)
	}
	return nil
}

func init() {
	priceCmd.Flags().String("market", "US", "market the ticker trades on: US or JP")
	priceCmd.Flags().Bool("json", false, "output the series as JSON")

	rootCmd.AddCommand(priceCmd)
}
