// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the digest-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/digest-engine/internal/secrets"
	"github.com/pdiddy/digest-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the digest-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "digest-engine",
	Short: "Weekly stock news digests with semantic caching",
	Long: `digest-engine turns a (ticker, week) selection into a summarized news
digest: it searches company and industry news through the tool servers,
summarizes articles with an LLM, scores sentiment, and caches results in a
local semantic store so repeated and near-identical requests skip the model.

Each operation is a subcommand: digest, price, and cache.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env before secrets so both can supply credentials.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./digest-engine.yaml or ~/.config/digest-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("digest-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "digest-engine"))
		}
	}

	viper.SetEnvPrefix("DIGEST_ENGINE")
	viper.AutomaticEnv()

	viper.SetDefault("provider.chat_backend", "openai")
	viper.SetDefault("provider.embed_backend", "openai")
	viper.SetDefault("tools.price_server_url", "http://localhost:8801")
	viper.SetDefault("tools.news_server_url", "http://localhost:8802")
	viper.SetDefault("tools.timeout", "30s")
	viper.SetDefault("cache.dir", filepath.Join("data", "cache"))
	viper.SetDefault("cache.similarity_threshold", 0.62)
	viper.SetDefault("summarizer.workers", 6)
	viper.SetDefault("pipeline.retry_max", 2)
	viper.SetDefault("pipeline.language", "zh")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the full configuration from viper and the loaded
// secrets. API keys resolve config first, then the secrets directory.
func pipelineConfig() types.PipelineConfig {
	chatBackend := types.ProviderBackend(viper.GetString("provider.chat_backend"))
	embedBackend := types.ProviderBackend(viper.GetString("provider.embed_backend"))

	cfg := types.PipelineConfig{
		Provider: types.ProviderConfig{
			ChatBackend:  chatBackend,
			ChatModel:    viper.GetString("provider.chat_model"),
			ChatAPIKey:   apiKey("provider.chat_api_key", chatBackend),
			EmbedBackend: embedBackend,
			EmbedModel:   viper.GetString("provider.embed_model"),
			EmbedAPIKey:  apiKey("provider.embed_api_key", embedBackend),
			MaxRetries:   viper.GetInt("provider.max_retries"),
		},
		Tools: types.ToolConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("tools.timeout"),
				UserAgent: "digest-engine/" + version,
			},
			PriceServerURL: viper.GetString("tools.price_server_url"),
			NewsServerURL:  viper.GetString("tools.news_server_url"),
			NewsLimit:      viper.GetInt("tools.news_limit"),
		},
		Cache: types.CacheConfig{
			Dir:                 viper.GetString("cache.dir"),
			SimilarityThreshold: viper.GetFloat64("cache.similarity_threshold"),
		},
		Summarizer: types.SummarizerConfig{
			Workers: viper.GetInt("summarizer.workers"),
		},
		RetryMax: viper.GetInt("pipeline.retry_max"),
		Language: types.Language(viper.GetString("pipeline.language")),
	}
	return cfg
}

func apiKey(configKey string, backend types.ProviderBackend) string {
	if v := viper.GetString(configKey); v != "" {
		return v
	}
	return secrets.APIKey(loadedSecrets, backend)
}

// parseWeek turns a --week value into an inclusive [start, end] window. An
// empty value selects the current week, Monday through Sunday.
func parseWeek(value string) (time.Time, time.Time, error) {
	var start time.Time
	if value == "" {
		now := time.Now().UTC()
		offset := (int(now.Weekday()) + 6) % 7
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -offset)
	} else {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid week start %q: use YYYY-MM-DD", value)
		}
		start = parsed
	}
	return start, start.AddDate(0, 0, 6), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
