package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/awano27/daily-ai-news/internal/app"
	"github.com/awano27/daily-ai-news/internal/config"
	"github.com/awano27/daily-ai-news/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagFeeds       string
	flagCSV         string
	flagCache       string
	flagOut         string
	flagLookback    int
	flagMaxItems    int
	flagNoTranslate bool
	flagDebug       bool
	flagPrint       bool
)

var rootCmd = &cobra.Command{
	Use:          "ainews",
	Short:        "Daily AI news digest builder",
	Long:         "ainews collects AI news from RSS/Atom feeds and a social-post CSV export, scores, deduplicates and translates them, and writes a ranked JSON digest.",
	SilenceUsage: true,
	RunE:         runBuild,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagFeeds, "feeds", "", "feeds config file (overrides FEEDS_CONFIG)")
	f.StringVar(&flagCSV, "csv", "", "social posts CSV URL or path (overrides X_POSTS_CSV)")
	f.StringVar(&flagCache, "cache", "", "translation cache file (overrides CACHE_FILE)")
	f.StringVar(&flagOut, "out", "", "output JSON file (overrides OUTPUT_FILE)")
	f.IntVar(&flagLookback, "lookback", 0, "lookback window in hours (overrides HOURS_LOOKBACK)")
	f.IntVar(&flagMaxItems, "max-items", 0, "items kept per category (overrides MAX_ITEMS_PER_CATEGORY)")
	f.BoolVar(&flagNoTranslate, "no-translate", false, "keep summaries in their original language")
	f.BoolVar(&flagDebug, "debug", false, "debug logging")
	f.BoolVar(&flagPrint, "print", false, "print the selection to stdout")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ainews %s (commit: %s)\n", version, commit)
	},
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyFlags(cmd, cfg)

	logger.Init(cfg.Debug)
	for _, w := range cfg.Clamp() {
		logger.Warn("config value clamped", "detail", w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Info("starting run",
		"lookback_hours", cfg.LookbackHours,
		"max_items", cfg.MaxItemsPerCategory,
		"translate", cfg.TranslateToJA,
		"engine", cfg.TranslateEngine,
		"fallback", cfg.TranslateFallback,
	)

	out, err := app.Run(ctx, cfg, app.Deps{})
	if err != nil {
		logger.Error("run failed", "err", err)
		return err
	}
	if flagPrint {
		fmt.Print(app.Describe(out))
	}
	return nil
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("feeds") {
		cfg.FeedsConfigPath = flagFeeds
	}
	if fl.Changed("csv") {
		cfg.PostsCSV = flagCSV
	}
	if fl.Changed("cache") {
		cfg.CacheFilePath = flagCache
	}
	if fl.Changed("out") {
		cfg.OutputPath = flagOut
	}
	if fl.Changed("lookback") {
		cfg.LookbackHours = flagLookback
	}
	if fl.Changed("max-items") {
		cfg.MaxItemsPerCategory = flagMaxItems
	}
	if flagNoTranslate {
		cfg.TranslateToJA = false
	}
	if flagDebug {
		cfg.Debug = true
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
