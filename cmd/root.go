// Package cmd implements the command-line interface for newscope.
// It provides the root command and subcommands for scraping articles,
// discovering source links and inspecting redirects.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/newscope/internal/config"
	"github.com/jonesrussell/newscope/internal/extract"
	"github.com/jonesrussell/newscope/internal/fetch"
	"github.com/jonesrussell/newscope/internal/logger"
	"github.com/jonesrussell/newscope/internal/scraper"
	"github.com/jonesrussell/newscope/internal/structure"
	"github.com/jonesrussell/newscope/internal/validation"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "newscope",
		Short: "An adaptive article scraper",
		Long:  `An adaptive article scraper that detects page structure and extracts content.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to Viper.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("newscope version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(scrapeCommand())
	rootCmd.AddCommand(linksCommand())
	rootCmd.AddCommand(resolveCommand())
}

// loadConfig reads the configuration and builds the logger.
func loadConfig() (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if debug {
		cfg.Logger.Level = logger.DebugLevel
		cfg.Logger.Development = true
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}

// pipeline holds the wired scrape collaborators and their cleanup.
type pipeline struct {
	scraper *scraper.UnifiedScraper
	close   func()
}

// buildPipeline wires the full scrape pipeline from the configuration.
// The browser fetcher is optional; without it only the static path runs.
func buildPipeline(cfg *config.Config, log logger.Interface, withBrowser bool) (*pipeline, error) {
	httpFetcher := fetch.NewHTTPFetcher(cfg.Fetch, log)

	var browser fetch.PageFetcher
	var chrome *fetch.ChromeFetcher
	if withBrowser {
		chrome = fetch.NewChromeFetcher(cfg.Fetch, log)
		browser = chrome
	}

	selector := fetch.NewMethodSelector(httpFetcher, browser, cfg.Fetch, log)

	var aiClient structure.Client
	if cfg.AI.APIKey != "" {
		client, err := structure.NewAnthropicClient(cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("create AI client: %w", err)
		}
		aiClient = client
	} else {
		log.Warn("No AI API key configured, structure detection will use fallback selectors")
	}

	detector := structure.NewDetector(aiClient, structure.NewCache(), log)

	unified := scraper.NewUnifiedScraper(scraper.Params{
		Fetcher:   selector,
		Detector:  detector,
		Validator: validation.NewPageValidator(log),
		Extractor: extract.NewExtractor(log),
		Browser:   browser,
		Config:    cfg.Scraper,
		Logger:    log,
	})

	return &pipeline{
		scraper: unified,
		close: func() {
			if chrome != nil {
				chrome.Close()
			}
		},
	}, nil
}
