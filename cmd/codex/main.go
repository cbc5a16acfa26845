package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtgdc/codex/internal/catalog"
	"github.com/mtgdc/codex/internal/config"
	"github.com/mtgdc/codex/internal/dashboard"
	"github.com/mtgdc/codex/internal/engine"
	"github.com/mtgdc/codex/internal/fetcher"
	"github.com/mtgdc/codex/internal/observability"
	"github.com/mtgdc/codex/internal/scraper"
	"github.com/mtgdc/codex/internal/storage"
)

var (
	cfgFile string
	verbose bool
	dbPath  string
	span    int
	batch   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "codex",
		Short: "Codex — Duel Commander tournament archive",
		Long: `Codex scrapes Duel Commander tournament results from mtgtop8.com,
resolves every card against the mtgjson reference catalog, and stores
normalized tournaments, decks and decklists in a local SQLite database.

Runs are resumable: scanning always restarts after the highest
tournament already persisted.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scan for new tournaments and persist them",
		Long: "Scan candidate tournament ids beyond the stored watermark, " +
			"extract every qualifying Duel Commander event and commit it atomically.",
		RunE: runScrape,
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path")
	cmd.Flags().IntVar(&span, "span", 0, "candidate ids covered per pass")
	cmd.Flags().IntVar(&batch, "batch", 0, "concurrent fetches per group")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	store, err := storage.Open(cfg.Storage.Path, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap := catalog.NewBootstrap(cfg.Catalog, store, logger)
	snapshot, err := bootstrap.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("card catalog bootstrap: %w", err)
	}
	resolver := catalog.NewResolver(snapshot)
	logger.Info("card catalog ready", "cards", snapshot.Len())

	fetch := fetcher.New(cfg.Fetcher, logger)
	defer fetch.Close()

	scr := scraper.New(cfg.Scraper, fetch, resolver, logger)
	eng := engine.New(cfg.Scraper, scr, store, logger)

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(eng.Stats(), logger)
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	start := time.Now()
	if err := eng.Run(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("scrape interrupted", "elapsed", time.Since(start))
			return nil
		}
		return fmt.Errorf("scrape: %w", err)
	}

	stats := eng.Stats().Snapshot()
	logger.Info("scrape complete",
		"elapsed", time.Since(start),
		"scanned", stats["candidates_scanned"],
		"committed", stats["tournaments_committed"],
		"decks", stats["decks_committed"],
	)

	fmt.Printf("\nScrape complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Candidates:  %v scanned\n", stats["candidates_scanned"])
	fmt.Printf("  Tournaments: %v committed, %v skipped, %v unresolved\n",
		stats["tournaments_committed"], stats["tournaments_skipped"], stats["tournaments_unresolved"])
	fmt.Printf("  Decks:       %v committed\n", stats["decks_committed"])
	fmt.Printf("  Database:    %s\n", cfg.Storage.Path)

	return nil
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stored archive in a browser, scraping in the background",
		RunE:  runServe,
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path")

	return cmd
}

// runServe starts the dashboard and keeps a scrape pass running behind it.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	store, err := storage.Open(cfg.Storage.Path, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap := catalog.NewBootstrap(cfg.Catalog, store, logger)
	snapshot, err := bootstrap.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("card catalog bootstrap: %w", err)
	}
	resolver := catalog.NewResolver(snapshot)

	fetch := fetcher.New(cfg.Fetcher, logger)
	defer fetch.Close()

	scr := scraper.New(cfg.Scraper, fetch, resolver, logger)
	eng := engine.New(cfg.Scraper, scr, store, logger)

	dash := dashboard.New(cfg.Serve.Port, store, eng.Stats(), logger)
	eng.AddNotifier(dash)
	dash.Start()

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(eng.Stats(), logger)
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	go func() {
		if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("background scrape failed", "error", err)
		}
	}()

	fmt.Printf("Dashboard listening on http://localhost:%d\n", cfg.Serve.Port)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("codex %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cfg)
			fmt.Printf("Scraper:\n")
			fmt.Printf("  Base URL:        %s\n", cfg.Scraper.BaseURL)
			fmt.Printf("  Floor:           %d\n", cfg.Scraper.FirstTournamentID)
			fmt.Printf("  Span:            %d\n", cfg.Scraper.Span)
			fmt.Printf("  Batch Size:      %d\n", cfg.Scraper.BatchSize)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Request Timeout: %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Max Body Size:   %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nCatalog:\n")
			fmt.Printf("  Cards URL:       %s\n", cfg.Catalog.CardsURL)
			fmt.Printf("  Sets URL:        %s\n", cfg.Catalog.SetsURL)
			fmt.Printf("  Cache Dir:       %s\n", cfg.Catalog.CacheDir)
			fmt.Printf("  Max Age:         %s\n", cfg.Catalog.MaxAge)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Path:            %s\n", cfg.Storage.Path)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:         %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:            %d\n", cfg.Metrics.Port)
			fmt.Printf("\nServe:\n")
			fmt.Printf("  Port:            %d\n", cfg.Serve.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger(cfg config.Logging) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if span > 0 {
		cfg.Scraper.Span = span
	}
	if batch > 0 {
		cfg.Scraper.BatchSize = batch
	}
}
