// Package codex provides a public API for embedding the archive pipeline
// as a library.
//
// Example usage:
//
//	archiver := codex.NewArchiver(
//	    codex.WithDatabase("./decks.sqlite"),
//	    codex.WithSpan(500),
//	)
//
//	archiver.OnTournament(func(t *types.Tournament) {
//	    fmt.Println(t.Name, len(t.Decks))
//	})
//
//	if err := archiver.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package codex

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mtgdc/codex/internal/catalog"
	"github.com/mtgdc/codex/internal/config"
	"github.com/mtgdc/codex/internal/engine"
	"github.com/mtgdc/codex/internal/fetcher"
	"github.com/mtgdc/codex/internal/scraper"
	"github.com/mtgdc/codex/internal/storage"
	"github.com/mtgdc/codex/internal/types"
)

// Archiver is the high-level API for running the scrape pipeline in-process.
type Archiver struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine

	onTournament []func(*types.Tournament)
	onWatermark  []func(int)
}

// Option configures an Archiver.
type Option func(*config.Config)

// WithDatabase sets the SQLite database path.
func WithDatabase(path string) Option {
	return func(c *config.Config) { c.Storage.Path = path }
}

// WithBaseURL points the scraper at a different site root.
func WithBaseURL(url string) Option {
	return func(c *config.Config) { c.Scraper.BaseURL = url }
}

// WithSpan sets how many candidate ids one pass covers.
func WithSpan(n int) Option {
	return func(c *config.Config) { c.Scraper.Span = n }
}

// WithBatchSize sets the number of concurrent fetches per group.
func WithBatchSize(n int) Option {
	return func(c *config.Config) { c.Scraper.BatchSize = n }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Fetcher.UserAgent = ua }
}

// WithCacheDir sets the directory for cached catalog archives.
func WithCacheDir(dir string) Option {
	return func(c *config.Config) { c.Catalog.CacheDir = dir }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// NewArchiver creates an Archiver with the given options.
func NewArchiver(opts ...Option) *Archiver {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Archiver{cfg: cfg, logger: logger}
}

// OnTournament registers a callback invoked for each committed tournament.
func (a *Archiver) OnTournament(fn func(*types.Tournament)) {
	a.onTournament = append(a.onTournament, fn)
}

// OnWatermark registers a callback invoked when a pass advances the
// highest persisted tournament id.
func (a *Archiver) OnWatermark(fn func(int)) {
	a.onWatermark = append(a.onWatermark, fn)
}

// Run executes scrape passes until no new tournaments are found or ctx is
// canceled. It owns the full component lifecycle.
func (a *Archiver) Run(ctx context.Context) error {
	if err := config.Validate(a.cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := storage.Open(a.cfg.Storage.Path, a.logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	bootstrap := catalog.NewBootstrap(a.cfg.Catalog, store, a.logger)
	snapshot, err := bootstrap.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("card catalog bootstrap: %w", err)
	}

	fetch := fetcher.New(a.cfg.Fetcher, a.logger)
	defer fetch.Close()

	scr := scraper.New(a.cfg.Scraper, fetch, catalog.NewResolver(snapshot), a.logger)
	eng := engine.New(a.cfg.Scraper, scr, store, a.logger)
	if len(a.onTournament) > 0 || len(a.onWatermark) > 0 {
		eng.AddNotifier(&callbackNotifier{a})
	}

	a.engine = eng
	return eng.Run(ctx)
}

// Stats returns scrape statistics, or nil before the first Run.
func (a *Archiver) Stats() map[string]any {
	if a.engine != nil {
		return a.engine.Stats().Snapshot()
	}
	return nil
}

// callbackNotifier adapts registered callbacks to the engine's notifier
// interface.
type callbackNotifier struct {
	a *Archiver
}

func (n *callbackNotifier) TournamentCommitted(t *types.Tournament) {
	for _, fn := range n.a.onTournament {
		fn(t)
	}
}

func (n *callbackNotifier) WatermarkAdvanced(id int) {
	for _, fn := range n.a.onWatermark {
		fn(id)
	}
}
