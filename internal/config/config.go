package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the scraper.
type Config struct {
	Scraper Scraper `mapstructure:"scraper" yaml:"scraper"`
	Fetcher Fetcher `mapstructure:"fetcher" yaml:"fetcher"`
	Catalog Catalog `mapstructure:"catalog" yaml:"catalog"`
	Storage Storage `mapstructure:"storage" yaml:"storage"`
	Logging Logging `mapstructure:"logging" yaml:"logging"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
	Serve   Serve   `mapstructure:"serve"   yaml:"serve"`
}

// Scraper controls the crawl loop.
type Scraper struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// FirstTournamentID is the historical floor: scanning starts after it
	// when storage holds no tournament yet.
	FirstTournamentID int `mapstructure:"first_tournament_id" yaml:"first_tournament_id"`
	// Span is how many candidate ids one crawl pass covers.
	Span int `mapstructure:"span" yaml:"span"`
	// BatchSize is the fixed number of candidate ids fetched concurrently
	// before the next group starts.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// Fetcher controls the page fetcher.
type Fetcher struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxBodySize    int64         `mapstructure:"max_body_size"   yaml:"max_body_size"`
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
}

// Catalog controls the card/set reference-data bootstrap.
type Catalog struct {
	CardsURL string        `mapstructure:"cards_url" yaml:"cards_url"`
	SetsURL  string        `mapstructure:"sets_url"  yaml:"sets_url"`
	CacheDir string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	MaxAge   time.Duration `mapstructure:"max_age"   yaml:"max_age"`
}

// Storage controls the SQLite database.
type Storage struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Logging controls logging behavior.
type Logging struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Metrics controls the metrics endpoint.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// Serve controls the read-only dashboard.
type Serve struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scraper: Scraper{
			BaseURL: "https://mtgtop8.com",
			// First Duel Commander event on the source site is 2695.
			FirstTournamentID: 2695,
			Span:              2000,
			BatchSize:         10,
		},
		Fetcher: Fetcher{
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			UserAgent:      "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:52.0) Gecko/20100101 Firefox/52.0",
		},
		Catalog: Catalog{
			CardsURL: "https://mtgjson.com/api/v5/AtomicCards.json.gz",
			SetsURL:  "https://mtgjson.com/api/v5/SetList.json.gz",
			CacheDir: "./cache",
			MaxAge:   7 * 24 * time.Hour,
		},
		Storage: Storage{
			Path: "./codex.sqlite",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Metrics: Metrics{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Serve: Serve{
			Port: 8080,
		},
	}
}
