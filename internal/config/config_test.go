package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// --- Default Tests ---

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scraper.FirstTournamentID != 2695 {
		t.Errorf("unexpected floor %d", cfg.Scraper.FirstTournamentID)
	}
	if cfg.Scraper.Span != 2000 {
		t.Errorf("unexpected span %d", cfg.Scraper.Span)
	}
	if cfg.Scraper.BatchSize != 10 {
		t.Errorf("unexpected batch size %d", cfg.Scraper.BatchSize)
	}
	if cfg.Fetcher.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected timeout %s", cfg.Fetcher.RequestTimeout)
	}
}

// --- Load Tests ---

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scraper.BaseURL != "https://mtgtop8.com" {
		t.Errorf("unexpected base url %q", cfg.Scraper.BaseURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codex.yaml")
	data := []byte("scraper:\n  span: 500\n  batch_size: 4\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scraper.Span != 500 {
		t.Errorf("file value lost, span = %d", cfg.Scraper.Span)
	}
	if cfg.Scraper.BatchSize != 4 {
		t.Errorf("file value lost, batch = %d", cfg.Scraper.BatchSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("file value lost, level = %q", cfg.Logging.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Scraper.FirstTournamentID != 2695 {
		t.Errorf("default lost, floor = %d", cfg.Scraper.FirstTournamentID)
	}
}

// --- Validation Tests ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad base url", func(c *Config) { c.Scraper.BaseURL = "not a url" }, true},
		{"zero floor", func(c *Config) { c.Scraper.FirstTournamentID = 0 }, true},
		{"zero span", func(c *Config) { c.Scraper.Span = 0 }, true},
		{"zero batch", func(c *Config) { c.Scraper.BatchSize = 0 }, true},
		{"oversized batch", func(c *Config) { c.Scraper.BatchSize = 500 }, true},
		{"zero timeout", func(c *Config) { c.Fetcher.RequestTimeout = 0 }, true},
		{"empty storage path", func(c *Config) { c.Storage.Path = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad serve port", func(c *Config) { c.Serve.Port = 0 }, true},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }, true},
		{"metrics port ignored when disabled", func(c *Config) { c.Metrics.Enabled = false; c.Metrics.Port = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
