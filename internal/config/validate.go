package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	u, err := url.Parse(cfg.Scraper.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("scraper.base_url %q is not a valid URL", cfg.Scraper.BaseURL)
	}
	if cfg.Scraper.FirstTournamentID < 1 {
		return fmt.Errorf("scraper.first_tournament_id must be >= 1, got %d", cfg.Scraper.FirstTournamentID)
	}
	if cfg.Scraper.Span < 1 {
		return fmt.Errorf("scraper.span must be >= 1, got %d", cfg.Scraper.Span)
	}
	if cfg.Scraper.BatchSize < 1 {
		return fmt.Errorf("scraper.batch_size must be >= 1, got %d", cfg.Scraper.BatchSize)
	}
	if cfg.Scraper.BatchSize > 100 {
		return fmt.Errorf("scraper.batch_size must be <= 100, got %d", cfg.Scraper.BatchSize)
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	if cfg.Catalog.MaxAge <= 0 {
		return fmt.Errorf("catalog.max_age must be > 0")
	}
	for _, raw := range []string{cfg.Catalog.CardsURL, cfg.Catalog.SetsURL} {
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("invalid catalog URL %q: %w", raw, err)
		}
	}

	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}
	if cfg.Serve.Port < 1 || cfg.Serve.Port > 65535 {
		return fmt.Errorf("serve.port must be 1-65535, got %d", cfg.Serve.Port)
	}

	return nil
}
