// Package observability exposes scrape counters in Prometheus text format.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtgdc/codex/internal/engine"
)

// Metrics serves the engine's counters over HTTP.
type Metrics struct {
	stats  *engine.Stats
	logger *slog.Logger
}

// NewMetrics creates a Metrics exporter for the given stats.
func NewMetrics(stats *engine.Stats, logger *slog.Logger) *Metrics {
	return &Metrics{
		stats:  stats,
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"codex_candidates_scanned_total", "Total candidate tournament ids scanned", m.stats.CandidatesScanned.Load()},
		{"codex_tournaments_committed_total", "Total tournaments committed", m.stats.TournamentsCommitted.Load()},
		{"codex_tournaments_skipped_total", "Total candidates skipped (wrong format or date)", m.stats.TournamentsSkipped.Load()},
		{"codex_tournaments_unresolved_total", "Total tournaments skipped for unresolved cards", m.stats.TournamentsUnresolved.Load()},
		{"codex_tournaments_duplicate_total", "Total duplicate tournament writes rolled back", m.stats.TournamentsDuplicate.Load()},
		{"codex_decks_committed_total", "Total decks committed", m.stats.DecksCommitted.Load()},
		{"codex_fetch_errors_total", "Total failed candidate fetches", m.stats.FetchErrors.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
}
