// Package dashboard serves a read-only browser view of stored tournaments.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mtgdc/codex/internal/types"
)

// Reader is the storage surface the dashboard lists from.
type Reader interface {
	ListTournaments(ctx context.Context) ([]types.Tournament, error)
	ListDecks(ctx context.Context, tournamentID int) ([]types.Deck, error)
}

// StatsProvider provides engine statistics.
type StatsProvider interface {
	Snapshot() map[string]any
}

// Dashboard serves the tournament browser and stats API. It also implements
// the engine's Notifier hooks so the summary header reflects new commits.
type Dashboard struct {
	port   int
	store  Reader
	stats  StatsProvider
	logger *slog.Logger

	mu        sync.RWMutex
	latest    *types.Tournament
	watermark int
}

// New creates a dashboard server.
func New(port int, store Reader, stats StatsProvider, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		port:   port,
		store:  store,
		stats:  stats,
		logger: logger.With("component", "dashboard"),
	}
}

// TournamentCommitted implements engine.Notifier.
func (d *Dashboard) TournamentCommitted(t *types.Tournament) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.latest == nil || t.ID > d.latest.ID {
		d.latest = t
	}
}

// WatermarkAdvanced implements engine.Notifier.
func (d *Dashboard) WatermarkAdvanced(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id > d.watermark {
		d.watermark = id
	}
}

// Start starts the dashboard server in the background.
func (d *Dashboard) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", d.handleIndex)
	mux.HandleFunc("/api/stats", d.handleStats)
	mux.HandleFunc("/api/tournaments", d.handleTournaments)
	mux.HandleFunc("/api/decks", d.handleDecks)

	addr := fmt.Sprintf(":%d", d.port)
	d.logger.Info("dashboard starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			d.logger.Error("dashboard error", "error", err)
		}
	}()
}

func (d *Dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexHTML))
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if d.stats != nil {
		for k, v := range d.stats.Snapshot() {
			payload[k] = v
		}
	}

	d.mu.RLock()
	payload["watermark"] = d.watermark
	if d.latest != nil {
		payload["latest_tournament"] = map[string]any{
			"id":    d.latest.ID,
			"name":  d.latest.Name,
			"date":  d.latest.Date.Format("2006-01-02"),
			"decks": len(d.latest.Decks),
		}
	}
	d.mu.RUnlock()

	writeJSON(w, payload)
}

func (d *Dashboard) handleTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := d.store.ListTournaments(r.Context())
	if err != nil {
		d.logger.Error("list tournaments failed", "error", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	rows := make([]map[string]any, 0, len(tournaments))
	for _, t := range tournaments {
		rows = append(rows, map[string]any{
			"id":      t.ID,
			"name":    t.Name,
			"place":   t.Place,
			"players": t.Players,
			"date":    t.Date.Format("2006-01-02"),
		})
	}
	writeJSON(w, rows)
}

func (d *Dashboard) handleDecks(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("tournament"))
	if err != nil {
		http.Error(w, "invalid tournament id", http.StatusBadRequest)
		return
	}

	decks, err := d.store.ListDecks(r.Context(), id)
	if err != nil {
		d.logger.Error("list decks failed", "tournament_id", id, "error", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	rows := make([]map[string]any, 0, len(decks))
	for _, deck := range decks {
		commanders := make([]string, 0, len(deck.Commanders))
		for _, c := range deck.Commanders {
			commanders = append(commanders, c.Name)
		}
		rows = append(rows, map[string]any{
			"id":         deck.ID,
			"rank":       deck.Rank,
			"player":     deck.Player,
			"commanders": commanders,
		})
	}
	writeJSON(w, rows)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
