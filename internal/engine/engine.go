// Package engine drives the resumable, batched scrape loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mtgdc/codex/internal/config"
	"github.com/mtgdc/codex/internal/storage"
	"github.com/mtgdc/codex/internal/types"
)

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
	StateStopped State = 2
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats tracks scrape statistics.
type Stats struct {
	CandidatesScanned     atomic.Int64
	TournamentsCommitted  atomic.Int64
	TournamentsSkipped    atomic.Int64
	TournamentsUnresolved atomic.Int64
	TournamentsDuplicate  atomic.Int64
	DecksCommitted        atomic.Int64
	FetchErrors           atomic.Int64
	StartTime             time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	elapsed := time.Duration(0)
	if !s.StartTime.IsZero() {
		elapsed = time.Since(s.StartTime)
	}
	return map[string]any{
		"candidates_scanned":     s.CandidatesScanned.Load(),
		"tournaments_committed":  s.TournamentsCommitted.Load(),
		"tournaments_skipped":    s.TournamentsSkipped.Load(),
		"tournaments_unresolved": s.TournamentsUnresolved.Load(),
		"tournaments_duplicate":  s.TournamentsDuplicate.Load(),
		"decks_committed":        s.DecksCommitted.Load(),
		"fetch_errors":           s.FetchErrors.Load(),
		"elapsed":                elapsed.String(),
	}
}

// Extractor turns a candidate tournament id into a full record, or nil when
// the candidate is not the target format.
type Extractor interface {
	ExtractTournament(ctx context.Context, id int) (*types.Tournament, error)
}

// Storage is the persistence surface the engine commits to.
type Storage interface {
	LastTournamentID(ctx context.Context) (int, bool, error)
	SaveTournament(ctx context.Context, t *types.Tournament) error
}

// Notifier receives fire-and-forget notifications about committed work.
type Notifier interface {
	// TournamentCommitted is called with each newly committed record,
	// including its decks.
	TournamentCommitted(t *types.Tournament)
	// WatermarkAdvanced is called when a pass moved the highest fully
	// persisted tournament id forward.
	WatermarkAdvanced(id int)
}

// Engine is the scrape orchestrator. It walks tournament ids forward from
// the stored watermark in fixed-size concurrent groups, committing each
// qualifying tournament atomically. The watermark only advances past
// successfully persisted tournaments, so ids skipped for unresolved cards
// are retried on every future run and self-heal once the catalog improves.
type Engine struct {
	cfg       config.Scraper
	extractor Extractor
	store     Storage
	logger    *slog.Logger

	state     atomic.Int32
	stats     *Stats
	notifiers []Notifier
	mu        sync.RWMutex
}

// New creates an Engine.
func New(cfg config.Scraper, extractor Extractor, store Storage, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		extractor: extractor,
		store:     store,
		logger:    logger.With("component", "engine"),
		stats:     &Stats{},
	}
}

// AddNotifier registers an observer for commit notifications.
func (e *Engine) AddNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifiers = append(e.notifiers, n)
}

// Stats returns the engine's counters.
func (e *Engine) Stats() *Stats { return e.stats }

// GetState returns the current engine state.
func (e *Engine) GetState() State { return State(e.state.Load()) }

// Run executes scan passes until a full pass advances the watermark by
// nothing, which is the normal terminal condition, or ctx is canceled.
// A second run is safe to start while results are being read: the engine
// never mutates existing rows, only appends.
func (e *Engine) Run(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("engine is in state %s, cannot start", State(e.state.Load()))
	}
	defer e.state.Store(int32(StateStopped))

	e.stats.StartTime = time.Now()
	e.logger.Info("scrape starting",
		"span", e.cfg.Span,
		"batch_size", e.cfg.BatchSize,
		"floor", e.cfg.FirstTournamentID,
	)

	for {
		last, err := e.watermark(ctx)
		if err != nil {
			return err
		}

		if err := e.runSpan(ctx, last); err != nil {
			return err
		}

		next, err := e.watermark(ctx)
		if err != nil {
			return err
		}
		if next <= last {
			e.logger.Info("no progress in last pass, scrape complete", "watermark", next)
			return nil
		}
		e.logger.Info("pass complete", "watermark", next)
		e.notifyWatermark(next)
	}
}

// watermark returns the highest fully persisted tournament id, or the
// configured floor minus one when storage is empty.
func (e *Engine) watermark(ctx context.Context) (int, error) {
	id, ok, err := e.store.LastTournamentID(ctx)
	if err != nil {
		return 0, fmt.Errorf("read watermark: %w", err)
	}
	if !ok {
		return e.cfg.FirstTournamentID - 1, nil
	}
	return id, nil
}

// runSpan processes one pass of candidate ids strictly greater than last,
// in fixed-size groups of concurrent fetches with a join barrier per group.
func (e *Engine) runSpan(ctx context.Context, last int) error {
	groups := e.cfg.Span / e.cfg.BatchSize
	if groups < 1 {
		groups = 1
	}

	for g := 0; g < groups; g++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var wg sync.WaitGroup
		for i := 0; i < e.cfg.BatchSize; i++ {
			id := last + 1 + g*e.cfg.BatchSize + i
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				e.processCandidate(ctx, id)
			}(id)
		}
		wg.Wait()
	}
	return nil
}

// processCandidate extracts and persists one candidate id. Failures are
// contained here: nothing a single candidate does can abort the batch.
func (e *Engine) processCandidate(ctx context.Context, id int) {
	e.stats.CandidatesScanned.Add(1)

	t, err := e.extractor.ExtractTournament(ctx, id)
	if err != nil {
		e.stats.FetchErrors.Add(1)
		e.logger.Debug("candidate extraction failed", "tournament_id", id, "error", err)
		return
	}
	if t == nil {
		e.stats.TournamentsSkipped.Add(1)
		return
	}

	if uerr := t.UnresolvedError(); uerr != nil {
		// Left unpersisted on purpose: the watermark does not advance past
		// this id, so it is retried once the catalog knows the card.
		e.stats.TournamentsUnresolved.Add(1)
		e.logger.Info("skipping tournament with unresolved card",
			"tournament_id", id,
			"deck_id", uerr.DeckID,
			"card", uerr.Name,
		)
		return
	}

	if err := e.store.SaveTournament(ctx, t); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			e.stats.TournamentsDuplicate.Add(1)
			return
		}
		e.logger.Error("tournament write failed", "tournament_id", id, "error", err)
		return
	}

	e.stats.TournamentsCommitted.Add(1)
	e.stats.DecksCommitted.Add(int64(len(t.Decks)))
	e.logger.Info("tournament committed",
		"tournament_id", id,
		"name", t.Name,
		"decks", len(t.Decks),
	)
	e.notifyCommitted(t)
}

func (e *Engine) notifyCommitted(t *types.Tournament) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, n := range e.notifiers {
		n.TournamentCommitted(t)
	}
}

func (e *Engine) notifyWatermark(id int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, n := range e.notifiers {
		n.WatermarkAdvanced(id)
	}
}
