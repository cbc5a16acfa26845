package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mtgdc/codex/internal/catalog"
	"github.com/mtgdc/codex/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.sqlite"), testLogger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCards(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	cards := []catalog.Entry{
		{ID: "bolt", Name: "Lightning Bolt", Type: "Instant", Legalities: map[string]string{"duel": "Legal"}},
		{ID: "snap", Name: "Snapcaster Mage", Type: "Creature — Human Wizard", Legalities: map[string]string{"duel": "Legal"}},
		{ID: "edric", Name: "Edric, Spymaster of Trest", Type: "Legendary Creature — Elf Rogue", Legalities: map[string]string{"duel": "Legal"}},
	}
	for _, c := range cards {
		if err := s.UpsertCard(ctx, c); err != nil {
			t.Fatalf("seed card %s: %v", c.Name, err)
		}
	}
}

func sampleTournament(id int) *types.Tournament {
	return &types.Tournament{
		ID:      id,
		Name:    "Duel Masters Trophy",
		Place:   "Lyon",
		Players: 17,
		Date:    time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		Format:  types.FormatDuelCommander,
		Decks: []*types.Deck{
			{
				ID:           id * 10,
				TournamentID: id,
				Rank:         "1",
				Player:       "Alice",
				Commanders:   []types.CardRef{{ID: "edric", Name: "Edric, Spymaster of Trest"}},
				Mainboard: []types.CardQuantity{
					{Card: types.CardRef{ID: "bolt", Name: "Lightning Bolt"}, Quantity: 4},
					{Card: types.CardRef{ID: "snap", Name: "Snapcaster Mage"}, Quantity: 1},
				},
			},
		},
	}
}

// --- Tournament Tests ---

func TestSaveAndGetTournament(t *testing.T) {
	s := testStore(t)
	seedCards(t, s)
	ctx := context.Background()

	if err := s.SaveTournament(ctx, sampleTournament(42)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetTournament(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Duel Masters Trophy" || got.Place != "Lyon" || got.Players != 17 {
		t.Errorf("unexpected tournament %+v", got)
	}
	if !got.Date.Equal(time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", got.Date)
	}

	decks, err := s.ListDecks(ctx, 42)
	if err != nil {
		t.Fatalf("list decks: %v", err)
	}
	if len(decks) != 1 {
		t.Fatalf("expected 1 deck, got %d", len(decks))
	}
	if decks[0].Player != "Alice" || decks[0].Rank != "1" {
		t.Errorf("unexpected deck %+v", decks[0])
	}
	if len(decks[0].Commanders) != 1 || decks[0].Commanders[0].Name != "Edric, Spymaster of Trest" {
		t.Errorf("unexpected commanders %+v", decks[0].Commanders)
	}

	lines, err := s.DeckCards(ctx, 420)
	if err != nil {
		t.Fatalf("deck cards: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("expected 2 mainboard lines, got %d", len(lines))
	}
}

func TestSaveTournamentDuplicate(t *testing.T) {
	s := testStore(t)
	seedCards(t, s)
	ctx := context.Background()

	if err := s.SaveTournament(ctx, sampleTournament(42)); err != nil {
		t.Fatalf("first save: %v", err)
	}

	err := s.SaveTournament(ctx, sampleTournament(42))
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// The duplicate write must have rolled back without touching rows.
	tournaments, err := s.ListTournaments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tournaments) != 1 {
		t.Errorf("expected 1 tournament after duplicate write, got %d", len(tournaments))
	}
}

func TestSaveTournamentFoldsDuplicateLines(t *testing.T) {
	s := testStore(t)
	seedCards(t, s)
	ctx := context.Background()

	tournament := sampleTournament(42)
	deck := tournament.Decks[0]
	deck.Mainboard = []types.CardQuantity{
		{Card: types.CardRef{ID: "bolt", Name: "Lightning Bolt"}, Quantity: 3},
		{Card: types.CardRef{ID: "bolt", Name: "Lightning Bolt"}, Quantity: 1},
	}

	if err := s.SaveTournament(ctx, tournament); err != nil {
		t.Fatalf("save: %v", err)
	}

	lines, err := s.DeckCards(ctx, deck.ID)
	if err != nil {
		t.Fatalf("deck cards: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected folded single line, got %d", len(lines))
	}
	if lines[0].Quantity != 4 {
		t.Errorf("expected summed quantity 4, got %d", lines[0].Quantity)
	}
}

func TestLastTournamentID(t *testing.T) {
	s := testStore(t)
	seedCards(t, s)
	ctx := context.Background()

	if _, ok, err := s.LastTournamentID(ctx); err != nil || ok {
		t.Fatalf("empty store: expected (_, false, nil), got ok=%v err=%v", ok, err)
	}

	for _, id := range []int{42, 77, 51} {
		if err := s.SaveTournament(ctx, sampleTournament(id)); err != nil {
			t.Fatalf("save %d: %v", id, err)
		}
	}

	id, ok, err := s.LastTournamentID(ctx)
	if err != nil || !ok {
		t.Fatalf("expected watermark, got ok=%v err=%v", ok, err)
	}
	if id != 77 {
		t.Errorf("expected watermark 77, got %d", id)
	}
}

func TestGetTournamentNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetTournament(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTournamentExists(t *testing.T) {
	s := testStore(t)
	seedCards(t, s)
	ctx := context.Background()

	if ok, err := s.TournamentExists(ctx, 42); err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}

	if err := s.SaveTournament(ctx, sampleTournament(42)); err != nil {
		t.Fatalf("save: %v", err)
	}

	if ok, err := s.TournamentExists(ctx, 42); err != nil || !ok {
		t.Fatalf("expected present, got ok=%v err=%v", ok, err)
	}
}

// --- Reference Data Tests ---

func TestUpsertAndListCards(t *testing.T) {
	s := testStore(t)
	seedCards(t, s)
	ctx := context.Background()

	// Upserting the same id again must be a no-op, not an error.
	if err := s.UpsertCard(ctx, catalog.Entry{
		ID: "bolt", Name: "Lightning Bolt", Type: "Instant",
		Legalities: map[string]string{"duel": "Legal"},
	}); err != nil {
		t.Fatalf("repeat upsert: %v", err)
	}

	cards, err := s.AllCards(ctx)
	if err != nil {
		t.Fatalf("all cards: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}

	for _, c := range cards {
		if c.ID == "bolt" && c.Legalities["duel"] != "Legal" {
			t.Errorf("legalities lost in round trip: %+v", c)
		}
	}
}

func TestUpsertAndListSets(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	release := time.Date(1993, time.August, 5, 0, 0, 0, 0, time.UTC)
	if err := s.UpsertSet(ctx, catalog.Set{Code: "LEA", Name: "Limited Edition Alpha", ReleaseDate: release}); err != nil {
		t.Fatalf("upsert set: %v", err)
	}

	sets, err := s.AllSets(ctx)
	if err != nil {
		t.Fatalf("all sets: %v", err)
	}
	if len(sets) != 1 || sets[0].Code != "LEA" || !sets[0].ReleaseDate.Equal(release) {
		t.Errorf("unexpected sets %+v", sets)
	}
}
