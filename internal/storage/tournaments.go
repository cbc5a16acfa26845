package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mtgdc/codex/internal/types"
)

// LastTournamentID returns the highest stored tournament id, or ok=false
// when no tournament has been persisted yet.
func (s *Store) LastTournamentID(ctx context.Context) (int, bool, error) {
	var id sql.NullInt64
	row := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM tournaments`)
	if err := row.Scan(&id); err != nil {
		return 0, false, fmt.Errorf("last tournament id: %w", err)
	}
	if !id.Valid {
		return 0, false, nil
	}
	return int(id.Int64), true, nil
}

// TournamentExists reports whether a tournament id is already stored.
func (s *Store) TournamentExists(ctx context.Context, id int) (bool, error) {
	var found int
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM tournaments WHERE id = ?`, id)
	err := row.Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("tournament exists: %w", err)
	}
	return true, nil
}

// SaveTournament persists a tournament together with all of its decks,
// commander links and card-quantity links in one transaction. A duplicate
// tournament id rolls the whole write back and returns ErrAlreadyExists;
// partial tournaments are never visible in storage.
func (s *Store) SaveTournament(ctx context.Context, t *types.Tournament) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tournament write: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO tournaments (id, name, place, players, date) VALUES (?, ?, ?, ?, ?)`,
		t.ID,
		t.Name,
		t.Place,
		t.Players,
		toMillis(t.Date),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert tournament %d: %w", t.ID, err)
	}

	for _, deck := range t.Decks {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO decks (id, tournament_id, rank, player) VALUES (?, ?, ?, ?)`,
			deck.ID,
			t.ID,
			deck.Rank,
			deck.Player,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("insert deck %d: %w", deck.ID, err)
		}

		for _, commander := range deck.Commanders {
			_, err = tx.ExecContext(
				ctx,
				`INSERT OR IGNORE INTO deck_commanders (deck_id, card_id) VALUES (?, ?)`,
				deck.ID,
				commander.ID,
			)
			if err != nil {
				return fmt.Errorf("link commander for deck %d: %w", deck.ID, err)
			}
		}

		for _, line := range deck.Mainboard {
			// Duplicate lines for one card are folded into a single row.
			_, err = tx.ExecContext(
				ctx,
				`INSERT INTO deck_cards (deck_id, card_id, quantity) VALUES (?, ?, ?)
				 ON CONFLICT (deck_id, card_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
				deck.ID,
				line.Card.ID,
				line.Quantity,
			)
			if err != nil {
				return fmt.Errorf("link card %q for deck %d: %w", line.Card.Name, deck.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tournament %d: %w", t.ID, err)
	}
	return nil
}

// ListTournaments returns stored tournaments, newest first, without decks.
func (s *Store) ListTournaments(ctx context.Context) ([]types.Tournament, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, place, players, date FROM tournaments ORDER BY date DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []types.Tournament
	for rows.Next() {
		var t types.Tournament
		var date int64
		if err := rows.Scan(&t.ID, &t.Name, &t.Place, &t.Players, &date); err != nil {
			return nil, fmt.Errorf("list tournaments: %w", err)
		}
		t.Date = fromMillis(date)
		t.Format = types.FormatDuelCommander
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return tournaments, nil
}

// GetTournament returns one stored tournament without decks.
func (s *Store) GetTournament(ctx context.Context, id int) (types.Tournament, error) {
	var t types.Tournament
	var date int64
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, place, players, date FROM tournaments WHERE id = ?`,
		id,
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Place, &t.Players, &date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Tournament{}, ErrNotFound
		}
		return types.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	t.Date = fromMillis(date)
	t.Format = types.FormatDuelCommander
	return t, nil
}

// ListDecks returns a tournament's decks ordered by rank, with commander
// references attached.
func (s *Store) ListDecks(ctx context.Context, tournamentID int) ([]types.Deck, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, tournament_id, rank, player FROM decks
		  WHERE tournament_id = ? ORDER BY rank ASC, id ASC`,
		tournamentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var decks []types.Deck
	for rows.Next() {
		var d types.Deck
		if err := rows.Scan(&d.ID, &d.TournamentID, &d.Rank, &d.Player); err != nil {
			return nil, fmt.Errorf("list decks: %w", err)
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}

	for i := range decks {
		commanders, err := s.deckCommanders(ctx, decks[i].ID)
		if err != nil {
			return nil, err
		}
		decks[i].Commanders = commanders
	}
	return decks, nil
}

// DeckCards returns a deck's mainboard as resolved card-quantity pairs.
func (s *Store) DeckCards(ctx context.Context, deckID int) ([]types.CardQuantity, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT c.id, c.name, dc.quantity
		   FROM deck_cards dc JOIN cards c ON c.id = dc.card_id
		  WHERE dc.deck_id = ?`,
		deckID,
	)
	if err != nil {
		return nil, fmt.Errorf("deck cards: %w", err)
	}
	defer rows.Close()

	var lines []types.CardQuantity
	for rows.Next() {
		var line types.CardQuantity
		if err := rows.Scan(&line.Card.ID, &line.Card.Name, &line.Quantity); err != nil {
			return nil, fmt.Errorf("deck cards: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("deck cards: %w", err)
	}
	return lines, nil
}

func (s *Store) deckCommanders(ctx context.Context, deckID int) ([]types.CardRef, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT c.id, c.name
		   FROM deck_commanders dc JOIN cards c ON c.id = dc.card_id
		  WHERE dc.deck_id = ? ORDER BY c.name ASC`,
		deckID,
	)
	if err != nil {
		return nil, fmt.Errorf("deck commanders: %w", err)
	}
	defer rows.Close()

	var refs []types.CardRef
	for rows.Next() {
		var ref types.CardRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("deck commanders: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("deck commanders: %w", err)
	}
	return refs, nil
}
