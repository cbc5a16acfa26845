package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mtgdc/codex/internal/catalog"
)

// UpsertSet inserts a set record, ignoring duplicates. Reference data is
// append-only between wholesale refreshes.
func (s *Store) UpsertSet(ctx context.Context, set catalog.Set) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO sets (code, name, release_date) VALUES (?, ?, ?)`,
		set.Code,
		set.Name,
		toMillis(set.ReleaseDate),
	)
	if err != nil {
		return fmt.Errorf("upsert set: %w", err)
	}
	return nil
}

// UpsertCard inserts a card record, ignoring duplicates.
func (s *Store) UpsertCard(ctx context.Context, e catalog.Entry) error {
	legalities, err := json.Marshal(e.Legalities)
	if err != nil {
		return fmt.Errorf("marshal legalities: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO cards (
		   id, name, type, mana_value, color_identity, text, first_print, legalities
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Name,
		e.Type,
		e.ManaValue,
		e.ColorIdentity,
		e.Text,
		e.FirstPrint,
		string(legalities),
	)
	if err != nil {
		return fmt.Errorf("upsert card: %w", err)
	}
	return nil
}

// AllSets returns every stored set record.
func (s *Store) AllSets(ctx context.Context) ([]catalog.Set, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, release_date FROM sets`)
	if err != nil {
		return nil, fmt.Errorf("all sets: %w", err)
	}
	defer rows.Close()

	var sets []catalog.Set
	for rows.Next() {
		var set catalog.Set
		var release int64
		if err := rows.Scan(&set.Code, &set.Name, &release); err != nil {
			return nil, fmt.Errorf("all sets: %w", err)
		}
		set.ReleaseDate = fromMillis(release)
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("all sets: %w", err)
	}
	return sets, nil
}

// AllCards returns the full stored card set, ready for snapshot indexing.
func (s *Store) AllCards(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, type, mana_value, color_identity, text, first_print, legalities
		   FROM cards`,
	)
	if err != nil {
		return nil, fmt.Errorf("all cards: %w", err)
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var e catalog.Entry
		var legalities string
		if err := rows.Scan(
			&e.ID,
			&e.Name,
			&e.Type,
			&e.ManaValue,
			&e.ColorIdentity,
			&e.Text,
			&e.FirstPrint,
			&legalities,
		); err != nil {
			return nil, fmt.Errorf("all cards: %w", err)
		}
		if err := json.Unmarshal([]byte(legalities), &e.Legalities); err != nil {
			return nil, fmt.Errorf("decode legalities for %q: %w", e.Name, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("all cards: %w", err)
	}
	return entries, nil
}
