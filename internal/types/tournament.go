package types

import (
	"sort"
	"time"
)

// UnknownCard is the resolver's unresolved sentinel. It is a legitimate
// terminal state for absent sideboard data, never a valid card.
const UnknownCard = "Unknown Card"

// FormatDuelCommander is the only format this pipeline persists.
const FormatDuelCommander = "Duel Commander"

// EpochSentinel marks "date not parseable". A tournament whose date does not
// parse past this value is excluded entirely.
var EpochSentinel = time.Date(1993, time.August, 5, 0, 0, 0, 0, time.UTC)

// CardRef identifies a resolved card by catalog id and canonical name.
// An empty ID with Name == UnknownCard marks an unresolved line.
type CardRef struct {
	ID   string
	Name string
}

// Unresolved reports whether this reference failed resolution.
func (c CardRef) Unresolved() bool {
	return c.ID == "" || c.Name == UnknownCard
}

// CardQuantity is one mainboard line: a resolved card and its count.
type CardQuantity struct {
	Card     CardRef
	Quantity int
}

// Deck is one submitted decklist, immutable after extraction.
// Rank is a string because the source reports ranges like "5-8".
type Deck struct {
	ID           int
	TournamentID int
	Rank         string
	Player       string
	Commanders   []CardRef
	Mainboard    []CardQuantity
}

// Unresolved returns the first unresolved card name in the deck, if any.
func (d *Deck) Unresolved() (string, bool) {
	for _, c := range d.Commanders {
		if c.Unresolved() {
			return c.Name, true
		}
	}
	for _, line := range d.Mainboard {
		if line.Card.Unresolved() {
			return line.Card.Name, true
		}
	}
	return "", false
}

// Tournament is one scraped event with all of its decks. It is persisted as
// a single atomic unit or not at all.
type Tournament struct {
	ID      int
	Name    string
	Place   string
	Players int
	Date    time.Time
	Format  string
	Decks   []*Deck
}

// Unresolved returns the first unresolved card name anywhere in the
// tournament's decks, if any.
func (t *Tournament) Unresolved() (string, bool) {
	if err := t.UnresolvedError(); err != nil {
		return err.Name, true
	}
	return "", false
}

// UnresolvedError returns a typed error locating the first unresolved card
// in the tournament's decks, or nil when every card resolved.
func (t *Tournament) UnresolvedError() *UnresolvedCardError {
	for _, d := range t.Decks {
		if name, ok := d.Unresolved(); ok {
			return &UnresolvedCardError{TournamentID: t.ID, DeckID: d.ID, Name: name}
		}
	}
	return nil
}

// SortDecks orders decks ascending by numeric id, independent of the order
// the concurrent fetch completed in.
func (t *Tournament) SortDecks() {
	sort.Slice(t.Decks, func(i, j int) bool { return t.Decks[i].ID < t.Decks[j].ID })
}
