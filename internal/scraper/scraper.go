// Package scraper extracts structured tournament and deck records from the
// source site's loosely structured markup.
package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/mtgdc/codex/internal/config"
	"github.com/mtgdc/codex/internal/types"
)

// PageFetcher retrieves remote pages.
type PageFetcher interface {
	Page(ctx context.Context, url string) (*goquery.Document, error)
	Text(ctx context.Context, url string) (string, error)
}

// Resolver maps free-text card names to canonical card references.
type Resolver interface {
	Resolve(raw string) types.CardRef
}

// Scraper extracts tournaments and decks from the source site.
type Scraper struct {
	fetch  PageFetcher
	cards  Resolver
	base   string
	logger *slog.Logger
}

// New creates a Scraper.
func New(cfg config.Scraper, fetch PageFetcher, cards Resolver, logger *slog.Logger) *Scraper {
	return &Scraper{
		fetch:  fetch,
		cards:  cards,
		base:   cfg.BaseURL,
		logger: logger.With("component", "scraper"),
	}
}

func (s *Scraper) tournamentURL(id int) string {
	return fmt.Sprintf("%s/event?e=%d", s.base, id)
}

// deckEventURL is the deck's human-facing event page. The export endpoint
// only renders decklist contents after this page was visited in the same
// session, so extraction always primes with it first.
func (s *Scraper) deckEventURL(id int) string {
	return fmt.Sprintf("%s/event?e=1&d=%d", s.base, id)
}

func (s *Scraper) deckExportURL(id int) string {
	return fmt.Sprintf("%s/mtgo?d=%d", s.base, id)
}
