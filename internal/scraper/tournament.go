package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/mtgdc/codex/internal/types"
)

var rankPattern = regexp.MustCompile(`^\d+(?:-\d+)?$`)
var datePattern = regexp.MustCompile(`^[0-9][0-9]/[0-9][0-9]`)

const dateLayout = "02/01/06"

// deckRef is one deck reference found on a tournament listing page, with the
// player and rank the listing reports for it.
type deckRef struct {
	id     int
	rank   string
	player string
}

// ExtractTournament fetches and parses one tournament page, fanning out to
// its decks concurrently. It returns (nil, nil) when the page is not the
// target format or its date cannot be established past the epoch sentinel;
// such tournaments are excluded entirely rather than partially imported.
func (s *Scraper) ExtractTournament(ctx context.Context, id int) (*types.Tournament, error) {
	doc, err := s.fetch.Page(ctx, s.tournamentURL(id))
	if err != nil {
		return nil, err
	}

	format := strings.TrimSpace(doc.Find("div.meta_arch").First().Text())
	if !strings.Contains(format, types.FormatDuelCommander) {
		return nil, nil
	}

	t := &types.Tournament{
		ID:     id,
		Format: types.FormatDuelCommander,
		Date:   types.EpochSentinel,
	}
	s.parseTitle(doc, t)
	s.parseMeta(doc, t)

	if !t.Date.After(types.EpochSentinel) {
		return nil, nil
	}

	refs := s.deckRefs(doc)
	if err := s.fetchDecks(ctx, t, refs); err != nil {
		return nil, err
	}

	return t, nil
}

// parseTitle splits the event title into name and place on "@". The place
// is not always given but the name always is.
func (s *Scraper) parseTitle(doc *goquery.Document, t *types.Tournament) {
	title := strings.TrimSpace(doc.Find("div.event_title").First().Text())
	if title == "" {
		return
	}
	name, place, found := strings.Cut(title, "@")
	if !found {
		t.Name = title
		return
	}
	t.Name = strings.TrimSpace(name)
	t.Place = strings.TrimSpace(place)
}

// parseMeta reads player count and date from the divs surrounding the format
// marker. The line appears as "<n> players", "<n> players - dd/mm/yy", or a
// bare "dd/mm/yy" date with no player-count segment.
func (s *Scraper) parseMeta(doc *goquery.Document, t *types.Tournament) {
	marker := htmlquery.FindOne(doc.Get(0), "//div[contains(@class, 'meta_arch')]")
	if marker == nil || marker.Parent == nil {
		return
	}

	for _, div := range htmlquery.Find(marker.Parent, ".//div") {
		line := strings.TrimSpace(htmlquery.InnerText(div))
		switch {
		case datePattern.MatchString(line) && !strings.Contains(line, "-"):
			if date, err := time.Parse(dateLayout, line); err == nil {
				t.Date = date
			}
		case strings.Contains(line, "players") && !strings.Contains(line, "-"):
			t.Players = leadingInt(line)
		case strings.Contains(line, "players") && strings.Contains(line, "-"):
			left, right, _ := strings.Cut(line, "-")
			t.Players = leadingInt(left)
			if date, err := time.Parse(dateLayout, strings.TrimSpace(right)); err == nil {
				t.Date = date
			}
		}
	}
}

// deckRefs enumerates the two disjoint deck listings on the page: the top-8
// bracket and the "also competed" dropdown. The same deck id may appear in
// both, so references are deduplicated with the bracket entry winning.
func (s *Scraper) deckRefs(doc *goquery.Document) []deckRef {
	var refs []deckRef
	seen := make(map[int]struct{})

	doc.Find("div.S14 a[href^='?e=']").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id, ok := deckIDFromHref(href)
		if !ok {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}

		block := a.Parent().Parent().Parent()
		player := strings.TrimSpace(block.Find("a.player").First().Text())
		if player == "" {
			// Bracket slot without a player block: not a real deck entry.
			return
		}
		rank := ""
		block.Find("div").Each(func(_ int, div *goquery.Selection) {
			if div.Children().Length() != 0 {
				return
			}
			if text := strings.TrimSpace(div.Text()); rankPattern.MatchString(text) {
				rank = text
			}
		})

		seen[id] = struct{}{}
		refs = append(refs, deckRef{id: id, rank: rank, player: player})
	})

	doc.Find("optgroup option").Each(func(_ int, opt *goquery.Selection) {
		value, _ := opt.Attr("value")
		id, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}

		_, player, found := strings.Cut(opt.Text(), " - ")
		if !found {
			return
		}
		label, _ := opt.Parent().Attr("label")
		_, rank, _ := strings.Cut(label, "#")

		seen[id] = struct{}{}
		refs = append(refs, deckRef{
			id:     id,
			rank:   strings.TrimSpace(rank),
			player: strings.TrimSpace(player),
		})
	})

	return refs
}

// fetchDecks extracts every referenced deck concurrently, one goroutine per
// deck feeding a result channel, and joins before the tournament record is
// considered complete. A failed deck is dropped, not fatal to its siblings.
// The final list is sorted by numeric id regardless of completion order.
func (s *Scraper) fetchDecks(ctx context.Context, t *types.Tournament, refs []deckRef) error {
	results := make(chan *types.Deck, len(refs))

	var wg sync.WaitGroup
	for _, ref := range refs {
		wg.Add(1)
		go func(ref deckRef) {
			defer wg.Done()
			deck, err := s.ExtractDeck(ctx, ref.id)
			if err != nil {
				s.logger.Warn("deck extraction failed",
					"tournament_id", t.ID,
					"deck_id", ref.id,
					"error", err,
				)
				return
			}
			deck.TournamentID = t.ID
			deck.Rank = ref.rank
			deck.Player = ref.player
			results <- deck
		}(ref)
	}
	wg.Wait()
	close(results)

	for deck := range results {
		t.Decks = append(t.Decks, deck)
	}
	t.SortDecks()
	return ctx.Err()
}

// deckIDFromHref pulls the deck id from a bracket link of the form
// "?e=<event>&d=<deck>&f=<format>".
func deckIDFromHref(href string) (int, bool) {
	query, err := url.ParseQuery(strings.TrimPrefix(href, "?"))
	if err != nil {
		return 0, false
	}
	id, err := strconv.Atoi(query.Get("d"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// leadingInt parses the integer that starts a metadata segment like
// "42 players".
func leadingInt(segment string) int {
	fields := strings.Fields(strings.TrimSpace(segment))
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return n
}
