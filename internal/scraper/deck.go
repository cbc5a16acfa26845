package scraper

import (
	"context"
	"strconv"
	"strings"

	"github.com/mtgdc/codex/internal/types"
)

// sideboardMarker splits the export text into mainboard and sideboard.
// It appears at most once and is case-sensitive.
const sideboardMarker = "Sideboard"

// ExtractDeck fetches and parses one deck's export page. Player and rank are
// not on the export page; the tournament extractor fills them in from the
// listing it found the deck on.
//
// The format's command zone is exported as the sideboard, so the sideboard
// names become the deck's commanders. A missing sideboard section yields the
// unresolved sentinel, which later blocks the owning tournament's commit.
func (s *Scraper) ExtractDeck(ctx context.Context, id int) (*types.Deck, error) {
	if _, err := s.fetch.Text(ctx, s.deckEventURL(id)); err != nil {
		return nil, err
	}

	text, err := s.fetch.Text(ctx, s.deckExportURL(id))
	if err != nil {
		return nil, err
	}

	mainLines, sideNames := splitExport(text)

	deck := &types.Deck{ID: id}
	for _, line := range mainLines {
		qty, name, ok := splitQuantity(line)
		if !ok {
			return nil, &types.PartialPageError{
				URL:     s.deckExportURL(id),
				Missing: "quantity prefix on decklist line " + strconv.Quote(line),
			}
		}
		deck.Mainboard = append(deck.Mainboard, types.CardQuantity{
			Card:     s.cards.Resolve(name),
			Quantity: qty,
		})
	}
	for _, name := range sideNames {
		deck.Commanders = append(deck.Commanders, s.cards.Resolve(name))
	}

	return deck, nil
}

// splitExport separates the export text on the sideboard marker. When the
// marker is absent the whole text is mainboard and the sideboard is the
// single unresolved sentinel.
func splitExport(text string) (mainLines, sideNames []string) {
	mainText := text
	sideText := ""
	if idx := strings.Index(text, sideboardMarker); idx >= 0 {
		mainText = text[:idx]
		sideText = text[idx+len(sideboardMarker):]
	} else {
		sideNames = []string{types.UnknownCard}
	}

	for _, line := range strings.Split(mainText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			mainLines = append(mainLines, line)
		}
	}
	for _, line := range strings.Split(sideText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			if _, name, ok := splitQuantity(line); ok {
				sideNames = append(sideNames, name)
			}
		}
	}
	return mainLines, sideNames
}

// splitQuantity parses a "<quantity> <cardName>" line, splitting on the
// first space only since names themselves contain spaces.
func splitQuantity(line string) (int, string, bool) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	qty, err := strconv.Atoi(parts[0])
	if err != nil || qty < 1 {
		return 0, "", false
	}
	return qty, strings.TrimSpace(parts[1]), true
}
