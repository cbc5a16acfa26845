package types

import (
	"errors"
	"fmt"
)

// ErrCatalogEmpty reports a catalog snapshot with no entries; scraping
// against it would mark every card unresolved.
var ErrCatalogEmpty = errors.New("catalog snapshot is empty")

// FetchError wraps errors that occur while fetching a page.
// It aborts only the enclosing fetch; the caller decides whether the
// surrounding unit of work survives.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PartialPageError reports expected markup missing from a fetched page.
// It aborts the enclosing deck or tournament extraction only.
type PartialPageError struct {
	URL     string
	Missing string
}

func (e *PartialPageError) Error() string {
	return fmt.Sprintf("partial page %s: missing %s", e.URL, e.Missing)
}

// UnresolvedCardError reports a decklist or commander line that could not be
// mapped to a catalog entry. It blocks persistence of the owning tournament
// but never the batch.
type UnresolvedCardError struct {
	TournamentID int
	DeckID       int
	Name         string
}

func (e *UnresolvedCardError) Error() string {
	return fmt.Sprintf("tournament %d deck %d: unresolved card %q", e.TournamentID, e.DeckID, e.Name)
}
