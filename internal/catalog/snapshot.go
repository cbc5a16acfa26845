package catalog

import (
	"strings"
	"sync/atomic"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mtgdc/codex/internal/types"
)

// splitSeparator joins the two face names of multi-faced cards in their
// canonical form ("Front // Back"). Decklists frequently abbreviate these to
// just the front face.
const splitSeparator = " // "

// Snapshot is an immutable pair of lookup indexes over the full catalog:
// exact name and accent/punctuation-normalized name. Both are built together
// from the same entry set; readers never observe one without the other.
type Snapshot struct {
	exact      map[string]Entry
	normalized map[string]Entry
}

// BuildSnapshot indexes the full entry set. Later entries with a colliding
// name win, matching the source data where reprints share one oracle record.
func BuildSnapshot(entries []Entry) *Snapshot {
	s := &Snapshot{
		exact:      make(map[string]Entry, len(entries)),
		normalized: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		s.exact[e.Name] = e
		s.normalized[NormalizeName(e.Name)] = e
	}
	return s
}

// Len returns the number of indexed entries.
func (s *Snapshot) Len() int { return len(s.exact) }

// Lookup maps a free-text card name to its catalog entry.
// Priority order, first match wins:
//  1. the "Unknown Card" sentinel resolves to nothing immediately;
//  2. exact name;
//  3. normalized name;
//  4. unique normalized-prefix match against a split-card canonical name.
//
// Ambiguity is never guessed: zero or multiple prefix candidates fail.
func (s *Snapshot) Lookup(raw string) (Entry, bool) {
	if raw == types.UnknownCard {
		return Entry{}, false
	}

	if e, ok := s.exact[raw]; ok {
		return e, true
	}

	clean := NormalizeName(raw)
	if e, ok := s.normalized[clean]; ok {
		return e, true
	}

	var candidate Entry
	matches := 0
	for key, e := range s.normalized {
		if strings.HasPrefix(key, clean) && strings.Contains(e.Name, splitSeparator) {
			candidate = e
			matches++
		}
	}
	if matches == 1 {
		return candidate, true
	}
	return Entry{}, false
}

// Resolve maps a free-text name to a card reference, substituting the
// unresolved sentinel when no catalog entry matches.
func (s *Snapshot) Resolve(raw string) types.CardRef {
	e, ok := s.Lookup(raw)
	if !ok {
		return types.CardRef{Name: types.UnknownCard}
	}
	return types.CardRef{ID: e.ID, Name: e.Name}
}

// ligatures transliterates the handful of non-decomposable letters that
// appear in historical card names.
var ligatures = strings.NewReplacer(
	"Æ", "AE", "æ", "ae",
	"Œ", "OE", "œ", "oe",
)

// diacritics removes combining marks after canonical decomposition.
var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName reduces a card name to a plain lowercase letter string:
// the "&amp;" entity artifact is dropped, diacritics and ligatures are
// transliterated, and every non-letter is removed.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(name, "&amp;", "")
	name = ligatures.Replace(name)
	if flat, _, err := transform.String(diacritics, name); err == nil {
		name = flat
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// Resolver publishes the current catalog snapshot to concurrent readers.
// Swap installs a fully built replacement atomically; lookups in flight keep
// reading the snapshot they started with.
type Resolver struct {
	current atomic.Pointer[Snapshot]
}

// NewResolver creates a Resolver serving the given snapshot.
func NewResolver(s *Snapshot) *Resolver {
	r := &Resolver{}
	if s == nil {
		s = BuildSnapshot(nil)
	}
	r.current.Store(s)
	return r
}

// Swap replaces the published snapshot.
func (r *Resolver) Swap(s *Snapshot) {
	if s == nil {
		s = BuildSnapshot(nil)
	}
	r.current.Store(s)
}

// Current returns the published snapshot.
func (r *Resolver) Current() *Snapshot { return r.current.Load() }

// Lookup resolves against the published snapshot.
func (r *Resolver) Lookup(raw string) (Entry, bool) { return r.current.Load().Lookup(raw) }

// Resolve resolves against the published snapshot.
func (r *Resolver) Resolve(raw string) types.CardRef { return r.current.Load().Resolve(raw) }
