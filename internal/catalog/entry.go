package catalog

import (
	"strings"
	"time"
)

// Entry is one canonical card record. Entries are immutable once loaded;
// the whole set is rebuilt on catalog refresh, never patched in place.
type Entry struct {
	// ID is the stable oracle identifier assigned by the catalog source.
	ID            string
	Name          string
	Type          string
	ManaValue     int
	ColorIdentity string
	Text          string
	FirstPrint    string
	// Legalities maps format name to "Legal", "Restricted" or "Banned".
	Legalities map[string]string
}

// Set is one card-set record from the reference catalog.
type Set struct {
	Code        string
	Name        string
	ReleaseDate time.Time
}

// altArtPrefix marks rebalanced alternate-art cards that never lead a deck.
const altArtPrefix = "A-"

// commanderPermission is the oracle-text phrase that lets a non-creature
// card serve as a leader.
const commanderPermission = "can be your commander"

// HasLeadership reports whether the card could ever occupy the command zone:
// a legendary creature, or a legendary card whose text explicitly permits it.
func (e Entry) HasLeadership() bool {
	if strings.HasPrefix(e.Name, altArtPrefix) {
		return false
	}
	typeLine := strings.ToLower(e.Type)
	if !strings.Contains(typeLine, "legendary") {
		return false
	}
	if !strings.Contains(typeLine, "creature") &&
		!strings.Contains(strings.ToLower(e.Text), commanderPermission) {
		return false
	}
	return true
}

// IsCommander reports whether the card is currently playable as a leader:
// leadership-eligible and not restricted out of the duel legality slot.
func (e Entry) IsCommander() bool {
	if !e.HasLeadership() {
		return false
	}
	if e.Legalities["duel"] == "Restricted" {
		return false
	}
	return true
}
