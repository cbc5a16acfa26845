package catalog

import "testing"

// --- Leadership Tests ---

func TestHasLeadership(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  bool
	}{
		{
			"legendary creature",
			Entry{Name: "Edric, Spymaster of Trest", Type: "Legendary Creature — Elf Rogue"},
			true,
		},
		{
			"plain creature",
			Entry{Name: "Grizzly Bears", Type: "Creature — Bear"},
			false,
		},
		{
			"legendary non-creature without permission",
			Entry{Name: "Sol Ring", Type: "Legendary Artifact"},
			false,
		},
		{
			"planeswalker with permission text",
			Entry{
				Name: "Teferi, Temporal Archmage",
				Type: "Legendary Planeswalker — Teferi",
				Text: "Teferi, Temporal Archmage can be your commander.",
			},
			true,
		},
		{
			"rebalanced alternate art",
			Entry{Name: "A-Edric, Spymaster of Trest", Type: "Legendary Creature — Elf Rogue"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.HasLeadership(); got != tt.want {
				t.Errorf("HasLeadership() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCommander(t *testing.T) {
	legal := Entry{
		Name:       "Edric, Spymaster of Trest",
		Type:       "Legendary Creature — Elf Rogue",
		Legalities: map[string]string{"duel": "Legal"},
	}
	if !legal.IsCommander() {
		t.Error("legal legendary creature should be a commander")
	}

	restricted := legal
	restricted.Legalities = map[string]string{"duel": "Restricted"}
	if restricted.IsCommander() {
		t.Error("duel-restricted card must not be a commander")
	}

	noLegalities := legal
	noLegalities.Legalities = nil
	if !noLegalities.IsCommander() {
		t.Error("missing legality record should not restrict leadership")
	}
}
