package analytics

import "testing"

func TestResolveFactionPromotesChapterSubfaction(t *testing.T) {
	r := ResolveFaction("Space Marines", "Blood Angels")
	if r.Faction != "Blood Angels" {
		t.Errorf("Faction = %q, want Blood Angels", r.Faction)
	}
	if r.Subfaction != "" {
		t.Errorf("Subfaction = %q, want empty", r.Subfaction)
	}
	if r.AllegianceSub != "Space Marines" {
		t.Errorf("AllegianceSub = %q", r.AllegianceSub)
	}
}

func TestResolveFactionAdeptusAstartesAlias(t *testing.T) {
	r := ResolveFaction("Adeptus Astartes", "")
	if r.Faction != "Space Marines" {
		t.Errorf("Faction = %q, want Space Marines", r.Faction)
	}
}

func TestResolveFactionOwnChapterNotDoublyPromoted(t *testing.T) {
	r := ResolveFaction("Ultramarines", "")
	if r.Faction != "Ultramarines" {
		t.Errorf("Faction = %q, want Ultramarines", r.Faction)
	}
}

func TestResolveFactionUnknownPassesThrough(t *testing.T) {
	r := ResolveFaction("Some Homebrew Faction", "")
	if r.Faction != "Some Homebrew Faction" {
		t.Errorf("Faction = %q", r.Faction)
	}
	if r.Allegiance != "Unknown" {
		t.Errorf("Allegiance = %q, want Unknown", r.Allegiance)
	}
}

func TestFactionMatchScoreExact(t *testing.T) {
	if got := FactionMatchScore("orks", "Orks"); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestFactionMatchScoreConflictingContainsIsZero(t *testing.T) {
	if got := FactionMatchScore("Space Marines", "Chaos Space Marines"); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestFactionMatchScoreAliasesNormalizeToExact(t *testing.T) {
	if got := FactionMatchScore("T'au", "T'au Empire"); got != 3 {
		t.Errorf("got %d, want 3 (both normalize to T'au Empire)", got)
	}
}

func TestPlayerNamesMatchWhitespaceAndCase(t *testing.T) {
	if !PlayerNamesMatch("John   Smith", "john smith") {
		t.Errorf("expected match")
	}
	if PlayerNamesMatch("John Smith", "Jane Smith") {
		t.Errorf("expected no match")
	}
}
