// Package analytics computes meta-game statistics over epoch-partitioned
// event data: win rates, composite meta scores, archetype clustering, and
// the faction canonicalization that underpins all three.
package analytics

import (
	"strings"
)

// FactionInfo is canonical metadata for a recognised faction name.
type FactionInfo struct {
	CanonicalName  string
	Allegiance     string
	AllegianceSub  string
}

// ResolvedFaction is the result of resolving a raw faction + subfaction pair
// read off an event list into its canonical shape.
type ResolvedFaction struct {
	Faction       string
	Subfaction    string
	Allegiance    string
	AllegianceSub string
}

var factionMap = map[string]FactionInfo{
	// Space Marines chapters with their own codex supplements: each is its
	// own faction, not a Space Marines subfaction.
	"space marines":     {"Space Marines", "Imperium", "Space Marines"},
	"blood angels":      {"Blood Angels", "Imperium", "Space Marines"},
	"dark angels":       {"Dark Angels", "Imperium", "Space Marines"},
	"space wolves":      {"Space Wolves", "Imperium", "Space Marines"},
	"black templars":    {"Black Templars", "Imperium", "Space Marines"},
	"deathwatch":        {"Deathwatch", "Imperium", "Space Marines"},
	"grey knights":      {"Grey Knights", "Imperium", "Space Marines"},
	"adeptus astartes":  {"Space Marines", "Imperium", "Space Marines"},
	"ultramarines":      {"Ultramarines", "Imperium", "Space Marines"},
	"iron hands":        {"Iron Hands", "Imperium", "Space Marines"},
	"raven guard":       {"Raven Guard", "Imperium", "Space Marines"},
	"salamanders":       {"Salamanders", "Imperium", "Space Marines"},
	"imperial fists":    {"Imperial Fists", "Imperium", "Space Marines"},
	"white scars":       {"White Scars", "Imperium", "Space Marines"},
	"crimson fists":     {"Crimson Fists", "Imperium", "Space Marines"},
	"black dragons":     {"Black Dragons", "Imperium", "Space Marines"},
	"flesh tearers":     {"Flesh Tearers", "Imperium", "Space Marines"},

	// Armies of the Imperium
	"adepta sororitas":      {"Adepta Sororitas", "Imperium", "Armies of the Imperium"},
	"sisters of battle":     {"Adepta Sororitas", "Imperium", "Armies of the Imperium"},
	"adeptus custodes":      {"Adeptus Custodes", "Imperium", "Armies of the Imperium"},
	"adeptus mechanicus":    {"Adeptus Mechanicus", "Imperium", "Armies of the Imperium"},
	"astra militarum":       {"Astra Militarum", "Imperium", "Armies of the Imperium"},
	"imperial guard":        {"Astra Militarum", "Imperium", "Armies of the Imperium"},
	"imperial knights":      {"Imperial Knights", "Imperium", "Armies of the Imperium"},
	"agents of the imperium": {"Agents of the Imperium", "Imperium", "Armies of the Imperium"},

	// Forces of Chaos
	"chaos space marines":  {"Chaos Space Marines", "Chaos", "Forces of Chaos"},
	"death guard":          {"Death Guard", "Chaos", "Forces of Chaos"},
	"thousand sons":        {"Thousand Sons", "Chaos", "Forces of Chaos"},
	"chaos thousand sons":  {"Thousand Sons", "Chaos", "Forces of Chaos"},
	"world eaters":         {"World Eaters", "Chaos", "Forces of Chaos"},
	"emperor's children":   {"Emperor's Children", "Chaos", "Forces of Chaos"},
	"chaos daemons":        {"Chaos Daemons", "Chaos", "Forces of Chaos"},
	"daemons of chaos":     {"Chaos Daemons", "Chaos", "Forces of Chaos"},
	"chaos knights":        {"Chaos Knights", "Chaos", "Forces of Chaos"},

	// Xenos
	"aeldari":            {"Aeldari", "Xenos", "Xenos"},
	"craftworlds":        {"Aeldari", "Xenos", "Xenos"},
	"craftworld":         {"Aeldari", "Xenos", "Xenos"},
	"harlequins":         {"Aeldari", "Xenos", "Xenos"},
	"drukhari":           {"Drukhari", "Xenos", "Xenos"},
	"dark eldar":         {"Drukhari", "Xenos", "Xenos"},
	"tyranids":           {"Tyranids", "Xenos", "Xenos"},
	"genestealer cults":  {"Genestealer Cults", "Xenos", "Xenos"},
	"genestealer cult":   {"Genestealer Cults", "Xenos", "Xenos"},
	"leagues of votann":  {"Leagues of Votann", "Xenos", "Xenos"},
	"votann":             {"Leagues of Votann", "Xenos", "Xenos"},
	"necrons":            {"Necrons", "Xenos", "Xenos"},
	"orks":               {"Orks", "Xenos", "Xenos"},
	"t'au empire":        {"T'au Empire", "Xenos", "Xenos"},
	"t'au":               {"T'au Empire", "Xenos", "Xenos"},
	"tau":                {"T'au Empire", "Xenos", "Xenos"},
	"tau empire":         {"T'au Empire", "Xenos", "Xenos"},
}

// chapterFactions are Space Marines chapters that get promoted from
// subfaction to faction when seen as a subfaction value.
var chapterFactions = map[string]struct{}{
	"blood angels": {}, "dark angels": {}, "space wolves": {},
	"black templars": {}, "deathwatch": {}, "grey knights": {},
	"ultramarines": {}, "iron hands": {}, "raven guard": {}, "salamanders": {},
	"imperial fists": {}, "white scars": {}, "crimson fists": {}, "black dragons": {},
	"flesh tearers": {},
}

// LookupFaction returns canonical info for a raw faction name, or false if
// the name is not recognised.
func LookupFaction(name string) (FactionInfo, bool) {
	info, ok := factionMap[strings.ToLower(strings.TrimSpace(name))]
	return info, ok
}

// FactionAllegiance returns the allegiance for a faction name, or "" if
// unrecognised.
func FactionAllegiance(name string) string {
	info, ok := LookupFaction(name)
	if !ok {
		return ""
	}
	return info.Allegiance
}

// ResolveFaction resolves a raw faction + subfaction pair into canonical
// shape. Handles three cases:
//   - faction "Space Marines", subfaction "Blood Angels" -> faction "Blood
//     Angels", no subfaction (chapter promotion)
//   - faction "Ultramarines" -> faction "Ultramarines" (already its own
//     codex, not promoted further)
//   - unrecognised faction -> passed through verbatim with allegiance
//     "Unknown"
func ResolveFaction(faction string, subfaction string) ResolvedFaction {
	trimmed := strings.TrimSpace(faction)
	lower := strings.ToLower(trimmed)

	if subfaction != "" {
		subLower := strings.ToLower(strings.TrimSpace(subfaction))
		if _, isChapter := chapterFactions[subLower]; isChapter {
			if info, ok := factionMap[subLower]; ok {
				return ResolvedFaction{
					Faction:       info.CanonicalName,
					Allegiance:    info.Allegiance,
					AllegianceSub: info.AllegianceSub,
				}
			}
		}
	}

	if info, ok := factionMap[lower]; ok {
		return ResolvedFaction{
			Faction:       info.CanonicalName,
			Subfaction:    subfaction,
			Allegiance:    info.Allegiance,
			AllegianceSub: info.AllegianceSub,
		}
	}

	return ResolvedFaction{
		Faction:       trimmed,
		Subfaction:    subfaction,
		Allegiance:    "Unknown",
		AllegianceSub: "Unknown",
	}
}

// NormalizeFactionName canonicalizes a raw faction name, passing unrecognised
// names through unchanged.
func NormalizeFactionName(name string) string {
	trimmed := strings.TrimSpace(name)
	if info, ok := LookupFaction(trimmed); ok {
		return info.CanonicalName
	}
	return trimmed
}

// conflictingContainsPairs are name pairs where one is a substring of the
// other but they are genuinely different factions.
var conflictingContainsPairs = [][2]string{
	{"space marines", "chaos space marines"},
	{"knights", "chaos knights"},
	{"knights", "imperial knights"},
	{"chaos knights", "imperial knights"},
}

func isConflictingContains(a, b string) bool {
	for _, pair := range conflictingContainsPairs {
		if (a == pair[0] && b == pair[1]) || (a == pair[1] && b == pair[0]) {
			return true
		}
	}
	return false
}

// FactionMatchScore scores how well two faction names match after
// normalization: 3 for an exact match, 2 for a non-conflicting
// contains-match, 0 otherwise.
func FactionMatchScore(a, b string) int {
	na := NormalizeFactionName(a)
	nb := NormalizeFactionName(b)
	if strings.EqualFold(na, nb) {
		return 3
	}
	la, lb := strings.ToLower(na), strings.ToLower(nb)
	if (strings.Contains(la, lb) || strings.Contains(lb, la)) && !isConflictingContains(la, lb) {
		return 2
	}
	return 0
}

// PlayerNamesMatch compares two player names case-insensitively after
// collapsing internal whitespace.
func PlayerNamesMatch(a, b string) bool {
	return normalizePlayerName(a) == normalizePlayerName(b)
}

func normalizePlayerName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
