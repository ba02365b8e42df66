package analytics

import (
	"sort"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// UnitPopularity is how often a unit appears across a set of army lists,
// expressed both as a raw count and as a share of the lists considered.
type UnitPopularity struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	PctOfLists float64 `json:"pct_of_lists"`
}

// DetachmentPopularity is one detachment's placement count and win rate
// within a faction.
type DetachmentPopularity struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	WinRate float64 `json:"win_rate"`
}

// UnitPopularityAnalysis ranks units by the fraction of lists (within the given
// set) that include them at least once. Each list contributes at most one
// count per unit name, so a unit appearing twice in one list is not double
// counted.
func UnitPopularityAnalysis(lists []models.ArmyList) []UnitPopularity {
	counts := make(map[string]int)
	for _, l := range lists {
		for name := range l.UnitNameSet() {
			counts[name]++
		}
	}
	total := len(lists)
	out := make([]UnitPopularity, 0, len(counts))
	for name, count := range counts {
		pct := 0.0
		if total > 0 {
			pct = round1(float64(count) / float64(total) * 100)
		}
		out = append(out, UnitPopularity{Name: name, Count: count, PctOfLists: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DetachmentPopularityAnalysis ranks detachments within a set of placements
// by placement count, reporting each detachment's plain win rate.
func DetachmentPopularityAnalysis(placements []models.Placement) []DetachmentPopularity {
	type agg struct {
		count               int
		wins, losses, draws int
	}
	byDetachment := make(map[string]*agg)
	for _, p := range placements {
		name := p.Detachment
		if name == "" {
			continue
		}
		a, ok := byDetachment[name]
		if !ok {
			a = &agg{}
			byDetachment[name] = a
		}
		a.count++
		a.wins += p.Record.Wins
		a.losses += p.Record.Losses
		a.draws += p.Record.Draws
	}

	out := make([]DetachmentPopularity, 0, len(byDetachment))
	for name, a := range byDetachment {
		out = append(out, DetachmentPopularity{
			Name:    name,
			Count:   a.count,
			WinRate: round1(CalculateWinRate(a.wins, a.losses, a.draws) * 100),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// FactionMetaEntry is one faction's meta-share summary, served by
// GET /api/meta/factions.
type FactionMetaEntry struct {
	Faction         string                 `json:"faction"`
	Allegiance      string                 `json:"allegiance"`
	PlacementCount  int                    `json:"placement_count"`
	MetaShare       float64                `json:"meta_share"`
	TopDetachments  []DetachmentPopularity `json:"top_detachments,omitempty"`
	TopUnits        []UnitPopularity       `json:"top_units,omitempty"`
}

const topMetaEntryLimit = 5

// MetaFactions computes the meta-share summary for every faction observed
// in placements, each capped to its top 5 detachments and units.
func MetaFactions(placements []models.Placement, lists []models.ArmyList) []FactionMetaEntry {
	byFaction := make(map[string][]models.Placement)
	total := 0
	for _, p := range placements {
		faction := NormalizeFactionName(p.Faction)
		byFaction[faction] = append(byFaction[faction], p)
		total++
	}
	listsByFaction := make(map[string][]models.ArmyList)
	for _, l := range lists {
		faction := NormalizeFactionName(l.Faction)
		listsByFaction[faction] = append(listsByFaction[faction], l)
	}

	out := make([]FactionMetaEntry, 0, len(byFaction))
	for faction, ps := range byFaction {
		metaShare := 0.0
		if total > 0 {
			metaShare = round1(float64(len(ps)) / float64(total) * 100)
		}
		dets := DetachmentPopularityAnalysis(ps)
		if len(dets) > topMetaEntryLimit {
			dets = dets[:topMetaEntryLimit]
		}
		units := UnitPopularityAnalysis(listsByFaction[faction])
		if len(units) > topMetaEntryLimit {
			units = units[:topMetaEntryLimit]
		}
		out = append(out, FactionMetaEntry{
			Faction:        faction,
			Allegiance:     orUnknown(FactionAllegiance(faction)),
			PlacementCount: len(ps),
			MetaShare:      metaShare,
			TopDetachments: dets,
			TopUnits:       units,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacementCount > out[j].PlacementCount })
	return out
}

// FactionDetailResult is the response body for
// GET /api/meta/factions/{name}: the faction's event winners and its full
// unit-popularity breakdown.
type FactionDetailResult struct {
	Faction        string           `json:"faction"`
	Allegiance     string           `json:"allegiance"`
	Winners        []models.Placement `json:"winners"`
	UnitPopularity []UnitPopularity `json:"unit_popularity"`
}

// FactionDetail reports a single faction's rank-1 placements (in the order
// they appear in placements; no sorting is applied) and its full unit
// popularity across every list on file for that faction.
func FactionDetail(faction string, placements []models.Placement, lists []models.ArmyList) FactionDetailResult {
	canonical := NormalizeFactionName(faction)
	var winners []models.Placement
	for _, p := range placements {
		if NormalizeFactionName(p.Faction) == canonical && p.Rank == 1 {
			winners = append(winners, p)
		}
	}
	var factionLists []models.ArmyList
	for _, l := range lists {
		if NormalizeFactionName(l.Faction) == canonical {
			factionLists = append(factionLists, l)
		}
	}
	return FactionDetailResult{
		Faction:        canonical,
		Allegiance:     orUnknown(FactionAllegiance(canonical)),
		Winners:        winners,
		UnitPopularity: UnitPopularityAnalysis(factionLists),
	}
}
