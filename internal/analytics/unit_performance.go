package analytics

import (
	"sort"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// UnitPerformance is one unit's representation among top-4 finishes versus
// its baseline representation across every list on file.
type UnitPerformance struct {
	Name               string  `json:"name"`
	Faction            string  `json:"faction"`
	ListCount          int     `json:"list_count"`
	Top4ListCount      int     `json:"top4_list_count"`
	OverRepresentation float64 `json:"over_representation"`
}

// UnitPerformanceResult is the response body for
// GET /api/analytics/unit-performance.
type UnitPerformanceResult struct {
	Units []UnitPerformance `json:"units"`
}

// UnitPerformanceAnalysis joins lists to placements to find which lists reached a
// top-4 finish, then reports each unit's over-representation: its share of
// top-4 lists divided by its share of all lists. Optionally restricted to
// one faction (canonical name); pass "" for every faction.
func UnitPerformanceAnalysis(lists []models.ArmyList, placements []models.Placement, faction string) UnitPerformanceResult {
	joined := JoinListsToPlacements(lists, placements)

	var scoped []models.ArmyList
	canonical := NormalizeFactionName(faction)
	for _, l := range lists {
		if faction != "" && NormalizeFactionName(l.Faction) != canonical {
			continue
		}
		scoped = append(scoped, l)
	}

	totalCounts := make(map[string]int)
	top4Counts := make(map[string]int)
	unitFaction := make(map[string]string)
	totalLists := len(scoped)
	totalTop4Lists := 0

	for _, l := range scoped {
		isTop4 := false
		if p, ok := joined[l.ID.String()]; ok && p.Rank <= 4 {
			isTop4 = true
			totalTop4Lists++
		}
		for name := range l.UnitNameSet() {
			totalCounts[name]++
			unitFaction[name] = NormalizeFactionName(l.Faction)
			if isTop4 {
				top4Counts[name]++
			}
		}
	}

	out := make([]UnitPerformance, 0, len(totalCounts))
	for name, count := range totalCounts {
		top4 := top4Counts[name]
		over := CalculateOverRepresentation(top4, totalTop4Lists, count, totalLists)
		out = append(out, UnitPerformance{
			Name:               name,
			Faction:            unitFaction[name],
			ListCount:          count,
			Top4ListCount:      top4,
			OverRepresentation: round2(over),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OverRepresentation > out[j].OverRepresentation })
	return UnitPerformanceResult{Units: out}
}

func round2(v float64) float64 {
	return roundTo(v, 100)
}

func roundTo(v float64, scale float64) float64 {
	return float64(int(v*scale+0.5)) / scale
}
