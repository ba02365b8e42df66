package analytics

import (
	"sort"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// PointsEfficiency reports a faction's win rate normalized per 100 points of
// average list size, so factions that tend to run fewer, larger units
// aren't penalized or rewarded purely by raw point totals.
type PointsEfficiency struct {
	Faction           string  `json:"faction"`
	AverageListPoints float64 `json:"average_list_points"`
	WinRate           float64 `json:"win_rate"`
	WinRatePer100Pts  float64 `json:"win_rate_per_100_pts"`
	ListCount         int     `json:"list_count"`
}

// PointsEfficiencyResult is the response body for
// GET /api/analytics/points-efficiency.
type PointsEfficiencyResult struct {
	Factions []PointsEfficiency `json:"factions"`
}

// PointsEfficiencyAnalysis joins lists to placements to attribute a win
// record to each list, then aggregates win rate and average point total per
// faction.
func PointsEfficiencyAnalysis(lists []models.ArmyList, placements []models.Placement) PointsEfficiencyResult {
	joined := JoinListsToPlacements(lists, placements)

	type agg struct {
		totalPoints         int
		listCount           int
		wins, losses, draws int
	}
	byFaction := make(map[string]*agg)

	for _, l := range lists {
		faction := NormalizeFactionName(l.Faction)
		a, ok := byFaction[faction]
		if !ok {
			a = &agg{}
			byFaction[faction] = a
		}
		a.totalPoints += l.TotalPoints
		a.listCount++
		if p, ok := joined[l.ID.String()]; ok {
			a.wins += p.Record.Wins
			a.losses += p.Record.Losses
			a.draws += p.Record.Draws
		}
	}

	out := make([]PointsEfficiency, 0, len(byFaction))
	for faction, a := range byFaction {
		if a.listCount == 0 {
			continue
		}
		avgPoints := float64(a.totalPoints) / float64(a.listCount)
		winRate := CalculateWinRate(a.wins, a.losses, a.draws) * 100
		perHundred := 0.0
		if avgPoints > 0 {
			perHundred = winRate / avgPoints * 100
		}
		out = append(out, PointsEfficiency{
			Faction:           faction,
			AverageListPoints: round1(avgPoints),
			WinRate:           round1(winRate),
			WinRatePer100Pts:  round1(perHundred),
			ListCount:         a.listCount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WinRatePer100Pts > out[j].WinRatePer100Pts })
	return PointsEfficiencyResult{Factions: out}
}
