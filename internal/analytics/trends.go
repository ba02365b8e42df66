package analytics

import (
	"sort"

	"github.com/dabbslondon/tourney-tracker/internal/epoch"
	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// TrendPoint is one epoch's slice of a faction's trend line.
type TrendPoint struct {
	EpochID   string  `json:"epoch_id"`
	EpochName string  `json:"epoch_name"`
	MetaShare float64 `json:"meta_share"`
	WinRate   float64 `json:"win_rate"`
	Count     int     `json:"count"`
}

// FactionTrend is one faction's time series across every known epoch.
type FactionTrend struct {
	Faction string       `json:"faction"`
	Points  []TrendPoint `json:"points"`
}

// TrendsResult is the response body for GET /api/analytics/trends.
type TrendsResult struct {
	Trends []FactionTrend `json:"trends"`
}

const defaultTopFactionsForTrends = 10

// Trends computes, for each requested faction (or the top 10 by overall
// placement count when none are requested), its meta share and win rate in
// every known epoch, ordered oldest epoch first.
func Trends(placements []models.Placement, epochs []epoch.MetaEpoch, requestedFactions []string) TrendsResult {
	sortedEpochs := append([]epoch.MetaEpoch(nil), epochs...)
	sort.Slice(sortedEpochs, func(i, j int) bool { return sortedEpochs[i].StartDate.Before(sortedEpochs[j].StartDate) })

	byEpoch := make(map[string][]models.Placement)
	globalCount := make(map[string]int)
	for _, p := range placements {
		faction := NormalizeFactionName(p.Faction)
		byEpoch[p.EpochID.String()] = append(byEpoch[p.EpochID.String()], p)
		globalCount[faction]++
	}

	factions := requestedFactions
	if len(factions) == 0 {
		factions = topFactionsByCount(globalCount, defaultTopFactionsForTrends)
	} else {
		for i, f := range factions {
			factions[i] = NormalizeFactionName(f)
		}
	}

	out := make([]FactionTrend, 0, len(factions))
	for _, faction := range factions {
		trend := FactionTrend{Faction: faction}
		for _, e := range sortedEpochs {
			epochPlacements := byEpoch[e.ID.String()]
			total := len(epochPlacements)
			var wins, losses, draws, count int
			for _, p := range epochPlacements {
				if NormalizeFactionName(p.Faction) != faction {
					continue
				}
				count++
				wins += p.Record.Wins
				losses += p.Record.Losses
				draws += p.Record.Draws
			}
			metaShare := 0.0
			if total > 0 {
				metaShare = round1(float64(count) / float64(total) * 100)
			}
			trend.Points = append(trend.Points, TrendPoint{
				EpochID:   e.ID.String(),
				EpochName: e.Name,
				MetaShare: metaShare,
				WinRate:   round1(CalculateWinRate(wins, losses, draws) * 100),
				Count:     count,
			})
		}
		out = append(out, trend)
	}
	return TrendsResult{Trends: out}
}

func topFactionsByCount(counts map[string]int, limit int) []string {
	type kv struct {
		name  string
		count int
	}
	entries := make([]kv, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, kv{name, count})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].count > entries[j].count })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}
