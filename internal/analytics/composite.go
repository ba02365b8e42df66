package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// CompositeScoresParams controls the composite-scores query.
type CompositeScoresParams struct {
	FromDate   *time.Time
	ToDate     *time.Time
	MinPlayers int
}

// FactionCompositeScore bundles raw meta-share/win-rate inputs with the four
// derived composite metrics.
type FactionCompositeScore struct {
	Faction         string  `json:"faction"`
	Allegiance      string  `json:"allegiance"`
	AdjustedWinRate float64 `json:"adjusted_win_rate"`
	MetaShare       float64 `json:"meta_share"`
	Top4Rate        float64 `json:"top4_rate"`
	FirstPlaceRate  float64 `json:"first_place_rate"`
	GamesPlayed     int     `json:"games_played"`
	PlacementCount  int     `json:"placement_count"`

	MetaThreat        float64 `json:"meta_threat"`
	ExpectedPodiums   float64 `json:"expected_podiums"`
	BalanceDeviation  float64 `json:"balance_deviation"`
	PowerIndex        float64 `json:"power_index"`
}

// CompositeScoresResult is the response body for the composite-scores
// analysis.
type CompositeScoresResult struct {
	Factions        []FactionCompositeScore `json:"factions"`
	TotalPlacements int                      `json:"total_placements"`
	TotalGames      int                      `json:"total_games"`
}

// percentileRanks maps each value to the fraction of the other values it
// exceeds, in [0, 1]. Used to put heterogeneous metrics (win rate, meta
// share, top4 rate, first-place rate) onto a common scale before averaging
// them into a power index.
func percentileRanks(values []float64) []float64 {
	n := float64(len(values))
	if n == 0 {
		return nil
	}
	out := make([]float64, len(values))
	denom := math.Max(n-1, 1)
	for i, v := range values {
		below := 0.0
		for _, x := range values {
			if x < v {
				below++
			}
		}
		out[i] = below / denom
	}
	return out
}

type factionMeta struct {
	count          int
	metaShare      float64
	top4Rate       float64
	firstPlaceRate float64
}

// CompositeScores derives four composite meta-game metrics per faction:
//   - meta_threat: adjusted win rate weighted by the square root of meta
//     share, so a faction that is both strong and heavily played ranks
//     above one that is merely strong in a tiny sample.
//   - expected_podiums: meta share times top-4 rate, the fraction of all
//     podium slots a faction is expected to claim.
//   - balance_deviation: signed distance of adjusted win rate from 50%,
//     scaled by meta share, useful for spotting a popular-and-overperforming
//     faction that most needs balance attention.
//   - power_index: the average percentile rank across win rate, meta share,
//     top-4 rate, and first-place rate, expressed as 0-100.
func CompositeScores(placements []models.Placement, events map[string]models.Event, params CompositeScoresParams) CompositeScoresResult {
	filtered := make([]models.Placement, 0, len(placements))
	for _, p := range placements {
		if ev, ok := events[p.EventID.String()]; ok {
			if params.FromDate != nil && ev.Date.Before(*params.FromDate) {
				continue
			}
			if params.ToDate != nil && ev.Date.After(*params.ToDate) {
				continue
			}
			if params.MinPlayers > 0 {
				if ev.PlayerCount == nil || *ev.PlayerCount < params.MinPlayers {
					continue
				}
			}
		}
		filtered = append(filtered, p)
	}
	totalPlacements := len(filtered)

	byFaction := make(map[string][]models.Placement)
	for _, p := range filtered {
		faction := NormalizeFactionName(p.Faction)
		byFaction[faction] = append(byFaction[faction], p)
	}

	metas := make(map[string]factionMeta)
	for faction, ps := range byFaction {
		count := len(ps)
		metaShare := 0.0
		if totalPlacements > 0 {
			metaShare = float64(count) / float64(totalPlacements) * 100
		}
		firstPlace, top4 := 0, 0
		for _, p := range ps {
			if p.Rank == 1 {
				firstPlace++
			}
			if p.Rank <= 4 {
				top4++
			}
		}
		top4Rate, firstPlaceRate := 0.0, 0.0
		if count > 0 {
			top4Rate = float64(top4) / float64(count) * 100
			firstPlaceRate = float64(firstPlace) / float64(count) * 100
		}
		metas[faction] = factionMeta{count: count, metaShare: metaShare, top4Rate: top4Rate, firstPlaceRate: firstPlaceRate}
	}

	full := fullStandingsEventIDs(filtered)
	wrAggs := make(map[string]*factionAgg)
	for _, p := range filtered {
		if _, ok := full[p.EventID.String()]; !ok {
			continue
		}
		if p.Record.Games() == 0 {
			continue
		}
		faction := NormalizeFactionName(p.Faction)
		agg, ok := wrAggs[faction]
		if !ok {
			agg = &factionAgg{players: make(map[string]struct{})}
			wrAggs[faction] = agg
		}
		agg.wins += p.Record.Wins
		agg.losses += p.Record.Losses
		agg.draws += p.Record.Draws
	}

	type rawRow struct {
		faction                                        string
		adjWinRate, metaShare, top4Rate, firstPlaceRate float64
		games, placementCount                          int
	}
	var rows []rawRow
	for faction, meta := range metas {
		agg, ok := wrAggs[faction]
		if !ok {
			continue
		}
		totalGames := agg.wins + agg.losses + agg.draws
		if totalGames == 0 {
			continue
		}
		rawWins := float64(agg.wins) + 0.5*float64(agg.draws)
		adjWinRate := round1((rawWins + defaultRegressionPrior*0.5) / (float64(totalGames) + defaultRegressionPrior) * 100)
		rows = append(rows, rawRow{
			faction:        faction,
			adjWinRate:     adjWinRate,
			metaShare:      meta.metaShare,
			top4Rate:       meta.top4Rate,
			firstPlaceRate: meta.firstPlaceRate,
			games:          totalGames,
			placementCount: meta.count,
		})
	}

	wrVals := make([]float64, len(rows))
	msVals := make([]float64, len(rows))
	t4Vals := make([]float64, len(rows))
	fpVals := make([]float64, len(rows))
	for i, r := range rows {
		wrVals[i], msVals[i], t4Vals[i], fpVals[i] = r.adjWinRate, r.metaShare, r.top4Rate, r.firstPlaceRate
	}
	wrRanks := percentileRanks(wrVals)
	msRanks := percentileRanks(msVals)
	t4Ranks := percentileRanks(t4Vals)
	fpRanks := percentileRanks(fpVals)

	factions := make([]FactionCompositeScore, len(rows))
	totalGames := 0
	for i, r := range rows {
		metaThreat := r.adjWinRate * math.Sqrt(r.metaShare)
		expectedPodiums := r.metaShare * r.top4Rate / 100
		balanceDeviation := (r.adjWinRate - 50) * math.Sqrt(r.metaShare)
		powerIndex := round1((wrRanks[i] + msRanks[i] + t4Ranks[i] + fpRanks[i]) / 4 * 100)

		factions[i] = FactionCompositeScore{
			Faction:          r.faction,
			Allegiance:       orUnknown(FactionAllegiance(r.faction)),
			AdjustedWinRate:  round1(r.adjWinRate),
			MetaShare:        round1(r.metaShare),
			Top4Rate:         round1(r.top4Rate),
			FirstPlaceRate:   round1(r.firstPlaceRate),
			GamesPlayed:      r.games,
			PlacementCount:   r.placementCount,
			MetaThreat:       round1(metaThreat),
			ExpectedPodiums:  math.Round(expectedPodiums*100) / 100,
			BalanceDeviation: round1(balanceDeviation),
			PowerIndex:       powerIndex,
		}
		totalGames += r.games
	}

	sort.Slice(factions, func(i, j int) bool {
		return factions[i].MetaThreat > factions[j].MetaThreat
	})

	return CompositeScoresResult{Factions: factions, TotalPlacements: totalPlacements, TotalGames: totalGames}
}
