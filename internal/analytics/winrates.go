package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// defaultRegressionPrior is the number of imaginary 50%-result games blended
// into every faction's win rate, so that a faction with a handful of games
// doesn't get ranked purely on a small, noisy sample.
const defaultRegressionPrior = 40.0

// survivorshipMaxRankThreshold excludes events whose highest recorded rank
// is at or below this value from win-rate calculations: sources that only
// publish top finishers (a "top 8" recap, say) would otherwise inflate
// faction win rates because only winners are represented.
const survivorshipMaxRankThreshold = 20

// WinRatesParams controls the win-rates query.
type WinRatesParams struct {
	FromDate  *time.Time
	ToDate    *time.Time
	MinGames  int // prior weight (K); 0 means use defaultRegressionPrior
	MinPlayers int
}

// FactionWinRate is one faction's aggregated win-rate line.
type FactionWinRate struct {
	Faction         string  `json:"faction"`
	Allegiance      string  `json:"allegiance"`
	WinRate         float64 `json:"win_rate"`
	AdjustedWinRate float64 `json:"adjusted_win_rate"`
	GamesPlayed     int     `json:"games_played"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Draws           int     `json:"draws"`
	PlayerCount     int     `json:"player_count"`
}

// WinRatesResult is the response body for the win-rates analysis.
type WinRatesResult struct {
	Factions        []FactionWinRate `json:"factions"`
	TotalGames      int              `json:"total_games"`
	AverageWinRate  float64          `json:"average_win_rate"`
}

type factionAgg struct {
	wins, losses, draws int
	players             map[string]struct{}
}

// fullStandingsEventIDs returns the set of event IDs whose recorded max rank
// exceeds survivorshipMaxRankThreshold, i.e. events that published a full
// standings list rather than only the top finishers.
func fullStandingsEventIDs(placements []models.Placement) map[string]struct{} {
	maxRank := make(map[string]int)
	for _, p := range placements {
		eid := p.EventID.String()
		if p.Rank > maxRank[eid] {
			maxRank[eid] = p.Rank
		}
	}
	full := make(map[string]struct{})
	for eid, rank := range maxRank {
		if rank > survivorshipMaxRankThreshold {
			full[eid] = struct{}{}
		}
	}
	return full
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// WinRates computes faction win rates over the given placements and events,
// restricted to events with full standings (survivorship-bias guard) and
// regressed to the mean via a Bayesian prior of MinGames imaginary 50%
// games (defaults to 40).
func WinRates(placements []models.Placement, events map[string]models.Event, params WinRatesParams) WinRatesResult {
	priorWeight := float64(params.MinGames)
	if priorWeight == 0 {
		priorWeight = defaultRegressionPrior
	}

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

	full := fullStandingsEventIDs(filtered)
	aggs := make(map[string]*factionAgg)
	for _, p := range filtered {
		if _, ok := full[p.EventID.String()]; !ok {
			continue
		}
		if p.Record.Games() == 0 {
			continue
		}
		faction := NormalizeFactionName(p.Faction)
		agg, ok := aggs[faction]
		if !ok {
			agg = &factionAgg{players: make(map[string]struct{})}
			aggs[faction] = agg
		}
		agg.wins += p.Record.Wins
		agg.losses += p.Record.Losses
		agg.draws += p.Record.Draws
		agg.players[normalizePlayerName(p.PlayerName)] = struct{}{}
	}

	factions := make([]FactionWinRate, 0, len(aggs))
	for faction, agg := range aggs {
		total := agg.wins + agg.losses + agg.draws
		rawWins := float64(agg.wins) + 0.5*float64(agg.draws)
		var winRate, adjustedWinRate float64
		if total > 0 {
			winRate = round1(rawWins / float64(total) * 100)
			adjustedWinRate = round1((rawWins + priorWeight*0.5) / (float64(total) + priorWeight) * 100)
		} else {
			adjustedWinRate = 50.0
		}
		factions = append(factions, FactionWinRate{
			Faction:         faction,
			Allegiance:      orUnknown(FactionAllegiance(faction)),
			WinRate:         winRate,
			AdjustedWinRate: adjustedWinRate,
			GamesPlayed:     total,
			Wins:            agg.wins,
			Losses:          agg.losses,
			Draws:           agg.draws,
			PlayerCount:     len(agg.players),
		})
	}

	sort.Slice(factions, func(i, j int) bool {
		return factions[i].AdjustedWinRate > factions[j].AdjustedWinRate
	})

	totalGames := 0
	sum := 0.0
	for _, f := range factions {
		totalGames += f.GamesPlayed
		sum += f.WinRate
	}
	avg := 0.0
	if len(factions) > 0 {
		avg = round1(sum / float64(len(factions)))
	}

	return WinRatesResult{Factions: factions, TotalGames: totalGames, AverageWinRate: avg}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
