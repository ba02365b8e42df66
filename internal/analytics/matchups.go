package analytics

import (
	"sort"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// Matchup is one faction's record against a specific opposing faction.
type Matchup struct {
	Faction         string  `json:"faction"`
	Opponent        string  `json:"opponent"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Draws           int     `json:"draws"`
	Games           int     `json:"games"`
	WinRate         float64 `json:"win_rate"`
}

// MatchupsResult is the response body for GET /api/analytics/matchups.
type MatchupsResult struct {
	Matchups []Matchup `json:"matchups"`
}

type matchupKey struct {
	faction, opponent string
}

// Matchups computes pairwise faction win rates from recorded pairings: for
// every game, each side's faction is credited a win/loss/draw against the
// other side's faction. Pairings missing a faction on either side are
// skipped (a 40k list can legally omit faction metadata upstream; there is
// nothing to attribute the result to).
func Matchups(pairings []models.Pairing) MatchupsResult {
	agg := make(map[matchupKey]*Matchup)

	record := func(faction, opponent string, result models.Result) {
		if faction == "" || opponent == "" {
			return
		}
		faction = NormalizeFactionName(faction)
		opponent = NormalizeFactionName(opponent)
		key := matchupKey{faction, opponent}
		m, ok := agg[key]
		if !ok {
			m = &Matchup{Faction: faction, Opponent: opponent}
			agg[key] = m
		}
		switch result {
		case models.ResultWin:
			m.Wins++
		case models.ResultLoss:
			m.Losses++
		case models.ResultDraw:
			m.Draws++
		}
	}

	for _, p := range pairings {
		record(p.Player1.Faction, p.Player2.Faction, p.Player1.Result)
		record(p.Player2.Faction, p.Player1.Faction, p.Player2.Result)
	}

	out := make([]Matchup, 0, len(agg))
	for _, m := range agg {
		m.Games = m.Wins + m.Losses + m.Draws
		m.WinRate = round1(CalculateWinRate(m.Wins, m.Losses, m.Draws) * 100)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Faction != out[j].Faction {
			return out[i].Faction < out[j].Faction
		}
		return out[i].Games > out[j].Games
	})

	return MatchupsResult{Matchups: out}
}
