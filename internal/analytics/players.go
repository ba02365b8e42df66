package analytics

import (
	"sort"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// RecentResult is one entry in a player's recent-results tail.
type RecentResult struct {
	EventID string    `json:"event_id"`
	Date    time.Time `json:"date"`
	Rank    int       `json:"rank"`
	Faction string    `json:"faction"`
}

// PlayerSummary is one player's aggregate record across every placement on
// file, with a tail of their most recent results.
type PlayerSummary struct {
	PlayerName    string         `json:"player_name"`
	EventCount    int            `json:"event_count"`
	Wins          int            `json:"wins"`
	Losses        int            `json:"losses"`
	Draws         int            `json:"draws"`
	WinRate       float64        `json:"win_rate"`
	FirstPlaces   int            `json:"first_places"`
	Top4Finishes  int            `json:"top4_finishes"`
	RecentResults []RecentResult `json:"recent_results"`
}

// PlayersResult is the response body for GET /api/analytics/players.
type PlayersResult struct {
	Players []PlayerSummary `json:"players"`
}

const recentResultsTailLength = 5

// TopPlayers aggregates every placement by normalized player name, sorted by
// event count then win rate descending, with each player's most recent
// results (by event date) attached.
func TopPlayers(placements []models.Placement, events map[string]models.Event) PlayersResult {
	type playerAgg struct {
		displayName         string
		wins, losses, draws int
		firstPlaces         int
		top4                int
		results             []RecentResult
	}

	byPlayer := make(map[string]*playerAgg)
	for _, p := range placements {
		key := normalizePlayerName(p.PlayerName)
		a, ok := byPlayer[key]
		if !ok {
			a = &playerAgg{displayName: p.PlayerName}
			byPlayer[key] = a
		}
		a.wins += p.Record.Wins
		a.losses += p.Record.Losses
		a.draws += p.Record.Draws
		if p.Rank == 1 {
			a.firstPlaces++
		}
		if p.Rank <= 4 {
			a.top4++
		}
		date := events[p.EventID.String()].Date
		a.results = append(a.results, RecentResult{
			EventID: p.EventID.String(),
			Date:    date,
			Rank:    p.Rank,
			Faction: NormalizeFactionName(p.Faction),
		})
	}

	out := make([]PlayerSummary, 0, len(byPlayer))
	for _, a := range byPlayer {
		sort.Slice(a.results, func(i, j int) bool { return a.results[i].Date.After(a.results[j].Date) })
		tail := a.results
		if len(tail) > recentResultsTailLength {
			tail = tail[:recentResultsTailLength]
		}
		out = append(out, PlayerSummary{
			PlayerName:    a.displayName,
			EventCount:    len(a.results),
			Wins:          a.wins,
			Losses:        a.losses,
			Draws:         a.draws,
			WinRate:       round1(CalculateWinRate(a.wins, a.losses, a.draws) * 100),
			FirstPlaces:   a.firstPlaces,
			Top4Finishes:  a.top4,
			RecentResults: tail,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventCount != out[j].EventCount {
			return out[i].EventCount > out[j].EventCount
		}
		return out[i].WinRate > out[j].WinRate
	})
	return PlayersResult{Players: out}
}
