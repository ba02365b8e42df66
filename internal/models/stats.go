package models

import (
	"strings"
	"time"
)

// Tier is a coarse win-rate-band label derived from a faction's raw win rate
// expressed as a 0.0-1.0 fraction.
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// CalculateTier buckets a win rate fraction (0.0-1.0, not percent) into a
// letter tier.
func CalculateTier(winRate float64) Tier {
	switch {
	case winRate >= 0.55:
		return TierS
	case winRate >= 0.52:
		return TierA
	case winRate >= 0.48:
		return TierB
	case winRate >= 0.45:
		return TierC
	default:
		return TierD
	}
}

// PlacementCounts tallies how often a faction reached various placement
// bands across a set of placements.
type PlacementCounts struct {
	First  int `json:"first"`
	Top4   int `json:"top_4"`
	Top10  int `json:"top_10"`
	TopHalf int `json:"top_half"`
}

// AggregatePlacements computes PlacementCounts from parallel rank/total
// slices. total is the number of players at the placement's event; a rank
// counts toward TopHalf only when total > 0 and rank <= total/2 (integer
// division).
func AggregatePlacements(ranks []int, totals []int) PlacementCounts {
	var counts PlacementCounts
	for i, rank := range ranks {
		total := 0
		if i < len(totals) {
			total = totals[i]
		}
		if rank == 1 {
			counts.First++
		}
		if rank <= 4 {
			counts.Top4++
		}
		if rank <= 10 {
			counts.Top10++
		}
		if total > 0 && rank <= total/2 {
			counts.TopHalf++
		}
	}
	return counts
}

// DetachmentStats is a per-detachment aggregate within a faction.
type DetachmentStats struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	WinRate float64 `json:"win_rate"`
}

// FactionStat is the full per-faction aggregate served by the meta and
// analytics endpoints.
type FactionStat struct {
	Name                        string            `json:"name"`
	Tier                        Tier              `json:"tier"`
	PlayerCount                 int               `json:"player_count"`
	GamesPlayed                 int               `json:"games_played"`
	EventAppearances            int               `json:"event_appearances"`
	Wins                        int               `json:"wins"`
	Losses                      int               `json:"losses"`
	Draws                       int               `json:"draws"`
	WinRate                     float64           `json:"win_rate"`
	WinRateDelta                *float64          `json:"win_rate_delta,omitempty"`
	PlacementCounts             PlacementCounts   `json:"placement_counts"`
	PodiumRate                  float64           `json:"podium_rate"`
	MetaShare                   float64           `json:"meta_share"`
	OverRepresentation          float64           `json:"over_representation"`
	AveragePlacementPercentile  float64           `json:"average_placement_percentile"`
	FourZeroStarts              int               `json:"four_zero_starts"`
	FiveZeroStarts              int               `json:"five_zero_starts"`
	TopDetachments              []DetachmentStats `json:"top_detachments,omitempty"`
}

// NewFactionStat computes the derived fields (win rate, tier, podium rate,
// meta share, over-representation) from the raw counters.
func NewFactionStat(name string, wins, losses, draws, playerCount, eventAppearances, top4, totalTop4, totalPlayers int, placementCounts PlacementCounts) FactionStat {
	games := wins + losses + draws
	winRate := CalculateWinRate(wins, losses, draws)

	var metaShare float64
	if totalPlayers > 0 {
		metaShare = float64(playerCount) / float64(totalPlayers) * 100
	}

	overRep := CalculateOverRepresentation(top4, totalTop4, playerCount, totalPlayers)

	podiumRate := CalculatePodiumRate(placementCounts.Top4, playerCount)

	return FactionStat{
		Name:                       name,
		Tier:                       CalculateTier(winRate),
		PlayerCount:                playerCount,
		GamesPlayed:                games,
		EventAppearances:           eventAppearances,
		Wins:                       wins,
		Losses:                     losses,
		Draws:                      draws,
		WinRate:                    winRate,
		PlacementCounts:            placementCounts,
		PodiumRate:                 podiumRate,
		MetaShare:                  metaShare,
		OverRepresentation:         overRep,
		AveragePlacementPercentile: 0.5,
	}
}

// WithWinRateDelta attaches a win-rate delta versus the prior epoch.
func (f FactionStat) WithWinRateDelta(delta float64) FactionStat {
	f.WinRateDelta = &delta
	return f
}

// CalculateWinRate is the plain win rate (no draw weighting), 0 when no
// games were played.
func CalculateWinRate(wins, losses, draws int) float64 {
	total := wins + losses + draws
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// CalculateOverRepresentation compares a faction's share of top-4 finishes
// to its share of the player pool. Returns 0 if any denominator is 0.
func CalculateOverRepresentation(factionTop4, totalTop4, factionPlayers, totalPlayers int) float64 {
	if totalPlayers == 0 || totalTop4 == 0 || factionPlayers == 0 {
		return 0
	}
	top4Share := float64(factionTop4) / float64(totalTop4)
	playerShare := float64(factionPlayers) / float64(totalPlayers)
	if playerShare == 0 {
		return 0
	}
	return top4Share / playerShare
}

// CalculatePodiumRate is the fraction of a faction's players that reached a
// top-4 placement.
func CalculatePodiumRate(top4, playerCount int) float64 {
	if playerCount == 0 {
		return 0
	}
	return float64(top4) / float64(playerCount)
}

// DateRange bounds a stats computation window.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// EpochTotals summarizes an epoch's raw activity counts.
type EpochTotals struct {
	Events  int `json:"events"`
	Players int `json:"players"`
	Games   int `json:"games"`
}

// FactionStats is the full per-epoch faction report.
type FactionStats struct {
	EpochID     string        `json:"epoch_id"`
	EpochName   string        `json:"epoch_name"`
	ComputedAt  time.Time     `json:"computed_at"`
	DateRange   DateRange     `json:"date_range"`
	Totals      EpochTotals   `json:"totals"`
	Factions    []FactionStat `json:"factions"`
}

// GetFaction looks up a faction by case-insensitive name.
func (fs FactionStats) GetFaction(name string) (FactionStat, bool) {
	for _, f := range fs.Factions {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FactionStat{}, false
}

// SortedByWinRate returns the factions ordered by win rate descending.
func (fs FactionStats) SortedByWinRate() []FactionStat {
	sorted := append([]FactionStat(nil), fs.Factions...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].WinRate > sorted[j-1].WinRate; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}
