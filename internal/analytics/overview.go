package analytics

import (
	"github.com/dabbslondon/tourney-tracker/internal/epoch"
	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// Overview is the response body for GET /api/analytics/overview: raw totals
// plus a handful of "hero numbers" worth surfacing on a dashboard landing
// page.
type Overview struct {
	TotalEvents      int     `json:"total_events"`
	TotalPlacements  int     `json:"total_placements"`
	TotalArmyLists   int     `json:"total_army_lists"`
	TotalFactions    int     `json:"total_factions"`
	CurrentEpochName string  `json:"current_epoch_name,omitempty"`
	TopFaction       string  `json:"top_faction,omitempty"`
	TopFactionShare  float64 `json:"top_faction_share"`
	AverageWinRate   float64 `json:"average_win_rate"`
}

// BuildOverview combines raw entity counts with the top-of-meta faction
// (by meta share) and the mapper's current epoch name.
func BuildOverview(events []models.Event, placements []models.Placement, lists []models.ArmyList, mapper *epoch.Mapper) Overview {
	factionSet := make(map[string]struct{})
	for _, p := range placements {
		factionSet[NormalizeFactionName(p.Faction)] = struct{}{}
	}

	winRates := WinRates(placements, eventsByIDLocal(events), WinRatesParams{})

	overview := Overview{
		TotalEvents:     len(events),
		TotalPlacements: len(placements),
		TotalArmyLists:  len(lists),
		TotalFactions:   len(factionSet),
		AverageWinRate:  winRates.AverageWinRate,
	}

	metaFactions := MetaFactions(placements, lists)
	if len(metaFactions) > 0 {
		overview.TopFaction = metaFactions[0].Faction
		overview.TopFactionShare = metaFactions[0].MetaShare
	}

	if mapper != nil {
		if current := mapper.CurrentEpoch(); current != nil {
			overview.CurrentEpochName = current.Name
		}
	}

	return overview
}

func eventsByIDLocal(events []models.Event) map[string]models.Event {
	out := make(map[string]models.Event, len(events))
	for _, e := range events {
		out[e.ID.String()] = e
	}
	return out
}
