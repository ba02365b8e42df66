package analytics

import (
	"testing"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func TestBuildOverviewCountsAndTopFaction(t *testing.T) {
	events := []models.Event{mkEvent("e1")}
	placements := []models.Placement{
		mkPlacement("e1", 1, "Alice", "Orks", 3, 0, 0),
		mkPlacement("e1", 2, "Bob", "Orks", 2, 1, 0),
		mkPlacement("e1", 3, "Carol", "Necrons", 1, 2, 0),
	}
	lists := []models.ArmyList{models.NewArmyList("Orks", "Waaagh!", nil, 500)}

	overview := BuildOverview(events, placements, lists, nil)
	if overview.TotalEvents != 1 || overview.TotalPlacements != 3 || overview.TotalArmyLists != 1 {
		t.Errorf("unexpected totals: %+v", overview)
	}
	if overview.TotalFactions != 2 {
		t.Errorf("expected 2 distinct factions, got %d", overview.TotalFactions)
	}
	if overview.TopFaction != "Orks" {
		t.Errorf("expected Orks as top faction, got %q", overview.TopFaction)
	}
}

func TestBuildOverviewEmptyInput(t *testing.T) {
	overview := BuildOverview(nil, nil, nil, nil)
	if overview.TotalEvents != 0 || overview.TopFaction != "" {
		t.Errorf("expected zero-value overview, got %+v", overview)
	}
}
