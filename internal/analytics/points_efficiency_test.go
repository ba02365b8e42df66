package analytics

import (
	"testing"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func TestPointsEfficiencyAnalysisAggregatesByFaction(t *testing.T) {
	l1 := models.NewArmyList("Orks", "Waaagh!", []models.Unit{{Name: "Boyz", Points: 400}}, 0)
	l1.PlayerName = "Alice"
	l2 := models.NewArmyList("Orks", "Waaagh!", []models.Unit{{Name: "Boyz", Points: 600}}, 0)
	l2.PlayerName = "Bob"

	placements := []models.Placement{
		withListID(mkPlacement("e1", 1, "Alice", "Orks", 3, 0, 0), l1.ID),
		withListID(mkPlacement("e1", 2, "Bob", "Orks", 1, 2, 0), l2.ID),
	}

	result := PointsEfficiencyAnalysis([]models.ArmyList{l1, l2}, placements)
	if len(result.Factions) != 1 {
		t.Fatalf("expected 1 faction, got %d", len(result.Factions))
	}
	f := result.Factions[0]
	if f.ListCount != 2 {
		t.Errorf("expected 2 lists, got %d", f.ListCount)
	}
	if f.AverageListPoints != 500 {
		t.Errorf("expected average 500 points, got %v", f.AverageListPoints)
	}
}

func TestPointsEfficiencyAnalysisEmptyInput(t *testing.T) {
	result := PointsEfficiencyAnalysis(nil, nil)
	if len(result.Factions) != 0 {
		t.Errorf("expected empty result, got %+v", result.Factions)
	}
}
