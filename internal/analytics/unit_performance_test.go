package analytics

import (
	"testing"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func withListID(p models.Placement, id entityid.ID) models.Placement {
	p.ListID = id
	return p
}

func TestUnitPerformanceAnalysisOverRepresentsTop4Unit(t *testing.T) {
	topUnits := []models.Unit{{Name: "Wraithguard"}}
	weakUnits := []models.Unit{{Name: "Guardians"}}

	top := models.NewArmyList("Aeldari", "Battle Host", topUnits, 500)
	top.PlayerName = "Alice"
	weak := models.NewArmyList("Aeldari", "Battle Host", weakUnits, 500)
	weak.PlayerName = "Bob"

	lists := []models.ArmyList{top, weak}
	placements := []models.Placement{
		withListID(mkPlacement("e1", 1, "Alice", "Aeldari", 3, 0, 0), top.ID),
		withListID(mkPlacement("e1", 8, "Bob", "Aeldari", 0, 3, 0), weak.ID),
	}

	result := UnitPerformanceAnalysis(lists, placements, "Aeldari")
	byName := make(map[string]float64)
	for _, u := range result.Units {
		byName[u.Name] = u.OverRepresentation
	}
	if byName["Wraithguard"] <= byName["Guardians"] {
		t.Errorf("expected Wraithguard over-represented above Guardians, got %+v", byName)
	}
}

func TestUnitPerformanceAnalysisFiltersByFaction(t *testing.T) {
	orks := models.NewArmyList("Orks", "Waaagh!", []models.Unit{{Name: "Boyz"}}, 500)
	necrons := models.NewArmyList("Necrons", "Awakened Dynasty", []models.Unit{{Name: "Warriors"}}, 500)
	result := UnitPerformanceAnalysis([]models.ArmyList{orks, necrons}, nil, "Orks")
	if len(result.Units) != 1 || result.Units[0].Name != "Boyz" {
		t.Errorf("expected only Orks units, got %+v", result.Units)
	}
}
