package analytics

import (
	"testing"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func TestJaccardSimilarityIdenticalSets(t *testing.T) {
	a := map[string]struct{}{"x": {}, "y": {}}
	b := map[string]struct{}{"x": {}, "y": {}}
	if got := jaccardSimilarity(a, b); got != 1.0 {
		t.Errorf("got %v, want 1.0", got)
	}
}

func TestJaccardSimilarityDisjointSets(t *testing.T) {
	a := map[string]struct{}{"x": {}}
	b := map[string]struct{}{"y": {}}
	if got := jaccardSimilarity(a, b); got != 0.0 {
		t.Errorf("got %v, want 0.0", got)
	}
}

func TestArchetypesClustersSimilarLists(t *testing.T) {
	units := []models.Unit{{Name: "Wraithguard", Points: 100}, {Name: "Wraithlord", Points: 150}}
	l1 := models.NewArmyList("Aeldari", "Battle Host", units, 250)
	l2 := models.NewArmyList("Aeldari", "Battle Host", units, 250)
	l2.PlayerName = "Bob"
	l1.PlayerName = "Alice"
	outlier := models.NewArmyList("Aeldari", "Battle Host", []models.Unit{{Name: "Fire Prism", Points: 90}}, 90)
	outlier.PlayerName = "Carol"

	lists := []models.ArmyList{l1, l2, outlier}
	result := Archetypes("Aeldari", lists, nil)

	if result.TotalLists != 3 {
		t.Fatalf("expected 3 lists, got %d", result.TotalLists)
	}
	if len(result.Archetypes) != 1 {
		t.Fatalf("expected 1 cluster (outlier stays unclustered), got %d: %+v", len(result.Archetypes), result.Archetypes)
	}
	if result.Archetypes[0].ListCount != 2 {
		t.Errorf("expected cluster of 2, got %d", result.Archetypes[0].ListCount)
	}
}

func TestArchetypesNoListsForFaction(t *testing.T) {
	result := Archetypes("Orks", nil, nil)
	if result.TotalLists != 0 || len(result.Archetypes) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestJoinListsToPlacementsFallsBackToPlayerName(t *testing.T) {
	list := models.NewArmyList("Orks", "Waaagh", nil, 2000)
	list.PlayerName = "Dave Jones"
	list.EventID = entityid.ID("ev1")

	p := models.NewPlacement(entityid.ID("ev1"), entityid.ID("epoch"), 3, "dave   jones", "Orks")

	joined := JoinListsToPlacements([]models.ArmyList{list}, []models.Placement{p})
	got, ok := joined[list.ID.String()]
	if !ok {
		t.Fatalf("expected a fallback join by player name")
	}
	if got.Rank != 3 {
		t.Errorf("Rank = %d, want 3", got.Rank)
	}
}
