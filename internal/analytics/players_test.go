package analytics

import (
	"testing"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func TestTopPlayersAggregatesAcrossEvents(t *testing.T) {
	placements := []models.Placement{
		mkPlacement("e1", 1, "Alice", "Orks", 3, 0, 0),
		mkPlacement("e2", 2, "alice", "Orks", 2, 1, 0),
		mkPlacement("e1", 5, "Bob", "Necrons", 1, 2, 0),
	}
	events := map[string]models.Event{
		"e1": mkEvent("e1"),
		"e2": mkEvent("e2"),
	}

	result := TopPlayers(placements, events)
	if len(result.Players) != 2 {
		t.Fatalf("expected 2 distinct players (name-folded), got %d: %+v", len(result.Players), result.Players)
	}

	var alice *PlayerSummary
	for i := range result.Players {
		if result.Players[i].PlayerName == "Alice" {
			alice = &result.Players[i]
		}
	}
	if alice == nil {
		t.Fatalf("expected Alice in results, got %+v", result.Players)
	}
	if alice.EventCount != 2 || alice.FirstPlaces != 1 {
		t.Errorf("expected Alice to have 2 events and 1 first place, got %+v", alice)
	}
}

func TestTopPlayersRecentResultsTailCapped(t *testing.T) {
	var placements []models.Placement
	for i := 1; i <= 7; i++ {
		placements = append(placements, mkPlacement("e", i, "Alice", "Orks", 1, 0, 0))
	}
	result := TopPlayers(placements, map[string]models.Event{"e": mkEvent("e")})
	if len(result.Players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(result.Players))
	}
	if len(result.Players[0].RecentResults) != recentResultsTailLength {
		t.Errorf("expected tail capped to %d, got %d", recentResultsTailLength, len(result.Players[0].RecentResults))
	}
}

func TestTopPlayersEmptyInput(t *testing.T) {
	result := TopPlayers(nil, nil)
	if len(result.Players) != 0 {
		t.Errorf("expected empty result, got %+v", result.Players)
	}
}
