package agent

import (
	"context"
	"testing"
)

func TestResultHarvesterExtractsPlacementsAndLists(t *testing.T) {
	backend := &mockBackend{response: `{
		"placements": [
			{"rank": 1, "player_name": "John Smith", "faction": "Aeldari", "subfaction": "Ynnari", "detachment": "Soulrender", "wins": 5, "losses": 0, "draws": 0, "battle_points": 94, "army_list": "++ Battalion Detachment...", "confidence": "high"},
			{"rank": 2, "player_name": "Jane Doe", "faction": "Necrons", "subfaction": null, "detachment": null, "wins": null, "losses": null, "draws": null, "battle_points": null, "army_list": null, "confidence": "low"}
		]
	}`}
	a := NewResultHarvesterAgent(backend)

	count := 64
	output, err := a.Execute(context.Background(), ResultHarvesterInput{
		ArticleHTML: "<html>results</html>",
		Event:       EventStub{Name: "London GT", Location: "London, UK", PlayerCount: &count},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(output.Placements) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(output.Placements))
	}
	if len(output.RawLists) != 1 || output.RawLists[0].PlayerName != "John Smith" {
		t.Fatalf("unexpected raw lists: %+v", output.RawLists)
	}

	second := output.Placements[1]
	if second.Data.Record != nil {
		t.Fatalf("expected nil record for incomplete data, got %+v", second.Data.Record)
	}
	if len(second.Notes) != 2 {
		t.Fatalf("expected 2 notes (missing record, missing detachment), got %+v", second.Notes)
	}
}
