package agent

import (
	"context"
	"testing"
)

func TestListNormalizerSumsPointsWhenTotalMissing(t *testing.T) {
	backend := &mockBackend{response: `{
		"list": {
			"faction": "Aeldari",
			"subfaction": "Craftworld Ulthwe",
			"detachment": "Battle Host",
			"total_points": null,
			"units": [
				{"name": "Avatar of Khaine", "model_count": 1, "points": 335, "wargear": ["Wailing Doom"], "keywords": ["Epic Hero"]},
				{"name": "Guardians", "model_count": 10, "points": 100, "wargear": [], "keywords": []}
			],
			"confidence": "high",
			"notes": []
		}
	}`}
	a := NewListNormalizerAgent(backend)

	output, err := a.Execute(context.Background(), ListNormalizerInput{RawText: "++ raw ++", PlayerName: "Jane"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if output.List.Data.TotalPoints != 435 {
		t.Fatalf("expected summed total 435, got %d", output.List.Data.TotalPoints)
	}
	if len(output.List.Data.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(output.List.Data.Units))
	}
}
