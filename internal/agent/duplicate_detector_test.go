package agent

import (
	"context"
	"testing"
)

func TestDuplicateDetectorResolvesMatchingIndexToID(t *testing.T) {
	backend := &mockBackend{response: `{"check": {"is_duplicate": true, "matching_index": 1, "similarity_score": 1.4, "match_reasons": ["Event name matches"]}}`}
	a := NewDuplicateDetectorAgent(backend)

	existing := []EntitySummary{
		{ID: "ev-a", EntityType: "event"},
		{ID: "ev-b", EntityType: "event"},
	}
	output, err := a.Execute(context.Background(), DuplicateDetectorInput{
		Candidate:        map[string]any{"name": "London GT 2025"},
		ExistingEntities: existing,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if output.MatchingEntityID != "ev-b" {
		t.Fatalf("expected matching id ev-b, got %q", output.MatchingEntityID)
	}
	if output.SimilarityScore != 1.0 {
		t.Fatalf("expected score clamped to 1.0, got %v", output.SimilarityScore)
	}
}

func TestDuplicateDetectorNoMatch(t *testing.T) {
	backend := &mockBackend{response: `{"check": {"is_duplicate": false, "matching_index": null, "similarity_score": 0.0, "match_reasons": []}}`}
	a := NewDuplicateDetectorAgent(backend)

	output, err := a.Execute(context.Background(), DuplicateDetectorInput{Candidate: map[string]any{"name": "x"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if output.IsDuplicate {
		t.Fatal("expected not a duplicate")
	}
	if output.MatchingEntityID != "" {
		t.Fatalf("expected empty matching id, got %q", output.MatchingEntityID)
	}
}
