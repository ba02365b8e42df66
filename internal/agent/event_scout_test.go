package agent

import (
	"context"
	"testing"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func TestEventScoutExtraction(t *testing.T) {
	backend := &mockBackend{response: `{
		"events": [
			{"name": "London GT 2025", "date": "2025-06-15", "location": "London, UK", "player_count": 96, "round_count": 5, "event_type": "GT", "article_section": "London GT Results", "confidence": "high"},
			{"name": "Birmingham Open", "date": null, "location": "Birmingham, UK", "player_count": 48, "round_count": null, "event_type": "Open", "article_section": null, "confidence": "medium"}
		]
	}`}
	a := NewEventScoutAgent(backend)

	output, err := a.Execute(context.Background(), EventScoutInput{
		ArticleHTML: "<html>Tournament results...</html>",
		ArticleURL:  "https://goonhammer.com/competitive-innovations",
		ArticleDate: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(output.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(output.Events))
	}

	london := output.Events[0]
	if london.Data.Name != "London GT 2025" || london.Data.PlayerCount == nil || *london.Data.PlayerCount != 96 {
		t.Fatalf("unexpected london data: %+v", london.Data)
	}
	if london.Confidence != models.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %v", london.Confidence)
	}

	birmingham := output.Events[1]
	if birmingham.Data.Date != nil {
		t.Fatalf("expected nil date for birmingham")
	}
	if birmingham.Confidence != models.ConfidenceMedium {
		t.Fatalf("expected medium confidence, got %v", birmingham.Confidence)
	}
}

func TestEventScoutEmpty(t *testing.T) {
	backend := &mockBackend{response: `{"events": []}`}
	a := NewEventScoutAgent(backend)

	output, err := a.Execute(context.Background(), EventScoutInput{
		ArticleHTML: "<html>No tournaments here</html>",
		ArticleURL:  "https://goonhammer.com/article",
		ArticleDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(output.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(output.Events))
	}
}

func TestEventScoutName(t *testing.T) {
	a := NewEventScoutAgent(&mockBackend{})
	if a.Name() != "event_scout" {
		t.Fatalf("unexpected name: %s", a.Name())
	}
}
