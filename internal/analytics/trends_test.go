package analytics

import (
	"testing"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
	"github.com/dabbslondon/tourney-tracker/internal/epoch"
	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func mkEpoch(id string, start time.Time) epoch.MetaEpoch {
	return epoch.MetaEpoch{ID: entityid.ID(id), Name: id, StartDate: start}
}

func TestTrendsOneEpochOneFaction(t *testing.T) {
	e := mkEpoch("epoch1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	placements := []models.Placement{
		withEpoch(mkPlacement("ev", 1, "Alice", "Orks", 3, 0, 0), e.ID),
		withEpoch(mkPlacement("ev", 2, "Bob", "Necrons", 0, 3, 0), e.ID),
	}

	result := Trends(placements, []epoch.MetaEpoch{e}, []string{"Orks"})
	if len(result.Trends) != 1 {
		t.Fatalf("expected 1 requested faction trend, got %d", len(result.Trends))
	}
	trend := result.Trends[0]
	if trend.Faction != "Orks" {
		t.Errorf("expected Orks, got %q", trend.Faction)
	}
	if len(trend.Points) != 1 {
		t.Fatalf("expected 1 point (1 epoch), got %d", len(trend.Points))
	}
	if trend.Points[0].Count != 1 {
		t.Errorf("expected count 1 for Orks in epoch1, got %d", trend.Points[0].Count)
	}
}

func TestTrendsDefaultsToTopFactionsWhenNoneRequested(t *testing.T) {
	e := mkEpoch("epoch1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	placements := []models.Placement{
		withEpoch(mkPlacement("ev", 1, "Alice", "Orks", 3, 0, 0), e.ID),
	}
	result := Trends(placements, []epoch.MetaEpoch{e}, nil)
	if len(result.Trends) != 1 || result.Trends[0].Faction != "Orks" {
		t.Errorf("expected Orks picked as the only observed faction, got %+v", result.Trends)
	}
}

func withEpoch(p models.Placement, id entityid.ID) models.Placement {
	p.EpochID = id
	return p
}
