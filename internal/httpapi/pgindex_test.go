package httpapi

import (
	"context"
	"testing"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func TestNewPlayerIndexWithoutDSNIsDegraded(t *testing.T) {
	idx, err := newPlayerIndex(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("newPlayerIndex: %v", err)
	}
	if !idx.healthy(context.Background()) {
		t.Error("expected degraded index to report healthy")
	}
}

func TestPlayerIndexCanonicalizeFoldsWhitespaceWithoutDSN(t *testing.T) {
	idx, err := newPlayerIndex(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("newPlayerIndex: %v", err)
	}
	got := idx.Canonicalize(context.Background(), "  Alice   Smith  ")
	if got != "Alice Smith" {
		t.Errorf("expected collapsed whitespace, got %q", got)
	}
}

func TestPlayerIndexCloseWithoutPoolIsNoOp(t *testing.T) {
	idx, err := newPlayerIndex(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("newPlayerIndex: %v", err)
	}
	idx.Close()
}

func TestCanonicalizePlacementsFoldsEveryRecord(t *testing.T) {
	idx, err := newPlayerIndex(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("newPlayerIndex: %v", err)
	}
	placements := []models.Placement{
		{PlayerName: "  Alice   Smith  ", Rank: 1},
		{PlayerName: "Bob Jones", Rank: 2},
	}

	out := idx.canonicalizePlacements(context.Background(), placements)

	if out[0].PlayerName != "Alice Smith" {
		t.Errorf("expected folded name, got %q", out[0].PlayerName)
	}
	if out[1].PlayerName != "Bob Jones" {
		t.Errorf("expected unchanged name, got %q", out[1].PlayerName)
	}
	if placements[0].PlayerName != "  Alice   Smith  " {
		t.Error("expected canonicalizePlacements not to mutate its input slice")
	}
}

func TestCanonicalizeArmyListsFoldsEveryRecord(t *testing.T) {
	idx, err := newPlayerIndex(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("newPlayerIndex: %v", err)
	}
	lists := []models.ArmyList{
		{PlayerName: "  Carol   Diaz  "},
	}

	out := idx.canonicalizeArmyLists(context.Background(), lists)

	if out[0].PlayerName != "Carol Diaz" {
		t.Errorf("expected folded name, got %q", out[0].PlayerName)
	}
}
