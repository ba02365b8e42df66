package review

import (
	"testing"

	"github.com/dabbslondon/tourney-tracker/internal/models"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
)

func TestEnqueueAndAll(t *testing.T) {
	cfg := storage.NewConfig(t.TempDir())
	q := New(cfg)

	item := models.NewReviewQueueItem("event", "ev1", ReasonLowConfidence, "extraction confidence was low")
	if err := q.Enqueue(item); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	all, err := q.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 item, got %d", len(all))
	}
}

func TestUnresolvedExcludesResolvedItems(t *testing.T) {
	cfg := storage.NewConfig(t.TempDir())
	q := New(cfg)

	item := models.NewReviewQueueItem("placement", "p1", ReasonFactCheckFailed, "")
	if err := q.Enqueue(item); err != nil {
		t.Fatal(err)
	}
	if err := q.Resolve(item.ID.String(), "confirmed correct"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	unresolved, err := q.Unresolved()
	if err != nil {
		t.Fatal(err)
	}
	if len(unresolved) != 0 {
		t.Fatalf("expected 0 unresolved items, got %d", len(unresolved))
	}

	all, err := q.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || !all[0].Resolved {
		t.Fatalf("expected the single item to be resolved, got %+v", all)
	}
}

func TestResolveUnknownIDErrors(t *testing.T) {
	cfg := storage.NewConfig(t.TempDir())
	q := New(cfg)
	if err := q.Resolve("nonexistent", ""); err == nil {
		t.Fatalf("expected an error for an unknown id")
	}
}
