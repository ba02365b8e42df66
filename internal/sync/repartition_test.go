package sync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/models"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
)

func writeSigEvent(t *testing.T, cfg storage.Config, date time.Time, title string) {
	t.Helper()
	store := storage.NewJsonlStore[models.SignificantEvent](cfg, storage.EntitySignificantEvent)
	event := models.NewSignificantEvent("balance_update", date, title, "https://example.com")
	if err := store.Append(globalEpoch, event); err != nil {
		t.Fatalf("writing significant event: %v", err)
	}
}

func TestRepartitionNoSignificantEventsErrors(t *testing.T) {
	cfg := storage.NewConfig(t.TempDir())
	_, err := Repartition(cfg, "current", false, false, nil)
	if err == nil {
		t.Fatal("expected error when no significant events registered")
	}
}

func TestRepartitionDryRunLeavesSourcePartitionInPlace(t *testing.T) {
	cfg := storage.NewConfig(t.TempDir())
	writeSigEvent(t, cfg, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "June Update")

	eventStore := storage.NewJsonlStore[models.Event](cfg, storage.EntityEvent)
	event := models.NewEvent("GT1", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "", "https://example.com/gt1", "test", "current")
	if err := eventStore.Append("current", event); err != nil {
		t.Fatal(err)
	}

	result, err := Repartition(cfg, "current", true, false, nil)
	if err != nil {
		t.Fatalf("Repartition: %v", err)
	}
	total := 0
	for _, n := range result.EventsByEpoch {
		total += n
	}
	if total != 1 {
		t.Fatalf("expected 1 event counted, got %d", total)
	}

	if _, err := os.Stat(filepath.Join(cfg.NormalizedDir(), "current", "event.jsonl")); err != nil {
		t.Fatalf("expected source partition to remain untouched in dry run: %v", err)
	}
}

func TestRepartitionWritesEventsToDestinationEpochs(t *testing.T) {
	cfg := storage.NewConfig(t.TempDir())
	writeSigEvent(t, cfg, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "March Update")
	writeSigEvent(t, cfg, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "June Update")

	eventStore := storage.NewJsonlStore[models.Event](cfg, storage.EntityEvent)
	marchEvent := models.NewEvent("March GT", time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), "", "https://example.com/march", "test", "current")
	juneEvent := models.NewEvent("June GT", time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), "", "https://example.com/june", "test", "current")
	if err := eventStore.Append("current", marchEvent, juneEvent); err != nil {
		t.Fatal(err)
	}

	result, err := Repartition(cfg, "current", false, true, nil)
	if err != nil {
		t.Fatalf("Repartition: %v", err)
	}
	total := 0
	for _, n := range result.EventsByEpoch {
		total += n
	}
	if total != 2 {
		t.Fatalf("expected 2 events split across epochs, got %d", total)
	}
}

func TestRepartitionBacksUpSourceUnlessKeepOriginals(t *testing.T) {
	cfg := storage.NewConfig(t.TempDir())
	writeSigEvent(t, cfg, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "June Update")

	eventStore := storage.NewJsonlStore[models.Event](cfg, storage.EntityEvent)
	event := models.NewEvent("Test", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "", "https://example.com/test", "test", "current")
	if err := eventStore.Append("current", event); err != nil {
		t.Fatal(err)
	}

	if _, err := Repartition(cfg, "current", false, false, nil); err != nil {
		t.Fatalf("Repartition: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.NormalizedDir(), "current")); !os.IsNotExist(err) {
		t.Fatalf("expected 'current' to be backed up away, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.NormalizedDir(), "current.bak")); err != nil {
		t.Fatalf("expected 'current.bak' to exist: %v", err)
	}
}

func TestRepartitionKeepOriginalsLeavesSourceDirectory(t *testing.T) {
	cfg := storage.NewConfig(t.TempDir())
	writeSigEvent(t, cfg, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "June Update")

	eventStore := storage.NewJsonlStore[models.Event](cfg, storage.EntityEvent)
	event := models.NewEvent("Test", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "", "https://example.com/test", "test", "current")
	if err := eventStore.Append("current", event); err != nil {
		t.Fatal(err)
	}

	if _, err := Repartition(cfg, "current", false, true, nil); err != nil {
		t.Fatalf("Repartition: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.NormalizedDir(), "current")); err != nil {
		t.Fatalf("expected 'current' directory to remain with keepOriginals=true: %v", err)
	}
}

func TestRepartitionPlacementsFollowTheirEvent(t *testing.T) {
	cfg := storage.NewConfig(t.TempDir())
	writeSigEvent(t, cfg, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "June Update")

	eventStore := storage.NewJsonlStore[models.Event](cfg, storage.EntityEvent)
	event := models.NewEvent("Test GT", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "", "https://example.com/test", "test", "current")
	if err := eventStore.Append("current", event); err != nil {
		t.Fatal(err)
	}

	placementStore := storage.NewJsonlStore[models.Placement](cfg, storage.EntityPlacement)
	placement := models.NewPlacement(event.ID, "current", 1, "Player One", "Test Faction")
	if err := placementStore.Append("current", placement); err != nil {
		t.Fatal(err)
	}

	result, err := Repartition(cfg, "current", true, false, nil)
	if err != nil {
		t.Fatalf("Repartition: %v", err)
	}

	sharedEpoch := ""
	for id, n := range result.EventsByEpoch {
		if n > 0 {
			sharedEpoch = id
		}
	}
	if sharedEpoch == "" {
		t.Fatal("expected at least one epoch with events")
	}
	if result.PlacementsByEpoch[sharedEpoch] != 1 {
		t.Fatalf("expected placement to follow its event into epoch %q, got %+v", sharedEpoch, result.PlacementsByEpoch)
	}
}
