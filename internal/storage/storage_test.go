package storage

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func TestAppendAndReadAllRoundTrip(t *testing.T) {
	cfg := NewConfig(t.TempDir())
	store := NewJsonlStore[models.Event](cfg, EntityEvent)

	e1 := models.NewEvent("GW Open", time.Now(), "London", "https://x", "bcp", "current")
	e2 := models.NewEvent("LVO", time.Now(), "Vegas", "https://y", "bcp", "current")

	if err := store.Append("current", e1, e2); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.ReadAll("current")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
}

func TestReadAllDedupsKeepingLastOccurrence(t *testing.T) {
	cfg := NewConfig(t.TempDir())
	store := NewJsonlStore[models.Event](cfg, EntityEvent)

	e1 := models.NewEvent("GW Open", time.Now(), "London", "https://x", "bcp", "current")
	corrected := e1
	corrected.Location = "Manchester"

	if err := store.Append("current", e1); err != nil {
		t.Fatal(err)
	}
	if err := store.Append("current", corrected); err != nil {
		t.Fatal(err)
	}

	got, err := store.ReadAll("current")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 deduped event, got %d", len(got))
	}
	if got[0].Location != "Manchester" {
		t.Errorf("expected last occurrence to win, got %q", got[0].Location)
	}
}

func TestReadAllMissingPartitionReturnsEmpty(t *testing.T) {
	cfg := NewConfig(t.TempDir())
	store := NewJsonlStore[models.Event](cfg, EntityEvent)

	got, err := store.ReadAll("nonexistent")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestRewriteReplacesPartitionContents(t *testing.T) {
	cfg := NewConfig(t.TempDir())
	store := NewJsonlStore[models.Event](cfg, EntityEvent)

	e1 := models.NewEvent("GW Open", time.Now(), "London", "https://x", "bcp", "current")
	e2 := models.NewEvent("LVO", time.Now(), "Vegas", "https://y", "bcp", "current")
	if err := store.Append("current", e1, e2); err != nil {
		t.Fatal(err)
	}

	if err := store.Rewrite("current", []models.Event{e1}); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	got, err := store.ReadAll("current")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event after rewrite, got %d", len(got))
	}
}

func TestReadAllSkipsUndeserialisableTailLine(t *testing.T) {
	cfg := NewConfig(t.TempDir())
	store := NewJsonlStore[models.Event](cfg, EntityEvent)

	e1 := models.NewEvent("GW Open", time.Now(), "London", "https://x", "bcp", "current")
	if err := store.Append("current", e1); err != nil {
		t.Fatal(err)
	}

	path := cfg.entityPath(EntityEvent, "current")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"name": "truncated", "da` + "\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := store.ReadAll("current")
	if err != nil {
		t.Fatalf("ReadAll should discard the bad tail line, not fail: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the one good record to survive, got %d", len(got))
	}
	if got[0].Name != "GW Open" {
		t.Errorf("expected the good record, got %+v", got[0])
	}
}

func TestReadAllSkipsUndeserialisableTailLineWithLoggerAttached(t *testing.T) {
	cfg := NewConfig(t.TempDir())
	store := NewJsonlStore[models.Event](cfg, EntityEvent).WithLogger(zap.NewNop().Sugar())

	e1 := models.NewEvent("GW Open", time.Now(), "London", "https://x", "bcp", "current")
	if err := store.Append("current", e1); err != nil {
		t.Fatal(err)
	}

	path := cfg.entityPath(EntityEvent, "current")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("not json at all\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := store.ReadAll("current")
	if err != nil {
		t.Fatalf("ReadAll should discard the bad line even with a logger attached: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 good record, got %d", len(got))
	}
}

func TestPreviewLineTruncatesLongLines(t *testing.T) {
	long := make([]byte, maxBadLinePreview+50)
	for i := range long {
		long[i] = 'x'
	}
	got := previewLine(long)
	if len(got) != maxBadLinePreview+len("...") {
		t.Errorf("expected truncated preview of length %d, got %d", maxBadLinePreview+3, len(got))
	}

	short := []byte("short line")
	if previewLine(short) != "short line" {
		t.Errorf("expected short lines to pass through unchanged, got %q", previewLine(short))
	}
}

func TestEpochIDsListsPartitionDirs(t *testing.T) {
	cfg := NewConfig(t.TempDir())
	store := NewJsonlStore[models.Event](cfg, EntityEvent)

	e1 := models.NewEvent("GW Open", time.Now(), "London", "https://x", "bcp", "current")
	if err := store.Append("current", e1); err != nil {
		t.Fatal(err)
	}
	if err := store.Append("pre-tracking", e1); err != nil {
		t.Fatal(err)
	}

	ids, err := store.EpochIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 epoch partitions, got %v", ids)
	}
}
