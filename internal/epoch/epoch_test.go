package epoch

import (
	"testing"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func sigEvent(t *testing.T, date, title string) models.SignificantEvent {
	t.Helper()
	return models.NewSignificantEvent("balance_update", mustDate(t, date), title, "https://example.com")
}

func TestFromSignificantEvent(t *testing.T) {
	evt := sigEvent(t, "2025-06-15", "June Dataslate")
	e := FromSignificantEvent(evt)

	if e.Name != "Post June Dataslate" {
		t.Errorf("Name = %q", e.Name)
	}
	if !e.IsCurrent {
		t.Errorf("expected IsCurrent true for a freshly derived epoch")
	}
	if e.EndDate != nil {
		t.Errorf("expected no end date")
	}
}

func TestContainsDateOpenEnded(t *testing.T) {
	evt := sigEvent(t, "2025-06-15", "June Dataslate")
	e := FromSignificantEvent(evt)

	if e.ContainsDate(mustDate(t, "2025-06-14")) {
		t.Errorf("date before start should not be contained")
	}
	if !e.ContainsDate(mustDate(t, "2025-06-15")) {
		t.Errorf("start date itself should be contained")
	}
	if !e.ContainsDate(mustDate(t, "2030-01-01")) {
		t.Errorf("open-ended epoch should contain any later date")
	}
}

func TestContainsDateClosed(t *testing.T) {
	first := sigEvent(t, "2025-06-15", "June Dataslate")
	second := sigEvent(t, "2025-09-15", "September Dataslate")
	e := FromSignificantEvent(first).CloseWith(second)

	if !e.ContainsDate(mustDate(t, "2025-09-14")) {
		t.Errorf("day before next start should be contained (inclusive end)")
	}
	if e.ContainsDate(mustDate(t, "2025-09-15")) {
		t.Errorf("next epoch's start date should not be contained")
	}
}

func TestMapperEmpty(t *testing.T) {
	m := FromSignificantEvents(nil)
	if e := m.CurrentEpoch(); e != nil {
		t.Errorf("expected no current epoch for an empty mapper")
	}
	if id := m.GetEpochIDForDate(mustDate(t, "2025-01-01")); id != PreTrackingEpochID {
		t.Errorf("expected pre-tracking fallback, got %q", id)
	}
}

func TestMapperSingleEvent(t *testing.T) {
	m := FromSignificantEvents([]models.SignificantEvent{sigEvent(t, "2025-06-15", "June Dataslate")})
	all := m.AllEpochs()
	if len(all) != 1 {
		t.Fatalf("expected 1 epoch, got %d", len(all))
	}
	if !all[0].IsCurrent {
		t.Errorf("sole epoch should be current")
	}
}

func TestMapperMultipleEventsCloseMonotonically(t *testing.T) {
	events := []models.SignificantEvent{
		sigEvent(t, "2025-09-15", "September Dataslate"),
		sigEvent(t, "2025-03-15", "March Dataslate"), // out of order on purpose
		sigEvent(t, "2025-06-15", "June Dataslate"),
	}
	m := FromSignificantEvents(events)
	all := m.AllEpochs()

	if len(all) != 3 {
		t.Fatalf("expected 3 epochs, got %d", len(all))
	}
	if !all[0].StartDate.Equal(mustDate(t, "2025-03-15")) {
		t.Errorf("epochs should be sorted by start date ascending, got %v", all[0].StartDate)
	}
	current := 0
	for _, e := range all {
		if e.IsCurrent {
			current++
		}
	}
	if current != 1 {
		t.Errorf("expected exactly one current epoch, got %d", current)
	}
	if all[len(all)-1].StartDate.Before(all[0].StartDate) {
		t.Errorf("last epoch by start date should be current")
	}
	if all[0].EndDate == nil || !all[0].EndDate.Equal(mustDate(t, "2025-06-14")) {
		t.Errorf("first epoch should close the day before the second starts, got %v", all[0].EndDate)
	}
}

func TestGetEpochIDForDateLookup(t *testing.T) {
	events := []models.SignificantEvent{
		sigEvent(t, "2025-03-15", "March Dataslate"),
		sigEvent(t, "2025-06-15", "June Dataslate"),
		sigEvent(t, "2025-09-15", "September Dataslate"),
	}
	m := FromSignificantEvents(events)

	juneEpoch := m.GetEpochForDate(mustDate(t, "2025-06-15"))
	if juneEpoch == nil {
		t.Fatalf("expected an epoch for 2025-06-15")
	}

	mid := m.GetEpochIDForDate(mustDate(t, "2025-07-01"))
	if mid != juneEpoch.ID {
		t.Errorf("2025-07-01 should fall in the June epoch, got %q want %q", mid, juneEpoch.ID)
	}

	pre := m.GetEpochIDForDate(mustDate(t, "2025-02-01"))
	if pre != PreTrackingEpochID {
		t.Errorf("2025-02-01 should fall back to pre-tracking, got %q", pre)
	}
}

func TestAddSignificantEventExtendsDynamically(t *testing.T) {
	m := FromSignificantEvents([]models.SignificantEvent{sigEvent(t, "2025-06-15", "June Dataslate")})
	before := m.CurrentEpoch()
	if before == nil {
		t.Fatalf("expected a current epoch before extension")
	}

	m.AddSignificantEvent(sigEvent(t, "2025-09-15", "September Dataslate"))

	all := m.AllEpochs()
	if len(all) != 2 {
		t.Fatalf("expected 2 epochs after extension, got %d", len(all))
	}
	if all[0].IsCurrent {
		t.Errorf("original epoch should have been closed")
	}
	if !all[1].IsCurrent {
		t.Errorf("newly added epoch should be current")
	}
}

func TestPreTrackingShape(t *testing.T) {
	p := PreTracking()
	if p.ID != PreTrackingEpochID {
		t.Errorf("ID = %q", p.ID)
	}
	if p.Name != "Pre-Tracking" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.IsCurrent {
		t.Errorf("pre-tracking epoch must never be current")
	}
}
