// Package epoch derives a monotonically extending timeline of meta-epochs
// from observed balance-update events and assigns dates to epochs.
package epoch

import (
	"sort"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// PreTrackingEpochID is the reserved sentinel epoch id assigned to dates
// that fall before the earliest known significant event. It cannot collide
// with a generated id since it is not a 16-character hex string.
const PreTrackingEpochID entityid.ID = "pre-tracking"

// MetaEpoch is a time window bounded by two consecutive significant events.
type MetaEpoch struct {
	ID           entityid.ID `json:"id"`
	Name         string      `json:"name"`
	StartEventID entityid.ID `json:"start_event_id"`
	StartDate    time.Time   `json:"start_date"`
	EndDate      *time.Time  `json:"end_date,omitempty"`
	EndEventID   entityid.ID `json:"end_event_id,omitempty"`
	IsCurrent    bool        `json:"is_current"`
}

// FromSignificantEvent builds the epoch opened by a significant event. Its
// id is generated from the identifying field {start_event_id}.
func FromSignificantEvent(event models.SignificantEvent) MetaEpoch {
	return MetaEpoch{
		ID:           entityid.Generate(event.ID.String()),
		Name:         "Post " + event.Title,
		StartEventID: event.ID,
		StartDate:    event.Date,
		IsCurrent:    true,
	}
}

// PreTracking returns the fixed sentinel epoch for dates before any tracked
// significant event.
func PreTracking() MetaEpoch {
	return MetaEpoch{
		ID:           PreTrackingEpochID,
		Name:         "Pre-Tracking",
		StartEventID: "genesis",
		StartDate:    time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		IsCurrent:    false,
	}
}

// CloseWith closes the epoch the day before nextEvent's date, pointing its
// end event id at nextEvent.
func (m MetaEpoch) CloseWith(nextEvent models.SignificantEvent) MetaEpoch {
	end := nextEvent.Date.AddDate(0, 0, -1)
	m.EndDate = &end
	m.EndEventID = nextEvent.ID
	m.IsCurrent = false
	return m
}

// ContainsDate reports whether date falls within this epoch's window.
func (m MetaEpoch) ContainsDate(date time.Time) bool {
	if date.Before(m.StartDate) {
		return false
	}
	if m.EndDate == nil {
		return true
	}
	return !date.After(*m.EndDate)
}

// Mapper holds the full ordered epoch timeline.
type Mapper struct {
	epochs []MetaEpoch
}

// FromSignificantEvents constructs a mapper from an unordered set of
// significant events. Events are sorted by date ascending (stable); each
// event opens a new epoch and closes the previous one; the last epoch is
// marked current.
func FromSignificantEvents(events []models.SignificantEvent) *Mapper {
	sorted := append([]models.SignificantEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	m := &Mapper{}
	for i, evt := range sorted {
		epoch := FromSignificantEvent(evt)
		if i > 0 {
			last := m.epochs[len(m.epochs)-1]
			m.epochs[len(m.epochs)-1] = last.CloseWith(evt)
		}
		epoch.IsCurrent = i == len(sorted)-1
		m.epochs = append(m.epochs, epoch)
	}
	return m
}

// GetEpochForDate returns the epoch with the latest start date that still
// contains the given date, or nil if none qualifies.
func (m *Mapper) GetEpochForDate(date time.Time) *MetaEpoch {
	var best *MetaEpoch
	for i := range m.epochs {
		e := m.epochs[i]
		if e.StartDate.After(date) {
			continue
		}
		if !e.ContainsDate(date) {
			continue
		}
		if best == nil || e.StartDate.After(best.StartDate) {
			epoch := e
			best = &epoch
		}
	}
	return best
}

// GetEpochIDForDate returns the owning epoch id for a date, falling back to
// PreTrackingEpochID when no epoch covers it.
func (m *Mapper) GetEpochIDForDate(date time.Time) entityid.ID {
	if e := m.GetEpochForDate(date); e != nil {
		return e.ID
	}
	return PreTrackingEpochID
}

// CurrentEpoch returns the epoch flagged is_current, if any.
func (m *Mapper) CurrentEpoch() *MetaEpoch {
	for i := range m.epochs {
		if m.epochs[i].IsCurrent {
			e := m.epochs[i]
			return &e
		}
	}
	return nil
}

// AllEpochs returns every epoch, ordered by start date ascending.
func (m *Mapper) AllEpochs() []MetaEpoch {
	return append([]MetaEpoch(nil), m.epochs...)
}

// GetEpoch looks up an epoch by id.
func (m *Mapper) GetEpoch(id entityid.ID) (MetaEpoch, bool) {
	for _, e := range m.epochs {
		if e.ID == id {
			return e, true
		}
	}
	return MetaEpoch{}, false
}

// AddSignificantEvent extends the mapper with a freshly observed event:
// closes the current epoch and appends the newly opened one as current.
func (m *Mapper) AddSignificantEvent(event models.SignificantEvent) {
	for i := range m.epochs {
		if m.epochs[i].IsCurrent {
			m.epochs[i] = m.epochs[i].CloseWith(event)
			break
		}
	}
	m.epochs = append(m.epochs, FromSignificantEvent(event))
}
