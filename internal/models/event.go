package models

import (
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
)

// Event is a single tournament.
type Event struct {
	ID               entityid.ID `json:"id"`
	Name             string      `json:"name"`
	Date             time.Time   `json:"date"`
	Location         string      `json:"location,omitempty"`
	PlayerCount      *int        `json:"player_count,omitempty"`
	RoundCount       *int        `json:"round_count,omitempty"`
	SourceURL        string      `json:"source_url"`
	SourceName       string      `json:"source_name"`
	EpochID          entityid.ID `json:"epoch_id"`
	Confidence       Confidence  `json:"confidence"`
	NeedsReview      bool        `json:"needs_review"`
	TeamEvent        bool        `json:"team_event,omitempty"`
	HiddenPlacings   bool        `json:"hidden_placings,omitempty"`
}

// NewEvent builds an Event with its id computed from the identifying fields
// {name, date, location}.
func NewEvent(name string, date time.Time, location, sourceURL, sourceName string, epochID entityid.ID) Event {
	return Event{
		ID:         entityid.Generate(name, date.Format("2006-01-02"), location),
		Name:       name,
		Date:       date,
		Location:   location,
		SourceURL:  sourceURL,
		SourceName: sourceName,
		EpochID:    epochID,
		Confidence: ConfidenceHigh,
	}
}

// WithConfidence sets the confidence and derives NeedsReview from it.
func (e Event) WithConfidence(c Confidence) Event {
	e.Confidence = c
	e.NeedsReview = c.NeedsReview()
	return e
}

// WithPlayerCount sets the player count.
func (e Event) WithPlayerCount(n int) Event {
	e.PlayerCount = &n
	return e
}

// WithRoundCount sets the round count.
func (e Event) WithRoundCount(n int) Event {
	e.RoundCount = &n
	return e
}

// ShouldSkip reports whether the sync pipeline should skip this event
// (team events and events with hidden placings carry no usable standings).
func (e Event) ShouldSkip() bool {
	return e.TeamEvent || e.HiddenPlacings
}

// GetID implements storage.Identifiable.
func (e Event) GetID() string { return e.ID.String() }
