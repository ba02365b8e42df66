package models

import (
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
)

// PointsChange records a single unit's points delta in a balance pass.
type PointsChange struct {
	Unit       string `json:"unit"`
	OldPoints  int    `json:"old_points"`
	NewPoints  int    `json:"new_points"`
	Change     int    `json:"change"`
}

// FactionChange records one faction's slice of a balance pass.
type FactionChange struct {
	Faction        string         `json:"faction"`
	Direction      string         `json:"direction"` // "buff" | "nerf" | "mixed"
	Summary        string         `json:"summary"`
	PointsChanges  []PointsChange `json:"points_changes,omitempty"`
	RulesChanges   []string       `json:"rules_changes,omitempty"`
	NewDetachments []string       `json:"new_detachments,omitempty"`
}

// BalanceChanges is the optional structured body of a SignificantEvent.
type BalanceChanges struct {
	CoreRules      []string        `json:"core_rules,omitempty"`
	FactionChanges []FactionChange `json:"faction_changes,omitempty"`
}

// SignificantEvent is a balance update or edition release that opens a new
// meta-epoch.
type SignificantEvent struct {
	ID         entityid.ID     `json:"id"`
	Type       string          `json:"event_type"`
	Date       time.Time       `json:"date"`
	Title      string          `json:"title"`
	SourceURL  string          `json:"source_url"`
	PDFURL     string          `json:"pdf_url,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	Changes    *BalanceChanges `json:"changes,omitempty"`
	Confidence Confidence      `json:"confidence"`
}

// NewSignificantEvent builds a SignificantEvent with its id computed from
// the identifying fields {type, date, title}.
func NewSignificantEvent(eventType string, date time.Time, title, sourceURL string) SignificantEvent {
	return SignificantEvent{
		ID:         entityid.Generate(eventType, date.Format("2006-01-02"), title),
		Type:       eventType,
		Date:       date,
		Title:      title,
		SourceURL:  sourceURL,
		Confidence: ConfidenceHigh,
	}
}

// GetID implements storage.Identifiable.
func (s SignificantEvent) GetID() string { return s.ID.String() }
