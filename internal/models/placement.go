package models

import (
	"strconv"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
)

// Record is a player's win/loss/draw tally at one event.
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// Placement is one player's final standing at one event.
type Placement struct {
	ID           entityid.ID `json:"id"`
	EventID      entityid.ID `json:"event_id"`
	EpochID      entityid.ID `json:"epoch_id"`
	Rank         int         `json:"rank"`
	PlayerName   string      `json:"player_name"`
	Faction      string      `json:"faction"`
	Subfaction   string      `json:"subfaction,omitempty"`
	Detachment   string      `json:"detachment,omitempty"`
	Allegiance   string      `json:"allegiance,omitempty"`
	Record       Record      `json:"record"`
	BattlePoints int         `json:"battle_points"`
	ListID       entityid.ID `json:"list_id,omitempty"`
	Confidence   Confidence  `json:"confidence"`
}

// NewPlacement builds a Placement with its id computed from the identifying
// fields {event_id, rank, player_name}.
func NewPlacement(eventID, epochID entityid.ID, rank int, playerName, faction string) Placement {
	return Placement{
		ID:         entityid.Generate(eventID.String(), strconv.Itoa(rank), playerName),
		EventID:    eventID,
		EpochID:    epochID,
		Rank:       rank,
		PlayerName: playerName,
		Faction:    faction,
		Confidence: ConfidenceHigh,
	}
}

// WithSubfaction sets the subfaction.
func (p Placement) WithSubfaction(s string) Placement { p.Subfaction = s; return p }

// WithDetachment sets the detachment.
func (p Placement) WithDetachment(d string) Placement { p.Detachment = d; return p }

// WithRecord sets the win/loss/draw record.
func (p Placement) WithRecord(w, l, d int) Placement {
	p.Record = Record{Wins: w, Losses: l, Draws: d}
	return p
}

// WithBattlePoints sets the battle points total.
func (p Placement) WithBattlePoints(bp int) Placement { p.BattlePoints = bp; return p }

// WithConfidence sets the confidence.
func (p Placement) WithConfidence(c Confidence) Placement { p.Confidence = c; return p }

// Games is the total number of games played (wins+losses+draws).
func (r Record) Games() int {
	return r.Wins + r.Losses + r.Draws
}

// GetID implements storage.Identifiable.
func (p Placement) GetID() string { return p.ID.String() }
