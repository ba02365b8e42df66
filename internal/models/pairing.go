package models

import (
	"strconv"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
)

// Result is the numeric outcome code the source platform uses per player:
// 2 = win, 1 = draw, 0 = loss.
type Result int

const (
	ResultLoss Result = 0
	ResultDraw Result = 1
	ResultWin  Result = 2
)

// PairingPlayer is one side of a pairing.
type PairingPlayer struct {
	PlayerID    string `json:"player_id"`
	PlayerName  string `json:"player_name"`
	Faction     string `json:"faction,omitempty"`
	Result      Result `json:"result"`
	GamePoints  int    `json:"game_points"`
}

// Pairing is one round's game between two players at one event.
type Pairing struct {
	ID      entityid.ID   `json:"id"`
	EventID entityid.ID   `json:"event_id"`
	Round   int           `json:"round"`
	Player1 PairingPlayer `json:"player1"`
	Player2 PairingPlayer `json:"player2"`
}

// NewPairing builds a Pairing with its id computed from the identifying
// fields {event_id, round, player1, player2}.
func NewPairing(eventID entityid.ID, round int, p1, p2 PairingPlayer) Pairing {
	return Pairing{
		ID:      entityid.Generate(eventID.String(), strconv.Itoa(round), p1.PlayerID, p2.PlayerID),
		EventID: eventID,
		Round:   round,
		Player1: p1,
		Player2: p2,
	}
}

// GetID implements storage.Identifiable.
func (p Pairing) GetID() string { return p.ID.String() }
