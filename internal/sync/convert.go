package sync

import (
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/bcp"
	"github.com/dabbslondon/tourney-tracker/internal/entityid"
	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// eventFromBCP converts a source-platform event into a stored Event,
// assigning it to epochID (or "current" if empty).
func eventFromBCP(e bcp.Event, epochID entityid.ID) models.Event {
	if epochID == "" {
		epochID = "current"
	}
	date := time.Now().UTC()
	if d, ok := e.ParsedStartDate(); ok {
		date = d
	}

	event := models.NewEvent(e.Name, date, e.LocationString(), e.URL(), "bcp", epochID)
	if e.PlayerCount > 0 {
		event = event.WithPlayerCount(e.PlayerCount)
	}
	if e.RoundCount > 0 {
		event = event.WithRoundCount(e.RoundCount)
	}
	event.TeamEvent = e.TeamEvent
	event.HiddenPlacings = e.HidePlacings
	return event
}

// findDuplicateEvent reports whether an equivalent event (by content-address
// id) already exists among a set of previously stored events.
func findDuplicateEvent(event models.Event, existing []models.Event) bool {
	for _, e := range existing {
		if e.ID == event.ID {
			return true
		}
	}
	return false
}

// placementFromStanding converts a computed BCP standing into a stored
// Placement.
func placementFromStanding(standing bcp.Standing, eventID, epochID entityid.ID) models.Placement {
	placement := models.NewPlacement(eventID, epochID, standing.Placing, standing.PlayerName, standing.Faction)
	return placement.WithRecord(standing.Wins, standing.Losses, standing.Draws).
		WithBattlePoints(standing.TotalBattlePoints)
}

// pairingFromBCP converts one source-platform pairing into a stored Pairing,
// reading the win/loss/draw result codes out of the pairing's metadata
// (player objects themselves carry no result).
func pairingFromBCP(p bcp.Pairing, eventID entityid.ID) models.Pairing {
	p1 := models.PairingPlayer{}
	p2 := models.PairingPlayer{}

	if p.Player1 != nil {
		p1.PlayerID = p.Player1.ID
		p1.PlayerName = p.Player1.FullName()
		p1.Faction = p.Player1.ArmyName
	}
	if p.Player2 != nil {
		p2.PlayerID = p.Player2.ID
		p2.PlayerName = p.Player2.FullName()
		p2.Faction = p.Player2.ArmyName
	}
	if p.MetaData != nil {
		if p.MetaData.P1GameResult != nil {
			p1.Result = models.Result(*p.MetaData.P1GameResult)
		}
		if p.MetaData.P1GamePoints != nil {
			p1.GamePoints = int(*p.MetaData.P1GamePoints)
		}
		if p.MetaData.P2GameResult != nil {
			p2.Result = models.Result(*p.MetaData.P2GameResult)
		}
		if p.MetaData.P2GamePoints != nil {
			p2.GamePoints = int(*p.MetaData.P2GamePoints)
		}
	}

	return models.NewPairing(eventID, p.Round, p1, p2)
}
