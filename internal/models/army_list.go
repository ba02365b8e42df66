package models

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
)

// Unit is a single entry in an army list.
type Unit struct {
	Name       string   `json:"name"`
	ModelCount int      `json:"model_count"`
	Points     int      `json:"points"`
	Wargear    []string `json:"wargear,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// ArmyList is the ordered sequence of units a player brought to an event.
type ArmyList struct {
	ID          entityid.ID `json:"id"`
	Faction     string      `json:"faction"`
	Subfaction  string      `json:"subfaction,omitempty"`
	Detachment  string      `json:"detachment"`
	TotalPoints int         `json:"total_points"`
	Units       []Unit      `json:"units"`
	RawText     string      `json:"raw_text,omitempty"`
	SourceURL   string      `json:"source_url,omitempty"`
	EventID     entityid.ID `json:"event_id,omitempty"`
	EventDate   *time.Time  `json:"event_date,omitempty"`
	PlayerName  string      `json:"player_name"`
	Confidence  Confidence  `json:"confidence"`
}

// NewArmyList builds an ArmyList with its id computed from the identifying
// fields {faction, detachment, sorted unit names, total_points}. If
// totalPoints is 0 the sum of unit points is used instead.
func NewArmyList(faction, detachment string, units []Unit, totalPoints int) ArmyList {
	if totalPoints == 0 {
		for _, u := range units {
			totalPoints += u.Points
		}
	}
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	return ArmyList{
		ID:          entityid.Generate(faction, detachment, strings.Join(sorted, ","), strconv.Itoa(totalPoints)),
		Faction:     faction,
		Detachment:  detachment,
		Units:       units,
		TotalPoints: totalPoints,
		Confidence:  ConfidenceHigh,
	}
}

// UnitNameSet returns the set of unique unit names in the list, used for
// Jaccard similarity comparisons during archetype clustering.
func (a ArmyList) UnitNameSet() map[string]struct{} {
	set := make(map[string]struct{}, len(a.Units))
	for _, u := range a.Units {
		set[u.Name] = struct{}{}
	}
	return set
}

// GetID implements storage.Identifiable.
func (a ArmyList) GetID() string { return a.ID.String() }
