package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// clusterSimilarityThreshold is the minimum Jaccard similarity between two
// lists' unit-name sets for them to be grouped into the same archetype.
const clusterSimilarityThreshold = 0.5

// definingUnitClusterRate is the minimum share of a cluster's lists a unit
// must appear in to be considered one of the archetype's defining units.
const definingUnitClusterRate = 0.6

// definingUnitGlobalCeiling is the maximum share of all of a faction's lists
// a unit may appear in and still count as "defining" — a unit every list
// runs doesn't distinguish one archetype from another.
const definingUnitGlobalCeiling = 0.3

// ArchetypeUnit is one unit entry surfaced in a sample list.
type ArchetypeUnit struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Points int    `json:"points"`
}

// ArchetypeListEntry is one placed list belonging to an archetype cluster.
type ArchetypeListEntry struct {
	PlayerName  string           `json:"player_name"`
	Rank        int              `json:"rank"`
	EventID     string           `json:"event_id"`
	TotalPoints int              `json:"total_points"`
	Units       []ArchetypeUnit  `json:"units"`
}

// ArchetypeStat describes one cluster of similar lists within a faction.
type ArchetypeStat struct {
	Name           string                `json:"name"`
	Detachment     string                `json:"detachment"`
	DefiningUnits  []string              `json:"defining_units"`
	ListCount      int                   `json:"list_count"`
	AvgRank        float64               `json:"avg_rank"`
	AvgWinRate     float64               `json:"avg_win_rate"`
	SampleLists    []ArchetypeListEntry  `json:"sample_lists"`
}

// ArchetypesResult is the response body for the archetypes analysis.
type ArchetypesResult struct {
	Faction    string          `json:"faction"`
	Archetypes []ArchetypeStat `json:"archetypes"`
	TotalLists int             `json:"total_lists"`
}

// JoinListsToPlacements pairs army lists with the placement they belong to.
// Primary match is by ListID; when a placement has no list_id (or it
// doesn't resolve), it falls back to matching the same event plus a
// normalized player name.
func JoinListsToPlacements(lists []models.ArmyList, placements []models.Placement) map[string]models.Placement {
	listByID := make(map[string]models.ArmyList, len(lists))
	for _, l := range lists {
		listByID[l.ID.String()] = l
	}

	result := make(map[string]models.Placement)
	for _, p := range placements {
		if p.ListID != "" {
			if _, ok := listByID[p.ListID.String()]; ok {
				result[p.ListID.String()] = p
				continue
			}
		}
		normName := normalizePlayerName(p.PlayerName)
		for _, l := range lists {
			if l.EventID.String() == p.EventID.String() && normalizePlayerName(l.PlayerName) == normName {
				result[l.ID.String()] = p
				break
			}
		}
	}
	return result
}

func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Archetypes clusters a faction's army lists by unit-set similarity within
// each detachment, using greedy seed-based clustering (each unassigned list
// seeds a cluster and absorbs every later unassigned list similar enough to
// the seed itself), then names each
// cluster by its defining units and attaches performance stats drawn from
// the joined placement data.
func Archetypes(faction string, lists []models.ArmyList, placements []models.Placement) ArchetypesResult {
	factionNorm := NormalizeFactionName(faction)

	var factionLists []models.ArmyList
	for _, l := range lists {
		if NormalizeFactionName(l.Faction) == factionNorm && len(l.Units) > 0 {
			factionLists = append(factionLists, l)
		}
	}
	totalLists := len(factionLists)
	if totalLists == 0 {
		return ArchetypesResult{Faction: factionNorm, Archetypes: nil, TotalLists: 0}
	}

	unitSets := make([]map[string]struct{}, len(factionLists))
	for i, l := range factionLists {
		unitSets[i] = l.UnitNameSet()
	}

	globalFreq := make(map[string]int)
	for _, set := range unitSets {
		for unit := range set {
			globalFreq[unit]++
		}
	}

	byDetachment := make(map[string][]int)
	for i, l := range factionLists {
		det := l.Detachment
		if det == "" {
			det = "Unknown"
		}
		byDetachment[det] = append(byDetachment[det], i)
	}

	placementByListID := JoinListsToPlacements(lists, placements)

	var archetypes []ArchetypeStat
	for detachment, indices := range byDetachment {
		assigned := make([]bool, len(indices))
		var clusters [][]int

		for i := range indices {
			if assigned[i] {
				continue
			}
			cluster := []int{indices[i]}
			assigned[i] = true
			for j := i + 1; j < len(indices); j++ {
				if assigned[j] {
					continue
				}
				if jaccardSimilarity(unitSets[indices[i]], unitSets[indices[j]]) >= clusterSimilarityThreshold {
					cluster = append(cluster, indices[j])
					assigned[j] = true
				}
			}
			if len(cluster) >= 2 {
				clusters = append(clusters, cluster)
			}
		}

		for _, cluster := range clusters {
			clusterFreq := make(map[string]int)
			for _, idx := range cluster {
				for unit := range unitSets[idx] {
					clusterFreq[unit]++
				}
			}
			clusterSize := float64(len(cluster))

			var definingUnits []string
			for unit, count := range clusterFreq {
				clusterRate := float64(count) / clusterSize
				globalRate := float64(globalFreq[unit]) / float64(totalLists)
				if clusterRate >= definingUnitClusterRate && globalRate < definingUnitGlobalCeiling {
					definingUnits = append(definingUnits, unit)
				}
			}
			sort.Strings(definingUnits)

			var ranks []float64
			var winRates []float64
			for _, idx := range cluster {
				list := factionLists[idx]
				if p, ok := placementByListID[list.ID.String()]; ok {
					ranks = append(ranks, float64(p.Rank))
					if p.Record.Games() > 0 {
						winRates = append(winRates, float64(p.Record.Wins)/float64(p.Record.Games()))
					}
				}
			}
			avgRank := avgOf(ranks)
			avgWinRate := round1(rawAvg(winRates) * 100)

			name := archetypeName(detachment, definingUnits, len(cluster))

			sampleLists := make([]ArchetypeListEntry, 0, len(cluster))
			for _, idx := range cluster {
				list := factionLists[idx]
				entry := ArchetypeListEntry{
					PlayerName:  orDefault(list.PlayerName, "Unknown"),
					EventID:     list.EventID.String(),
					TotalPoints: list.TotalPoints,
				}
				if p, ok := placementByListID[list.ID.String()]; ok {
					entry.PlayerName = p.PlayerName
					entry.Rank = p.Rank
					entry.EventID = p.EventID.String()
				}
				for _, u := range list.Units {
					entry.Units = append(entry.Units, ArchetypeUnit{Name: u.Name, Count: u.ModelCount, Points: u.Points})
				}
				sampleLists = append(sampleLists, entry)
			}
			sort.Slice(sampleLists, func(i, j int) bool { return sampleLists[i].Rank < sampleLists[j].Rank })

			archetypes = append(archetypes, ArchetypeStat{
				Name:          name,
				Detachment:    detachment,
				DefiningUnits: definingUnits,
				ListCount:     len(cluster),
				AvgRank:       avgRank,
				AvgWinRate:    avgWinRate,
				SampleLists:   sampleLists,
			})
		}
	}

	sort.Slice(archetypes, func(i, j int) bool { return archetypes[i].ListCount > archetypes[j].ListCount })

	return ArchetypesResult{Faction: factionNorm, Archetypes: archetypes, TotalLists: totalLists}
}

func archetypeName(detachment string, definingUnits []string, clusterSize int) string {
	if len(definingUnits) == 0 {
		return fmt.Sprintf("%s %d", detachment, clusterSize)
	}
	take := definingUnits
	if len(take) > 3 {
		take = take[:3]
	}
	return strings.Join(take, " + ")
}

func avgOf(values []float64) float64 {
	return round1(rawAvg(values))
}

func rawAvg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
