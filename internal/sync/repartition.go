package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/entityid"
	"github.com/dabbslondon/tourney-tracker/internal/epoch"
	"github.com/dabbslondon/tourney-tracker/internal/models"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
)

// RepartitionResult reports how many of each entity ended up in each epoch.
type RepartitionResult struct {
	EventsByEpoch     map[string]int
	PlacementsByEpoch map[string]int
	ListsByEpoch      map[string]int
}

// Repartition rebuilds the epoch mapper from the significant-events
// partition, reassigns every event/placement/army-list currently stored
// under sourceEpoch to its correct epoch, and rewrites the per-epoch
// partitions. It is invoked whenever a balance pass opens a new meta-epoch
// after data was already ingested under the old one.
//
// Placements follow their event's destination epoch (falling back to
// sourceEpoch if their event wasn't found). Lists prefer their own
// EventDate for epoch assignment, falling back to matching SourceURL
// against an event's source URL.
//
// When dryRun is true, counts are computed but nothing is written. Unless
// keepOriginals is true, sourceEpoch's directory is renamed to
// "<sourceEpoch>.bak" after a successful write (an existing backup is never
// overwritten).
func Repartition(cfg storage.Config, sourceEpoch string, dryRun, keepOriginals bool, logger *zap.SugaredLogger) (RepartitionResult, error) {
	sigStore := storage.NewJsonlStore[models.SignificantEvent](cfg, storage.EntitySignificantEvent).WithLogger(logger)
	sigEvents, err := sigStore.ReadAll(globalEpoch)
	if err != nil {
		return RepartitionResult{}, err
	}
	if len(sigEvents) == 0 {
		return RepartitionResult{}, fmt.Errorf("sync: no significant events found, register a balance pass first")
	}
	mapper := epoch.FromSignificantEvents(sigEvents)

	eventStore := storage.NewJsonlStore[models.Event](cfg, storage.EntityEvent).WithLogger(logger)
	placementStore := storage.NewJsonlStore[models.Placement](cfg, storage.EntityPlacement).WithLogger(logger)
	listStore := storage.NewJsonlStore[models.ArmyList](cfg, storage.EntityArmyList).WithLogger(logger)

	events, err := eventStore.ReadAll(sourceEpoch)
	if err != nil {
		return RepartitionResult{}, err
	}
	placements, err := placementStore.ReadAll(sourceEpoch)
	if err != nil {
		return RepartitionResult{}, err
	}
	lists, err := listStore.ReadAll(sourceEpoch)
	if err != nil {
		return RepartitionResult{}, err
	}

	eventsByEpoch := make(map[string][]models.Event)
	eventEpochByID := make(map[string]string)
	eventSourceToEpoch := make(map[string]string)

	for _, event := range events {
		epochID := mapper.GetEpochIDForDate(event.Date)
		event.EpochID = epochID
		eventEpochByID[event.ID.String()] = epochID.String()
		eventSourceToEpoch[event.SourceURL] = epochID.String()
		eventsByEpoch[epochID.String()] = append(eventsByEpoch[epochID.String()], event)
	}

	placementsByEpoch := make(map[string][]models.Placement)
	for _, placement := range placements {
		epochStr, ok := eventEpochByID[placement.EventID.String()]
		if !ok {
			epochStr = sourceEpoch
		}
		placement.EpochID = entityid.ID(epochStr)
		placementsByEpoch[epochStr] = append(placementsByEpoch[epochStr], placement)
	}

	listsByEpoch := make(map[string][]models.ArmyList)
	for _, list := range lists {
		var epochStr string
		switch {
		case list.EventDate != nil:
			epochStr = mapper.GetEpochIDForDate(*list.EventDate).String()
		case eventSourceToEpoch[list.SourceURL] != "":
			epochStr = eventSourceToEpoch[list.SourceURL]
		default:
			epochStr = sourceEpoch
		}
		listsByEpoch[epochStr] = append(listsByEpoch[epochStr], list)
	}

	epochIDSet := make(map[string]struct{})
	for id := range eventsByEpoch {
		epochIDSet[id] = struct{}{}
	}
	for id := range placementsByEpoch {
		epochIDSet[id] = struct{}{}
	}
	for id := range listsByEpoch {
		epochIDSet[id] = struct{}{}
	}
	epochIDs := make([]string, 0, len(epochIDSet))
	for id := range epochIDSet {
		epochIDs = append(epochIDs, id)
	}
	sort.Strings(epochIDs)

	result := RepartitionResult{
		EventsByEpoch:     make(map[string]int),
		PlacementsByEpoch: make(map[string]int),
		ListsByEpoch:      make(map[string]int),
	}
	for _, id := range epochIDs {
		result.EventsByEpoch[id] = len(eventsByEpoch[id])
		result.PlacementsByEpoch[id] = len(placementsByEpoch[id])
		result.ListsByEpoch[id] = len(listsByEpoch[id])
	}

	if dryRun {
		return result, nil
	}

	for _, id := range epochIDs {
		if evts, ok := eventsByEpoch[id]; ok {
			if err := eventStore.Rewrite(id, evts); err != nil {
				return result, err
			}
		}
		if plcs, ok := placementsByEpoch[id]; ok {
			if err := placementStore.Rewrite(id, plcs); err != nil {
				return result, err
			}
		}
		if lsts, ok := listsByEpoch[id]; ok {
			if err := listStore.Rewrite(id, lsts); err != nil {
				return result, err
			}
		}
	}

	if !keepOriginals {
		srcDir := filepath.Join(cfg.NormalizedDir(), sourceEpoch)
		bakDir := filepath.Join(cfg.NormalizedDir(), sourceEpoch+".bak")
		if _, err := os.Stat(srcDir); err == nil {
			if _, err := os.Stat(bakDir); os.IsNotExist(err) {
				if err := os.Rename(srcDir, bakDir); err != nil {
					return result, fmt.Errorf("sync: backing up %s: %w", sourceEpoch, err)
				}
			}
		}
	}

	return result, nil
}
