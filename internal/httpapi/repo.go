// Package httpapi implements the read-only HTTP query surface described by
// the system's external interface: pagination, error envelopes, and the
// analytics/event/epoch/balance/refresh/traffic endpoints.
package httpapi

import (
	"sort"

	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/epoch"
	"github.com/dabbslondon/tourney-tracker/internal/models"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
)

// repo loads entities across every epoch partition on disk. It holds no
// cache of its own: callers that need repeated reads within one request
// should call once and share the slices, and the singleflight-backed
// analytics cache (cache.go) is what protects the filesystem from duplicate
// concurrent work across requests.
type repo struct {
	cfg    storage.Config
	logger *zap.SugaredLogger
}

func newRepo(cfg storage.Config, logger *zap.SugaredLogger) *repo {
	return &repo{cfg: cfg, logger: logger}
}

func (r *repo) epochIDs() ([]string, error) {
	store := storage.NewJsonlStore[models.Event](r.cfg, storage.EntityEvent)
	ids, err := store.EpochIDs()
	if err != nil {
		return nil, err
	}
	hasPreTracking := false
	for _, id := range ids {
		if id == epoch.PreTrackingEpochID.String() {
			hasPreTracking = true
			break
		}
	}
	if !hasPreTracking {
		ids = append(ids, epoch.PreTrackingEpochID.String())
	}
	return ids, nil
}

func (r *repo) allEvents() ([]models.Event, error) {
	ids, err := r.epochIDs()
	if err != nil {
		return nil, err
	}
	store := storage.NewJsonlStore[models.Event](r.cfg, storage.EntityEvent).WithLogger(r.logger)
	var out []models.Event
	for _, id := range ids {
		recs, err := store.ReadAll(id)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *repo) allPlacements() ([]models.Placement, error) {
	ids, err := r.epochIDs()
	if err != nil {
		return nil, err
	}
	store := storage.NewJsonlStore[models.Placement](r.cfg, storage.EntityPlacement).WithLogger(r.logger)
	var out []models.Placement
	for _, id := range ids {
		recs, err := store.ReadAll(id)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (r *repo) allArmyLists() ([]models.ArmyList, error) {
	ids, err := r.epochIDs()
	if err != nil {
		return nil, err
	}
	store := storage.NewJsonlStore[models.ArmyList](r.cfg, storage.EntityArmyList).WithLogger(r.logger)
	var out []models.ArmyList
	for _, id := range ids {
		recs, err := store.ReadAll(id)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (r *repo) allPairings() ([]models.Pairing, error) {
	ids, err := r.epochIDs()
	if err != nil {
		return nil, err
	}
	store := storage.NewJsonlStore[models.Pairing](r.cfg, storage.EntityPairing).WithLogger(r.logger)
	var out []models.Pairing
	for _, id := range ids {
		recs, err := store.ReadAll(id)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (r *repo) significantEvents() ([]models.SignificantEvent, error) {
	store := storage.NewJsonlStore[models.SignificantEvent](r.cfg, storage.EntitySignificantEvent).WithLogger(r.logger)
	return store.ReadAll("_global")
}

// eventsByID indexes events by their content-addressed id for O(1) joins.
func eventsByID(events []models.Event) map[string]models.Event {
	out := make(map[string]models.Event, len(events))
	for _, e := range events {
		out[e.ID.String()] = e
	}
	return out
}
