package httpapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// eventResponse is the trimmed event shape served by the list endpoint.
type eventResponse struct {
	models.Event
	HasResults bool `json:"has_results"`
}

// handleListEvents serves GET /api/events, filterable by from/to date,
// epoch id, and whether the event has any recorded placements.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.repo.allEvents()
	if err != nil {
		writeError(w, ErrInternal, "failed to read events")
		return
	}
	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}

	hasResults := make(map[string]bool, len(placements))
	for _, p := range placements {
		hasResults[p.EventID.String()] = true
	}

	q := r.URL.Query()
	var fromFilter, toFilter *time.Time
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, ErrBadRequest, `invalid value for query parameter "from"`)
			return
		}
		fromFilter = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, ErrBadRequest, `invalid value for query parameter "to"`)
			return
		}
		toFilter = &t
	}
	epochFilter := q.Get("epoch")
	var hasResultsFilter *bool
	if v := q.Get("has_results"); v != "" {
		b := v == "true" || v == "1"
		hasResultsFilter = &b
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		if fromFilter != nil && e.Date.Before(*fromFilter) {
			continue
		}
		if toFilter != nil && e.Date.After(*toFilter) {
			continue
		}
		if epochFilter != "" && e.EpochID.String() != epochFilter {
			continue
		}
		hr := hasResults[e.ID.String()]
		if hasResultsFilter != nil && hr != *hasResultsFilter {
			continue
		}
		out = append(out, eventResponse{Event: e, HasResults: hr})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })

	page, pageSize := paginationParams(r)
	writeOK(w, paginate(out, page, pageSize))
}

// eventDetail bundles one event with its placements and joined army lists.
type eventDetail struct {
	models.Event
	Placements []placementWithList `json:"placements"`
}

type placementWithList struct {
	models.Placement
	List *models.ArmyList `json:"list,omitempty"`
}

// handleGetEvent serves GET /api/events/{id}: one event plus its placements,
// each joined to its army list when one exists.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	events, err := s.repo.allEvents()
	if err != nil {
		writeError(w, ErrInternal, "failed to read events")
		return
	}
	var event *models.Event
	for i := range events {
		if events[i].ID.String() == id {
			event = &events[i]
			break
		}
	}
	if event == nil {
		writeError(w, ErrNotFound, "no event with that id")
		return
	}

	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}
	lists, err := s.repo.allArmyLists()
	if err != nil {
		writeError(w, ErrInternal, "failed to read army lists")
		return
	}
	listsByID := make(map[string]models.ArmyList, len(lists))
	for _, l := range lists {
		listsByID[l.ID.String()] = l
	}

	var joined []placementWithList
	for _, p := range placements {
		if p.EventID.String() != id {
			continue
		}
		pwl := placementWithList{Placement: p}
		if l, ok := listsByID[p.ListID.String()]; ok && !p.ListID.IsZero() {
			list := l
			pwl.List = &list
		}
		joined = append(joined, pwl)
	}
	sort.Slice(joined, func(i, j int) bool { return joined[i].Rank < joined[j].Rank })

	writeOK(w, eventDetail{Event: *event, Placements: joined})
}
