package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/sync"
)

const refreshTimeout = 30 * time.Minute

// refreshPreviewResult is the planning-only response body for
// GET /api/refresh/preview: how much work a refresh over the requested
// window would touch, without doing any of it.
type refreshPreviewResult struct {
	From             string `json:"from"`
	To               string `json:"to"`
	KnownEvents      int    `json:"known_events"`
	KnownPlacements  int    `json:"known_placements"`
	KnownArmyLists   int    `json:"known_army_lists"`
	RefreshRunning   bool   `json:"refresh_running"`
}

// handleRefreshPreview reports counts of already-known entities so a caller
// can gauge the scale of a prospective refresh before triggering one. It
// never touches the network or the LLM backend.
func (s *Server) handleRefreshPreview(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateWindow(r)
	if err != nil {
		writeError(w, ErrBadRequest, err.Error())
		return
	}

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
	lists, err := s.repo.allArmyLists()
	if err != nil {
		writeError(w, ErrInternal, "failed to read army lists")
		return
	}

	knownEvents := 0
	for _, e := range events {
		if !e.Date.Before(from) && !e.Date.After(to) {
			knownEvents++
		}
	}

	writeOK(w, refreshPreviewResult{
		From:            from.Format("2006-01-02"),
		To:              to.Format("2006-01-02"),
		KnownEvents:     knownEvents,
		KnownPlacements: len(placements),
		KnownArmyLists:  len(lists),
		RefreshRunning:  s.orchestrator.IsRunning(),
	})
}

// handleStartRefresh starts a refresh run in the background and returns
// immediately with its initial state. A second call while one is already
// running is rejected with 409 Conflict: only one refresh may be in flight
// at a time.
func (s *Server) handleStartRefresh(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator.IsRunning() {
		writeError(w, ErrConflict, "a refresh is already running")
		return
	}

	from, to, err := parseDateWindow(r)
	if err != nil {
		writeError(w, ErrBadRequest, err.Error())
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := s.orchestrator.Run(ctx, sync.DateWindow{From: from, To: to}); err != nil {
			s.logger.Warnw("refresh run returned an error", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, s.orchestrator.State())
}

// handleRefreshStatus reports the current (or last completed) refresh run.
func (s *Server) handleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.orchestrator.State())
}

func parseDateWindow(r *http.Request) (from, to time.Time, err error) {
	to = time.Now().UTC()
	from = to.AddDate(0, -3, 0)

	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fieldErr("from")
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fieldErr("to")
		}
	}
	return from, to, nil
}
