package httpapi

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// handleListBalance serves GET /api/balance: every tracked balance/edition
// pass, newest first.
func (s *Server) handleListBalance(w http.ResponseWriter, r *http.Request) {
	events, err := s.repo.significantEvents()
	if err != nil {
		writeError(w, ErrInternal, "failed to read balance passes")
		return
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.After(events[j].Date) })

	page, pageSize := paginationParams(r)
	writeOK(w, paginate(events, page, pageSize))
}

// handleGetBalance serves GET /api/balance/{id}: a single balance pass with
// its structured changes, if the watcher agent extracted any.
func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	events, err := s.repo.significantEvents()
	if err != nil {
		writeError(w, ErrInternal, "failed to read balance passes")
		return
	}
	for _, e := range events {
		if e.ID.String() == id {
			writeOK(w, e)
			return
		}
	}
	writeError(w, ErrNotFound, "no balance pass with that id")
}
