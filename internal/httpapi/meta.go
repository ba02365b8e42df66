package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dabbslondon/tourney-tracker/internal/analytics"
)

// handleMetaFactions serves GET /api/meta/factions: every faction's current
// meta share, ranked by placement count.
func (s *Server) handleMetaFactions(w http.ResponseWriter, r *http.Request) {
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

	entries := analytics.MetaFactions(placements, lists)
	page, pageSize := paginationParams(r)
	writeOK(w, paginate(entries, page, pageSize))
}

// handleMetaFactionDetail serves GET /api/meta/factions/{name}: one
// faction's recent winners plus its full unit-popularity breakdown.
func (s *Server) handleMetaFactionDetail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, ErrBadRequest, fieldErr("name").Error())
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

	writeOK(w, analytics.FactionDetail(name, placements, lists))
}
