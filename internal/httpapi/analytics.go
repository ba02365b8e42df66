package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/analytics"
	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// handleOverview serves GET /api/analytics/overview: dashboard-landing-page
// totals and hero numbers.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
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

	writeOK(w, analytics.BuildOverview(events, placements, lists, s.mapper))
}

// handleTrends serves GET /api/analytics/trends: per-epoch meta share and
// win rate for the requested factions (repeated ?faction= params), or the
// top 10 factions overall when none are given.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}

	writeOK(w, analytics.Trends(placements, s.mapper.AllEpochs(), r.URL.Query()["faction"]))
}

// handlePlayers serves GET /api/analytics/players: every player's aggregate
// record and recent-results tail, ranked by event count then win rate.
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}
	events, err := s.repo.allEvents()
	if err != nil {
		writeError(w, ErrInternal, "failed to read events")
		return
	}

	placements = s.pindex.canonicalizePlacements(r.Context(), placements)
	result := analytics.TopPlayers(placements, eventsByID(events))
	page, pageSize := paginationParams(r)
	writeOK(w, paginate(result.Players, page, pageSize))
}

// handleUnits serves GET /api/analytics/units: how often each unit appears
// across every army list on file, optionally restricted to one faction.
func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	lists, err := s.repo.allArmyLists()
	if err != nil {
		writeError(w, ErrInternal, "failed to read army lists")
		return
	}
	if faction := r.URL.Query().Get("faction"); faction != "" {
		canonical := analytics.NormalizeFactionName(faction)
		scoped := lists[:0:0]
		for _, l := range lists {
			if analytics.NormalizeFactionName(l.Faction) == canonical {
				scoped = append(scoped, l)
			}
		}
		lists = scoped
	}

	units := analytics.UnitPopularityAnalysis(lists)
	page, pageSize := paginationParams(r)
	writeOK(w, paginate(units, page, pageSize))
}

// handleDetachments serves GET /api/analytics/detachments: placement count
// and win rate per detachment, optionally restricted to one faction.
func (s *Server) handleDetachments(w http.ResponseWriter, r *http.Request) {
	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}
	if faction := r.URL.Query().Get("faction"); faction != "" {
		canonical := analytics.NormalizeFactionName(faction)
		scoped := placements[:0:0]
		for _, p := range placements {
			if analytics.NormalizeFactionName(p.Faction) == canonical {
				scoped = append(scoped, p)
			}
		}
		placements = scoped
	}

	dets := analytics.DetachmentPopularityAnalysis(placements)
	page, pageSize := paginationParams(r)
	writeOK(w, paginate(dets, page, pageSize))
}

// handleUnitPerformance serves GET /api/analytics/unit-performance: each
// unit's over-representation among top-4 finishes, optionally restricted to
// one faction via ?faction=.
func (s *Server) handleUnitPerformance(w http.ResponseWriter, r *http.Request) {
	lists, err := s.repo.allArmyLists()
	if err != nil {
		writeError(w, ErrInternal, "failed to read army lists")
		return
	}
	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}

	result := analytics.UnitPerformanceAnalysis(lists, placements, r.URL.Query().Get("faction"))
	page, pageSize := paginationParams(r)
	writeOK(w, paginate(result.Units, page, pageSize))
}

// handlePointsEfficiency serves GET /api/analytics/points-efficiency: each
// faction's win rate normalized per 100 average list points.
func (s *Server) handlePointsEfficiency(w http.ResponseWriter, r *http.Request) {
	lists, err := s.repo.allArmyLists()
	if err != nil {
		writeError(w, ErrInternal, "failed to read army lists")
		return
	}
	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}

	result := analytics.PointsEfficiencyAnalysis(lists, placements)
	page, pageSize := paginationParams(r)
	writeOK(w, paginate(result.Factions, page, pageSize))
}

// handleMatchups serves GET /api/analytics/matchups: pairwise faction win
// rates derived from recorded pairings.
func (s *Server) handleMatchups(w http.ResponseWriter, r *http.Request) {
	pairings, err := s.repo.allPairings()
	if err != nil {
		writeError(w, ErrInternal, "failed to read pairings")
		return
	}

	var result analytics.MatchupsResult
	cacheErr := s.cache.getOrCompute(r.Context(), "matchups", &result, func() (interface{}, error) {
		return analytics.Matchups(pairings), nil
	})
	if cacheErr != nil {
		writeError(w, ErrInternal, "failed to compute matchups")
		return
	}

	page, pageSize := paginationParams(r)
	writeOK(w, paginate(result.Matchups, page, pageSize))
}

// handleArchetypes serves GET /api/analytics/archetypes?faction=: the
// similarity-clustered list archetypes within one faction.
func (s *Server) handleArchetypes(w http.ResponseWriter, r *http.Request) {
	faction := r.URL.Query().Get("faction")
	if faction == "" {
		writeError(w, ErrBadRequest, fieldErr("faction").Error())
		return
	}

	lists, err := s.repo.allArmyLists()
	if err != nil {
		writeError(w, ErrInternal, "failed to read army lists")
		return
	}
	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}
	lists = s.pindex.canonicalizeArmyLists(r.Context(), lists)
	placements = s.pindex.canonicalizePlacements(r.Context(), placements)

	canonical := analytics.NormalizeFactionName(faction)
	var result analytics.ArchetypesResult
	cacheErr := s.cache.getOrCompute(r.Context(), "archetypes:"+canonical, &result, func() (interface{}, error) {
		return analytics.Archetypes(canonical, lists, placements), nil
	})
	if cacheErr != nil {
		writeError(w, ErrInternal, "failed to compute archetypes")
		return
	}
	writeOK(w, result)
}

// parseDateRange reads the optional from/to date query parameters shared by
// the analytics handlers. It does not read ?k=.
func parseDateRange(q map[string][]string) (from, to *time.Time, err error) {
	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	if v := get("from"); v != "" {
		t, parseErr := time.Parse("2006-01-02", v)
		if parseErr != nil {
			return nil, nil, fieldErr("from")
		}
		from = &t
	}
	if v := get("to"); v != "" {
		t, parseErr := time.Parse("2006-01-02", v)
		if parseErr != nil {
			return nil, nil, fieldErr("to")
		}
		to = &t
	}
	return from, to, nil
}

// handleWinRates serves GET /api/analytics/win-rates: regressed win rates
// per faction, with survivorship-biased events excluded.
func (s *Server) handleWinRates(w http.ResponseWriter, r *http.Request) {
	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}
	events, err := s.repo.allEvents()
	if err != nil {
		writeError(w, ErrInternal, "failed to read events")
		return
	}

	q := r.URL.Query()
	from, to, err := parseDateRange(q)
	if err != nil {
		writeError(w, ErrBadRequest, err.Error())
		return
	}
	params := analytics.WinRatesParams{FromDate: from, ToDate: to}
	if v := q.Get("k"); v != "" {
		k, parseErr := strconv.Atoi(v)
		if parseErr != nil {
			writeError(w, ErrBadRequest, fieldErr("k").Error())
			return
		}
		params.MinGames = k
	}
	if v := q.Get("min_players"); v != "" {
		n, parseErr := strconv.Atoi(v)
		if parseErr != nil {
			writeError(w, ErrBadRequest, fieldErr("min_players").Error())
			return
		}
		params.MinPlayers = n
	}

	filtered := filterPlacementsByDate(placements, eventsByID(events), from, to)
	result := analytics.WinRates(filtered, eventsByID(events), params)
	page, pageSize := paginationParams(r)
	writeOK(w, paginate(result.Factions, page, pageSize))
}

// handleCompositeScores serves GET /api/analytics/composite-scores: the
// meta_threat/expected_podiums/balance_deviation/power_index composite
// metrics per faction.
func (s *Server) handleCompositeScores(w http.ResponseWriter, r *http.Request) {
	placements, err := s.repo.allPlacements()
	if err != nil {
		writeError(w, ErrInternal, "failed to read placements")
		return
	}
	events, err := s.repo.allEvents()
	if err != nil {
		writeError(w, ErrInternal, "failed to read events")
		return
	}

	q := r.URL.Query()
	from, to, err := parseDateRange(q)
	if err != nil {
		writeError(w, ErrBadRequest, err.Error())
		return
	}
	params := analytics.CompositeScoresParams{FromDate: from, ToDate: to}
	if v := q.Get("min_players"); v != "" {
		n, parseErr := strconv.Atoi(v)
		if parseErr != nil {
			writeError(w, ErrBadRequest, fieldErr("min_players").Error())
			return
		}
		params.MinPlayers = n
	}

	cacheKey := fmt.Sprintf("composite:%v:%v:%d", from, to, params.MinPlayers)
	var result analytics.CompositeScoresResult
	cacheErr := s.cache.getOrCompute(r.Context(), cacheKey, &result, func() (interface{}, error) {
		filtered := filterPlacementsByDate(placements, eventsByID(events), from, to)
		return analytics.CompositeScores(filtered, eventsByID(events), params), nil
	})
	if cacheErr != nil {
		writeError(w, ErrInternal, "failed to compute composite scores")
		return
	}

	page, pageSize := paginationParams(r)
	writeOK(w, paginate(result.Factions, page, pageSize))
}

// filterPlacementsByDate drops placements whose event falls outside
// [from, to], either bound optional.
func filterPlacementsByDate(placements []models.Placement, events map[string]models.Event, from, to *time.Time) []models.Placement {
	if from == nil && to == nil {
		return placements
	}
	out := make([]models.Placement, 0, len(placements))
	for _, p := range placements {
		e, ok := events[p.EventID.String()]
		if !ok {
			continue
		}
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && e.Date.After(*to) {
			continue
		}
		out = append(out, p)
	}
	return out
}
