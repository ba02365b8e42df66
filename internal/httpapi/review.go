package httpapi

import "net/http"

// handleListReviewQueue serves GET /api/review-queue: every item an agent
// extraction or fact-check pass flagged for human attention, optionally
// filtered to only the unresolved ones via ?resolved=. Read-only; resolving
// an item is an operator action outside this HTTP surface.
func (s *Server) handleListReviewQueue(w http.ResponseWriter, r *http.Request) {
	all, err := s.queue.All()
	if err != nil {
		writeError(w, ErrInternal, "failed to read review queue")
		return
	}

	out := all
	if v := r.URL.Query().Get("resolved"); v != "" {
		want := v == "true" || v == "1"
		filtered := out[:0:0]
		for _, item := range all {
			if item.Resolved == want {
				filtered = append(filtered, item)
			}
		}
		out = filtered
	}

	page, pageSize := paginationParams(r)
	writeOK(w, paginate(out, page, pageSize))
}
