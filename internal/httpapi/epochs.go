package httpapi

import "net/http"

// handleListEpochs serves GET /api/epochs: the full meta-epoch timeline,
// oldest first, exactly as held by the shared epoch mapper.
func (s *Server) handleListEpochs(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.mapper.AllEpochs())
}
