package httpapi

import "net/http"

// localhostOnly rejects any request carrying a CF-Connecting-IP header, the
// Cloudflare-injected indicator that a request was proxied rather than
// originating from the machine running the process. POST /api/refresh is
// an operator action, not part of the public read surface, and must not be
// reachable through a fronting proxy.
func (s *Server) localhostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("CF-Connecting-IP") != "" {
			writeError(w, ErrForbidden, "this endpoint is only reachable from localhost")
			return
		}
		next.ServeHTTP(w, r)
	})
}
