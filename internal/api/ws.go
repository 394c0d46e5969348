package api

import (
	"net/http"
)

// handleWS hands the connection to the live-update hub. Authentication has
// already happened in the middleware (header or ?token= query parameter).
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.respondError(w, http.StatusServiceUnavailable, "ws_disabled", "live updates are not running")
		return
	}

	s.hub.HandleWS(w, r)
}
