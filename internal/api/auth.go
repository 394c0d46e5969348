package api

import (
	"net/http"
	"strings"
	"time"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "bad_request", "username and password are required")
		return
	}

	admin, err := s.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	token, expiresAt, err := generateJWT(admin.Username)
	if err != nil {
		s.logger.WithError(err).Error("failed to sign session token")
		s.respondError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	s.respondJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}
