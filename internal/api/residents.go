package api

import (
	"net/http"
	"strconv"
)

func (s *Server) handleListResidents(w http.ResponseWriter, r *http.Request) {
	residents, err := s.svc.ListResidents(r.Context(), r.URL.Query().Get("household_id"))
	if err != nil {
		s.logger.WithError(err).Error("failed to list residents")
		s.respondError(w, http.StatusInternalServerError, "internal", "failed to list residents")
		return
	}

	s.respondJSON(w, http.StatusOK, residents)
}

func (s *Server) handleUnbindResident(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(r.PathValue("chat_id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "bad_request", "chat_id must be an integer")
		return
	}

	if err := s.svc.UnbindResident(r.Context(), chatID); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	households, err := s.svc.ListHouseholds(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list households")
		s.respondError(w, http.StatusInternalServerError, "internal", "failed to list households")
		return
	}

	s.respondJSON(w, http.StatusOK, households)
}

func (s *Server) handleHouseholdSummary(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.HouseholdSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, detail)
}
