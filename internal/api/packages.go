package api

import (
	"net/http"
	"time"

	"parceldesk/internal/models"
	"parceldesk/internal/repository"
)

type logPackageRequest struct {
	Barcode     string `json:"barcode"`
	HouseholdID string `json:"household_id"`
	Recipient   string `json:"recipient"`
}

type confirmPickupRequest struct {
	Code      string `json:"code"`
	Signature string `json:"signature"`
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filters repository.PackageFilters

	filters.HouseholdID = q.Get("household_id")
	if status := q.Get("status"); status != "" {
		st := models.PackageStatus(status)
		filters.Status = &st
	}
	filters.OverdueOnly = q.Get("overdue") == "true"

	packages, err := s.svc.ListPackages(r.Context(), filters)
	if err != nil {
		s.logger.WithError(err).Error("failed to list packages")
		s.respondError(w, http.StatusInternalServerError, "internal", "failed to list packages")
		return
	}

	s.respondJSON(w, http.StatusOK, packages)
}

func (s *Server) handleLogPackage(w http.ResponseWriter, r *http.Request) {
	var req logPackageRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	pkg, err := s.svc.LogPackage(r.Context(), req.Barcode, req.HouseholdID, req.Recipient)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, pkg)
}

func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.svc.GetPackage(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, pkg)
}

func (s *Server) handleDeletePackage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeletePackage(r.Context(), id); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.logger.Infof("Package %s deleted by %s", id, usernameFromContext(r.Context()))
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	expiresAt, err := s.svc.IssuePickupCode(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	// The code itself travels only over Telegram.
	s.respondJSON(w, http.StatusOK, map[string]time.Time{"expires_at": expiresAt})
}

func (s *Server) handleConfirmPickup(w http.ResponseWriter, r *http.Request) {
	var req confirmPickupRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	pkg, err := s.svc.ConfirmPickup(r.Context(), r.PathValue("id"), req.Code, req.Signature)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.logger.Infof("Pickup of package %s confirmed by %s", pkg.ID, usernameFromContext(r.Context()))
	s.respondJSON(w, http.StatusOK, pkg)
}
