package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"parceldesk/internal/repository"
	"parceldesk/internal/service"
	"parceldesk/internal/ws"
)

// WebhookBot processes Telegram webhook updates. The bot satisfies it; tests
// run without one.
type WebhookBot interface {
	HandleWebhook(w http.ResponseWriter, r *http.Request)
}

// Options carries the secrets the HTTP layer needs.
type Options struct {
	JWTSecret     string // empty means a random per-process key
	WebhookSecret string // Telegram secret token; empty disables the check
}

// Server provides the HTTP API for the front desk.
type Server struct {
	svc           *service.Service
	hub           *ws.Hub
	bot           WebhookBot
	logger        *logrus.Logger
	mux           *http.ServeMux
	webhookSecret string
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, hub *ws.Hub, bot WebhookBot, logger *logrus.Logger, opts Options) *Server {
	initJWTKey(opts.JWTSecret)

	s := &Server{
		svc:           svc,
		hub:           hub,
		bot:           bot,
		logger:        logger,
		mux:           http.NewServeMux(),
		webhookSecret: opts.WebhookSecret,
	}
	s.routes()
	return s
}

// Handler returns the middleware-wrapped handler for http.Server.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.authMiddleware(h)
	h = s.loggingMiddleware(h)
	h = requestIDMiddleware(h)
	h = s.recoverMiddleware(h)
	return h
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Session
	s.mux.HandleFunc("POST /api/login", s.handleLogin)

	// API – Packages
	s.mux.HandleFunc("GET /api/packages", s.handleListPackages)
	s.mux.HandleFunc("POST /api/packages", s.handleLogPackage)
	s.mux.HandleFunc("GET /api/packages/{id}", s.handleGetPackage)
	s.mux.HandleFunc("DELETE /api/packages/{id}", s.handleDeletePackage)
	s.mux.HandleFunc("POST /api/packages/{id}/code", s.handleIssueCode)
	s.mux.HandleFunc("POST /api/packages/{id}/pickup", s.handleConfirmPickup)

	// API – Residents & households
	s.mux.HandleFunc("GET /api/residents", s.handleListResidents)
	s.mux.HandleFunc("DELETE /api/residents/{chat_id}", s.handleUnbindResident)
	s.mux.HandleFunc("GET /api/households", s.handleListHouseholds)
	s.mux.HandleFunc("GET /api/households/{id}", s.handleHouseholdSummary)

	// Live updates for desk dashboards
	s.mux.HandleFunc("GET /api/ws", s.handleWS)

	// Telegram webhook, health, metrics
	s.mux.HandleFunc("POST /telegram/webhook", s.handleTelegramWebhook)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	var res errorResponse
	res.Error.Code = code
	res.Error.Message = message
	s.respondJSON(w, status, res)
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// respondServiceError translates service and repository errors into HTTP
// responses. Anything unrecognized is logged and reported as a 500.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, service.ErrInvalidHousehold):
		s.respondError(w, http.StatusBadRequest, "invalid_household", err.Error())
	case errors.Is(err, service.ErrBarcodeRequired):
		s.respondError(w, http.StatusBadRequest, "barcode_required", err.Error())
	case errors.Is(err, service.ErrDuplicateBarcode):
		s.respondError(w, http.StatusConflict, "duplicate_barcode", err.Error())
	case errors.Is(err, service.ErrNotDeletable):
		s.respondError(w, http.StatusConflict, "not_deletable", err.Error())
	case errors.Is(err, service.ErrNotPending):
		s.respondError(w, http.StatusConflict, "not_pending", err.Error())
	case errors.Is(err, service.ErrNoLinkedResident):
		s.respondError(w, http.StatusConflict, "no_linked_resident", err.Error())
	case errors.Is(err, service.ErrNoCodeIssued):
		s.respondError(w, http.StatusConflict, "no_code_issued", err.Error())
	case errors.Is(err, service.ErrCodeMismatch):
		s.respondError(w, http.StatusBadRequest, "code_mismatch", err.Error())
	case errors.Is(err, service.ErrCodeExpired):
		s.respondError(w, http.StatusBadRequest, "code_expired", err.Error())
	case errors.Is(err, service.ErrSignatureRequired):
		s.respondError(w, http.StatusBadRequest, "signature_required", err.Error())
	case errors.Is(err, service.ErrSignatureTooLarge):
		s.respondError(w, http.StatusRequestEntityTooLarge, "signature_too_large", err.Error())
	case errors.Is(err, service.ErrCodeUndelivered):
		s.respondError(w, http.StatusBadGateway, "code_undelivered", err.Error())
	case errors.Is(err, service.ErrBadCredentials):
		s.respondError(w, http.StatusUnauthorized, "bad_credentials", err.Error())
	default:
		s.logger.WithError(err).Error("request failed")
		s.respondError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}
