package api

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-Id"

type contextKey string

const ctxUsername contextKey = "username"

// usernameFromContext returns the authenticated desk user, if any.
func usernameFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxUsername).(string)
	return v
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(requestIDHeader) == "" {
			r.Header.Set(requestIDHeader, uuid.NewString())
		}
		w.Header().Set(requestIDHeader, r.Header.Get(requestIDHeader))
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the request log. It
// forwards Hijack so the WebSocket upgrade keeps working behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
			"request_id": r.Header.Get(requestIDHeader),
		}).Info("request")
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Errorf("Panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				s.respondError(w, http.StatusInternalServerError, "panic", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware guards the /api routes with a JWT. The login endpoint is
// open; health, metrics, and the Telegram webhook live outside /api and have
// their own protections.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api/login" {
			next.ServeHTTP(w, r)
			return
		}

		if auth := r.Header.Get("Authorization"); auth != "" {
			const prefix = "Bearer "
			if strings.HasPrefix(auth, prefix) {
				tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
				if username, err := parseJWT(tokenStr); err == nil {
					ctx := context.WithValue(r.Context(), ctxUsername, username)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
		}

		// Browser WebSocket clients cannot set headers, so GET requests may
		// carry the token as a query parameter instead.
		if r.Method == http.MethodGet {
			if qToken := strings.TrimSpace(r.URL.Query().Get("token")); qToken != "" {
				if username, err := parseJWT(qToken); err == nil {
					ctx := context.WithValue(r.Context(), ctxUsername, username)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
		}

		s.respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
	})
}
