package api

import (
	"crypto/subtle"
	"net/http"
)

// handleTelegramWebhook forwards updates to the bot after verifying the
// secret token Telegram echoes back on every delivery.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if s.bot == nil {
		s.respondError(w, http.StatusServiceUnavailable, "bot_disabled", "telegram bot is not running")
		return
	}

	if s.webhookSecret != "" {
		got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
			s.respondError(w, http.StatusUnauthorized, "unauthorized", "bad webhook secret")
			return
		}
	}

	s.bot.HandleWebhook(w, r)
}
