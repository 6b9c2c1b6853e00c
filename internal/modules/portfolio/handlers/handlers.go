// Package handlers provides HTTP handlers for portfolio uploads.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/portfolio"
)

// maxUploadBytes caps holdings uploads; portfolios are small.
const maxUploadBytes = 1 << 20

// Handler handles portfolio upload HTTP requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes mounts the portfolio endpoints on a router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio/parse", h.HandleParse)
}

// HandleParse handles POST /api/portfolio/parse. The body is the raw CSV
// upload; the response is the normalized holdings list.
func (h *Handler) HandleParse(w http.ResponseWriter, r *http.Request) {
	holdings, err := portfolio.ParseHoldings(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to parse holdings upload")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"holdings": holdings,
			"count":    len(holdings),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
