// Package handlers provides HTTP handlers for price history access.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/history"
)

// Handler handles history HTTP requests
type Handler struct {
	store *history.Store
	log   zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(store *history.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "history").Logger(),
	}
}

// RegisterRoutes mounts the history endpoints on a router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/history/symbols", h.HandleSymbols)
	r.Post("/history/{symbol}/closes", h.HandleSaveCloses)
	r.Get("/history/{symbol}/volatility", h.HandleRollingVolatility)
}

// HandleSymbols handles GET /api/history/symbols
func (h *Handler) HandleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.store.Symbols()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list symbols")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbols": symbols,
			"count":   len(symbols),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleSaveCloses handles POST /api/history/{symbol}/closes. The data
// capture collaborator pushes daily closes through this endpoint.
func (h *Handler) HandleSaveCloses(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var closes []history.DailyClose
	if err := json.NewDecoder(r.Body).Decode(&closes); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.SaveCloses(symbol, closes); err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to save closes")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": symbol,
			"saved":  len(closes),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRollingVolatility handles GET /api/history/{symbol}/volatility
func (h *Handler) HandleRollingVolatility(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	window := queryInt(r, "window", 30)
	days := queryInt(r, "days", history.DefaultLookbackDays)

	points, err := h.store.RollingVolatility(symbol, window, days)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to compute rolling volatility")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": symbol,
			"window": window,
			"points": points,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
