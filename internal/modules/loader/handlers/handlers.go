// Package handlers provides HTTP handlers for returns-data ingestion.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/loader"
)

// maxUploadBytes caps returns uploads; a year of daily returns for a few
// dozen assets is well under this.
const maxUploadBytes = 8 << 20

// Handler handles returns ingestion HTTP requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new loader handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "loader").Logger(),
	}
}

// RegisterRoutes mounts the loader endpoints on a router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/returns/parse", h.HandleParse)
}

// HandleParse handles POST /api/returns/parse. The body is a raw returns
// CSV; the response carries the validated series in the same shape the
// optimization endpoints accept inline.
func (h *Handler) HandleParse(w http.ResponseWriter, r *http.Request) {
	series, err := loader.LoadReturnSeries(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to parse returns upload")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"series": map[string]interface{}{
				"assets":  series.Assets,
				"returns": series.Returns,
			},
			"num_assets":  series.NumAssets(),
			"num_periods": series.NumPeriods(),
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
