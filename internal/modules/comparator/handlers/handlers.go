// Package handlers provides HTTP handlers for portfolio audits.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/comparator"
	"github.com/aristath/frontier/internal/modules/metrics"
	"github.com/aristath/frontier/internal/modules/portfolio"
	"github.com/aristath/frontier/internal/modules/simulation"
	"github.com/aristath/frontier/internal/services"
)

// Handler handles comparison HTTP requests
type Handler struct {
	statistics *services.StatisticsService
	comparator *comparator.Comparator
	cfg        *config.Config
	log        zerolog.Logger
}

// NewHandler creates a new comparison handler
func NewHandler(
	statistics *services.StatisticsService,
	cmp *comparator.Comparator,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		statistics: statistics,
		comparator: cmp,
		cfg:        cfg,
		log:        log.With().Str("handler", "comparison").Logger(),
	}
}

// CompareRequest audits a user allocation against the computed optimum.
// The allocation arrives either as parsed holdings (ticker + weight) or
// as a weight vector already aligned to Symbols order.
type CompareRequest struct {
	Symbols        []string            `json:"symbols"`
	Holdings       []portfolio.Holding `json:"holdings,omitempty"`
	Weights        []float64           `json:"weights,omitempty"`
	RiskFreeRate   *float64            `json:"risk_free_rate,omitempty"`
	RiskPreference domain.RiskLabel    `json:"risk_preference,omitempty"`
}

// HandleCompare handles POST /api/compare
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Symbols) < 2 {
		http.Error(w, "Need at least 2 symbols", http.StatusBadRequest)
		return
	}

	stats, err := h.statistics.ForSymbols(req.Symbols)
	if err != nil {
		h.writeError(w, err)
		return
	}

	weights := req.Weights
	var missing []string
	if weights == nil {
		if len(req.Holdings) == 0 {
			http.Error(w, "Provide either holdings or weights", http.StatusBadRequest)
			return
		}
		weights, missing, err = portfolio.AlignWeights(req.Holdings, stats.Assets)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	riskFree := h.cfg.RiskFreeRate
	if req.RiskFreeRate != nil {
		riskFree = *req.RiskFreeRate
	}
	preference := req.RiskPreference
	if preference == "" {
		preference = h.cfg.RiskPreference
	}
	rule := config.RuleForPreference(preference)

	result, err := h.comparator.Compare(stats, weights, riskFree, nil, rule)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"assets":          stats.Assets,
			"comparison":      result,
			"missing_tickers": missing,
			"risk_preference": preference,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, comparator.ErrWeightSumInvalid),
		errors.Is(err, comparator.ErrNegativeWeight),
		errors.Is(err, comparator.ErrAssetCountMismatch),
		errors.Is(err, metrics.ErrInsufficientData),
		errors.Is(err, metrics.ErrDimensionMismatch),
		errors.Is(err, metrics.ErrDegenerateAsset),
		errors.Is(err, simulation.ErrInvalidSimulationCount),
		errors.Is(err, simulation.ErrInvalidRiskFreeRate):
		status = http.StatusBadRequest
	}

	h.log.Error().Err(err).Int("status", status).Msg("Comparison failed")
	http.Error(w, err.Error(), status)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
