// Package handlers provides HTTP handlers for optimization requests.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/comparator"
	"github.com/aristath/frontier/internal/modules/metrics"
	"github.com/aristath/frontier/internal/modules/optimizer"
	"github.com/aristath/frontier/internal/modules/simulation"
	"github.com/aristath/frontier/internal/services"
)

// Handler handles optimization HTTP requests
type Handler struct {
	statistics *services.StatisticsService
	engine     *simulation.Engine
	cfg        *config.Config
	log        zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(
	statistics *services.StatisticsService,
	engine *simulation.Engine,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		statistics: statistics,
		engine:     engine,
		cfg:        cfg,
		log:        log.With().Str("handler", "optimization").Logger(),
	}
}

// SeriesPayload is an inline return matrix from the data-loading
// collaborator, used instead of stored history.
type SeriesPayload struct {
	Assets  []string    `json:"assets"`
	Returns [][]float64 `json:"returns"`
}

// OptimizeRequest selects a universe and the simulation parameters.
// Either Symbols (resolved against stored history) or Series (inline
// returns) must be set.
type OptimizeRequest struct {
	Symbols        []string         `json:"symbols,omitempty"`
	Series         *SeriesPayload   `json:"series,omitempty"`
	Simulations    int              `json:"simulations,omitempty"`
	RiskFreeRate   *float64         `json:"risk_free_rate,omitempty"`
	Seed           *int64           `json:"seed,omitempty"`
	RiskPreference domain.RiskLabel `json:"risk_preference,omitempty"`
	MaxPoints      int              `json:"max_points,omitempty"` // frontier endpoint only
}

// HandleOptimize handles POST /api/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	req, stats, ok := h.prepare(w, r)
	if !ok {
		return
	}

	result, recommended, err := h.run(stats, req)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"assets":          stats.Assets,
			"max_sharpe":      result.MaxSharpe,
			"min_volatility":  result.MinVolatility,
			"recommended":     recommended,
			"risk_preference": h.preference(req),
			"batch_id":        result.Population.ID,
			"simulations":     len(result.Population.Points),
			"seed":            result.Population.Seed,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleFrontier handles POST /api/frontier
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	req, stats, ok := h.prepare(w, r)
	if !ok {
		return
	}

	result, recommended, err := h.run(stats, req)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	maxPoints := req.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 5000
	}
	population := charts.DecimatePopulation(result, maxPoints)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"assets":         stats.Assets,
			"max_sharpe":     result.MaxSharpe,
			"min_volatility": result.MinVolatility,
			"recommended":    recommended,
			"population":     population,
			"total_points":   len(result.Population.Points),
			"batch_id":       result.Population.ID,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// prepare decodes the request and resolves statistics for its universe.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) (OptimizeRequest, domain.AssetStatistics, bool) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return req, domain.AssetStatistics{}, false
	}

	var stats domain.AssetStatistics
	var err error
	switch {
	case req.Series != nil:
		stats, err = h.statistics.ForSeries(domain.ReturnSeries{
			Assets:  req.Series.Assets,
			Returns: req.Series.Returns,
		})
	case len(req.Symbols) >= 2:
		stats, err = h.statistics.ForSymbols(req.Symbols)
	default:
		http.Error(w, "Provide either a series payload or at least 2 symbols", http.StatusBadRequest)
		return req, domain.AssetStatistics{}, false
	}
	if err != nil {
		h.writeEngineError(w, err)
		return req, domain.AssetStatistics{}, false
	}

	return req, stats, true
}

// run executes the simulation and reduction with request defaults filled
// from configuration.
func (h *Handler) run(stats domain.AssetStatistics, req OptimizeRequest) (domain.OptimizationResult, domain.PortfolioPoint, error) {
	count := req.Simulations
	if count == 0 {
		count = h.cfg.DefaultSimulations
	}
	riskFree := h.cfg.RiskFreeRate
	if req.RiskFreeRate != nil {
		riskFree = *req.RiskFreeRate
	}
	seed := h.cfg.DefaultSeed
	if req.Seed != nil {
		seed = *req.Seed
	}

	batch, err := h.engine.Run(stats, count, riskFree, seed)
	if err != nil {
		return domain.OptimizationResult{}, domain.PortfolioPoint{}, err
	}

	result, err := optimizer.Select(batch)
	if err != nil {
		return domain.OptimizationResult{}, domain.PortfolioPoint{}, err
	}

	rule := config.RuleForPreference(h.preference(req))
	return result, optimizer.Recommend(result, rule), nil
}

func (h *Handler) preference(req OptimizeRequest) domain.RiskLabel {
	if req.RiskPreference != "" {
		return req.RiskPreference
	}
	return h.cfg.RiskPreference
}

// writeEngineError maps engine error taxonomy onto HTTP statuses. Data
// and validation errors are the caller's to fix; anything else is a 500.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, metrics.ErrInsufficientData),
		errors.Is(err, metrics.ErrDimensionMismatch),
		errors.Is(err, metrics.ErrDegenerateAsset),
		errors.Is(err, simulation.ErrInvalidSimulationCount),
		errors.Is(err, simulation.ErrInvalidRiskFreeRate),
		errors.Is(err, comparator.ErrWeightSumInvalid),
		errors.Is(err, comparator.ErrNegativeWeight),
		errors.Is(err, comparator.ErrAssetCountMismatch):
		status = http.StatusBadRequest
	}

	h.log.Error().Err(err).Int("status", status).Msg("Request failed")
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
