package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/metrics"
	"github.com/aristath/frontier/internal/modules/simulation"
	"github.com/aristath/frontier/internal/services"
)

func testRouter(t *testing.T) *chi.Mux {
	t.Helper()

	log := zerolog.Nop()
	cfg := &config.Config{
		PeriodsPerYear:     252,
		MaxSimulations:     100_000,
		DefaultSimulations: 2_000,
		DefaultSeed:        42,
		RiskFreeRate:       0.02,
		RiskPreference:     domain.RiskMedium,
	}

	statistics := services.NewStatisticsService(nil, nil, metrics.NewComputer(log), cfg.PeriodsPerYear, 252, log)
	engine := simulation.NewEngine(cfg.MaxSimulations, log)
	handler := NewHandler(statistics, engine, cfg, log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

const seriesBody = `{
	"series": {
		"assets": ["AAA", "BBB"],
		"returns": [
			[0.012, -0.004, 0.009, 0.002, -0.007, 0.011],
			[-0.003, 0.008, -0.002, 0.006, 0.004, -0.009]
		]
	},
	"simulations": 500,
	"seed": 7
}`

func TestHandleOptimizeInlineSeries(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(seriesBody))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Assets         []string              `json:"assets"`
			MaxSharpe      domain.PortfolioPoint `json:"max_sharpe"`
			MinVolatility  domain.PortfolioPoint `json:"min_volatility"`
			Recommended    domain.PortfolioPoint `json:"recommended"`
			RiskPreference string                `json:"risk_preference"`
			Simulations    int                   `json:"simulations"`
			Seed           int64                 `json:"seed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, []string{"AAA", "BBB"}, resp.Data.Assets)
	assert.Equal(t, 500, resp.Data.Simulations)
	assert.Equal(t, int64(7), resp.Data.Seed)
	assert.Equal(t, "Medium", resp.Data.RiskPreference)

	// Medium preference recommends the max-Sharpe point.
	assert.Equal(t, resp.Data.MaxSharpe, resp.Data.Recommended)
	assert.GreaterOrEqual(t, resp.Data.MaxSharpe.SharpeRatio, resp.Data.MinVolatility.SharpeRatio)
	assert.LessOrEqual(t, resp.Data.MinVolatility.Volatility, resp.Data.MaxSharpe.Volatility)
}

func TestHandleOptimizeLowRiskRecommendsMinVolatility(t *testing.T) {
	router := testRouter(t)

	body := strings.Replace(seriesBody, `"seed": 7`, `"seed": 7, "risk_preference": "Low"`, 1)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			MinVolatility domain.PortfolioPoint `json:"min_volatility"`
			Recommended   domain.PortfolioPoint `json:"recommended"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, resp.Data.MinVolatility, resp.Data.Recommended)
}

func TestHandleOptimizeRejectsMissingUniverse(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 2 symbols")
}

func TestHandleOptimizeRejectsBadSeries(t *testing.T) {
	router := testRouter(t)

	// One period is not enough to compute statistics.
	body := `{"series": {"assets": ["AAA", "BBB"], "returns": [[0.01], [0.02]]}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient data")
}

func TestHandleOptimizeRejectsExcessiveCount(t *testing.T) {
	router := testRouter(t)

	body := strings.Replace(seriesBody, `"simulations": 500`, `"simulations": 200000`, 1)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid simulation count")
}

func TestHandleFrontierDecimates(t *testing.T) {
	router := testRouter(t)

	body := strings.Replace(seriesBody, `"seed": 7`, `"seed": 7, "max_points": 50`, 1)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/frontier", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Population  []map[string]float64 `json:"population"`
			TotalPoints int                  `json:"total_points"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 500, resp.Data.TotalPoints)
	assert.LessOrEqual(t, len(resp.Data.Population), 52) // 50 + 2 optima
	assert.NotEmpty(t, resp.Data.Population)
}

func TestHandleOptimizeDeterministicForSeed(t *testing.T) {
	router := testRouter(t)

	run := func() string {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(seriesBody))
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data struct {
				MaxSharpe domain.PortfolioPoint `json:"max_sharpe"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		encoded, err := json.Marshal(resp.Data.MaxSharpe)
		require.NoError(t, err)
		return string(encoded)
	}

	assert.Equal(t, run(), run())
}
