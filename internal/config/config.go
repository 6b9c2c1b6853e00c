// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/optimizer"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the history and cache databases
	Port     int
	LogLevel string
	DevMode  bool

	// Engine defaults, overridable per request.
	PeriodsPerYear     int     // annualization constant (252 for daily data)
	MaxSimulations     int     // hard cap on candidates per run
	DefaultSimulations int     // used when a request does not specify a count
	DefaultSeed        int64   // used when a request does not specify a seed
	RiskFreeRate       float64 // annual risk-free rate
	LookbackDays       int     // history window for the return matrix

	// RiskPreference is the default label when a request omits one.
	RiskPreference domain.RiskLabel
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FRONTIER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("FRONTIER_PORT", 8002),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		PeriodsPerYear:     getEnvAsInt("PERIODS_PER_YEAR", 252),
		MaxSimulations:     getEnvAsInt("MAX_SIMULATIONS", 1000000),
		DefaultSimulations: getEnvAsInt("DEFAULT_SIMULATIONS", 400000),
		DefaultSeed:        int64(getEnvAsInt("DEFAULT_SEED", 42)),
		RiskFreeRate:       getEnvAsFloat("RISK_FREE_RATE", 0.02),
		LookbackDays:       getEnvAsInt("LOOKBACK_DAYS", 252),
		RiskPreference:     domain.RiskLabel(getEnv("RISK_PREFERENCE", string(domain.RiskMedium))),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("PERIODS_PER_YEAR must be positive, got %d", c.PeriodsPerYear)
	}
	if c.MaxSimulations <= 0 {
		return fmt.Errorf("MAX_SIMULATIONS must be positive, got %d", c.MaxSimulations)
	}
	if c.DefaultSimulations <= 0 || c.DefaultSimulations > c.MaxSimulations {
		return fmt.Errorf("DEFAULT_SIMULATIONS must be in 1..%d, got %d", c.MaxSimulations, c.DefaultSimulations)
	}
	return nil
}

// SelectionRules is the configuration table mapping a risk preference to
// the optimum it surfaces. This is configuration, not engine logic.
func SelectionRules() map[domain.RiskLabel]optimizer.SelectionRule {
	return map[domain.RiskLabel]optimizer.SelectionRule{
		domain.RiskLow:    optimizer.SelectMinVolatility,
		domain.RiskMedium: optimizer.SelectMaxSharpe,
		domain.RiskHigh:   optimizer.SelectMaxSharpe,
	}
}

// RuleForPreference resolves a risk label against the selection table,
// falling back to the max-Sharpe default for unknown labels.
func RuleForPreference(label domain.RiskLabel) optimizer.SelectionRule {
	if rule, ok := SelectionRules()[label]; ok {
		return rule
	}
	return optimizer.SelectMaxSharpe
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
