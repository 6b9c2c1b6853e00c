// Command server runs the frontier portfolio optimization service.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/frontier/internal/calculations"
	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/comparator"
	comparatorhandlers "github.com/aristath/frontier/internal/modules/comparator/handlers"
	"github.com/aristath/frontier/internal/modules/history"
	historyhandlers "github.com/aristath/frontier/internal/modules/history/handlers"
	loaderhandlers "github.com/aristath/frontier/internal/modules/loader/handlers"
	"github.com/aristath/frontier/internal/modules/metrics"
	optimizerhandlers "github.com/aristath/frontier/internal/modules/optimizer/handlers"
	portfoliohandlers "github.com/aristath/frontier/internal/modules/portfolio/handlers"
	"github.com/aristath/frontier/internal/modules/simulation"
	"github.com/aristath/frontier/internal/scheduler"
	"github.com/aristath/frontier/internal/server"
	"github.com/aristath/frontier/internal/services"
	"github.com/aristath/frontier/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet, write directly and bail.
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("port", cfg.Port).
		Str("data_dir", cfg.DataDir).
		Int("default_simulations", cfg.DefaultSimulations).
		Msg("Starting frontier service")

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{historyDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	store := history.NewStore(historyDB, log)
	cache := calculations.NewCache(cacheDB, log)
	computer := metrics.NewComputer(log)
	engine := simulation.NewEngine(cfg.MaxSimulations, log)
	cmp := comparator.New(engine, cfg.DefaultSimulations, cfg.DefaultSeed, log)
	statistics := services.NewStatisticsService(store, cache, computer, cfg.PeriodsPerYear, cfg.LookbackDays, log)

	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshStatisticsJob(store, computer, cache, cfg.PeriodsPerYear, cfg.LookbackDays, log)
	if err := sched.AddJob("0 0 3 * * *", refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register statistics refresh job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:                log,
		Cfg:                cfg,
		HistoryDB:          historyDB,
		CacheDB:            cacheDB,
		OptimizerHandlers:  optimizerhandlers.NewHandler(statistics, engine, cfg, log),
		ComparatorHandlers: comparatorhandlers.NewHandler(statistics, cmp, cfg, log),
		PortfolioHandlers:  portfoliohandlers.NewHandler(log),
		LoaderHandlers:     loaderhandlers.NewHandler(log),
		HistoryHandlers:    historyhandlers.NewHandler(store, log),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Frontier service stopped")
}
