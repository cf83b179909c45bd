package main

import (
	"os"

	"github.com/milanradisavljevic/stratbench/internal/config"
	"github.com/milanradisavljevic/stratbench/internal/database"
	"github.com/milanradisavljevic/stratbench/internal/database/repositories"
	"github.com/milanradisavljevic/stratbench/internal/modules/history"
	"github.com/milanradisavljevic/stratbench/internal/services"
	"github.com/milanradisavljevic/stratbench/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New(logger.Config{
		Level:  getLogLevel(),
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting strategy backtest")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Reconfigure with the resolved log settings
	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.PrettyLogs})

	// Load price history. Missing data dir or benchmark series aborts the
	// run before any output is produced.
	store, err := history.Load(cfg.HistoryDir, cfg.BenchmarkSymbol, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load price history")
	}

	// Results persistence is best-effort: a broken database never blocks
	// the batch run.
	var runs *repositories.RunRepository
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Warn().Err(err).Msg("Results database unavailable, continuing without persistence")
	} else {
		defer db.Close()
		if err := db.Migrate(); err != nil {
			log.Warn().Err(err).Msg("Failed to migrate results database, continuing without persistence")
		} else {
			runs = repositories.NewRunRepository(db.Conn(), log)
		}
	}

	svc := services.NewBacktestService(cfg, store, runs, log)
	result, err := svc.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Backtest failed")
	}

	path, err := result.WriteJSON(cfg.OutputDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write result artifact")
	}
	log.Info().Str("path", path).Msg("Result artifact written")

	if err := result.Render(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Failed to render comparison table")
	}
}

func getLogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}
