package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/milanradisavljevic/stratbench/internal/config"
	"github.com/milanradisavljevic/stratbench/internal/database/repositories"
	"github.com/milanradisavljevic/stratbench/internal/modules/benchmark"
	"github.com/milanradisavljevic/stratbench/internal/modules/history"
	"github.com/milanradisavljevic/stratbench/internal/modules/metrics"
	"github.com/milanradisavljevic/stratbench/internal/modules/ranking"
	"github.com/milanradisavljevic/stratbench/internal/modules/report"
	"github.com/milanradisavljevic/stratbench/internal/modules/scoring"
	"github.com/milanradisavljevic/stratbench/internal/modules/simulation"
)

// BacktestService runs the full comparison pipeline: simulate every
// strategy, run the buy-and-hold benchmark, compute metrics, assemble the
// comparison table, and persist the run. Strategy runs are sequential and
// share no mutable state.
type BacktestService struct {
	cfg   *config.Config
	store *history.Store
	runs  *repositories.RunRepository // optional; nil disables persistence
	log   zerolog.Logger
}

// NewBacktestService creates a backtest service.
func NewBacktestService(
	cfg *config.Config,
	store *history.Store,
	runs *repositories.RunRepository,
	log zerolog.Logger,
) *BacktestService {
	return &BacktestService{
		cfg:   cfg,
		store: store,
		runs:  runs,
		log:   log.With().Str("component", "backtest").Logger(),
	}
}

// Strategies builds the competing strategy set: the two reference
// strategies plus any custom weighted strategies from configuration.
func (s *BacktestService) Strategies() ([]scoring.Strategy, error) {
	strategies := []scoring.Strategy{
		scoring.NewFourPillar(),
		scoring.NewHybrid(),
	}
	for _, spec := range s.cfg.CustomStrategies {
		w, err := scoring.NewWeighted(spec.Name, spec.Weights)
		if err != nil {
			return nil, fmt.Errorf("invalid custom strategy: %w", err)
		}
		strategies = append(strategies, w)
	}
	return strategies, nil
}

// Run executes the whole pipeline once and returns the comparison result.
func (s *BacktestService) Run() (*report.ComparisonResult, error) {
	strategies, err := s.Strategies()
	if err != nil {
		return nil, err
	}

	calendar := simulation.NewCalendar(s.cfg.RebalanceAnchors)
	ranker := ranking.New(s.store, s.log)
	simulator := simulation.NewSimulator(
		s.store, calendar, ranker,
		s.cfg.InitialCapital, s.cfg.TopN,
		s.cfg.StartDate, s.cfg.EndDate,
		s.log,
	)
	calculator := metrics.NewCalculator(s.cfg.RiskFreeRatePct)
	years := s.cfg.Years()

	results := make([]report.StrategyResult, 0, len(strategies))
	for _, strategy := range strategies {
		s.log.Info().Str("strategy", strategy.Name()).Msg("running simulation")
		res, err := simulator.Run(strategy)
		if err != nil {
			return nil, fmt.Errorf("simulation of %s failed: %w", strategy.Name(), err)
		}
		results = append(results, report.StrategyResult{
			Name:        strategy.Name(),
			Description: strategy.Description(),
			Weights:     strategy.Weights(),
			Metrics:     calculator.Compute(s.cfg.InitialCapital, res.Daily, res.Quarters, years),
			Daily:       res.Daily,
			Diagnostics: res.Diagnostics,
		})
	}

	benchRes, err := benchmark.New(
		s.store, calendar, s.cfg.InitialCapital,
		s.cfg.StartDate, s.cfg.EndDate, s.log,
	).Run()
	if err != nil {
		return nil, fmt.Errorf("benchmark run failed: %w", err)
	}
	benchResult := report.StrategyResult{
		Name:        s.cfg.BenchmarkSymbol + " Buy&Hold",
		Description: "Passive buy-and-hold of the benchmark index",
		Metrics:     calculator.Compute(s.cfg.InitialCapital, benchRes.Daily, benchRes.Quarters, years),
		Daily:       benchRes.Daily,
	}

	result := &report.ComparisonResult{
		RunID:              uuid.NewString(),
		GeneratedAt:        time.Now().UTC(),
		PeriodStart:        s.cfg.StartDate.Format(config.DateLayout),
		PeriodEnd:          s.cfg.EndDate.Format(config.DateLayout),
		UniverseSize:       len(s.store.Symbols()) - 1, // benchmark is not a candidate
		RebalanceFrequency: "quarterly",
		TopN:               s.cfg.TopN,
		InitialCapital:     s.cfg.InitialCapital,
		Benchmark:          benchResult,
		Strategies:         results,
		Comparison:         report.BuildComparison(results, benchResult),
	}

	if s.runs != nil {
		if err := s.runs.Save(result); err != nil {
			// Persistence is best-effort; the JSON artifact and stdout table
			// are the contract outputs.
			s.log.Warn().Err(err).Msg("failed to persist run")
		}
	}

	return result, nil
}
