package simulation

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/milanradisavljevic/stratbench/internal/modules/history"
	"github.com/milanradisavljevic/stratbench/internal/modules/ranking"
	"github.com/milanradisavljevic/stratbench/internal/modules/scoring"
)

// Simulator walks the trading-day sequence for one strategy, rebalancing
// into the strategy's top-N picks whenever a calendar anchor is reached and
// marking the portfolio to market every day in between.
type Simulator struct {
	store    *history.Store
	calendar *Calendar
	ranker   *ranking.Ranker
	capital  float64
	topN     int
	start    time.Time
	end      time.Time
	log      zerolog.Logger
}

// NewSimulator creates a simulator bound to one run configuration. Each Run
// call owns its own portfolio state, so runs are independent.
func NewSimulator(
	store *history.Store,
	calendar *Calendar,
	ranker *ranking.Ranker,
	capital float64,
	topN int,
	start, end time.Time,
	log zerolog.Logger,
) *Simulator {
	return &Simulator{
		store:    store,
		calendar: calendar,
		ranker:   ranker,
		capital:  capital,
		topN:     topN,
		start:    start,
		end:      end,
		log:      log.With().Str("component", "simulator").Logger(),
	}
}

// Run simulates one strategy over the configured window.
//
// On each rebalance day the open quarter is closed against the last recorded
// valuation, every position is liquidated at that day's close, the universe
// is re-ranked, and cash is split equally across the new picks with
// floor-integer share counts. Cash left over from rounding is never
// reinvested mid-quarter. The quarter still open after the final trading day
// is flushed against the last valuation.
func (s *Simulator) Run(strategy scoring.Strategy) (*Result, error) {
	days := s.store.TradingDays(s.start, s.end)
	if len(days) == 0 {
		return nil, fmt.Errorf("no trading days between %s and %s",
			s.start.Format("2006-01-02"), s.end.Format("2006-01-02"))
	}
	rebalances := s.calendar.Resolve(days)

	result := &Result{Daily: make([]DailyRecord, 0, len(days))}
	portfolio := Portfolio{Cash: s.capital}

	next := 0 // pointer into rebalances
	quarterOpen := false
	quarterStart := 0.0
	quarterLabel := ""
	quarterCount := 0
	startYear := s.start.Year()
	prev := s.capital

	for i, day := range days {
		if next < len(rebalances) && i >= rebalances[next] {
			// Close the open quarter against the last recorded valuation.
			if quarterOpen && quarterStart > 0 {
				ret := (prev - quarterStart) / quarterStart * 100
				result.Quarters = append(result.Quarters, QuarterlyReturn{
					Label:      quarterLabel,
					ReturnPct:  ret,
					Profitable: ret > 0,
				})
			}

			// Liquidate. A position with no close today loses its value; the
			// gap is counted rather than silently ignored.
			for _, pos := range portfolio.Positions {
				if c, ok := s.closeOn(pos.Symbol, day); ok {
					portfolio.Cash += float64(pos.Shares) * c
				} else {
					result.Diagnostics.LostLiquidations++
					s.log.Warn().
						Str("strategy", strategy.Name()).
						Str("symbol", pos.Symbol).
						Time("date", day).
						Msg("no close on liquidation day, position value lost")
				}
			}
			portfolio.Positions = nil

			// Rank and rebuild with equal cash per pick.
			selected := s.ranker.TopN(strategy, day, s.topN)
			if len(selected) > 0 {
				perPosition := portfolio.Cash / float64(len(selected))
				for _, pick := range selected {
					c, ok := s.closeOn(pick.Symbol, day)
					if !ok || c <= 0 {
						continue
					}
					shares := int64(math.Floor(perPosition / c))
					if shares <= 0 {
						continue
					}
					portfolio.Positions = append(portfolio.Positions, Position{
						Symbol:     pick.Symbol,
						Shares:     shares,
						EntryPrice: c,
					})
					portfolio.Cash -= float64(shares) * c
				}
			}

			// Open the next quarter at the post-rebalance valuation.
			quarterStart = portfolio.Cash
			for _, pos := range portfolio.Positions {
				if c, ok := s.closeOn(pos.Symbol, day); ok {
					quarterStart += float64(pos.Shares) * c
				}
			}
			quarterLabel = fmt.Sprintf("%d-Q%d", startYear+quarterCount/4, quarterCount%4+1)
			quarterCount++
			quarterOpen = true

			for next < len(rebalances) && rebalances[next] <= i {
				next++
			}
		}

		// Daily mark-to-market. A held symbol with no close today contributes
		// zero for the day; the gap is counted.
		value := portfolio.Cash
		for _, pos := range portfolio.Positions {
			if c, ok := s.closeOn(pos.Symbol, day); ok {
				value += float64(pos.Shares) * c
			} else {
				result.Diagnostics.MissingValuationPrices++
			}
		}

		ret := 0.0
		if prev > 0 {
			ret = (value - prev) / prev
		}
		result.Daily = append(result.Daily, DailyRecord{Date: day, Value: value, Return: ret})
		prev = value
	}

	// Flush the quarter still open at the end of the window.
	if quarterOpen && quarterStart > 0 {
		ret := (prev - quarterStart) / quarterStart * 100
		result.Quarters = append(result.Quarters, QuarterlyReturn{
			Label:      quarterLabel,
			ReturnPct:  ret,
			Profitable: ret > 0,
		})
	}

	s.log.Info().
		Str("strategy", strategy.Name()).
		Int("trading_days", len(result.Daily)).
		Int("quarters", len(result.Quarters)).
		Int("missing_valuation_prices", result.Diagnostics.MissingValuationPrices).
		Int("lost_liquidations", result.Diagnostics.LostLiquidations).
		Msg("simulation complete")

	return result, nil
}

func (s *Simulator) closeOn(symbol string, day time.Time) (float64, bool) {
	series, ok := s.store.Series(symbol)
	if !ok {
		return 0, false
	}
	return series.CloseOn(day)
}
