package benchmark

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/milanradisavljevic/stratbench/internal/modules/history"
	"github.com/milanradisavljevic/stratbench/internal/modules/simulation"
)

// Engine produces the passive buy-and-hold reference series: the whole
// capital tracks the benchmark symbol's close with no rebalancing, and
// quarterly returns are read off the same calendar anchors the simulator
// uses.
type Engine struct {
	store    *history.Store
	calendar *simulation.Calendar
	capital  float64
	start    time.Time
	end      time.Time
	log      zerolog.Logger
}

// New creates a benchmark engine.
func New(
	store *history.Store,
	calendar *simulation.Calendar,
	capital float64,
	start, end time.Time,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		store:    store,
		calendar: calendar,
		capital:  capital,
		start:    start,
		end:      end,
		log:      log.With().Str("component", "benchmark").Logger(),
	}
}

// Run computes the buy-and-hold valuation series and its quarterly returns.
// Value on day t is price(t)/price(0) × capital; quarterly returns are the
// ratios between consecutive anchor-day valuations, with a final segment
// flushed at the end of the window.
func (e *Engine) Run() (*simulation.Result, error) {
	days := e.store.TradingDays(e.start, e.end)
	if len(days) == 0 {
		return nil, fmt.Errorf("no benchmark trading days between %s and %s",
			e.start.Format("2006-01-02"), e.end.Format("2006-01-02"))
	}

	series := e.store.Benchmark()
	base, ok := series.CloseOn(days[0])
	if !ok || base <= 0 {
		return nil, fmt.Errorf("benchmark %s has no usable close on %s",
			series.Symbol, days[0].Format("2006-01-02"))
	}

	result := &simulation.Result{Daily: make([]simulation.DailyRecord, 0, len(days))}
	prev := e.capital
	for _, day := range days {
		c, ok := series.CloseOn(day)
		if !ok {
			// Trading days come from the benchmark series itself.
			continue
		}
		value := c / base * e.capital
		ret := 0.0
		if prev > 0 {
			ret = (value - prev) / prev
		}
		result.Daily = append(result.Daily, simulation.DailyRecord{Date: day, Value: value, Return: ret})
		prev = value
	}

	result.Quarters = e.quarterlyReturns(result.Daily, days)

	e.log.Info().
		Int("trading_days", len(result.Daily)).
		Int("quarters", len(result.Quarters)).
		Msg("benchmark series built")

	return result, nil
}

// quarterlyReturns slices the buy-and-hold series at the resolved calendar
// anchors and takes the return between consecutive anchor valuations.
func (e *Engine) quarterlyReturns(daily []simulation.DailyRecord, days []time.Time) []simulation.QuarterlyReturn {
	anchors := e.calendar.Resolve(days)
	if len(anchors) == 0 {
		return nil
	}

	startYear := e.start.Year()
	label := func(i int) string {
		return fmt.Sprintf("%d-Q%d", startYear+i/4, i%4+1)
	}

	quarters := make([]simulation.QuarterlyReturn, 0, len(anchors))
	for j := 0; j < len(anchors); j++ {
		from := daily[anchors[j]].Value
		var to float64
		if j+1 < len(anchors) {
			to = daily[anchors[j+1]].Value
		} else {
			to = daily[len(daily)-1].Value
		}
		if from <= 0 {
			continue
		}
		ret := (to/from - 1) * 100
		quarters = append(quarters, simulation.QuarterlyReturn{
			Label:      label(j),
			ReturnPct:  ret,
			Profitable: ret > 0,
		})
	}
	return quarters
}
