package simulation

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milanradisavljevic/stratbench/internal/modules/history"
	"github.com/milanradisavljevic/stratbench/internal/modules/ranking"
)

// fixedScores scores symbols from a lookup table; absent symbols are not
// computable.
type fixedScores struct {
	scores map[string]float64
}

func (f fixedScores) Name() string                { return "fixed" }
func (f fixedScores) Description() string         { return "fixture strategy" }
func (f fixedScores) Weights() map[string]float64 { return nil }

func (f fixedScores) Score(s *history.Series, asOf int) (float64, bool) {
	v, ok := f.scores[s.Symbol]
	return v, ok
}

// buildSeries maps consecutive calendar days starting at start to closes.
// A zero close omits that day's bar entirely (a data gap).
func buildSeries(symbol string, start time.Time, closes []float64) *history.Series {
	bars := make([]history.Bar, 0, len(closes))
	for i, c := range closes {
		if c == 0 {
			continue
		}
		bars = append(bars, history.Bar{Date: start.AddDate(0, 0, i), Close: c})
	}
	return history.NewSeries(symbol, bars)
}

func newTestSimulator(
	t *testing.T,
	store *history.Store,
	anchors []time.Time,
	capital float64,
	topN int,
	start, end time.Time,
) *Simulator {
	t.Helper()
	return NewSimulator(
		store,
		NewCalendar(anchors),
		ranking.New(store, zerolog.Nop()),
		capital, topN, start, end,
		zerolog.Nop(),
	)
}

func TestRunSelectsTopScorers(t *testing.T) {
	start := date("2020-01-02")
	end := date("2020-01-03")

	store, err := history.NewStore("SPY",
		buildSeries("SPY", start, []float64{100, 100}),
		buildSeries("A", start, []float64{10, 1000}), // would dominate if held
		buildSeries("B", start, []float64{30, 33}),
		buildSeries("C", start, []float64{7, 7.7}),
	)
	require.NoError(t, err)

	sim := newTestSimulator(t, store, []time.Time{start}, 1000, 2, start, end)
	res, err := sim.Run(fixedScores{map[string]float64{"A": 10, "B": 90, "C": 50}})
	require.NoError(t, err)
	require.Len(t, res.Daily, 2)

	// Day 0: rebalance into {B, C}. 500 per pick buys 16 B (480) and 71 C
	// (497), leaving 23 cash. Valuing at the buy closes reproduces the
	// pre-buy cash exactly.
	assert.InDelta(t, 1000, res.Daily[0].Value, 1e-9)

	// Day 1: both held symbols gain 10%; A's explosion is invisible because
	// zero shares of A are held.
	assert.InDelta(t, 23+16*33.0+71*7.7, res.Daily[1].Value, 1e-9)
	assert.InDelta(t, (res.Daily[1].Value-1000)/1000, res.Daily[1].Return, 1e-12)
}

func TestRunQuarterAccounting(t *testing.T) {
	start := date("2020-01-02")
	end := date("2020-01-05")

	store, err := history.NewStore("SPY",
		buildSeries("SPY", start, []float64{100, 100, 100, 100}),
		buildSeries("B", start, []float64{10, 11, 12, 12}),
	)
	require.NoError(t, err)

	// Anchors on days 0 and 2: one full quarter plus a flushed tail.
	sim := newTestSimulator(t, store, []time.Time{start, start.AddDate(0, 0, 2)}, 1000, 1, start, end)
	res, err := sim.Run(fixedScores{map[string]float64{"B": 50}})
	require.NoError(t, err)
	require.Len(t, res.Daily, 4)
	require.Len(t, res.Quarters, 2)

	// The first quarter closes against the last recorded valuation before
	// the second rebalance. Recomputing from the daily series must agree.
	q1Start := res.Daily[0].Value
	q1End := res.Daily[1].Value
	assert.InDelta(t, (q1End-q1Start)/q1Start*100, res.Quarters[0].ReturnPct, 1e-9)
	assert.True(t, res.Quarters[0].Profitable)
	assert.Equal(t, "2020-Q1", res.Quarters[0].Label)
	assert.Equal(t, "2020-Q2", res.Quarters[1].Label)

	// The flushed tail runs from the second rebalance valuation to the end.
	q2Start := res.Daily[2].Value
	q2End := res.Daily[3].Value
	assert.InDelta(t, (q2End-q2Start)/q2Start*100, res.Quarters[1].ReturnPct, 1e-9)
}

func TestRunQuarterLabelsRollOver(t *testing.T) {
	start := date("2020-01-02")
	end := start.AddDate(0, 0, 9)

	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100}
	store, err := history.NewStore("SPY",
		buildSeries("SPY", start, closes),
		buildSeries("B", start, closes),
	)
	require.NoError(t, err)

	anchors := make([]time.Time, 5)
	for i := range anchors {
		anchors[i] = start.AddDate(0, 0, i*2)
	}

	sim := newTestSimulator(t, store, anchors, 1000, 1, start, end)
	res, err := sim.Run(fixedScores{map[string]float64{"B": 50}})
	require.NoError(t, err)
	require.Len(t, res.Quarters, 5)

	labels := make([]string, len(res.Quarters))
	for i, q := range res.Quarters {
		labels[i] = q.Label
	}
	assert.Equal(t, []string{"2020-Q1", "2020-Q2", "2020-Q3", "2020-Q4", "2021-Q1"}, labels)
}

func TestRunMissingPriceFailSoft(t *testing.T) {
	start := date("2020-01-02")
	end := date("2020-01-03")

	store, err := history.NewStore("SPY",
		buildSeries("SPY", start, []float64{100, 100}),
		buildSeries("D", start, []float64{10, 0}), // gap on day 1
	)
	require.NoError(t, err)

	t.Run("missing valuation price contributes zero", func(t *testing.T) {
		sim := newTestSimulator(t, store, []time.Time{start}, 100, 1, start, end)
		res, err := sim.Run(fixedScores{map[string]float64{"D": 99}})
		require.NoError(t, err)

		// 10 shares bought on day 0; day 1 has no close, so the holding is
		// worth nothing that day and the gap is counted.
		require.Len(t, res.Daily, 2)
		assert.InDelta(t, 100, res.Daily[0].Value, 1e-9)
		assert.InDelta(t, 0, res.Daily[1].Value, 1e-9)
		assert.Equal(t, 1, res.Diagnostics.MissingValuationPrices)

		require.Len(t, res.Quarters, 1)
		assert.InDelta(t, -100, res.Quarters[0].ReturnPct, 1e-9)
		assert.False(t, res.Quarters[0].Profitable)
	})

	t.Run("missing liquidation price loses the position value", func(t *testing.T) {
		sim := newTestSimulator(t, store,
			[]time.Time{start, start.AddDate(0, 0, 1)}, 100, 1, start, end)
		res, err := sim.Run(fixedScores{map[string]float64{"D": 99}})
		require.NoError(t, err)

		assert.Equal(t, 1, res.Diagnostics.LostLiquidations)
		// The quarter closed at the second rebalance saw no value change
		// before the loss was realized.
		require.NotEmpty(t, res.Quarters)
		assert.InDelta(t, 0, res.Quarters[0].ReturnPct, 1e-9)
	})
}

func TestRunNoTradingDays(t *testing.T) {
	start := date("2020-01-02")
	store, err := history.NewStore("SPY", buildSeries("SPY", start, []float64{100}))
	require.NoError(t, err)

	sim := newTestSimulator(t, store, []time.Time{start}, 1000, 1,
		date("2021-01-01"), date("2021-12-31"))
	_, err = sim.Run(fixedScores{nil})
	assert.Error(t, err)
}
