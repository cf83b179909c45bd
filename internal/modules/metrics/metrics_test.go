package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milanradisavljevic/stratbench/internal/modules/simulation"
)

func records(values ...float64) []simulation.DailyRecord {
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	prev := values[0]
	recs := make([]simulation.DailyRecord, len(values))
	for i, v := range values {
		ret := 0.0
		if i > 0 && prev > 0 {
			ret = (v - prev) / prev
		}
		recs[i] = simulation.DailyRecord{Date: start.AddDate(0, 0, i), Value: v, Return: ret}
		prev = v
	}
	return recs
}

func TestComputeFlatSeries(t *testing.T) {
	// A constant valuation series exercises every degenerate-math guard.
	calc := NewCalculator(2.0)
	m := calc.Compute(100000, records(100000, 100000, 100000, 100000), nil, 1)

	assert.Equal(t, 0.0, m.TotalReturnPct)
	assert.Equal(t, 0.0, m.AnnualizedReturnPct)
	assert.Equal(t, 0.0, m.MaxDrawdownPct)
	assert.Equal(t, 0.0, m.VolatilityPct)
	assert.Equal(t, 0.0, m.SharpeRatio, "zero volatility must not divide")
	assert.Equal(t, 0.0, m.CalmarRatio, "zero drawdown must not divide")
	assert.Equal(t, 0.0, m.WinRatePct)
}

func TestComputeKnownSeries(t *testing.T) {
	calc := NewCalculator(2.0)
	m := calc.Compute(100, records(100, 110, 99), nil, 1)

	assert.InDelta(t, -1.0, m.TotalReturnPct, 1e-9)
	assert.InDelta(t, -1.0, m.AnnualizedReturnPct, 1e-9)
	assert.InDelta(t, -10.0, m.MaxDrawdownPct, 1e-9)

	// Returns are {0, +10%, -10%}: sample stdev 0.1, annualized.
	wantVol := 0.1 * math.Sqrt(252) * 100
	assert.InDelta(t, wantVol, m.VolatilityPct, 1e-9)
	assert.InDelta(t, (-1.0-2.0)/wantVol, m.SharpeRatio, 1e-9)
	assert.InDelta(t, -1.0/10.0, m.CalmarRatio, 1e-9)
}

func TestComputeWinRate(t *testing.T) {
	calc := NewCalculator(2.0)
	daily := records(100, 101)

	tests := []struct {
		name     string
		quarters []simulation.QuarterlyReturn
		want     float64
	}{
		{
			name: "single unprofitable quarter",
			quarters: []simulation.QuarterlyReturn{
				{Label: "2020-Q1", ReturnPct: -4.2, Profitable: false},
			},
			want: 0,
		},
		{
			name: "two of three profitable",
			quarters: []simulation.QuarterlyReturn{
				{Label: "2020-Q1", ReturnPct: 3, Profitable: true},
				{Label: "2020-Q2", ReturnPct: -1, Profitable: false},
				{Label: "2020-Q3", ReturnPct: 2, Profitable: true},
			},
			want: 200.0 / 3.0,
		},
		{
			// A window shorter than one rebalance period closes no quarters;
			// the win rate is defined as zero rather than NaN.
			name:     "no quarters",
			quarters: nil,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := calc.Compute(100, daily, tt.quarters, 1)
			assert.InDelta(t, tt.want, m.WinRatePct, 1e-9)
			assert.False(t, math.IsNaN(m.WinRatePct))
		})
	}
}

func TestComputeAnnualization(t *testing.T) {
	calc := NewCalculator(0)

	// Doubling over two years compounds to ~41.42%/year.
	m := calc.Compute(100, records(100, 150, 200), nil, 2)
	assert.InDelta(t, 100.0, m.TotalReturnPct, 1e-9)
	assert.InDelta(t, (math.Sqrt2-1)*100, m.AnnualizedReturnPct, 1e-9)
}

func TestComputeEmptyInput(t *testing.T) {
	calc := NewCalculator(2.0)
	m := calc.Compute(100000, nil, nil, 1)

	require.Equal(t, StrategyMetrics{}, m)
}
