package metrics

import (
	"math"

	"github.com/milanradisavljevic/stratbench/internal/modules/simulation"
	"github.com/milanradisavljevic/stratbench/pkg/formulas"
)

// StrategyMetrics are the standard performance ratios for one valuation
// series. Percentages are signed (max drawdown is negative or zero).
type StrategyMetrics struct {
	TotalReturnPct      float64                      `json:"total_return_pct"`
	AnnualizedReturnPct float64                      `json:"annualized_return_pct"`
	MaxDrawdownPct      float64                      `json:"max_drawdown_pct"`
	SharpeRatio         float64                      `json:"sharpe_ratio"`
	CalmarRatio         float64                      `json:"calmar_ratio"`
	VolatilityPct       float64                      `json:"volatility_pct"`
	WinRatePct          float64                      `json:"win_rate_pct"`
	QuarterlyReturns    []simulation.QuarterlyReturn `json:"quarterly_returns"`
}

// Calculator converts daily valuation series and quarterly returns into
// performance metrics over a fixed horizon.
type Calculator struct {
	riskFreeRatePct float64
}

// NewCalculator creates a metrics calculator with an annual risk-free rate
// in percent (2.0 = 2%).
func NewCalculator(riskFreeRatePct float64) *Calculator {
	return &Calculator{riskFreeRatePct: riskFreeRatePct}
}

// Compute derives the full metric set. Degenerate inputs fall back to zero
// instead of propagating NaN or infinity: zero volatility zeroes the Sharpe
// ratio, zero drawdown zeroes Calmar, and a run with no closed quarters has
// a zero win rate.
func (c *Calculator) Compute(
	initialCapital float64,
	daily []simulation.DailyRecord,
	quarters []simulation.QuarterlyReturn,
	years float64,
) StrategyMetrics {
	m := StrategyMetrics{QuarterlyReturns: quarters}
	if len(daily) == 0 || initialCapital <= 0 {
		return m
	}

	end := daily[len(daily)-1].Value
	m.TotalReturnPct = (end/initialCapital - 1) * 100
	m.AnnualizedReturnPct = formulas.CAGR(initialCapital, end, years) * 100

	values := make([]float64, len(daily))
	returns := make([]float64, len(daily))
	for i, rec := range daily {
		values[i] = rec.Value
		returns[i] = rec.Return
	}

	m.MaxDrawdownPct = formulas.MaxDrawdown(values) * 100
	m.VolatilityPct = formulas.Annualize(returns) * 100

	if m.VolatilityPct > 0 {
		m.SharpeRatio = (m.AnnualizedReturnPct - c.riskFreeRatePct) / m.VolatilityPct
	}
	if m.MaxDrawdownPct != 0 {
		m.CalmarRatio = m.AnnualizedReturnPct / math.Abs(m.MaxDrawdownPct)
	}

	if len(quarters) > 0 {
		profitable := 0
		for _, q := range quarters {
			if q.Profitable {
				profitable++
			}
		}
		m.WinRatePct = float64(profitable) / float64(len(quarters)) * 100
	}

	return m
}
