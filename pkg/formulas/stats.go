package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// DailyReturns converts a price or valuation series to simple returns.
// Returns[i] = (Series[i+1] - Series[i]) / Series[i]; pairs with a
// non-positive left value are skipped.
func DailyReturns(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1]
		if prev <= 0 {
			continue
		}
		returns = append(returns, (series[i]-prev)/prev)
	}
	return returns
}

// Annualize scales the standard deviation of daily returns to a yearly
// volatility figure: stdev × sqrt(252).
func Annualize(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CAGR returns the compound annual growth rate that takes start to end
// over the given horizon, as a decimal (0.08 = 8%/year).
func CAGR(start, end, years float64) float64 {
	if start <= 0 || end <= 0 || years <= 0 {
		return 0
	}
	return math.Pow(end/start, 1/years) - 1
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LinearMap maps v from [inLo, inHi] to [outLo, outHi], clamping to the
// output range. The output bounds may be given in descending order for
// inverse mappings.
func LinearMap(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi == inLo {
		return outLo
	}
	mapped := outLo + (v-inLo)/(inHi-inLo)*(outHi-outLo)
	if outLo < outHi {
		return Clamp(mapped, outLo, outHi)
	}
	return Clamp(mapped, outHi, outLo)
}
