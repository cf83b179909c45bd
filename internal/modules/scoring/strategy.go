package scoring

import (
	"github.com/milanradisavljevic/stratbench/internal/modules/history"
	"github.com/milanradisavljevic/stratbench/pkg/formulas"
)

// MinHistoryDays is the number of prior trading days a symbol must have
// before any strategy will score it.
const MinHistoryDays = 130

// RangeWindowDays is the trailing window used for 52-week high/low ranges.
const RangeWindowDays = 252

// Strategy ranks symbols as of a trading day. Score returns false when the
// symbol cannot be scored (insufficient history, degenerate range, data gap);
// such symbols are excluded from ranking rather than treated as errors.
type Strategy interface {
	Name() string
	Description() string
	Weights() map[string]float64
	Score(s *history.Series, asOf int) (float64, bool)
}

// AnnualizedVolatility computes the annualized volatility of the trailing
// lookback-day close window ending at the last element of closes. It needs
// at least lookback/2 valid consecutive-pair returns.
func AnnualizedVolatility(closes []float64, lookback int) (float64, bool) {
	if lookback < 2 || len(closes) < 2 {
		return 0, false
	}

	start := 0
	if len(closes) > lookback {
		start = len(closes) - lookback
	}
	returns := formulas.DailyReturns(closes[start:])
	if len(returns) < lookback/2 {
		return 0, false
	}
	return formulas.Annualize(returns), true
}

// trailingReturnOrAll is TrailingReturn with a fallback to the full available
// span when the series is shorter than requested.
func trailingReturnOrAll(closes []float64, days int) (float64, bool) {
	if r, ok := formulas.TrailingReturn(closes, days); ok {
		return r, true
	}
	if len(closes) < 2 {
		return 0, false
	}
	return formulas.TrailingReturn(closes, len(closes)-1)
}

// valuationScore rewards symbols trading low in their 52-week range:
// (1 − positionInRange) × 100. A zero-width range is not scoreable.
func valuationScore(closes []float64) (float64, bool) {
	high, low, ok := formulas.TrailingHighLow(closes, RangeWindowDays)
	if !ok || high == low {
		return 0, false
	}
	pos := (closes[len(closes)-1] - low) / (high - low)
	return formulas.Clamp((1-pos)*100, 0, 100), true
}

// qualityScore maps 60-day annualized volatility linearly to [0, 100]:
// 0% vol scores 100, 40%+ scores 0.
func qualityScore(closes []float64) (float64, bool) {
	vol, ok := AnnualizedVolatility(closes, 60)
	if !ok {
		return 0, false
	}
	return formulas.LinearMap(vol, 0, 0.40, 100, 0), true
}

// riskScore maps 20-day annualized volatility linearly to [0, 100]:
// 0% vol scores 100, 50%+ scores 0.
func riskScore(closes []float64) (float64, bool) {
	vol, ok := AnnualizedVolatility(closes, 20)
	if !ok {
		return 0, false
	}
	return formulas.LinearMap(vol, 0, 0.50, 100, 0), true
}

// trendScore blends the 50-day and 200-day trailing price trends. Each trend
// maps to [0, 50] (over a ±20% and ±40% window respectively) and the two
// halves sum to a 0–100 band.
func trendScore(closes []float64) (float64, bool) {
	t50, ok := trailingReturnOrAll(closes, 50)
	if !ok {
		return 0, false
	}
	t200, ok := trailingReturnOrAll(closes, 200)
	if !ok {
		return 0, false
	}
	score := formulas.LinearMap(t50, -0.20, 0.20, 0, 50) +
		formulas.LinearMap(t200, -0.40, 0.40, 0, 50)
	return formulas.Clamp(score, 0, 100), true
}

// momentumScore blends 13-week and 26-week returns (60/40) and maps the
// blend from [−50%, +50%] to [0, 100]. Both reference closes must exist.
func momentumScore(closes []float64) (float64, bool) {
	r13, ok := formulas.TrailingReturn(closes, 65)
	if !ok {
		return 0, false
	}
	r26, ok := formulas.TrailingReturn(closes, 130)
	if !ok {
		return 0, false
	}
	blend := 0.60*r13 + 0.40*r26
	return formulas.LinearMap(blend, -0.50, 0.50, 0, 100), true
}

// rangePositionScore scores the 52-week range position piecewise. The
// optimal zone is 60–80% of the range (scores 70–90); positions outside it
// degrade along distinct linear segments per quartile.
func rangePositionScore(closes []float64) (float64, bool) {
	high, low, ok := formulas.TrailingHighLow(closes, RangeWindowDays)
	if !ok || high == low {
		return 0, false
	}
	pos := (closes[len(closes)-1] - low) / (high - low)
	pos = formulas.Clamp(pos, 0, 1)

	var score float64
	switch {
	case pos < 0.25:
		score = 20 + pos/0.25*15 // deep in the range: 20..35
	case pos < 0.50:
		score = 35 + (pos-0.25)/0.25*25 // lower middle: 35..60
	case pos < 0.60:
		score = 60 + (pos-0.50)/0.10*10 // approach: 60..70
	case pos <= 0.80:
		score = 70 + (pos-0.60)/0.20*20 // optimal zone: 70..90
	default:
		score = 90 - (pos-0.80)/0.20*30 // overextended: 90..60
	}
	return formulas.Clamp(score, 0, 100), true
}

// componentFunc computes one named sub-score over a close series ending at
// the as-of day.
type componentFunc func(closes []float64) (float64, bool)

// components is the registry the Weighted strategy draws from.
var components = map[string]componentFunc{
	"valuation":      valuationScore,
	"quality":        qualityScore,
	"risk":           riskScore,
	"trend":          trendScore,
	"momentum":       momentumScore,
	"range_position": rangePositionScore,
}
