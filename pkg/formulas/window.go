package formulas

import (
	"github.com/markcheno/go-talib"
)

// TrailingHighLow returns the highest and lowest close inside the trailing
// window ending at the last element of closes. The window is shortened when
// fewer than window values are available; an empty input returns (0, 0, false).
func TrailingHighLow(closes []float64, window int) (high, low float64, ok bool) {
	if len(closes) == 0 || window <= 0 {
		return 0, 0, false
	}

	start := 0
	if len(closes) > window {
		start = len(closes) - window
	}
	w := closes[start:]

	if len(w) == 1 {
		return w[0], w[0], true
	}

	highs := talib.Max(w, len(w))
	lows := talib.Min(w, len(w))
	return highs[len(highs)-1], lows[len(lows)-1], true
}

// TrailingReturn returns the simple return between the close `days` trading
// days ago and the last close. ok is false when the series is too short or
// the reference close is non-positive.
func TrailingReturn(closes []float64, days int) (float64, bool) {
	if days <= 0 || len(closes) < days+1 {
		return 0, false
	}

	ref := closes[len(closes)-1-days]
	if ref <= 0 {
		return 0, false
	}
	return closes[len(closes)-1]/ref - 1, true
}
