package formulas

// MaxDrawdown returns the deepest peak-to-trough decline of a valuation
// series as a signed fraction (-0.25 = a 25% loss from the running peak).
// A series that never declines returns 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdown := (v - peak) / peak
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}
