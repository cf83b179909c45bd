package scoring

import (
	"github.com/milanradisavljevic/stratbench/internal/modules/history"
)

// Hybrid blends medium-term momentum with 52-week range position and
// volatility-based quality (40/30/30).
type Hybrid struct{}

// NewHybrid creates the hybrid reference strategy.
func NewHybrid() *Hybrid {
	return &Hybrid{}
}

func (h *Hybrid) Name() string { return "Hybrid" }

func (h *Hybrid) Description() string {
	return "Momentum-led blend with 52-week range positioning and quality"
}

func (h *Hybrid) Weights() map[string]float64 {
	return map[string]float64{
		"momentum":       0.40,
		"range_position": 0.30,
		"quality":        0.30,
	}
}

// Score requires MinHistoryDays of prior history plus closes exactly 65 and
// 130 trading days back (the momentum reference points).
func (h *Hybrid) Score(s *history.Series, asOf int) (float64, bool) {
	if asOf < MinHistoryDays || asOf >= s.Len() {
		return 0, false
	}
	closes := s.ClosesThrough(asOf)

	momentum, ok := momentumScore(closes)
	if !ok {
		return 0, false
	}
	technical, ok := rangePositionScore(closes)
	if !ok {
		return 0, false
	}
	quality, ok := qualityScore(closes)
	if !ok {
		return 0, false
	}

	return 0.40*momentum + 0.30*technical + 0.30*quality, true
}
