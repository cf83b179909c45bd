package scoring

import (
	"github.com/milanradisavljevic/stratbench/internal/modules/history"
)

// FourPillar combines four equally weighted sub-scores: 52-week range
// valuation, volatility-based quality, 50/200-day trend, and short-term risk.
type FourPillar struct{}

// NewFourPillar creates the four-pillar reference strategy.
func NewFourPillar() *FourPillar {
	return &FourPillar{}
}

func (f *FourPillar) Name() string { return "4-Pillar" }

func (f *FourPillar) Description() string {
	return "Equal-weight blend of valuation, quality, technical trend and risk pillars"
}

func (f *FourPillar) Weights() map[string]float64 {
	return map[string]float64{
		"valuation": 0.25,
		"quality":   0.25,
		"trend":     0.25,
		"risk":      0.25,
	}
}

// Score computes the four-pillar score as of the asOf offset into the
// series. Symbols with fewer than MinHistoryDays prior trading days, a
// zero-width 52-week range, or an uncomputable volatility window are
// excluded from ranking.
func (f *FourPillar) Score(s *history.Series, asOf int) (float64, bool) {
	if asOf < MinHistoryDays || asOf >= s.Len() {
		return 0, false
	}
	closes := s.ClosesThrough(asOf)

	valuation, ok := valuationScore(closes)
	if !ok {
		return 0, false
	}
	quality, ok := qualityScore(closes)
	if !ok {
		return 0, false
	}
	trend, ok := trendScore(closes)
	if !ok {
		return 0, false
	}
	risk, ok := riskScore(closes)
	if !ok {
		return 0, false
	}

	return 0.25*valuation + 0.25*quality + 0.25*trend + 0.25*risk, true
}
