package simulation

import "time"

// Position is one holding owned by a Portfolio; it is destroyed on
// liquidation.
type Position struct {
	Symbol     string  `json:"symbol"`
	Shares     int64   `json:"shares"`
	EntryPrice float64 `json:"entry_price"`
}

// Portfolio is the simulator's mutable state: an ordered position list plus
// uninvested cash. Only the simulator mutates it, once per trading day.
type Portfolio struct {
	Positions []Position
	Cash      float64
}

// DailyRecord is one mark-to-market valuation. Records are appended in date
// order, exactly once per trading day, and never mutated afterwards.
type DailyRecord struct {
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
	Return float64   `json:"return"`
}

// QuarterlyReturn is one closed rebalance period.
type QuarterlyReturn struct {
	Label      string  `json:"label"`
	ReturnPct  float64 `json:"return_pct"`
	Profitable bool    `json:"profitable"`
}

// Diagnostics surfaces fail-soft data gaps that would otherwise be silent.
type Diagnostics struct {
	// MissingValuationPrices counts held positions that contributed zero to a
	// daily valuation because no close existed for that day.
	MissingValuationPrices int `json:"missing_valuation_prices"`
	// LostLiquidations counts positions whose value was dropped because no
	// close existed on a rebalance liquidation day.
	LostLiquidations int `json:"lost_liquidations"`
}

// Result is the full output of one simulated strategy run.
type Result struct {
	Daily       []DailyRecord     `json:"daily"`
	Quarters    []QuarterlyReturn `json:"quarters"`
	Diagnostics Diagnostics       `json:"diagnostics"`
}
