package ranking

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/milanradisavljevic/stratbench/internal/modules/history"
	"github.com/milanradisavljevic/stratbench/internal/modules/scoring"
)

// ScoredSymbol is one ranked universe entry.
type ScoredSymbol struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

// Ranker scores the eligible universe with a strategy as of a date and
// selects the best symbols.
type Ranker struct {
	store *history.Store
	log   zerolog.Logger
}

// New creates a universe ranker.
func New(store *history.Store, log zerolog.Logger) *Ranker {
	return &Ranker{
		store: store,
		log:   log.With().Str("component", "ranker").Logger(),
	}
}

// TopN ranks every symbol except the benchmark by strategy score as of the
// given date and returns at most n entries, best first. Symbols the strategy
// cannot score are dropped. Ties break by ascending symbol so rankings are
// deterministic across runs.
func (r *Ranker) TopN(strategy scoring.Strategy, asOf time.Time, n int) []ScoredSymbol {
	if n <= 0 {
		return nil
	}

	scored := make([]ScoredSymbol, 0, len(r.store.Symbols()))
	for _, symbol := range r.store.Symbols() {
		if symbol == r.store.BenchmarkSymbol() {
			continue
		}
		series, ok := r.store.Series(symbol)
		if !ok {
			continue
		}
		idx, ok := series.IndexAtOrBefore(asOf)
		if !ok {
			continue
		}
		score, ok := strategy.Score(series, idx)
		if !ok {
			continue
		}
		scored = append(scored, ScoredSymbol{Symbol: symbol, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Symbol < scored[j].Symbol
	})

	if len(scored) > n {
		scored = scored[:n]
	}

	r.log.Debug().
		Str("strategy", strategy.Name()).
		Time("as_of", asOf).
		Int("selected", len(scored)).
		Msg("universe ranked")

	return scored
}
