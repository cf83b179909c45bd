package ranking

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milanradisavljevic/stratbench/internal/modules/history"
)

// fixedScores scores symbols from a lookup table; absent symbols are not
// computable.
type fixedScores struct {
	scores map[string]float64
}

func (f fixedScores) Name() string                { return "fixed" }
func (f fixedScores) Description() string         { return "fixture strategy" }
func (f fixedScores) Weights() map[string]float64 { return nil }

func (f fixedScores) Score(s *history.Series, asOf int) (float64, bool) {
	v, ok := f.scores[s.Symbol]
	return v, ok
}

func testStore(t *testing.T, symbols ...string) *history.Store {
	t.Helper()
	date := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	series := make([]*history.Series, 0, len(symbols))
	for _, sym := range symbols {
		series = append(series, history.NewSeries(sym, []history.Bar{{Date: date, Close: 100}}))
	}
	store, err := history.NewStore("SPY", series...)
	require.NoError(t, err)
	return store
}

func TestTopN(t *testing.T) {
	store := testStore(t, "SPY", "A", "B", "C")
	ranker := New(store, zerolog.Nop())
	asOf := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("selects best first", func(t *testing.T) {
		got := ranker.TopN(fixedScores{map[string]float64{"A": 10, "B": 90, "C": 50}}, asOf, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "B", got[0].Symbol)
		assert.Equal(t, "C", got[1].Symbol)
	})

	t.Run("never exceeds n and never includes the benchmark", func(t *testing.T) {
		scores := map[string]float64{"SPY": 1000, "A": 1, "B": 2, "C": 3}
		got := ranker.TopN(fixedScores{scores}, asOf, 10)
		require.Len(t, got, 3)
		for _, s := range got {
			assert.NotEqual(t, "SPY", s.Symbol)
		}
	})

	t.Run("drops symbols the strategy cannot score", func(t *testing.T) {
		got := ranker.TopN(fixedScores{map[string]float64{"B": 5}}, asOf, 10)
		require.Len(t, got, 1)
		assert.Equal(t, "B", got[0].Symbol)
	})

	t.Run("ties break by ascending symbol", func(t *testing.T) {
		got := ranker.TopN(fixedScores{map[string]float64{"A": 50, "B": 50, "C": 50}}, asOf, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "A", got[0].Symbol)
		assert.Equal(t, "B", got[1].Symbol)
	})

	t.Run("non-positive n yields nothing", func(t *testing.T) {
		assert.Empty(t, ranker.TopN(fixedScores{map[string]float64{"A": 1}}, asOf, 0))
	})
}
