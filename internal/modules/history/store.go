package history

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for per-symbol history DBs
	"github.com/rs/zerolog"

	"github.com/milanradisavljevic/stratbench/internal/config"
)

// Bar is one daily OHLCV record. Only Close is used downstream; a bar is
// retained only when its close is finite and positive.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is the immutable per-symbol price history: unique dates, sorted
// ascending, with a precomputed date→index map so as-of lookups never scan.
type Series struct {
	Symbol string
	Dates  []time.Time
	Closes []float64
	Bars   []Bar

	index map[string]int
}

func newSeries(symbol string, byDate map[string]Bar) *Series {
	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := &Series{
		Symbol: symbol,
		Dates:  make([]time.Time, 0, len(keys)),
		Closes: make([]float64, 0, len(keys)),
		Bars:   make([]Bar, 0, len(keys)),
		index:  make(map[string]int, len(keys)),
	}
	for i, k := range keys {
		bar := byDate[k]
		s.Dates = append(s.Dates, bar.Date)
		s.Closes = append(s.Closes, bar.Close)
		s.Bars = append(s.Bars, bar)
		s.index[k] = i
	}
	return s
}

// NewSeries builds a series from a bar slice, deduplicating dates (first
// occurrence wins) and sorting ascending.
func NewSeries(symbol string, bars []Bar) *Series {
	byDate := make(map[string]Bar, len(bars))
	for _, b := range bars {
		key := b.Date.Format(config.DateLayout)
		if _, exists := byDate[key]; exists {
			continue
		}
		byDate[key] = b
	}
	return newSeries(symbol, byDate)
}

// Len returns the number of trading days in the series.
func (s *Series) Len() int { return len(s.Dates) }

// CloseOn returns the close for an exact trading date.
func (s *Series) CloseOn(d time.Time) (float64, bool) {
	i, ok := s.index[d.Format(config.DateLayout)]
	if !ok {
		return 0, false
	}
	return s.Closes[i], true
}

// IndexAtOrBefore returns the offset of the latest bar dated at or before d.
func (s *Series) IndexAtOrBefore(d time.Time) (int, bool) {
	if i, ok := s.index[d.Format(config.DateLayout)]; ok {
		return i, true
	}
	// First date strictly after d; the bar before it is the answer.
	n := sort.Search(len(s.Dates), func(i int) bool { return s.Dates[i].After(d) })
	if n == 0 {
		return 0, false
	}
	return n - 1, true
}

// ClosesThrough returns the close series up to and including offset i.
// The returned slice aliases the series and must not be mutated.
func (s *Series) ClosesThrough(i int) []float64 {
	if i < 0 || i >= len(s.Closes) {
		return nil
	}
	return s.Closes[:i+1]
}

// Store holds every loaded symbol series for the duration of a run.
type Store struct {
	series    map[string]*Series
	symbols   []string
	benchmark string
	log       zerolog.Logger

	// DroppedRows counts malformed or invalid-close source rows that were
	// silently skipped during load.
	DroppedRows int
}

// NewStore assembles a store from prebuilt series. The benchmark series
// must be among them.
func NewStore(benchmark string, series ...*Series) (*Store, error) {
	st := &Store{
		series:    make(map[string]*Series, len(series)),
		benchmark: benchmark,
		log:       zerolog.Nop(),
	}
	for _, s := range series {
		if _, exists := st.series[s.Symbol]; exists {
			return nil, fmt.Errorf("duplicate series for %s", s.Symbol)
		}
		st.series[s.Symbol] = s
		st.symbols = append(st.symbols, s.Symbol)
	}
	sort.Strings(st.symbols)
	if _, ok := st.series[benchmark]; !ok {
		return nil, fmt.Errorf("benchmark series %s not provided", benchmark)
	}
	return st, nil
}

// Load reads one price series per file from dir. Files may be CSV
// (date,open,high,low,close,volume) or SQLite databases with the
// daily_prices schema; the symbol is the file name without extension.
// A missing dir or a missing benchmark series is a fatal startup error.
func Load(dir, benchmark string, log zerolog.Logger) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open history dir %s: %w", dir, err)
	}

	st := &Store{
		series:    make(map[string]*Series),
		benchmark: benchmark,
		log:       log.With().Str("component", "history_store").Logger(),
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		symbol := strings.ToUpper(strings.TrimSuffix(name, filepath.Ext(name)))
		path := filepath.Join(dir, name)

		var (
			s       *Series
			dropped int
		)
		switch ext {
		case ".csv":
			s, dropped, err = loadCSV(symbol, path)
		case ".db":
			s, dropped, err = loadSQLite(symbol, path)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		st.DroppedRows += dropped
		if s.Len() == 0 {
			st.log.Warn().Str("symbol", symbol).Msg("series is empty after load, skipping")
			continue
		}
		st.series[symbol] = s
		st.symbols = append(st.symbols, symbol)
	}
	sort.Strings(st.symbols)

	if _, ok := st.series[benchmark]; !ok {
		return nil, fmt.Errorf("benchmark series %s not found in %s", benchmark, dir)
	}

	st.log.Info().
		Int("symbols", len(st.symbols)).
		Int("dropped_rows", st.DroppedRows).
		Msg("price history loaded")

	return st, nil
}

// loadCSV parses a per-symbol daily bar file. A row is accepted only when it
// has at least 6 fields, a parseable date, and a finite close > 0; everything
// else is dropped and counted.
func loadCSV(symbol, path string) (*Series, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row width is validated per record

	byDate := make(map[string]Bar)
	dropped := 0

	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read csv: %w", err)
	}

	for _, rec := range records {
		if len(rec) < 6 {
			dropped++
			continue
		}
		date, err := time.Parse(config.DateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			// Header rows land here too.
			dropped++
			continue
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
		if err != nil || math.IsNaN(closePrice) || math.IsInf(closePrice, 0) || closePrice <= 0 {
			dropped++
			continue
		}

		key := date.Format(config.DateLayout)
		if _, exists := byDate[key]; exists {
			dropped++
			continue
		}
		byDate[key] = Bar{
			Date:   date,
			Open:   parseFloatOr(rec[1], 0),
			High:   parseFloatOr(rec[2], 0),
			Low:    parseFloatOr(rec[3], 0),
			Close:  closePrice,
			Volume: parseIntOr(rec[5], 0),
		}
	}

	return newSeries(symbol, byDate), dropped, nil
}

// loadSQLite reads a per-symbol history database (daily_prices table).
func loadSQLite(symbol, path string) (*Series, int, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open history db: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	byDate := make(map[string]Bar)
	dropped := 0

	for rows.Next() {
		var (
			dateStr              string
			open, high, low, cls sql.NullFloat64
			volume               sql.NullInt64
		)
		if err := rows.Scan(&dateStr, &open, &high, &low, &cls, &volume); err != nil {
			return nil, 0, fmt.Errorf("failed to scan daily price: %w", err)
		}
		date, err := time.Parse(config.DateLayout, dateStr)
		if err != nil {
			dropped++
			continue
		}
		if !cls.Valid || math.IsNaN(cls.Float64) || math.IsInf(cls.Float64, 0) || cls.Float64 <= 0 {
			dropped++
			continue
		}

		key := date.Format(config.DateLayout)
		if _, exists := byDate[key]; exists {
			dropped++
			continue
		}
		byDate[key] = Bar{
			Date:   date,
			Open:   open.Float64,
			High:   high.Float64,
			Low:    low.Float64,
			Close:  cls.Float64,
			Volume: volume.Int64,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return newSeries(symbol, byDate), dropped, nil
}

// Series returns the loaded series for a symbol.
func (st *Store) Series(symbol string) (*Series, bool) {
	s, ok := st.series[symbol]
	return s, ok
}

// Symbols returns all loaded symbols in ascending order, benchmark included.
func (st *Store) Symbols() []string {
	return st.symbols
}

// BenchmarkSymbol returns the designated benchmark symbol.
func (st *Store) BenchmarkSymbol() string {
	return st.benchmark
}

// Benchmark returns the benchmark series. Load guarantees it exists.
func (st *Store) Benchmark() *Series {
	return st.series[st.benchmark]
}

// TradingDays returns the canonical trading-day sequence for a window,
// taken from the benchmark series (the market calendar reference).
func (st *Store) TradingDays(start, end time.Time) []time.Time {
	bench := st.Benchmark()
	days := make([]time.Time, 0, bench.Len())
	for _, d := range bench.Dates {
		if d.Before(start) || d.After(end) {
			continue
		}
		days = append(days, d)
	}
	return days
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseIntOr(s string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
