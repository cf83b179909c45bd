package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/milanradisavljevic/stratbench/internal/modules/metrics"
	"github.com/milanradisavljevic/stratbench/internal/modules/simulation"
)

// StrategyResult bundles one run's identity, metrics, and full valuation
// series for the output artifact.
type StrategyResult struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Weights     map[string]float64       `json:"weights,omitempty"`
	Metrics     metrics.StrategyMetrics  `json:"metrics"`
	Daily       []simulation.DailyRecord `json:"daily"`
	Diagnostics simulation.Diagnostics   `json:"diagnostics"`
}

// Entry is one labeled metric value inside a comparison row.
type Entry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MetricComparison is one row of the comparison table, entries best-first.
type MetricComparison struct {
	Metric         string  `json:"metric"`
	HigherIsBetter bool    `json:"higher_is_better"`
	Entries        []Entry `json:"entries"`
	Winner         string  `json:"winner"`
}

// ComparisonResult is the complete structured output of a backtest run.
type ComparisonResult struct {
	RunID              string             `json:"run_id"`
	GeneratedAt        time.Time          `json:"generated_at"`
	PeriodStart        string             `json:"period_start"`
	PeriodEnd          string             `json:"period_end"`
	UniverseSize       int                `json:"universe_size"`
	RebalanceFrequency string             `json:"rebalance_frequency"`
	TopN               int                `json:"top_n"`
	InitialCapital     float64            `json:"initial_capital"`
	Benchmark          StrategyResult     `json:"benchmark"`
	Strategies         []StrategyResult   `json:"strategies"`
	Comparison         []MetricComparison `json:"comparison"`
}

// metricDef describes how to read one metric and which direction wins.
// Max drawdown is a signed percentage, so "less negative is better" is
// simply higher-is-better.
type metricDef struct {
	name   string
	higher bool
	get    func(m metrics.StrategyMetrics) float64
}

var metricDefs = []metricDef{
	{"Total Return %", true, func(m metrics.StrategyMetrics) float64 { return m.TotalReturnPct }},
	{"Annualized Return %", true, func(m metrics.StrategyMetrics) float64 { return m.AnnualizedReturnPct }},
	{"Max Drawdown %", true, func(m metrics.StrategyMetrics) float64 { return m.MaxDrawdownPct }},
	{"Sharpe Ratio", true, func(m metrics.StrategyMetrics) float64 { return m.SharpeRatio }},
	{"Calmar Ratio", true, func(m metrics.StrategyMetrics) float64 { return m.CalmarRatio }},
	{"Volatility %", false, func(m metrics.StrategyMetrics) float64 { return m.VolatilityPct }},
	{"Win Rate %", true, func(m metrics.StrategyMetrics) float64 { return m.WinRatePct }},
}

// RankEntries orders entries best-first for the requested direction. The
// sort is stable, so ties resolve to the first-listed entry.
func RankEntries(entries []Entry, higherIsBetter bool) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if higherIsBetter {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Value < ranked[j].Value
	})
	return ranked
}

// DetermineWinner names the extremal entry in the requested direction.
func DetermineWinner(entries []Entry, higherIsBetter bool) string {
	if len(entries) == 0 {
		return ""
	}
	return RankEntries(entries, higherIsBetter)[0].Label
}

// BuildComparison assembles the per-metric winner table over the strategies
// (in listed order) and the benchmark.
func BuildComparison(strategies []StrategyResult, bench StrategyResult) []MetricComparison {
	rows := make([]MetricComparison, 0, len(metricDefs))
	for _, def := range metricDefs {
		entries := make([]Entry, 0, len(strategies)+1)
		for _, s := range strategies {
			entries = append(entries, Entry{Label: s.Name, Value: def.get(s.Metrics)})
		}
		entries = append(entries, Entry{Label: bench.Name, Value: def.get(bench.Metrics)})

		rows = append(rows, MetricComparison{
			Metric:         def.name,
			HigherIsBetter: def.higher,
			Entries:        RankEntries(entries, def.higher),
			Winner:         DetermineWinner(entries, def.higher),
		})
	}
	return rows
}

// Render writes the human-readable comparison table.
func (r *ComparisonResult) Render(w io.Writer) error {
	fmt.Fprintf(w, "Backtest %s\n", r.RunID)
	fmt.Fprintf(w, "Period: %s .. %s | universe: %d symbols | rebalance: %s | top %d | capital: %.0f\n\n",
		r.PeriodStart, r.PeriodEnd, r.UniverseSize, r.RebalanceFrequency, r.TopN, r.InitialCapital)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprint(tw, "Metric")
	for _, s := range r.Strategies {
		fmt.Fprintf(tw, "\t%s", s.Name)
	}
	fmt.Fprintf(tw, "\t%s\tWinner\n", r.Benchmark.Name)

	for _, row := range r.Comparison {
		byLabel := make(map[string]float64, len(row.Entries))
		for _, e := range row.Entries {
			byLabel[e.Label] = e.Value
		}

		fmt.Fprint(tw, row.Metric)
		for _, s := range r.Strategies {
			fmt.Fprintf(tw, "\t%.2f", byLabel[s.Name])
		}
		fmt.Fprintf(tw, "\t%.2f\t%s\n", byLabel[r.Benchmark.Name], row.Winner)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, s := range r.Strategies {
		d := s.Diagnostics
		if d.MissingValuationPrices > 0 || d.LostLiquidations > 0 {
			fmt.Fprintf(w, "%s: valuations skipped due to missing price: %d, liquidation values lost: %d\n",
				s.Name, d.MissingValuationPrices, d.LostLiquidations)
		}
	}
	return nil
}

// WriteJSON writes the full result artifact into dir and returns its path.
func (r *ComparisonResult) WriteJSON(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("comparison_%s.json", r.RunID))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}
	return path, nil
}
