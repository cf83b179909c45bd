package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DateLayout is the wire format for all dates in input files and config.
const DateLayout = "2006-01-02"

// StrategySpec describes a weighted custom strategy declared in the
// backtest definition file.
type StrategySpec struct {
	Name    string             `yaml:"name"`
	Weights map[string]float64 `yaml:"weights"`
}

// Config holds the immutable run configuration. It is resolved once at
// startup and passed into the backtest service at construction.
type Config struct {
	HistoryDir   string
	OutputDir    string
	DatabasePath string
	BacktestFile string
	LogLevel     string
	PrettyLogs   bool

	BenchmarkSymbol  string
	StartDate        time.Time
	EndDate          time.Time
	InitialCapital   float64
	TopN             int
	RiskFreeRatePct  float64
	RebalanceAnchors []time.Time
	CustomStrategies []StrategySpec
}

// backtestFile is the YAML shape of an optional backtest definition file.
// Anything left empty falls back to the built-in defaults.
type backtestFile struct {
	Period struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"period"`
	InitialCapital  float64        `yaml:"initial_capital"`
	TopN            int            `yaml:"top_n"`
	RiskFreeRatePct float64        `yaml:"risk_free_rate_pct"`
	Benchmark       string         `yaml:"benchmark"`
	Anchors         []string       `yaml:"anchors"`
	Strategies      []StrategySpec `yaml:"strategies"`
}

// Load reads configuration from environment variables and, when present,
// a YAML backtest definition file.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		HistoryDir:      getEnv("HISTORY_DIR", "./data/history"),
		OutputDir:       getEnv("OUTPUT_DIR", "./data/results"),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/backtests.db"),
		BacktestFile:    getEnv("BACKTEST_FILE", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PrettyLogs:      getEnvAsBool("LOG_PRETTY", true),
		BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "SPY"),
		InitialCapital:  getEnvAsFloat("INITIAL_CAPITAL", 100000),
		TopN:            getEnvAsInt("TOP_N", 10),
		RiskFreeRatePct: getEnvAsFloat("RISK_FREE_RATE_PCT", 2.0),
	}

	var err error
	cfg.StartDate, err = time.Parse(DateLayout, getEnv("START_DATE", "2020-01-02"))
	if err != nil {
		return nil, fmt.Errorf("invalid START_DATE: %w", err)
	}
	cfg.EndDate, err = time.Parse(DateLayout, getEnv("END_DATE", "2024-12-31"))
	if err != nil {
		return nil, fmt.Errorf("invalid END_DATE: %w", err)
	}
	cfg.RebalanceAnchors = QuarterlyAnchors(cfg.StartDate.Year(), 20)

	if cfg.BacktestFile != "" {
		if err := cfg.applyFile(cfg.BacktestFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFile overlays a YAML backtest definition onto the defaults.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read backtest file: %w", err)
	}

	var bf backtestFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return fmt.Errorf("failed to parse backtest file: %w", err)
	}

	if bf.Period.Start != "" {
		if c.StartDate, err = time.Parse(DateLayout, bf.Period.Start); err != nil {
			return fmt.Errorf("invalid period.start: %w", err)
		}
	}
	if bf.Period.End != "" {
		if c.EndDate, err = time.Parse(DateLayout, bf.Period.End); err != nil {
			return fmt.Errorf("invalid period.end: %w", err)
		}
	}
	if bf.InitialCapital > 0 {
		c.InitialCapital = bf.InitialCapital
	}
	if bf.TopN > 0 {
		c.TopN = bf.TopN
	}
	if bf.RiskFreeRatePct != 0 {
		c.RiskFreeRatePct = bf.RiskFreeRatePct
	}
	if bf.Benchmark != "" {
		c.BenchmarkSymbol = bf.Benchmark
	}
	if len(bf.Anchors) > 0 {
		anchors := make([]time.Time, 0, len(bf.Anchors))
		for _, a := range bf.Anchors {
			d, err := time.Parse(DateLayout, a)
			if err != nil {
				return fmt.Errorf("invalid anchor %q: %w", a, err)
			}
			anchors = append(anchors, d)
		}
		sort.Slice(anchors, func(i, j int) bool { return anchors[i].Before(anchors[j]) })
		c.RebalanceAnchors = anchors
	} else {
		// Period may have moved; regenerate the default schedule.
		c.RebalanceAnchors = QuarterlyAnchors(c.StartDate.Year(), 20)
	}
	c.CustomStrategies = bf.Strategies

	return nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.HistoryDir == "" {
		return fmt.Errorf("HISTORY_DIR is required")
	}
	if c.BenchmarkSymbol == "" {
		return fmt.Errorf("BENCHMARK_SYMBOL is required")
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %v", c.InitialCapital)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top-N must be positive, got %d", c.TopN)
	}
	if !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("end date %s must be after start date %s",
			c.EndDate.Format(DateLayout), c.StartDate.Format(DateLayout))
	}
	if len(c.RebalanceAnchors) == 0 {
		return fmt.Errorf("at least one rebalance anchor is required")
	}
	for i, spec := range c.CustomStrategies {
		if len(spec.Weights) == 0 {
			return fmt.Errorf("custom strategy %d (%s) has no weights", i, spec.Name)
		}
	}
	return nil
}

// Years returns the evaluation horizon in years, used for annualization.
func (c *Config) Years() float64 {
	return c.EndDate.Sub(c.StartDate).Hours() / (24 * 365.25)
}

// QuarterlyAnchors generates count quarterly calendar anchors starting at
// January 1 of startYear (Jan/Apr/Jul/Oct 1).
func QuarterlyAnchors(startYear, count int) []time.Time {
	anchors := make([]time.Time, 0, count)
	months := []time.Month{time.January, time.April, time.July, time.October}
	for i := 0; i < count; i++ {
		year := startYear + i/4
		anchors = append(anchors, time.Date(year, months[i%4], 1, 0, 0, 0, 0, time.UTC))
	}
	return anchors
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
