package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/milanradisavljevic/stratbench/internal/modules/report"
)

// RunRepository persists completed backtest runs.
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repo", "runs").Logger(),
	}
}

// Save stores one comparison result keyed by its run ID.
func (r *RunRepository) Save(result *report.ComparisonResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", result.RunID, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO backtest_runs (run_id, period_start, period_end, universe_size, top_n, result_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.RunID, result.PeriodStart, result.PeriodEnd, result.UniverseSize, result.TopN, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", result.RunID, err)
	}

	r.log.Debug().Str("run_id", result.RunID).Msg("run persisted")
	return nil
}

// GetResult loads a stored comparison result by run ID.
func (r *RunRepository) GetResult(runID string) (*report.ComparisonResult, error) {
	var payload string
	err := r.db.QueryRow(`
		SELECT result_json FROM backtest_runs WHERE run_id = ?
	`, runID).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	var result report.ComparisonResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &result, nil
}
