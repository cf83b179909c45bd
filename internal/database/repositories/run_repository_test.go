package repositories

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milanradisavljevic/stratbench/internal/database"
	"github.com/milanradisavljevic/stratbench/internal/modules/report"
)

func TestSaveAndGetResult(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	repo := NewRunRepository(db.Conn(), zerolog.Nop())

	result := &report.ComparisonResult{
		RunID:        "run-123",
		PeriodStart:  "2020-01-02",
		PeriodEnd:    "2024-12-31",
		UniverseSize: 12,
		TopN:         10,
	}
	require.NoError(t, repo.Save(result))

	loaded, err := repo.GetResult("run-123")
	require.NoError(t, err)
	assert.Equal(t, result.RunID, loaded.RunID)
	assert.Equal(t, result.UniverseSize, loaded.UniverseSize)

	t.Run("duplicate run id fails", func(t *testing.T) {
		assert.Error(t, repo.Save(result))
	})

	t.Run("unknown run id fails", func(t *testing.T) {
		_, err := repo.GetResult("missing")
		assert.Error(t, err)
	})
}
