package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/domain/rollup"
	"pulse/internal/testsupport"
	pkgerrors "pulse/pkg/errors"
)

// testDay returns a far-past day unlikely to collide with real data
func testDay(t *testing.T, repo *RollupRepository) time.Time {
	t.Helper()

	day := time.Date(1991, 2, 3, 0, 0, 0, 0, time.UTC)
	t.Cleanup(func() {
		_, _ = repo.db.Exec(`DELETE FROM rollup_runs WHERE day = $1`, day)
		_, _ = repo.db.Exec(`DELETE FROM rollups WHERE day = $1`, day)
	})
	return day
}

func TestRollupRepository_GetByDay_NotFound(t *testing.T) {
	client := testsupport.NewTestPostgres(t)
	repo := NewRollupRepository(client.DB())

	day := testDay(t, repo)
	_, err := repo.GetByDay(context.Background(), day)

	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrNotFound))
}

func TestRollupRepository_InsertAndAccumulate(t *testing.T) {
	client := testsupport.NewTestPostgres(t)
	repo := NewRollupRepository(client.DB())
	ctx := context.Background()

	day := testDay(t, repo)
	createRun := uuid.New()

	err := repo.Insert(ctx, &rollup.Rollup{
		Day:       day,
		Sentiment: decimal.RequireFromString("-0.11"),
		Price:     decimal.NewNullDecimal(decimal.RequireFromString("26150.10")),
	}, createRun)
	require.NoError(t, err)

	got, err := repo.GetByDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "-0.11", got.Sentiment.String())
	require.True(t, got.Price.Valid)
	assert.Equal(t, "26150.1", got.Price.Decimal.String())

	// A later run accumulates additively
	laterRun := uuid.New()
	applied, err := repo.Accumulate(ctx, day, decimal.RequireFromString("0.05"), laterRun)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err = repo.GetByDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "-0.06", got.Sentiment.String())
	// Enrichment is untouched by accumulation
	require.True(t, got.Price.Valid)
	assert.Equal(t, "26150.1", got.Price.Decimal.String())

	// The same run id does not apply its delta twice
	applied, err = repo.Accumulate(ctx, day, decimal.RequireFromString("0.05"), laterRun)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err = repo.GetByDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "-0.06", got.Sentiment.String())
}

func TestRollupRepository_AccumulateRemembersEveryAppliedRun(t *testing.T) {
	client := testsupport.NewTestPostgres(t)
	repo := NewRollupRepository(client.DB())
	ctx := context.Background()

	day := testDay(t, repo)
	createRun := uuid.New()

	err := repo.Insert(ctx, &rollup.Rollup{
		Day:       day,
		Sentiment: decimal.Zero,
	}, createRun)
	require.NoError(t, err)

	// Two runs fold their deltas in, as if each crashed before retiring
	// its events
	run1 := uuid.New()
	run2 := uuid.New()

	applied, err := repo.Accumulate(ctx, day, decimal.RequireFromString("0.25"), run1)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.Accumulate(ctx, day, decimal.RequireFromString("0.25"), run2)
	require.NoError(t, err)
	assert.True(t, applied)

	// A retry over both leftover batches must skip both deltas, not just
	// the one from whichever run touched the day last
	applied, err = repo.Accumulate(ctx, day, decimal.RequireFromString("0.25"), run1)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.Accumulate(ctx, day, decimal.RequireFromString("0.25"), run2)
	require.NoError(t, err)
	assert.False(t, applied)

	// The creating run's delta is covered by the ledger too
	applied, err = repo.Accumulate(ctx, day, decimal.RequireFromString("0.25"), createRun)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.GetByDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "0.5", got.Sentiment.String())

	// A genuinely new run still applies
	applied, err = repo.Accumulate(ctx, day, decimal.RequireFromString("0.10"), uuid.New())
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestRollupRepository_AccumulateMissingDay(t *testing.T) {
	client := testsupport.NewTestPostgres(t)
	repo := NewRollupRepository(client.DB())

	day := testDay(t, repo)
	applied, err := repo.Accumulate(context.Background(), day, decimal.RequireFromString("0.05"), uuid.New())

	require.NoError(t, err)
	assert.False(t, applied)
}
