package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/domain/event"
	"pulse/internal/testsupport"
)

func seedEvent(t *testing.T, repo *EventRepository, sentiment string, createdAt time.Time) int64 {
	t.Helper()

	var id int64
	err := repo.db.QueryRowxContext(context.Background(),
		`INSERT INTO events (event_id, sentiment, created_at) VALUES ($1, $2, $3) RETURNING id`,
		uuid.NewString(), sentiment, createdAt,
	).Scan(&id)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = repo.db.Exec(`DELETE FROM events WHERE id = $1`, id)
	})

	return id
}

func findByID(events []event.Event, id int64) *event.Event {
	for i := range events {
		if events[i].ID == id {
			return &events[i]
		}
	}
	return nil
}

func TestEventRepository_ClaimPending(t *testing.T) {
	client := testsupport.NewTestPostgres(t)
	repo := NewEventRepository(client.DB())
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -3)
	oldID := seedEvent(t, repo, "0.125", old)
	todayID := seedEvent(t, repo, "0.500", time.Now().UTC().Add(time.Minute))

	runID := uuid.New()
	claimed, err := repo.ClaimPending(ctx, runID)
	require.NoError(t, err)

	got := findByID(claimed, oldID)
	require.NotNil(t, got, "event created before today must be claimed")
	assert.Equal(t, runID, got.RunID)
	assert.Equal(t, "0.125", got.Sentiment.String())

	assert.Nil(t, findByID(claimed, todayID), "event created today must not be claimed")

	seen := 0
	for i := range claimed {
		if claimed[i].ID == oldID {
			seen++
		}
	}
	assert.Equal(t, 1, seen, "a freshly claimed event must be returned exactly once")
}

func TestEventRepository_ClaimPendingNothingEligible(t *testing.T) {
	client := testsupport.NewTestPostgres(t)
	repo := NewEventRepository(client.DB())

	todayID := seedEvent(t, repo, "0.500", time.Now().UTC().Add(time.Minute))

	claimed, err := repo.ClaimPending(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, findByID(claimed, todayID))

	var stamped int
	err = repo.db.Get(&stamped, `SELECT COUNT(*) FROM events WHERE id = $1 AND run_id IS NOT NULL`, todayID)
	require.NoError(t, err)
	assert.Zero(t, stamped, "an ineligible event must not be stamped")
}

func TestEventRepository_ClaimKeepsStaleStamp(t *testing.T) {
	client := testsupport.NewTestPostgres(t)
	repo := NewEventRepository(client.DB())
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -3)
	id := seedEvent(t, repo, "0.250", old)

	staleRun := uuid.New()
	_, err := repo.ClaimPending(ctx, staleRun)
	require.NoError(t, err)

	// A second run must see the event with its original claim stamp
	claimed, err := repo.ClaimPending(ctx, uuid.New())
	require.NoError(t, err)

	got := findByID(claimed, id)
	require.NotNil(t, got)
	assert.Equal(t, staleRun, got.RunID)
}

func TestEventRepository_Delete(t *testing.T) {
	client := testsupport.NewTestPostgres(t)
	repo := NewEventRepository(client.DB())
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -3)
	id1 := seedEvent(t, repo, "0.100", old)
	id2 := seedEvent(t, repo, "0.200", old)

	require.NoError(t, repo.Delete(ctx, []int64{id1, id2}))

	var count int
	err := repo.db.Get(&count, `SELECT COUNT(*) FROM events WHERE id = ANY($1)`, pq.Array([]int64{id1, id2}))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEventRepository_DeleteEmptyList(t *testing.T) {
	client := testsupport.NewTestPostgres(t)
	repo := NewEventRepository(client.DB())

	assert.NoError(t, repo.Delete(context.Background(), nil))
}
