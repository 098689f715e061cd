package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func testOrder(localID string, marketID int64) domain.TrackedOrder {
	return domain.TrackedOrder{
		ID:        localID,
		OrderID:   "venue-" + localID,
		MarketID:  marketID,
		Title:     "Test market",
		Price:     0.625,
		Amount:    10,
		CreatedAt: time.Now().Add(-time.Minute),
	}
}

func TestJournal_PlacementAndStats(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordPlacement(ctx, testOrder("a", 1), 2, 800))
	require.NoError(t, j.RecordPlacement(ctx, testOrder("b", 2), 3, 1200))

	stats, err := j.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 2, stats.OpenOrders)
	assert.Equal(t, 0, stats.UnexpectedFills)
	assert.InDelta(t, 20, stats.TotalNotional, 1e-9)
}

func TestJournal_CancelClosesOrder(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordPlacement(ctx, testOrder("a", 1), 2, 800))
	require.NoError(t, j.RecordCancel(ctx, "a", 90*time.Second))

	stats, err := j.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 0, stats.OpenOrders)
	assert.Equal(t, 0, stats.UnexpectedFills)
	assert.InDelta(t, 90, stats.TotalRestingSec, 1e-9)
	assert.InDelta(t, 90, stats.AvgRestingSec(), 1e-9)
}

func TestJournal_FillOutcomes(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordPlacement(ctx, testOrder("full", 1), 2, 800))
	require.NoError(t, j.RecordPlacement(ctx, testOrder("part", 2), 2, 800))

	// Fill completo y fill parcial (status "canceled" con monto ejecutado).
	require.NoError(t, j.RecordFill(ctx, "full", 10, "filled", 300*time.Second))
	require.NoError(t, j.RecordFill(ctx, "part", 3.5, "canceled", 120*time.Second))

	stats, err := j.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 0, stats.OpenOrders)
	assert.Equal(t, 2, stats.UnexpectedFills)

	var outcome string
	row := j.db.QueryRow(`SELECT outcome FROM orders WHERE local_id = 'part'`)
	require.NoError(t, row.Scan(&outcome))
	assert.Equal(t, "partial", outcome)

	row = j.db.QueryRow(`SELECT outcome FROM orders WHERE local_id = 'full'`)
	require.NoError(t, row.Scan(&outcome))
	assert.Equal(t, "filled", outcome)
}

func TestJournal_StatsEmpty(t *testing.T) {
	j := newTestJournal(t)

	stats, err := j.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.AvgRestingSec())
}
