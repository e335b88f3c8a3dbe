package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

func testResultWithSeries(roundID, agentID string, n int) *domain.AgentResult {
	r := &domain.AgentResult{
		RoundID:  roundID,
		AgentID:  agentID,
		Strategy: domain.StrategyMomentum,
		Status:   domain.AgentStatusCompleted,
	}
	equity := 100000.0
	alpha := 0.0
	for i := 0; i < n; i++ {
		r.EquityCurve = append(r.EquityCurve, domain.EquityPoint{Tick: i, Equity: equity})
		r.CumulativeAlpha = append(r.CumulativeAlpha, alpha)
		var beta *float64
		if i >= 3 {
			b := 0.8 + float64(i)*0.01
			beta = &b
		}
		r.RollingBeta = append(r.RollingBeta, beta)
		equity += 50
		alpha += 0.0001
	}
	return r
}

func TestCurveStore_InsertAndGetCurve(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCurveStore(conn)

	result := testResultWithSeries("round-001", "agent-a", 8)
	require.NoError(t, store.InsertCurve(ctx, result))

	got, err := store.GetCurve(ctx, "round-001", "agent-a")
	require.NoError(t, err)

	require.Len(t, got.EquityCurve, 8)
	require.Len(t, got.CumulativeAlpha, 8)
	require.Len(t, got.RollingBeta, 8)

	assert.Equal(t, 0, got.EquityCurve[0].Tick)
	assert.InDelta(t, 100000.0, got.EquityCurve[0].Equity, 1e-9)
	assert.InDelta(t, 100350.0, got.EquityCurve[7].Equity, 1e-9)
	assert.InDelta(t, 0.0, got.CumulativeAlpha[0], 1e-12)
	assert.InDelta(t, 0.0007, got.CumulativeAlpha[7], 1e-12)

	// Rolling beta is NULL before its window fills
	assert.Nil(t, got.RollingBeta[0])
	assert.Nil(t, got.RollingBeta[2])
	require.NotNil(t, got.RollingBeta[3])
	assert.InDelta(t, 0.83, *got.RollingBeta[3], 1e-9)
}

func TestCurveStore_InsertReplacesPreviousRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCurveStore(conn)

	require.NoError(t, store.InsertCurve(ctx, testResultWithSeries("round-001", "agent-a", 10)))
	require.NoError(t, store.InsertCurve(ctx, testResultWithSeries("round-001", "agent-a", 6)))

	got, err := store.GetCurve(ctx, "round-001", "agent-a")
	require.NoError(t, err)
	assert.Len(t, got.EquityCurve, 6)
}

func TestCurveStore_AgentsIsolated(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCurveStore(conn)

	require.NoError(t, store.InsertCurve(ctx, testResultWithSeries("round-001", "agent-a", 4)))
	require.NoError(t, store.InsertCurve(ctx, testResultWithSeries("round-001", "agent-b", 7)))

	a, err := store.GetCurve(ctx, "round-001", "agent-a")
	require.NoError(t, err)
	assert.Len(t, a.EquityCurve, 4)

	b, err := store.GetCurve(ctx, "round-001", "agent-b")
	require.NoError(t, err)
	assert.Len(t, b.EquityCurve, 7)
}

func TestCurveStore_GetCurve_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewCurveStore(conn).GetCurve(context.Background(), "round-001", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCurveStore_InsertInvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCurveStore(conn)

	assert.ErrorIs(t, store.InsertCurve(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.InsertCurve(ctx, &domain.AgentResult{RoundID: "r", AgentID: "a"}), storage.ErrInvalidInput)
}
