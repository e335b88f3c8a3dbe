package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

func createTestTrade(tradeID, roundID, agentID string, tick, seq int, action domain.TradeAction) *domain.Trade {
	return &domain.Trade{
		TradeID:       tradeID,
		RoundID:       roundID,
		AgentID:       agentID,
		Tick:          tick,
		Seq:           seq,
		Action:        action,
		SignalPrice:   100.5,
		ExecutedPrice: 100.55,
		Size:          99.45,
		FeeCost:       10.0,
		RealizedPnl:   0,
		EquityAfter:   99990.0,
	}
}

func TestTradeStore_InsertBulkAndGetByRoundAgent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	// Same-tick reversal: close has seq 3, open seq 4
	trades := []*domain.Trade{
		createTestTrade("t-2", "round-001", "agent-a", 50, 4, domain.ActionOpenShort),
		createTestTrade("t-1", "round-001", "agent-a", 50, 3, domain.ActionCloseLong),
		createTestTrade("t-0", "round-001", "agent-a", 10, 2, domain.ActionOpenLong),
	}
	trades[0].Timestamp = ptr(int64(1700000050000))
	require.NoError(t, store.InsertBulk(ctx, trades))

	retrieved, err := store.GetByRoundAgent(ctx, "round-001", "agent-a")
	require.NoError(t, err)
	require.Len(t, retrieved, 3)

	// (tick, seq) ascending
	assert.Equal(t, "t-0", retrieved[0].TradeID)
	assert.Equal(t, "t-1", retrieved[1].TradeID)
	assert.Equal(t, "t-2", retrieved[2].TradeID)

	assert.Equal(t, domain.ActionCloseLong, retrieved[1].Action)
	assert.Nil(t, retrieved[0].Timestamp)
	require.NotNil(t, retrieved[2].Timestamp)
	assert.Equal(t, int64(1700000050000), *retrieved[2].Timestamp)
	assert.InDelta(t, 100.55, retrieved[0].ExecutedPrice, 1e-9)
}

func TestTradeStore_GetByRound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{
		createTestTrade("t-1", "round-001", "agent-b", 5, 0, domain.ActionOpenLong),
		createTestTrade("t-2", "round-001", "agent-a", 9, 0, domain.ActionOpenLong),
		createTestTrade("t-3", "round-001", "agent-a", 2, 0, domain.ActionOpenShort),
		createTestTrade("t-4", "round-002", "agent-a", 1, 0, domain.ActionOpenLong),
	}))

	trades, err := store.GetByRound(ctx, "round-001")
	require.NoError(t, err)
	require.Len(t, trades, 3)

	// (agent_id, tick, seq) ascending
	assert.Equal(t, "t-3", trades[0].TradeID)
	assert.Equal(t, "t-2", trades[1].TradeID)
	assert.Equal(t, "t-1", trades[2].TradeID)
}

func TestTradeStore_InsertBulkDuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{
		createTestTrade("t-1", "round-001", "agent-a", 1, 0, domain.ActionOpenLong),
	}))

	err := store.InsertBulk(ctx, []*domain.Trade{
		createTestTrade("t-2", "round-001", "agent-a", 2, 0, domain.ActionCloseLong),
		createTestTrade("t-1", "round-001", "agent-a", 1, 0, domain.ActionOpenLong),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTradeStore_DeleteByRoundAndCount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{
		createTestTrade("t-1", "round-001", "agent-a", 1, 0, domain.ActionOpenLong),
		createTestTrade("t-2", "round-001", "agent-b", 1, 0, domain.ActionOpenLong),
		createTestTrade("t-3", "round-002", "agent-a", 1, 0, domain.ActionOpenLong),
	}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.DeleteByRound(ctx, "round-001"))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	remaining, err := store.GetByRound(ctx, "round-002")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
