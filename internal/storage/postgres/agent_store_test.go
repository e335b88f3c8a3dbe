package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

func createTestAgent(roundID, agentID string) *domain.Agent {
	cfg := domain.AgentConfig{
		AgentID: agentID,
		Name:    "mean reverter",
		Strategy: domain.StrategyParams{
			Type: domain.StrategyMeanReversion,
			MeanReversion: &domain.MeanReversionParams{
				Window: 20,
				EntryZ: 2.0,
				ExitZ:  0.5,
			},
		},
		SignalStack: domain.DefaultSignalStack,
		Risk:        domain.DefaultRisk,
	}
	return &domain.Agent{
		AgentID:   agentID,
		RoundID:   roundID,
		Name:      cfg.Name,
		Config:    cfg,
		CreatedAt: 1700000000000,
	}
}

func TestAgentStore_InsertBulkAndGetByRound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAgentStore(pool)

	agents := []*domain.Agent{
		createTestAgent("round-001", "agent-c"),
		createTestAgent("round-001", "agent-a"),
		createTestAgent("round-001", "agent-b"),
	}
	require.NoError(t, store.InsertBulk(ctx, agents))

	retrieved, err := store.GetByRound(ctx, "round-001")
	require.NoError(t, err)
	require.Len(t, retrieved, 3)

	// Insertion order, not lexical
	assert.Equal(t, "agent-c", retrieved[0].AgentID)
	assert.Equal(t, "agent-a", retrieved[1].AgentID)
	assert.Equal(t, "agent-b", retrieved[2].AgentID)

	// Config round-trips through JSONB
	got := retrieved[0].Config
	assert.Equal(t, domain.StrategyMeanReversion, got.Strategy.Type)
	require.NotNil(t, got.Strategy.MeanReversion)
	assert.Equal(t, 20, got.Strategy.MeanReversion.Window)
	assert.InDelta(t, 2.0, got.Strategy.MeanReversion.EntryZ, 1e-9)
	assert.Nil(t, got.Strategy.TrendFollowing)
	assert.Equal(t, domain.DefaultRisk, got.Risk)
	assert.Equal(t, domain.DefaultSignalStack, got.SignalStack)
}

func TestAgentStore_InsertBulkDuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAgentStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Agent{
		createTestAgent("round-001", "agent-a"),
	}))

	err := store.InsertBulk(ctx, []*domain.Agent{
		createTestAgent("round-001", "agent-b"),
		createTestAgent("round-001", "agent-a"), // duplicate
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// The whole batch failed: agent-b must not be there
	agents, err := store.GetByRound(ctx, "round-001")
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "agent-a", agents[0].AgentID)
}

func TestAgentStore_SameAgentIDAcrossRounds(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAgentStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Agent{createTestAgent("round-001", "agent-a")}))
	require.NoError(t, store.InsertBulk(ctx, []*domain.Agent{createTestAgent("round-002", "agent-a")}))

	agents, err := store.GetByRound(ctx, "round-002")
	require.NoError(t, err)
	assert.Len(t, agents, 1)
}

func TestAgentStore_DeleteByRound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAgentStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Agent{
		createTestAgent("round-001", "agent-a"),
		createTestAgent("round-001", "agent-b"),
	}))
	require.NoError(t, store.InsertBulk(ctx, []*domain.Agent{
		createTestAgent("round-002", "agent-a"),
	}))

	require.NoError(t, store.DeleteByRound(ctx, "round-001"))

	gone, err := store.GetByRound(ctx, "round-001")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := store.GetByRound(ctx, "round-002")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
