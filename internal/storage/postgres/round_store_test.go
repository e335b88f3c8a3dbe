package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

func createTestRound(roundID string, createdAt int64) *domain.Round {
	return &domain.Round{
		RoundID:    roundID,
		Name:       "test round",
		Status:     domain.RoundStatusPending,
		Seed:       42,
		AgentCount: 3,
		TickCount:  1000,
		CreatedAt:  createdAt,
	}
}

func TestRoundStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRoundStore(pool)

	round := createTestRound("round-001", 1700000000000)
	require.NoError(t, store.Insert(ctx, round))

	retrieved, err := store.GetByID(ctx, "round-001")
	require.NoError(t, err)

	assert.Equal(t, round.RoundID, retrieved.RoundID)
	assert.Equal(t, round.Name, retrieved.Name)
	assert.Equal(t, domain.RoundStatusPending, retrieved.Status)
	assert.Equal(t, round.Seed, retrieved.Seed)
	assert.Equal(t, round.AgentCount, retrieved.AgentCount)
	assert.Equal(t, round.TickCount, retrieved.TickCount)
	assert.Equal(t, round.CreatedAt, retrieved.CreatedAt)
	assert.Nil(t, retrieved.ErrorMessage)
	assert.Nil(t, retrieved.StartedAt)
	assert.Nil(t, retrieved.CompletedAt)
}

func TestRoundStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRoundStore(pool)

	require.NoError(t, store.Insert(ctx, createTestRound("round-001", 1700000000000)))

	err := store.Insert(ctx, createTestRound("round-001", 1700000001000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRoundStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewRoundStore(pool).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRoundStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRoundStore(pool)

	require.NoError(t, store.Insert(ctx, createTestRound("round-a", 1700000001000)))
	require.NoError(t, store.Insert(ctx, createTestRound("round-b", 1700000003000)))
	require.NoError(t, store.Insert(ctx, createTestRound("round-c", 1700000002000)))

	rounds, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rounds, 3)

	// Newest first
	assert.Equal(t, "round-b", rounds[0].RoundID)
	assert.Equal(t, "round-c", rounds[1].RoundID)
	assert.Equal(t, "round-a", rounds[2].RoundID)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "round-b", limited[0].RoundID)
}

func TestRoundStore_UpdateStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRoundStore(pool)

	require.NoError(t, store.Insert(ctx, createTestRound("round-001", 1700000000000)))

	// PENDING -> RUNNING stamps started_at
	require.NoError(t, store.UpdateStatus(ctx, "round-001", domain.RoundStatusRunning, nil, 1700000005000))

	r, err := store.GetByID(ctx, "round-001")
	require.NoError(t, err)
	assert.Equal(t, domain.RoundStatusRunning, r.Status)
	require.NotNil(t, r.StartedAt)
	assert.Equal(t, int64(1700000005000), *r.StartedAt)
	assert.Nil(t, r.CompletedAt)

	// RUNNING -> FAILED stamps completed_at and records the error
	require.NoError(t, store.UpdateStatus(ctx, "round-001", domain.RoundStatusFailed, ptr("boom"), 1700000009000))

	r, err = store.GetByID(ctx, "round-001")
	require.NoError(t, err)
	assert.Equal(t, domain.RoundStatusFailed, r.Status)
	require.NotNil(t, r.StartedAt)
	assert.Equal(t, int64(1700000005000), *r.StartedAt)
	require.NotNil(t, r.CompletedAt)
	assert.Equal(t, int64(1700000009000), *r.CompletedAt)
	require.NotNil(t, r.ErrorMessage)
	assert.Equal(t, "boom", *r.ErrorMessage)
}

func TestRoundStore_UpdateStatus_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewRoundStore(pool).UpdateStatus(context.Background(), "missing", domain.RoundStatusRunning, nil, 1700000000000)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRoundStore_UpdateProgress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRoundStore(pool)

	require.NoError(t, store.Insert(ctx, createTestRound("round-001", 1700000000000)))
	require.NoError(t, store.UpdateProgress(ctx, "round-001", 37.5))

	r, err := store.GetByID(ctx, "round-001")
	require.NoError(t, err)
	assert.InDelta(t, 37.5, r.Progress, 1e-9)

	assert.ErrorIs(t, store.UpdateProgress(ctx, "round-001", 101), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.UpdateProgress(ctx, "missing", 50), storage.ErrNotFound)
}
