package storage

import (
	"context"

	"quant-arena/internal/domain"
)

// RoundStore provides access to rounds storage.
type RoundStore interface {
	// Insert adds a new round. Returns ErrDuplicateKey if round_id exists.
	Insert(ctx context.Context, r *domain.Round) error

	// GetByID retrieves a round by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, roundID string) (*domain.Round, error)

	// List retrieves rounds ordered by created_at DESC. limit <= 0 retrieves all.
	List(ctx context.Context, limit int) ([]*domain.Round, error)

	// UpdateStatus transitions a round's status, stamping started_at on
	// RUNNING and completed_at on terminal states. atMs is the transition
	// time in unix ms. Returns ErrNotFound if not exists.
	UpdateStatus(ctx context.Context, roundID string, status domain.RoundStatus, errorMessage *string, atMs int64) error

	// UpdateProgress records round progress in [0, 100]. Returns ErrNotFound if not exists.
	UpdateProgress(ctx context.Context, roundID string, progress float64) error
}

// AgentStore provides access to agents storage.
type AgentStore interface {
	// InsertBulk adds multiple agents atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, agents []*domain.Agent) error

	// GetByRound retrieves all agents of a round in insertion order.
	GetByRound(ctx context.Context, roundID string) ([]*domain.Agent, error)

	// DeleteByRound removes all agents of a round for wholesale replacement on re-run.
	DeleteByRound(ctx context.Context, roundID string) error
}

// TradeStore provides access to trades storage.
type TradeStore interface {
	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByRoundAgent retrieves one agent's trades ordered by (tick, seq) ASC.
	GetByRoundAgent(ctx context.Context, roundID, agentID string) ([]*domain.Trade, error)

	// GetByRound retrieves all trades of a round ordered by (agent_id, tick, seq) ASC.
	GetByRound(ctx context.Context, roundID string) ([]*domain.Trade, error)

	// DeleteByRound removes all trades of a round.
	DeleteByRound(ctx context.Context, roundID string) error

	// Count returns the total number of stored trades.
	Count(ctx context.Context) (int, error)
}

// ResultStore provides access to agent_results storage. Results hold
// the per-agent metric block; tick series live in the curve store.
type ResultStore interface {
	// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, results []*domain.AgentResult) error

	// GetByRoundAgent retrieves one agent's result. Returns ErrNotFound if not exists.
	GetByRoundAgent(ctx context.Context, roundID, agentID string) (*domain.AgentResult, error)

	// GetByRound retrieves all results of a round in agent order.
	GetByRound(ctx context.Context, roundID string) ([]*domain.AgentResult, error)

	// DeleteByRound removes all results of a round.
	DeleteByRound(ctx context.Context, roundID string) error
}

// BarStore provides access to bars storage. It satisfies the replay
// provider's bar source.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, interval, timestamp).
	InsertBulk(ctx context.Context, bars []*domain.Bar) error

	// GetBars retrieves bars for (symbol, interval) ordered by timestamp ASC. limit <= 0 retrieves all.
	GetBars(ctx context.Context, symbol, interval string, limit int) ([]*domain.Bar, error)

	// CountBars returns the number of stored bars for (symbol, interval).
	CountBars(ctx context.Context, symbol, interval string) (int, error)
}

// PathStore provides access to per-round price path series.
type PathStore interface {
	// InsertPath stores a round's full path (points, benchmark returns, regimes).
	InsertPath(ctx context.Context, roundID string, path *domain.PricePath) error

	// GetPath retrieves a round's path ordered by tick ASC. Returns ErrNotFound if not exists.
	GetPath(ctx context.Context, roundID string) (*domain.PricePath, error)
}

// CurveStore provides access to per-agent tick series (equity curve,
// cumulative alpha, rolling beta).
type CurveStore interface {
	// InsertCurve stores one agent's per-tick series from its result.
	InsertCurve(ctx context.Context, result *domain.AgentResult) error

	// GetCurve retrieves one agent's series ordered by tick ASC. Returns ErrNotFound if not exists.
	GetCurve(ctx context.Context, roundID, agentID string) (*domain.AgentSeries, error)
}

// ResultSink receives finished round outcomes. Implementations own
// durability and the wholesale replacement of any previous run of the
// same round.
type ResultSink interface {
	SaveResult(ctx context.Context, outcome *domain.RoundOutcome) error
}
