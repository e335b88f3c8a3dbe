package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, round_id, agent_id, tick, seq, timestamp_ms,
	action, signal_price, executed_price, size, fee_cost,
	realized_pnl, equity_after, reason
`

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	query := `
		INSERT INTO trades (` + tradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" || t.RoundID == "" || t.AgentID == "" {
			return storage.ErrInvalidInput
		}

		_, err := tx.Exec(ctx, query,
			t.TradeID, t.RoundID, t.AgentID, t.Tick, t.Seq, t.Timestamp,
			string(t.Action), t.SignalPrice, t.ExecutedPrice, t.Size, t.FeeCost,
			t.RealizedPnl, t.EquityAfter, t.Reason,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade %s: %w", t.TradeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit trades: %w", err)
	}
	return nil
}

// GetByRoundAgent retrieves one agent's trades ordered by (tick, seq) ASC.
func (s *TradeStore) GetByRoundAgent(ctx context.Context, roundID, agentID string) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE round_id = $1 AND agent_id = $2
		ORDER BY tick ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, roundID, agentID)
	if err != nil {
		return nil, fmt.Errorf("get trades by round/agent: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByRound retrieves all trades of a round ordered by (agent_id, tick, seq) ASC.
func (s *TradeStore) GetByRound(ctx context.Context, roundID string) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE round_id = $1
		ORDER BY agent_id ASC, tick ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("get trades by round: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// DeleteByRound removes all trades of a round.
func (s *TradeStore) DeleteByRound(ctx context.Context, roundID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE round_id = $1`, roundID)
	if err != nil {
		return fmt.Errorf("delete trades by round: %w", err)
	}
	return nil
}

// Count returns the total number of stored trades.
func (s *TradeStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trades`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return count, nil
}

func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		var action string
		err := rows.Scan(
			&t.TradeID, &t.RoundID, &t.AgentID, &t.Tick, &t.Seq, &t.Timestamp,
			&action, &t.SignalPrice, &t.ExecutedPrice, &t.Size, &t.FeeCost,
			&t.RealizedPnl, &t.EquityAfter, &t.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		t.Action = domain.TradeAction(action)
		trades = append(trades, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return trades, nil
}
