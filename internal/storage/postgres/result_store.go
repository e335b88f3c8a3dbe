package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL. It holds
// only the scalar metric block per agent; the tick series live in the
// curve store. A serial position column preserves agent order.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

const resultColumns = `
	round_id, agent_id, name, strategy, status, killed, kill_reason,
	error_message, final_equity, total_return, sharpe_ratio, max_drawdown,
	calmar_ratio, win_rate, beta, alpha, information_ratio,
	total_trades, closing_trades, survival_time
`

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(ctx context.Context, results []*domain.AgentResult) error {
	if len(results) == 0 {
		return nil
	}

	query := `
		INSERT INTO agent_results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range results {
		if r == nil || r.RoundID == "" || r.AgentID == "" {
			return storage.ErrInvalidInput
		}

		m := r.Metrics
		_, err := tx.Exec(ctx, query,
			r.RoundID, r.AgentID, r.Name, string(r.Strategy), string(r.Status),
			r.Killed, r.KillReason, r.ErrorMessage,
			m.FinalEquity, m.TotalReturn, m.SharpeRatio, m.MaxDrawdown,
			m.CalmarRatio, m.WinRate, m.Beta, m.Alpha, m.InformationRatio,
			m.TotalTrades, m.ClosingTrades, m.SurvivalTime,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert result %s/%s: %w", r.RoundID, r.AgentID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// GetByRoundAgent retrieves one agent's result. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByRoundAgent(ctx context.Context, roundID, agentID string) (*domain.AgentResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM agent_results
		WHERE round_id = $1 AND agent_id = $2
	`

	row := s.pool.QueryRow(ctx, query, roundID, agentID)
	result, err := scanResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get result by round/agent: %w", err)
	}
	return result, nil
}

// GetByRound retrieves all results of a round in agent order.
func (s *ResultStore) GetByRound(ctx context.Context, roundID string) ([]*domain.AgentResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM agent_results
		WHERE round_id = $1
		ORDER BY pos ASC
	`

	rows, err := s.pool.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("get results by round: %w", err)
	}
	defer rows.Close()

	var results []*domain.AgentResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return results, nil
}

// DeleteByRound removes all results of a round.
func (s *ResultStore) DeleteByRound(ctx context.Context, roundID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM agent_results WHERE round_id = $1`, roundID)
	if err != nil {
		return fmt.Errorf("delete results by round: %w", err)
	}
	return nil
}

func scanResult(row pgx.Row) (*domain.AgentResult, error) {
	var r domain.AgentResult
	var strategy, status string
	err := row.Scan(
		&r.RoundID, &r.AgentID, &r.Name, &strategy, &status,
		&r.Killed, &r.KillReason, &r.ErrorMessage,
		&r.Metrics.FinalEquity, &r.Metrics.TotalReturn, &r.Metrics.SharpeRatio,
		&r.Metrics.MaxDrawdown, &r.Metrics.CalmarRatio, &r.Metrics.WinRate,
		&r.Metrics.Beta, &r.Metrics.Alpha, &r.Metrics.InformationRatio,
		&r.Metrics.TotalTrades, &r.Metrics.ClosingTrades, &r.Metrics.SurvivalTime,
	)
	if err != nil {
		return nil, err
	}
	r.Strategy = domain.StrategyType(strategy)
	r.Status = domain.AgentStatus(status)
	return &r, nil
}
