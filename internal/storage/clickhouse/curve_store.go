package clickhouse

import (
	"context"
	"fmt"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// CurveStore implements storage.CurveStore using ClickHouse. Each row
// is one tick of an agent's run: equity, cumulative alpha, and the
// rolling beta (NULL before its window fills).
type CurveStore struct {
	conn *Conn
}

// NewCurveStore creates a new CurveStore.
func NewCurveStore(conn *Conn) *CurveStore {
	return &CurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CurveStore = (*CurveStore)(nil)

// InsertCurve stores one agent's per-tick series from its result,
// replacing any previous rows for the same (round, agent).
func (s *CurveStore) InsertCurve(ctx context.Context, result *domain.AgentResult) error {
	if result == nil || result.RoundID == "" || result.AgentID == "" {
		return storage.ErrInvalidInput
	}
	if len(result.EquityCurve) == 0 {
		return storage.ErrInvalidInput
	}

	err := s.conn.Exec(ctx,
		`DELETE FROM equity_curves WHERE round_id = ? AND agent_id = ?`,
		result.RoundID, result.AgentID,
	)
	if err != nil {
		return fmt.Errorf("delete previous curve: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curves (
			round_id, agent_id, tick, equity, cumulative_alpha, rolling_beta
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, pt := range result.EquityCurve {
		var alpha float64
		if i < len(result.CumulativeAlpha) {
			alpha = result.CumulativeAlpha[i]
		}
		var beta *float64
		if i < len(result.RollingBeta) {
			beta = result.RollingBeta[i]
		}
		err = batch.Append(
			result.RoundID, result.AgentID, int32(pt.Tick), pt.Equity, alpha, beta,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetCurve retrieves one agent's series ordered by tick ASC. Returns ErrNotFound if not exists.
func (s *CurveStore) GetCurve(ctx context.Context, roundID, agentID string) (*domain.AgentSeries, error) {
	query := `
		SELECT tick, equity, cumulative_alpha, rolling_beta
		FROM equity_curves
		WHERE round_id = ? AND agent_id = ?
		ORDER BY tick ASC
	`

	rows, err := s.conn.Query(ctx, query, roundID, agentID)
	if err != nil {
		return nil, fmt.Errorf("query equity curve: %w", err)
	}
	defer rows.Close()

	var series domain.AgentSeries
	for rows.Next() {
		var (
			tick   int32
			equity float64
			alpha  float64
			beta   *float64
		)
		if err := rows.Scan(&tick, &equity, &alpha, &beta); err != nil {
			return nil, fmt.Errorf("scan curve row: %w", err)
		}
		series.EquityCurve = append(series.EquityCurve, domain.EquityPoint{
			Tick:   int(tick),
			Equity: equity,
		})
		series.CumulativeAlpha = append(series.CumulativeAlpha, alpha)
		series.RollingBeta = append(series.RollingBeta, beta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve rows: %w", err)
	}

	if len(series.EquityCurve) == 0 {
		return nil, storage.ErrNotFound
	}
	return &series, nil
}
