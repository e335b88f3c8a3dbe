package clickhouse

import (
	"context"
	"fmt"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// PathStore implements storage.PathStore using ClickHouse. Each row is
// one tick of a round's price path; the benchmark return from tick i to
// i+1 is stored on row i and is NULL on the last tick. Replay paths
// carry no regimes and store an empty regime string.
type PathStore struct {
	conn *Conn
}

// NewPathStore creates a new PathStore.
func NewPathStore(conn *Conn) *PathStore {
	return &PathStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PathStore = (*PathStore)(nil)

// InsertPath stores a round's full path, replacing any previous rows
// for the same round.
func (s *PathStore) InsertPath(ctx context.Context, roundID string, path *domain.PricePath) error {
	if roundID == "" || path == nil || path.Len() == 0 {
		return storage.ErrInvalidInput
	}

	if err := s.conn.Exec(ctx, `DELETE FROM path_points WHERE round_id = ?`, roundID); err != nil {
		return fmt.Errorf("delete previous path: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO path_points (
			round_id, tick, timestamp_ms, price, regime, benchmark_return
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, pt := range path.Points {
		regime := ""
		if path.Regimes != nil {
			regime = string(path.Regimes[i])
		}
		var benchReturn *float64
		if i < len(path.BenchmarkReturns) {
			r := path.BenchmarkReturns[i]
			benchReturn = &r
		}
		err = batch.Append(
			roundID, int32(pt.Tick), pt.Timestamp, pt.Price, regime, benchReturn,
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

// GetPath retrieves a round's path ordered by tick ASC. Returns ErrNotFound if not exists.
func (s *PathStore) GetPath(ctx context.Context, roundID string) (*domain.PricePath, error) {
	query := `
		SELECT tick, timestamp_ms, price, regime, benchmark_return
		FROM path_points
		WHERE round_id = ?
		ORDER BY tick ASC
	`

	rows, err := s.conn.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("query path points: %w", err)
	}
	defer rows.Close()

	var path domain.PricePath
	var regimes []domain.Regime
	hasRegimes := false
	for rows.Next() {
		var (
			tick        int32
			timestampMs *int64
			price       float64
			regime      string
			benchReturn *float64
		)
		if err := rows.Scan(&tick, &timestampMs, &price, &regime, &benchReturn); err != nil {
			return nil, fmt.Errorf("scan path point: %w", err)
		}

		path.Points = append(path.Points, domain.PricePoint{
			Tick:      int(tick),
			Timestamp: timestampMs,
			Price:     price,
		})
		if benchReturn != nil {
			path.BenchmarkReturns = append(path.BenchmarkReturns, *benchReturn)
		}
		regimes = append(regimes, domain.Regime(regime))
		if regime != "" {
			hasRegimes = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate path points: %w", err)
	}

	if len(path.Points) == 0 {
		return nil, storage.ErrNotFound
	}
	if hasRegimes {
		path.Regimes = regimes
	}
	return &path, nil
}
