package postgres

import (
	"context"
	"fmt"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// BarStore implements storage.BarStore using PostgreSQL. It doubles as
// the bar source for replay-mode path construction.
type BarStore struct {
	pool *Pool
}

// NewBarStore creates a new BarStore.
func NewBarStore(pool *Pool) *BarStore {
	return &BarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, interval, timestamp).
func (s *BarStore) InsertBulk(ctx context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	query := `
		INSERT INTO bars (symbol, interval, timestamp_ms, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range bars {
		if b == nil || b.Symbol == "" || b.Interval == "" {
			return storage.ErrInvalidInput
		}

		_, err := tx.Exec(ctx, query,
			b.Symbol, b.Interval, b.Timestamp,
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert bar %s/%s@%d: %w", b.Symbol, b.Interval, b.Timestamp, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit bars: %w", err)
	}
	return nil
}

// GetBars retrieves bars for (symbol, interval) ordered by timestamp ASC. limit <= 0 retrieves all.
func (s *BarStore) GetBars(ctx context.Context, symbol, interval string, limit int) ([]*domain.Bar, error) {
	query := `
		SELECT symbol, interval, timestamp_ms, open, high, low, close, volume
		FROM bars
		WHERE symbol = $1 AND interval = $2
		ORDER BY timestamp_ms ASC
	`
	args := []interface{}{symbol, interval}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	var bars []*domain.Bar
	for rows.Next() {
		var b domain.Bar
		err := rows.Scan(
			&b.Symbol, &b.Interval, &b.Timestamp,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		bars = append(bars, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}
	return bars, nil
}

// CountBars returns the number of stored bars for (symbol, interval).
func (s *BarStore) CountBars(ctx context.Context, symbol, interval string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bars WHERE symbol = $1 AND interval = $2`,
		symbol, interval,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bars: %w", err)
	}
	return count, nil
}
