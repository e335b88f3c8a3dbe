package postgres

import (
	"context"
	"fmt"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// RoundStore implements storage.RoundStore using PostgreSQL.
type RoundStore struct {
	pool *Pool
}

// NewRoundStore creates a new RoundStore.
func NewRoundStore(pool *Pool) *RoundStore {
	return &RoundStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RoundStore = (*RoundStore)(nil)

// Insert adds a new round. Returns ErrDuplicateKey if round_id exists.
func (s *RoundStore) Insert(ctx context.Context, r *domain.Round) error {
	if r == nil || r.RoundID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO rounds (
			round_id, name, status, seed, agent_count, tick_count,
			progress, error_message, created_at, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RoundID, r.Name, string(r.Status), r.Seed, r.AgentCount, r.TickCount,
		r.Progress, r.ErrorMessage, r.CreatedAt, r.StartedAt, r.CompletedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// GetByID retrieves a round by its ID. Returns ErrNotFound if not exists.
func (s *RoundStore) GetByID(ctx context.Context, roundID string) (*domain.Round, error) {
	query := `
		SELECT round_id, name, status, seed, agent_count, tick_count,
		       progress, error_message, created_at, started_at, completed_at
		FROM rounds
		WHERE round_id = $1
	`

	var r domain.Round
	var status string
	err := s.pool.QueryRow(ctx, query, roundID).Scan(
		&r.RoundID, &r.Name, &status, &r.Seed, &r.AgentCount, &r.TickCount,
		&r.Progress, &r.ErrorMessage, &r.CreatedAt, &r.StartedAt, &r.CompletedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get round by id: %w", err)
	}
	r.Status = domain.RoundStatus(status)
	return &r, nil
}

// List retrieves rounds ordered by created_at DESC. limit <= 0 retrieves all.
func (s *RoundStore) List(ctx context.Context, limit int) ([]*domain.Round, error) {
	query := `
		SELECT round_id, name, status, seed, agent_count, tick_count,
		       progress, error_message, created_at, started_at, completed_at
		FROM rounds
		ORDER BY created_at DESC, round_id ASC
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*domain.Round
	for rows.Next() {
		var r domain.Round
		var status string
		err := rows.Scan(
			&r.RoundID, &r.Name, &status, &r.Seed, &r.AgentCount, &r.TickCount,
			&r.Progress, &r.ErrorMessage, &r.CreatedAt, &r.StartedAt, &r.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan round row: %w", err)
		}
		r.Status = domain.RoundStatus(status)
		rounds = append(rounds, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate round rows: %w", err)
	}
	return rounds, nil
}

// UpdateStatus transitions a round's status, stamping started_at on
// RUNNING and completed_at on terminal states. Returns ErrNotFound if
// not exists.
func (s *RoundStore) UpdateStatus(ctx context.Context, roundID string, status domain.RoundStatus, errorMessage *string, atMs int64) error {
	query := `
		UPDATE rounds
		SET status = $2,
		    error_message = $3,
		    started_at = CASE WHEN $2 = 'RUNNING' THEN $4 ELSE started_at END,
		    completed_at = CASE WHEN $2 IN ('COMPLETED', 'FAILED') THEN $4 ELSE completed_at END
		WHERE round_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, roundID, string(status), errorMessage, atMs)
	if err != nil {
		return fmt.Errorf("update round status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateProgress records round progress in [0, 100]. Returns
// ErrNotFound if not exists.
func (s *RoundStore) UpdateProgress(ctx context.Context, roundID string, progress float64) error {
	if progress < 0 || progress > 100 {
		return storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, `UPDATE rounds SET progress = $2 WHERE round_id = $1`, roundID, progress)
	if err != nil {
		return fmt.Errorf("update round progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
