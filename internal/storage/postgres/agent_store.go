package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// AgentStore implements storage.AgentStore using PostgreSQL. The agent
// configuration round-trips through a JSONB column; a serial position
// column preserves insertion order for GetByRound.
type AgentStore struct {
	pool *Pool
}

// NewAgentStore creates a new AgentStore.
func NewAgentStore(pool *Pool) *AgentStore {
	return &AgentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AgentStore = (*AgentStore)(nil)

// InsertBulk adds multiple agents atomically. Fails entire batch on any duplicate.
func (s *AgentStore) InsertBulk(ctx context.Context, agents []*domain.Agent) error {
	if len(agents) == 0 {
		return nil
	}

	query := `
		INSERT INTO agents (agent_id, round_id, name, config, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range agents {
		if a == nil || a.AgentID == "" || a.RoundID == "" {
			return storage.ErrInvalidInput
		}

		cfg, err := json.Marshal(a.Config)
		if err != nil {
			return fmt.Errorf("marshal agent config: %w", err)
		}

		_, err = tx.Exec(ctx, query, a.AgentID, a.RoundID, a.Name, cfg, a.CreatedAt)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert agent %s: %w", a.AgentID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit agents: %w", err)
	}
	return nil
}

// GetByRound retrieves all agents of a round in insertion order.
func (s *AgentStore) GetByRound(ctx context.Context, roundID string) ([]*domain.Agent, error) {
	query := `
		SELECT agent_id, round_id, name, config, created_at
		FROM agents
		WHERE round_id = $1
		ORDER BY pos ASC
	`

	rows, err := s.pool.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("get agents by round: %w", err)
	}
	defer rows.Close()

	var agents []*domain.Agent
	for rows.Next() {
		var a domain.Agent
		var cfg []byte
		if err := rows.Scan(&a.AgentID, &a.RoundID, &a.Name, &cfg, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan agent row: %w", err)
		}
		if err := json.Unmarshal(cfg, &a.Config); err != nil {
			return nil, fmt.Errorf("unmarshal agent config: %w", err)
		}
		agents = append(agents, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent rows: %w", err)
	}
	return agents, nil
}

// DeleteByRound removes all agents of a round.
func (s *AgentStore) DeleteByRound(ctx context.Context, roundID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE round_id = $1`, roundID)
	if err != nil {
		return fmt.Errorf("delete agents by round: %w", err)
	}
	return nil
}
