package memory

import (
	"context"
	"sync"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
// Results are held per round in insertion order.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.AgentResult // keyed by round_id
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string][]*domain.AgentResult),
	}
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(_ context.Context, results []*domain.AgentResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r == nil || r.AgentID == "" || r.RoundID == "" {
			return storage.ErrInvalidInput
		}

		key := r.RoundID + "|" + r.AgentID
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		for _, existing := range s.data[r.RoundID] {
			if existing.AgentID == r.AgentID {
				return storage.ErrDuplicateKey
			}
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range results {
		copy := *r
		s.data[r.RoundID] = append(s.data[r.RoundID], &copy)
	}
	return nil
}

// GetByRoundAgent retrieves one agent's result. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByRoundAgent(_ context.Context, roundID, agentID string) (*domain.AgentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.data[roundID] {
		if r.AgentID == agentID {
			copy := *r
			return &copy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetByRound retrieves all results of a round in insertion order.
func (s *ResultStore) GetByRound(_ context.Context, roundID string) ([]*domain.AgentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.data[roundID]
	out := make([]*domain.AgentResult, 0, len(results))
	for _, r := range results {
		copy := *r
		out = append(out, &copy)
	}
	return out, nil
}

// DeleteByRound removes all results of a round.
func (s *ResultStore) DeleteByRound(_ context.Context, roundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, roundID)
	return nil
}

var _ storage.ResultStore = (*ResultStore)(nil)
