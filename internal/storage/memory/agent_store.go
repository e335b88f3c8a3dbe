package memory

import (
	"context"
	"sync"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// AgentStore is an in-memory implementation of storage.AgentStore.
// Agents are held per round in insertion order.
type AgentStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Agent // keyed by round_id
}

// NewAgentStore creates a new in-memory agent store.
func NewAgentStore() *AgentStore {
	return &AgentStore{
		data: make(map[string][]*domain.Agent),
	}
}

// InsertBulk adds multiple agents atomically. Fails entire batch on any duplicate.
func (s *AgentStore) InsertBulk(_ context.Context, agents []*domain.Agent) error {
	if len(agents) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		if a == nil || a.AgentID == "" || a.RoundID == "" {
			return storage.ErrInvalidInput
		}

		key := a.RoundID + "|" + a.AgentID
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		for _, existing := range s.data[a.RoundID] {
			if existing.AgentID == a.AgentID {
				return storage.ErrDuplicateKey
			}
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, a := range agents {
		copy := *a
		s.data[a.RoundID] = append(s.data[a.RoundID], &copy)
	}
	return nil
}

// GetByRound retrieves all agents of a round in insertion order.
func (s *AgentStore) GetByRound(_ context.Context, roundID string) ([]*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := s.data[roundID]
	result := make([]*domain.Agent, 0, len(agents))
	for _, a := range agents {
		copy := *a
		result = append(result, &copy)
	}
	return result, nil
}

// DeleteByRound removes all agents of a round.
func (s *AgentStore) DeleteByRound(_ context.Context, roundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, roundID)
	return nil
}

var _ storage.AgentStore = (*AgentStore)(nil)
