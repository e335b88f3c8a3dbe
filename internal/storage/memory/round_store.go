// Package memory provides in-memory store implementations for tests
// and the --use-memory mode of the CLI tools. Every store is safe for
// concurrent use and hands out copies, never its own records.
package memory

import (
	"context"
	"sort"
	"sync"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// RoundStore is an in-memory implementation of storage.RoundStore.
type RoundStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Round // keyed by round_id
}

// NewRoundStore creates a new in-memory round store.
func NewRoundStore() *RoundStore {
	return &RoundStore{
		data: make(map[string]*domain.Round),
	}
}

// Insert adds a new round. Returns ErrDuplicateKey if round_id exists.
func (s *RoundStore) Insert(_ context.Context, r *domain.Round) error {
	if r == nil || r.RoundID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RoundID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.RoundID] = &copy
	return nil
}

// GetByID retrieves a round by its ID. Returns ErrNotFound if not exists.
func (s *RoundStore) GetByID(_ context.Context, roundID string) (*domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[roundID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// List retrieves rounds ordered by created_at DESC. limit <= 0 retrieves all.
func (s *RoundStore) List(_ context.Context, limit int) ([]*domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Round, 0, len(s.data))
	for _, r := range s.data {
		copy := *r
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].RoundID > result[j].RoundID
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// UpdateStatus transitions a round's status, stamping started_at on
// RUNNING and completed_at on terminal states. Returns ErrNotFound if
// not exists.
func (s *RoundStore) UpdateStatus(_ context.Context, roundID string, status domain.RoundStatus, errorMessage *string, atMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[roundID]
	if !exists {
		return storage.ErrNotFound
	}

	r.Status = status
	if errorMessage != nil {
		msg := *errorMessage
		r.ErrorMessage = &msg
	} else {
		r.ErrorMessage = nil
	}

	switch status {
	case domain.RoundStatusRunning:
		at := atMs
		r.StartedAt = &at
	case domain.RoundStatusCompleted, domain.RoundStatusFailed:
		at := atMs
		r.CompletedAt = &at
	}
	return nil
}

// UpdateProgress records round progress. Returns ErrNotFound if not exists.
func (s *RoundStore) UpdateProgress(_ context.Context, roundID string, progress float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[roundID]
	if !exists {
		return storage.ErrNotFound
	}

	r.Progress = progress
	return nil
}

var _ storage.RoundStore = (*RoundStore)(nil)
