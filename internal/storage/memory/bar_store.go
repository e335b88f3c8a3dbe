package memory

import (
	"context"
	"sort"
	"sync"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

type barKey struct {
	symbol    string
	interval  string
	timestamp int64
}

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[barKey]*domain.Bar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[barKey]*domain.Bar),
	}
}

// InsertBulk adds multiple bars atomically. Fails entire batch on any
// duplicate (symbol, interval, timestamp).
func (s *BarStore) InsertBulk(_ context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[barKey]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.Symbol == "" || b.Interval == "" {
			return storage.ErrInvalidInput
		}

		key := barKey{b.Symbol, b.Interval, b.Timestamp}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, b := range bars {
		copy := *b
		s.data[barKey{b.Symbol, b.Interval, b.Timestamp}] = &copy
	}
	return nil
}

// GetBars retrieves bars for (symbol, interval) ordered by timestamp ASC.
// limit <= 0 retrieves all.
func (s *BarStore) GetBars(_ context.Context, symbol, interval string, limit int) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for _, b := range s.data {
		if b.Symbol == symbol && b.Interval == interval {
			copy := *b
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// CountBars returns the number of stored bars for (symbol, interval).
func (s *BarStore) CountBars(_ context.Context, symbol, interval string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, b := range s.data {
		if b.Symbol == symbol && b.Interval == interval {
			count++
		}
	}
	return count, nil
}

var _ storage.BarStore = (*BarStore)(nil)
