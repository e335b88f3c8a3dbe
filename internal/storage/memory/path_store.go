package memory

import (
	"context"
	"sync"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// PathStore is an in-memory implementation of storage.PathStore.
type PathStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricePath // keyed by round_id
}

// NewPathStore creates a new in-memory path store.
func NewPathStore() *PathStore {
	return &PathStore{
		data: make(map[string]*domain.PricePath),
	}
}

// InsertPath stores a round's path, replacing any previous one so a
// re-run swaps the series wholesale.
func (s *PathStore) InsertPath(_ context.Context, roundID string, path *domain.PricePath) error {
	if roundID == "" || path == nil || len(path.Points) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[roundID] = copyPath(path)
	return nil
}

// GetPath retrieves a round's path. Returns ErrNotFound if not exists.
func (s *PathStore) GetPath(_ context.Context, roundID string) (*domain.PricePath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, exists := s.data[roundID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyPath(path), nil
}

func copyPath(path *domain.PricePath) *domain.PricePath {
	out := &domain.PricePath{
		Points: make([]domain.PricePoint, len(path.Points)),
	}
	copy(out.Points, path.Points)
	if path.BenchmarkReturns != nil {
		out.BenchmarkReturns = make([]float64, len(path.BenchmarkReturns))
		copy(out.BenchmarkReturns, path.BenchmarkReturns)
	}
	if path.Regimes != nil {
		out.Regimes = make([]domain.Regime, len(path.Regimes))
		copy(out.Regimes, path.Regimes)
	}
	return out
}

var _ storage.PathStore = (*PathStore)(nil)
