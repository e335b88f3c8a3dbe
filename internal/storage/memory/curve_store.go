package memory

import (
	"context"
	"sync"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

type curveKey struct {
	roundID string
	agentID string
}

// CurveStore is an in-memory implementation of storage.CurveStore.
type CurveStore struct {
	mu   sync.RWMutex
	data map[curveKey]*domain.AgentSeries
}

// NewCurveStore creates a new in-memory curve store.
func NewCurveStore() *CurveStore {
	return &CurveStore{
		data: make(map[curveKey]*domain.AgentSeries),
	}
}

// InsertCurve stores one agent's per-tick series, replacing any
// previous ones so a re-run swaps the series wholesale.
func (s *CurveStore) InsertCurve(_ context.Context, result *domain.AgentResult) error {
	if result == nil || result.RoundID == "" || result.AgentID == "" {
		return storage.ErrInvalidInput
	}

	series := copySeries(&domain.AgentSeries{
		EquityCurve:     result.EquityCurve,
		CumulativeAlpha: result.CumulativeAlpha,
		RollingBeta:     result.RollingBeta,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[curveKey{result.RoundID, result.AgentID}] = series
	return nil
}

// GetCurve retrieves one agent's series ordered by tick ASC.
// Returns ErrNotFound if not exists.
func (s *CurveStore) GetCurve(_ context.Context, roundID, agentID string) (*domain.AgentSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, exists := s.data[curveKey{roundID, agentID}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySeries(series), nil
}

func copySeries(in *domain.AgentSeries) *domain.AgentSeries {
	out := &domain.AgentSeries{
		EquityCurve:     make([]domain.EquityPoint, len(in.EquityCurve)),
		CumulativeAlpha: make([]float64, len(in.CumulativeAlpha)),
		RollingBeta:     make([]*float64, len(in.RollingBeta)),
	}
	copy(out.EquityCurve, in.EquityCurve)
	copy(out.CumulativeAlpha, in.CumulativeAlpha)
	for i, b := range in.RollingBeta {
		if b != nil {
			v := *b
			out.RollingBeta[i] = &v
		}
	}
	return out
}

var _ storage.CurveStore = (*CurveStore)(nil)
