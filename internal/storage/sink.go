package storage

import (
	"context"
	"fmt"

	"quant-arena/internal/domain"
)

// StoreSink persists finished rounds into the record stores. Saving a
// round that was stored before replaces its trades, results and series
// wholesale, so a re-simulation never leaves stale records behind.
type StoreSink struct {
	trades  TradeStore
	results ResultStore
	paths   PathStore
	curves  CurveStore
}

// NewStoreSink creates a sink over the two record stores every
// deployment has.
func NewStoreSink(trades TradeStore, results ResultStore) *StoreSink {
	return &StoreSink{trades: trades, results: results}
}

// WithSeriesStores additionally persists the round's price path and
// each agent's tick series. Deployments without a series database skip
// this.
func (s *StoreSink) WithSeriesStores(paths PathStore, curves CurveStore) *StoreSink {
	s.paths = paths
	s.curves = curves
	return s
}

// SaveResult stores one finished round.
func (s *StoreSink) SaveResult(ctx context.Context, outcome *domain.RoundOutcome) error {
	if outcome == nil || outcome.RoundID == "" {
		return ErrInvalidInput
	}

	if err := s.trades.DeleteByRound(ctx, outcome.RoundID); err != nil {
		return fmt.Errorf("delete trades: %w", err)
	}
	if err := s.results.DeleteByRound(ctx, outcome.RoundID); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}

	var trades []*domain.Trade
	for _, res := range outcome.Results {
		trades = append(trades, res.Trades...)
	}
	if len(trades) > 0 {
		if err := s.trades.InsertBulk(ctx, trades); err != nil {
			return fmt.Errorf("insert trades: %w", err)
		}
	}
	if len(outcome.Results) > 0 {
		if err := s.results.InsertBulk(ctx, outcome.Results); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
	}

	if s.paths != nil && outcome.Path != nil {
		if err := s.paths.InsertPath(ctx, outcome.RoundID, outcome.Path); err != nil {
			return fmt.Errorf("insert path: %w", err)
		}
	}
	if s.curves != nil {
		for _, res := range outcome.Results {
			// Failed agents have no series.
			if len(res.EquityCurve) == 0 {
				continue
			}
			if err := s.curves.InsertCurve(ctx, res); err != nil {
				return fmt.Errorf("insert curve for agent %s: %w", res.AgentID, err)
			}
		}
	}
	return nil
}

var _ ResultSink = (*StoreSink)(nil)
