package strategy

import (
	"quant-arena/internal/domain"
)

// GhostStrategy is the parameterless buy-and-hold benchmark: it goes
// long at the first tick with full confidence and never exits. Paired
// with the ghost risk profile (fully invested, no risk checks) it
// tracks the price path one-for-one net of entry friction.
type GhostStrategy struct{}

// NewGhostStrategy creates a new GhostStrategy.
func NewGhostStrategy() *GhostStrategy {
	return &GhostStrategy{}
}

// Type returns the strategy family.
func (s *GhostStrategy) Type() domain.StrategyType {
	return domain.StrategyGhost
}

// Evaluate goes long whenever not already long.
func (s *GhostStrategy) Evaluate(in *Input) *Intent {
	if in.Position == domain.PositionLong {
		return nil
	}
	return &Intent{
		Direction:  DirectionLong,
		Confidence: 1.0,
		Reason:     "Buy and hold benchmark",
	}
}

// Ensure GhostStrategy implements Strategy
var _ Strategy = (*GhostStrategy)(nil)
