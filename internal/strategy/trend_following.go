package strategy

import (
	"fmt"
	"math"

	"quant-arena/internal/domain"
	"quant-arena/internal/indicator"
)

// TrendFollowingStrategy trades fast/slow EMA crossovers: long on the
// fast EMA crossing above the slow, short on crossing below. An
// opposite crossover while positioned reverses rather than flattens.
// The instance remembers the previous tick's EMAs, so it serves exactly
// one agent run.
type TrendFollowingStrategy struct {
	FastWindow int // fast EMA window
	SlowWindow int // slow EMA window

	prevFast *float64
	prevSlow *float64
}

// NewTrendFollowingStrategy creates a new TrendFollowingStrategy.
func NewTrendFollowingStrategy(fastWindow, slowWindow int) *TrendFollowingStrategy {
	return &TrendFollowingStrategy{
		FastWindow: fastWindow,
		SlowWindow: slowWindow,
	}
}

// Type returns the strategy family.
func (s *TrendFollowingStrategy) Type() domain.StrategyType {
	return domain.StrategyTrendFollowing
}

// Evaluate signals on crossovers only. The first tick both EMAs are
// defined counts as a cross out of the unknown state, so an established
// trend is entered as soon as the slow window fills. Confidence grows
// with the EMA gap: min(|fast-slow|/slow * 50 + 0.6, 1).
func (s *TrendFollowingStrategy) Evaluate(in *Input) *Intent {
	fast := indicator.EMA(in.Prices, s.FastWindow)
	slow := indicator.EMA(in.Prices, s.SlowWindow)
	if fast == nil || slow == nil {
		s.prevFast, s.prevSlow = fast, slow
		return nil
	}

	crossedUp := *fast > *slow
	crossedDown := *fast < *slow
	if s.prevFast != nil && s.prevSlow != nil {
		crossedUp = *s.prevFast <= *s.prevSlow && *fast > *slow
		crossedDown = *s.prevFast >= *s.prevSlow && *fast < *slow
	}
	s.prevFast, s.prevSlow = fast, slow

	if !crossedUp && !crossedDown {
		return nil
	}

	strength := 0.0
	if *slow != 0 {
		strength = math.Abs(*fast-*slow) / *slow
	}
	confidence := math.Min(strength*50+0.6, 1.0)

	if crossedUp {
		return &Intent{
			Direction:  DirectionLong,
			Confidence: confidence,
			Reason:     fmt.Sprintf("Bullish crossover (fast EMA: %.2f, slow EMA: %.2f)", *fast, *slow),
		}
	}
	return &Intent{
		Direction:  DirectionShort,
		Confidence: confidence,
		Reason:     fmt.Sprintf("Bearish crossover (fast EMA: %.2f, slow EMA: %.2f)", *fast, *slow),
	}
}

// Ensure TrendFollowingStrategy implements Strategy
var _ Strategy = (*TrendFollowingStrategy)(nil)
