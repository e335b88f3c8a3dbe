package strategy

import (
	"fmt"
	"math"

	"quant-arena/internal/domain"
	"quant-arena/internal/indicator"
)

// MeanReversionStrategy bets on price returning to its moving average:
// long when the z-score is deeply negative, short when deeply positive,
// exit once price is back near the mean.
type MeanReversionStrategy struct {
	Window int     // z-score lookback window
	EntryZ float64 // |z| above which positions open
	ExitZ  float64 // |z| below which positions close
}

// NewMeanReversionStrategy creates a new MeanReversionStrategy.
func NewMeanReversionStrategy(window int, entryZ, exitZ float64) *MeanReversionStrategy {
	return &MeanReversionStrategy{
		Window: window,
		EntryZ: entryZ,
		ExitZ:  exitZ,
	}
}

// Type returns the strategy family.
func (s *MeanReversionStrategy) Type() domain.StrategyType {
	return domain.StrategyMeanReversion
}

// Evaluate enters against large z-score deviations and exits near the
// mean. Entry confidence grows with |z|, capped at 1: min(|z|/4, 1).
func (s *MeanReversionStrategy) Evaluate(in *Input) *Intent {
	z := indicator.ZScore(in.Prices, s.Window)
	if z == nil {
		return nil
	}

	switch {
	case *z < -s.EntryZ:
		return &Intent{
			Direction:  DirectionLong,
			Confidence: math.Min(math.Abs(*z)/4.0, 1.0),
			Reason:     fmt.Sprintf("Price oversold (z-score: %.2f)", *z),
		}
	case *z > s.EntryZ:
		return &Intent{
			Direction:  DirectionShort,
			Confidence: math.Min(math.Abs(*z)/4.0, 1.0),
			Reason:     fmt.Sprintf("Price overbought (z-score: %.2f)", *z),
		}
	case math.Abs(*z) < s.ExitZ:
		return &Intent{
			Direction:  DirectionExit,
			Confidence: 0.8,
			Reason:     fmt.Sprintf("Price near mean (z-score: %.2f)", *z),
		}
	default:
		return nil
	}
}

// Ensure MeanReversionStrategy implements Strategy
var _ Strategy = (*MeanReversionStrategy)(nil)
