package strategy

import (
	"fmt"
	"math"

	"quant-arena/internal/domain"
	"quant-arena/internal/indicator"
)

// MomentumStrategy buys strength and sells weakness: long on positive
// rate-of-change while RSI is below the overbought ceiling, short on
// negative rate-of-change while RSI is above the oversold floor. A held
// position exits when momentum flips against it or RSI reaches the
// opposite extreme.
type MomentumStrategy struct {
	Window        int     // rate-of-change lookback window
	RSIWindow     int     // RSI lookback window
	RSIOverbought float64 // RSI ceiling gating long entries
	RSIOversold   float64 // RSI floor gating short entries
}

// NewMomentumStrategy creates a new MomentumStrategy.
func NewMomentumStrategy(window, rsiWindow int, rsiOverbought, rsiOversold float64) *MomentumStrategy {
	return &MomentumStrategy{
		Window:        window,
		RSIWindow:     rsiWindow,
		RSIOverbought: rsiOverbought,
		RSIOversold:   rsiOversold,
	}
}

// Type returns the strategy family.
func (s *MomentumStrategy) Type() domain.StrategyType {
	return domain.StrategyMomentum
}

// Evaluate gates entries on RSI so tops are not bought and bottoms not
// sold. Entry confidence grows with momentum: min(|mom|/10 + 0.4, 1).
func (s *MomentumStrategy) Evaluate(in *Input) *Intent {
	mom := indicator.Momentum(in.Prices, s.Window)
	rsi := indicator.RSI(in.Prices, s.RSIWindow)
	if mom == nil || rsi == nil {
		return nil
	}

	confidence := math.Min(math.Abs(*mom)/10.0+0.4, 1.0)

	switch {
	case *mom > 0 && *rsi < s.RSIOverbought:
		return &Intent{
			Direction:  DirectionLong,
			Confidence: confidence,
			Reason:     fmt.Sprintf("Positive momentum (%.2f%%), RSI: %.1f", *mom, *rsi),
		}
	case *mom < 0 && *rsi > s.RSIOversold:
		return &Intent{
			Direction:  DirectionShort,
			Confidence: confidence,
			Reason:     fmt.Sprintf("Negative momentum (%.2f%%), RSI: %.1f", *mom, *rsi),
		}
	case in.Position == domain.PositionLong && *rsi > s.RSIOverbought:
		return &Intent{
			Direction:  DirectionExit,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("RSI overbought (%.1f), exiting long", *rsi),
		}
	case in.Position == domain.PositionLong && *mom < 0:
		return &Intent{
			Direction:  DirectionExit,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("Momentum reversal (%.2f%%), exiting long", *mom),
		}
	case in.Position == domain.PositionShort && *rsi < s.RSIOversold:
		return &Intent{
			Direction:  DirectionExit,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("RSI oversold (%.1f), exiting short", *rsi),
		}
	case in.Position == domain.PositionShort && *mom > 0:
		return &Intent{
			Direction:  DirectionExit,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("Momentum reversal (%.2f%%), exiting short", *mom),
		}
	default:
		return nil
	}
}

// Ensure MomentumStrategy implements Strategy
var _ Strategy = (*MomentumStrategy)(nil)
