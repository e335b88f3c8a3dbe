package strategy

import (
	"quant-arena/internal/domain"
	"quant-arena/internal/indicator"
)

// Stack wraps a strategy with the universal signal filters. Filters are
// applied identically to every strategy family:
//
//  1. SMA trend filter: vetoes counter-trend openings (long below the
//     SMA, short above it). It never invents intents and never blocks
//     an exit.
//  2. Volatility filter: when realized volatility exceeds
//     threshold * baseline, confidence is scaled by the ratio
//     baseline*threshold/vol so position size shrinks instead of the
//     trade being vetoed.
type Stack struct {
	inner          Strategy
	cfg            domain.SignalStackConfig
	baseline       float64 // resolved annualized reference volatility
	periodsPerYear float64
}

// NewStack wraps inner with the configured filters. baseline is the
// annualized reference volatility the volatility filter compares
// against; periodsPerYear annualizes realized volatility to match.
func NewStack(inner Strategy, cfg domain.SignalStackConfig, baseline, periodsPerYear float64) *Stack {
	return &Stack{
		inner:          inner,
		cfg:            cfg,
		baseline:       baseline,
		periodsPerYear: periodsPerYear,
	}
}

// Type returns the wrapped strategy's family.
func (s *Stack) Type() domain.StrategyType {
	return s.inner.Type()
}

// Evaluate runs the wrapped strategy, then the filters in order.
func (s *Stack) Evaluate(in *Input) *Intent {
	intent := s.inner.Evaluate(in)
	if intent == nil {
		return nil
	}
	if s.cfg.UseSMAFilter && s.vetoed(in, intent) {
		return nil
	}
	if s.cfg.UseVolatilityFilter {
		intent = s.scaleConfidence(in, intent)
	}
	return intent
}

// vetoed reports whether the SMA filter suppresses this intent. Only
// opening intents are subject to the veto; an undefined SMA passes
// everything through.
func (s *Stack) vetoed(in *Input, intent *Intent) bool {
	opening := (intent.Direction == DirectionLong && in.Position != domain.PositionLong) ||
		(intent.Direction == DirectionShort && in.Position != domain.PositionShort)
	if !opening {
		return false
	}

	sma := indicator.SMA(in.Prices, s.cfg.SMAWindow)
	if sma == nil {
		return false
	}

	price := in.Prices[len(in.Prices)-1]
	switch intent.Direction {
	case DirectionLong:
		return price <= *sma
	case DirectionShort:
		return price >= *sma
	default:
		return false
	}
}

// scaleConfidence shrinks confidence when realized volatility runs
// above the configured multiple of the baseline.
func (s *Stack) scaleConfidence(in *Input, intent *Intent) *Intent {
	vol := indicator.RealizedVolatility(in.Prices, s.cfg.VolatilityWindow, s.periodsPerYear)
	if vol == nil {
		return intent
	}

	limit := s.cfg.VolatilityThreshold * s.baseline
	if limit <= 0 || *vol <= limit {
		return intent
	}

	scaled := *intent
	scaled.Confidence = intent.Confidence * (limit / *vol)
	return &scaled
}

// Ensure Stack implements Strategy
var _ Strategy = (*Stack)(nil)
