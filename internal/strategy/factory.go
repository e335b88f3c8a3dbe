package strategy

import (
	"errors"
	"math"

	"quant-arena/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType         = errors.New("unknown strategy type")
	ErrMissingMeanReversionParams  = errors.New("MEAN_REVERSION requires MeanReversion params")
	ErrMissingTrendFollowingParams = errors.New("TREND_FOLLOWING requires TrendFollowing params")
	ErrMissingMomentumParams       = errors.New("MOMENTUM requires Momentum params")
)

// FromConfig builds the full signal pipeline for one agent: the
// strategy variant wrapped in the universal filter stack. The round
// config supplies the volatility baseline and annualization factor for
// the volatility filter. A fresh pipeline must be built per agent run;
// instances carry state.
func FromConfig(cfg domain.AgentConfig, round domain.RoundConfig) (Strategy, error) {
	variant, err := fromParams(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return NewStack(variant, cfg.SignalStack, resolveBaseline(cfg.SignalStack, round), periodsPerYear(round)), nil
}

// fromParams creates the bare strategy variant from its typed
// parameter group.
func fromParams(p domain.StrategyParams) (Strategy, error) {
	switch p.Type {
	case domain.StrategyMeanReversion:
		if p.MeanReversion == nil {
			return nil, ErrMissingMeanReversionParams
		}
		mr := p.MeanReversion
		return NewMeanReversionStrategy(mr.Window, mr.EntryZ, mr.ExitZ), nil
	case domain.StrategyTrendFollowing:
		if p.TrendFollowing == nil {
			return nil, ErrMissingTrendFollowingParams
		}
		tf := p.TrendFollowing
		return NewTrendFollowingStrategy(tf.FastWindow, tf.SlowWindow), nil
	case domain.StrategyMomentum:
		if p.Momentum == nil {
			return nil, ErrMissingMomentumParams
		}
		m := p.Momentum
		return NewMomentumStrategy(m.Window, m.RSIWindow, m.RSIOverbought, m.RSIOversold), nil
	case domain.StrategyGhost:
		return NewGhostStrategy(), nil
	default:
		return nil, ErrUnknownStrategyType
	}
}

// resolveBaseline picks the annualized reference volatility for the
// volatility filter: an explicit baseline wins, otherwise the round's
// base per-tick volatility is annualized, falling back to the stock
// default for replay rounds that do not set one.
func resolveBaseline(cfg domain.SignalStackConfig, round domain.RoundConfig) float64 {
	if cfg.VolatilityBaseline > 0 {
		return cfg.VolatilityBaseline
	}
	base := round.Market.Volatility
	if base <= 0 {
		base = domain.DefaultVolatility
	}
	return base * math.Sqrt(periodsPerYear(round))
}

func periodsPerYear(round domain.RoundConfig) float64 {
	if round.Analytics.PeriodsPerYear > 0 {
		return round.Analytics.PeriodsPerYear
	}
	return domain.DefaultAnalyticsConfig.PeriodsPerYear
}
