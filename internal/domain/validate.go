package domain

import "fmt"

// Validate checks a round configuration before any agent runs.
// Every violation wraps ErrConfigInvalid.
func (c *RoundConfig) Validate() error {
	if c.RoundID == "" {
		return configErr("round_id must be set")
	}
	if c.InitialEquity <= 0 {
		return configErr("initial_equity must be positive, got %v", c.InitialEquity)
	}
	if c.Workers < 0 {
		return configErr("workers must be >= 0, got %d", c.Workers)
	}
	if c.Execution.FeeRate < 0 || c.Execution.FeeRate >= 1 {
		return configErr("execution.fee_rate must be in [0, 1), got %v", c.Execution.FeeRate)
	}
	if c.Execution.Slippage < 0 || c.Execution.Slippage >= 1 {
		return configErr("execution.slippage must be in [0, 1), got %v", c.Execution.Slippage)
	}
	if c.Analytics.PeriodsPerYear <= 0 {
		return configErr("analytics.periods_per_year must be positive, got %v", c.Analytics.PeriodsPerYear)
	}
	if c.Analytics.RollingBetaWindow < 2 {
		return configErr("analytics.rolling_beta_window must be >= 2, got %d", c.Analytics.RollingBetaWindow)
	}
	return c.Market.validate()
}

func (m *MarketConfig) validate() error {
	if m.NumTicks < 2 {
		return configErr("market.num_ticks must be >= 2, got %d", m.NumTicks)
	}
	switch m.Mode {
	case ModeSynthetic:
		if m.InitialPrice <= 0 {
			return configErr("market.initial_price must be positive, got %v", m.InitialPrice)
		}
		if m.Volatility < 0 {
			return configErr("market.volatility must be >= 0, got %v", m.Volatility)
		}
		r := m.Regime
		if r.Persistence < 0 || r.Persistence >= 1 {
			return configErr("market.regime.persistence must be in [0, 1), got %v", r.Persistence)
		}
		if r.TrendProbability < 0 || r.VolatileProbability < 0 {
			return configErr("market.regime probabilities must be >= 0")
		}
		if r.TrendProbability+r.VolatileProbability > 1 {
			return configErr("market.regime trend+volatile probability exceeds 1")
		}
	case ModeReplay:
		if m.Symbol == "" {
			return configErr("market.symbol must be set in replay mode")
		}
		if m.Interval == "" {
			return configErr("market.interval must be set in replay mode")
		}
	default:
		return configErr("market.mode must be %q or %q, got %q", ModeSynthetic, ModeReplay, m.Mode)
	}
	return nil
}

// Validate checks one agent configuration. Every violation wraps
// ErrConfigInvalid.
func (a *AgentConfig) Validate() error {
	if a.AgentID == "" {
		return configErr("agent_id must be set")
	}
	if err := a.Strategy.validate(); err != nil {
		return fmt.Errorf("agent %s: %w", a.AgentID, err)
	}
	if err := a.SignalStack.validate(); err != nil {
		return fmt.Errorf("agent %s: %w", a.AgentID, err)
	}
	if err := a.Risk.validate(a.Strategy.Type); err != nil {
		return fmt.Errorf("agent %s: %w", a.AgentID, err)
	}
	return nil
}

func (p *StrategyParams) validate() error {
	switch p.Type {
	case StrategyMeanReversion:
		mr := p.MeanReversion
		if mr == nil {
			return configErr("mean_reversion params required for %s", p.Type)
		}
		if mr.Window < 2 {
			return configErr("mean_reversion.window must be >= 2, got %d", mr.Window)
		}
		if mr.EntryZ <= 0 {
			return configErr("mean_reversion.entry_z must be positive, got %v", mr.EntryZ)
		}
		if mr.ExitZ < 0 || mr.ExitZ >= mr.EntryZ {
			return configErr("mean_reversion.exit_z must be in [0, entry_z), got %v", mr.ExitZ)
		}
	case StrategyTrendFollowing:
		tf := p.TrendFollowing
		if tf == nil {
			return configErr("trend_following params required for %s", p.Type)
		}
		if tf.FastWindow < 1 {
			return configErr("trend_following.fast_window must be >= 1, got %d", tf.FastWindow)
		}
		if tf.SlowWindow <= tf.FastWindow {
			return configErr("trend_following.slow_window must exceed fast_window, got %d <= %d", tf.SlowWindow, tf.FastWindow)
		}
	case StrategyMomentum:
		mo := p.Momentum
		if mo == nil {
			return configErr("momentum params required for %s", p.Type)
		}
		if mo.Window < 1 {
			return configErr("momentum.window must be >= 1, got %d", mo.Window)
		}
		if mo.RSIWindow < 2 {
			return configErr("momentum.rsi_window must be >= 2, got %d", mo.RSIWindow)
		}
		if mo.RSIOversold <= 0 || mo.RSIOverbought >= 100 || mo.RSIOversold >= mo.RSIOverbought {
			return configErr("momentum RSI bounds must satisfy 0 < oversold < overbought < 100")
		}
	case StrategyGhost:
		// No parameters.
	default:
		return configErr("unknown strategy type %q", p.Type)
	}
	return nil
}

func (s *SignalStackConfig) validate() error {
	if s.UseSMAFilter && s.SMAWindow < 2 {
		return configErr("signal_stack.sma_window must be >= 2 when the trend filter is on, got %d", s.SMAWindow)
	}
	if s.UseVolatilityFilter {
		if s.VolatilityWindow < 2 {
			return configErr("signal_stack.volatility_window must be >= 2 when the volatility filter is on, got %d", s.VolatilityWindow)
		}
		if s.VolatilityThreshold <= 0 {
			return configErr("signal_stack.volatility_threshold must be positive, got %v", s.VolatilityThreshold)
		}
		if s.VolatilityBaseline <= 0 {
			return configErr("signal_stack.volatility_baseline must be positive, got %v", s.VolatilityBaseline)
		}
	}
	return nil
}

func (r *RiskConfig) validate(strategy StrategyType) error {
	if strategy != StrategyGhost && (r.PositionSizePct <= 0 || r.PositionSizePct > 100) {
		return configErr("risk.position_size_pct must be in (0, 100], got %v", r.PositionSizePct)
	}
	checks := []struct {
		name string
		pct  float64
	}{
		{"risk.stop_loss_pct", r.StopLossPct},
		{"risk.take_profit_pct", r.TakeProfitPct},
		{"risk.max_drawdown_pct", r.MaxDrawdownPct},
	}
	for _, c := range checks {
		if c.pct < 0 || c.pct > 100 {
			return configErr("%s must be in [0, 100], got %v", c.name, c.pct)
		}
	}
	return nil
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfigInvalid, fmt.Sprintf(format, args...))
}
