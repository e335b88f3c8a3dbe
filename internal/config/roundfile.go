// Package config loads round definition files. A round file is YAML
// naming the market, execution and analytics settings plus the agent
// lineup. Identifiers missing from the file are minted as UUIDs, and a
// ghost benchmark agent is appended unless the file opts out.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"quant-arena/internal/domain"
)

// RoundFile is the YAML schema of a round definition.
type RoundFile struct {
	RoundID       string           `yaml:"round_id"`
	Name          string           `yaml:"name"`
	Seed          int64            `yaml:"seed"`
	Workers       int              `yaml:"workers"`
	InitialEquity float64          `yaml:"initial_equity"`
	Market        MarketSection    `yaml:"market"`
	Execution     ExecutionSection `yaml:"execution"`
	Analytics     AnalyticsSection `yaml:"analytics"`
	Ghost         *bool            `yaml:"ghost"` // nil means true
	Agents        []AgentSection   `yaml:"agents"`
}

// MarketSection configures the price path. Drift and volatility are
// pointers because zero is a meaningful setting for both.
type MarketSection struct {
	Mode            string         `yaml:"mode"` // synthetic | replay
	NumTicks        int            `yaml:"num_ticks"`
	InitialPrice    float64        `yaml:"initial_price"`
	Drift           *float64       `yaml:"drift"`
	Volatility      *float64       `yaml:"volatility"`
	Regime          *RegimeSection `yaml:"regime"`
	Symbol          string         `yaml:"symbol"`
	BenchmarkSymbol string         `yaml:"benchmark_symbol"`
	Interval        string         `yaml:"interval"`
}

// RegimeSection configures the synthetic regime switcher.
type RegimeSection struct {
	Persistence         float64 `yaml:"persistence"`
	TrendProbability    float64 `yaml:"trend_probability"`
	VolatileProbability float64 `yaml:"volatile_probability"`
}

// ExecutionSection configures trade friction. Zero fees and zero
// slippage are valid, so both fields are pointers.
type ExecutionSection struct {
	FeeRate  *float64 `yaml:"fee_rate"`
	Slippage *float64 `yaml:"slippage"`
}

// AnalyticsSection configures metric computation.
type AnalyticsSection struct {
	PeriodsPerYear    float64 `yaml:"periods_per_year"`
	RollingBetaWindow int     `yaml:"rolling_beta_window"`
}

// AgentSection is one agent entry. Params is a flat bag; only the
// fields relevant to the declared strategy are read.
type AgentSection struct {
	AgentID     string              `yaml:"agent_id"`
	Name        string              `yaml:"name"`
	Strategy    string              `yaml:"strategy"`
	Params      ParamsSection       `yaml:"params"`
	SignalStack *SignalStackSection `yaml:"signal_stack"`
	Risk        *RiskSection        `yaml:"risk"`
}

// ParamsSection pools every strategy family's tunables.
type ParamsSection struct {
	Window        int      `yaml:"window"`
	EntryZ        float64  `yaml:"entry_z"`
	ExitZ         *float64 `yaml:"exit_z"` // zero is valid
	FastWindow    int      `yaml:"fast_window"`
	SlowWindow    int      `yaml:"slow_window"`
	RSIWindow     int      `yaml:"rsi_window"`
	RSIOverbought float64  `yaml:"rsi_overbought"`
	RSIOversold   float64  `yaml:"rsi_oversold"`
}

// SignalStackSection configures the shared signal filters. An omitted
// section means the default stack; an empty one turns every filter off.
type SignalStackSection struct {
	UseSMAFilter        bool    `yaml:"use_sma_filter"`
	SMAWindow           int     `yaml:"sma_window"`
	UseVolatilityFilter bool    `yaml:"use_volatility_filter"`
	VolatilityWindow    int     `yaml:"volatility_window"`
	VolatilityThreshold float64 `yaml:"volatility_threshold"`
	VolatilityBaseline  float64 `yaml:"volatility_baseline"`
}

// RiskSection configures per-agent risk limits, in whole percent.
type RiskSection struct {
	PositionSizePct float64 `yaml:"position_size_pct"`
	StopLossPct     float64 `yaml:"stop_loss_pct"`
	TakeProfitPct   float64 `yaml:"take_profit_pct"`
	MaxDrawdownPct  float64 `yaml:"max_drawdown_pct"`
}

// Per-family fallback parameters used when a round file leaves a
// strategy's tunables out.
var (
	DefaultMeanReversionParams  = domain.MeanReversionParams{Window: 20, EntryZ: 2.0, ExitZ: 0.5}
	DefaultTrendFollowingParams = domain.TrendFollowingParams{FastWindow: 5, SlowWindow: 20}
	DefaultMomentumParams       = domain.MomentumParams{Window: 10, RSIWindow: 14, RSIOverbought: 70, RSIOversold: 30}
)

// LoadRound reads and parses a round definition file.
func LoadRound(path string) (domain.RoundConfig, []domain.AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RoundConfig{}, nil, fmt.Errorf("read round file: %w", err)
	}
	round, agents, err := ParseRound(data)
	if err != nil {
		return domain.RoundConfig{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return round, agents, nil
}

// ParseRound decodes a YAML round definition, fills defaults, mints
// missing identifiers, appends the ghost benchmark agent, and
// validates the result. Unknown YAML keys are rejected.
func ParseRound(data []byte) (domain.RoundConfig, []domain.AgentConfig, error) {
	var file RoundFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return domain.RoundConfig{}, nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	round, err := file.toRoundConfig()
	if err != nil {
		return domain.RoundConfig{}, nil, err
	}

	agents := make([]domain.AgentConfig, 0, len(file.Agents)+1)
	for i := range file.Agents {
		agent, err := file.Agents[i].toAgentConfig()
		if err != nil {
			return domain.RoundConfig{}, nil, err
		}
		agents = append(agents, agent)
	}
	if file.Ghost == nil || *file.Ghost {
		agents = append(agents, domain.GhostAgentConfig(uuid.NewString()))
	}

	if err := round.Validate(); err != nil {
		return domain.RoundConfig{}, nil, err
	}
	for i := range agents {
		if err := agents[i].Validate(); err != nil {
			return domain.RoundConfig{}, nil, err
		}
	}
	return round, agents, nil
}

func (f *RoundFile) toRoundConfig() (domain.RoundConfig, error) {
	mode, err := parseMode(f.Market.Mode)
	if err != nil {
		return domain.RoundConfig{}, err
	}

	round := domain.RoundConfig{
		RoundID:       f.RoundID,
		Name:          f.Name,
		Seed:          f.Seed,
		Workers:       f.Workers,
		InitialEquity: f.InitialEquity,
		Market: domain.MarketConfig{
			Mode:            mode,
			NumTicks:        f.Market.NumTicks,
			InitialPrice:    f.Market.InitialPrice,
			Drift:           domain.DefaultDrift,
			Volatility:      domain.DefaultVolatility,
			Regime:          domain.DefaultRegimeConfig,
			Symbol:          f.Market.Symbol,
			BenchmarkSymbol: f.Market.BenchmarkSymbol,
			Interval:        f.Market.Interval,
		},
		Execution: domain.DefaultExecutionConfig,
		Analytics: domain.DefaultAnalyticsConfig,
	}

	if round.RoundID == "" {
		round.RoundID = uuid.NewString()
	}
	if round.Name == "" {
		round.Name = "round " + shortID(round.RoundID)
	}
	if round.InitialEquity == 0 {
		round.InitialEquity = domain.DefaultInitialEquity
	}
	if round.Market.NumTicks == 0 {
		round.Market.NumTicks = domain.DefaultNumTicks
	}
	if round.Market.InitialPrice == 0 {
		round.Market.InitialPrice = domain.DefaultInitialPrice
	}
	if f.Market.Drift != nil {
		round.Market.Drift = *f.Market.Drift
	}
	if f.Market.Volatility != nil {
		round.Market.Volatility = *f.Market.Volatility
	}
	if r := f.Market.Regime; r != nil {
		round.Market.Regime = domain.RegimeConfig{
			Persistence:         r.Persistence,
			TrendProbability:    r.TrendProbability,
			VolatileProbability: r.VolatileProbability,
		}
	}
	if f.Execution.FeeRate != nil {
		round.Execution.FeeRate = *f.Execution.FeeRate
	}
	if f.Execution.Slippage != nil {
		round.Execution.Slippage = *f.Execution.Slippage
	}
	if f.Analytics.PeriodsPerYear != 0 {
		round.Analytics.PeriodsPerYear = f.Analytics.PeriodsPerYear
	}
	if f.Analytics.RollingBetaWindow != 0 {
		round.Analytics.RollingBetaWindow = f.Analytics.RollingBetaWindow
	}
	return round, nil
}

func (a *AgentSection) toAgentConfig() (domain.AgentConfig, error) {
	strategyType := domain.StrategyType(strings.ToUpper(strings.TrimSpace(a.Strategy)))
	params, err := a.Params.toStrategyParams(strategyType)
	if err != nil {
		return domain.AgentConfig{}, err
	}

	agent := domain.AgentConfig{
		AgentID:     a.AgentID,
		Name:        a.Name,
		Strategy:    params,
		SignalStack: domain.DefaultSignalStack,
		Risk:        domain.DefaultRisk,
	}
	if agent.AgentID == "" {
		agent.AgentID = uuid.NewString()
	}
	if agent.Name == "" {
		agent.Name = strings.ToLower(string(strategyType))
	}
	if s := a.SignalStack; s != nil {
		agent.SignalStack = domain.SignalStackConfig{
			UseSMAFilter:        s.UseSMAFilter,
			SMAWindow:           s.SMAWindow,
			UseVolatilityFilter: s.UseVolatilityFilter,
			VolatilityWindow:    s.VolatilityWindow,
			VolatilityThreshold: s.VolatilityThreshold,
			VolatilityBaseline:  s.VolatilityBaseline,
		}
	}
	if r := a.Risk; r != nil {
		agent.Risk = domain.RiskConfig{
			PositionSizePct: r.PositionSizePct,
			StopLossPct:     r.StopLossPct,
			TakeProfitPct:   r.TakeProfitPct,
			MaxDrawdownPct:  r.MaxDrawdownPct,
		}
	}
	if strategyType == domain.StrategyGhost {
		if a.SignalStack == nil {
			agent.SignalStack = domain.SignalStackConfig{}
		}
		if a.Risk == nil {
			agent.Risk = domain.GhostRisk
		}
	}
	return agent, nil
}

// toStrategyParams picks the fields relevant to the declared family
// and falls back to that family's defaults for unset values.
func (p *ParamsSection) toStrategyParams(t domain.StrategyType) (domain.StrategyParams, error) {
	out := domain.StrategyParams{Type: t}
	switch t {
	case domain.StrategyMeanReversion:
		mr := DefaultMeanReversionParams
		if p.Window != 0 {
			mr.Window = p.Window
		}
		if p.EntryZ != 0 {
			mr.EntryZ = p.EntryZ
		}
		if p.ExitZ != nil {
			mr.ExitZ = *p.ExitZ
		}
		out.MeanReversion = &mr
	case domain.StrategyTrendFollowing:
		tf := DefaultTrendFollowingParams
		if p.FastWindow != 0 {
			tf.FastWindow = p.FastWindow
		}
		if p.SlowWindow != 0 {
			tf.SlowWindow = p.SlowWindow
		}
		out.TrendFollowing = &tf
	case domain.StrategyMomentum:
		mo := DefaultMomentumParams
		if p.Window != 0 {
			mo.Window = p.Window
		}
		if p.RSIWindow != 0 {
			mo.RSIWindow = p.RSIWindow
		}
		if p.RSIOverbought != 0 {
			mo.RSIOverbought = p.RSIOverbought
		}
		if p.RSIOversold != 0 {
			mo.RSIOversold = p.RSIOversold
		}
		out.Momentum = &mo
	case domain.StrategyGhost:
		// No parameters.
	default:
		return out, fmt.Errorf("%w: unknown strategy %q", domain.ErrConfigInvalid, string(t))
	}
	return out, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func parseMode(s string) (domain.MarketMode, error) {
	switch domain.MarketMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return domain.ModeSynthetic, nil
	case domain.ModeSynthetic:
		return domain.ModeSynthetic, nil
	case domain.ModeReplay:
		return domain.ModeReplay, nil
	default:
		return "", fmt.Errorf("%w: unknown market mode %q", domain.ErrConfigInvalid, s)
	}
}
