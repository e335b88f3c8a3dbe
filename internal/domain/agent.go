package domain

// StrategyType identifies the strategy family driving an agent.
type StrategyType string

// Strategy type constants
const (
	StrategyMeanReversion  StrategyType = "MEAN_REVERSION"
	StrategyTrendFollowing StrategyType = "TREND_FOLLOWING"
	StrategyMomentum       StrategyType = "MOMENTUM"
	StrategyGhost          StrategyType = "GHOST"
)

// PositionSide identifies the direction of an open position.
type PositionSide string

// Position side constants
const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
	PositionFlat  PositionSide = "FLAT"
)

// MeanReversionParams configures the MEAN_REVERSION strategy.
type MeanReversionParams struct {
	Window int     // z-score lookback window
	EntryZ float64 // |z| above which positions open
	ExitZ  float64 // |z| below which positions close
}

// TrendFollowingParams configures the TREND_FOLLOWING strategy.
type TrendFollowingParams struct {
	FastWindow int // fast EMA window
	SlowWindow int // slow EMA window, must exceed FastWindow
}

// MomentumParams configures the MOMENTUM strategy.
type MomentumParams struct {
	Window        int     // rate-of-change lookback window
	RSIWindow     int     // RSI lookback window
	RSIOverbought float64 // RSI ceiling for long entries
	RSIOversold   float64 // RSI floor for short entries
}

// StrategyParams is the closed set of per-family parameter groups.
// Exactly the group matching Type must be set; GHOST takes none.
type StrategyParams struct {
	Type           StrategyType
	MeanReversion  *MeanReversionParams
	TrendFollowing *TrendFollowingParams
	Momentum       *MomentumParams
}

// SignalStackConfig configures the universal signal filters applied to
// every strategy intent.
type SignalStackConfig struct {
	UseSMAFilter bool // veto counter-trend openings below/above the SMA
	SMAWindow    int

	UseVolatilityFilter bool // scale confidence down in elevated volatility
	VolatilityWindow    int
	VolatilityThreshold float64 // multiple of baseline that triggers scaling
	VolatilityBaseline  float64 // annualized reference volatility
}

// RiskConfig holds per-agent risk limits. All percentages are whole
// percent (5 means 5%). A zero value disables that check.
type RiskConfig struct {
	PositionSizePct float64 // fraction of equity committed per entry, (0, 100]
	StopLossPct     float64 // adverse move from entry forcing a close
	TakeProfitPct   float64 // favorable move from entry forcing a close
	MaxDrawdownPct  float64 // drawdown from peak equity that kills the agent
}

// AgentConfig is the full input configuration of one agent.
type AgentConfig struct {
	AgentID     string
	Name        string
	Strategy    StrategyParams
	SignalStack SignalStackConfig
	Risk        RiskConfig
}

// Agent is the persisted record of an agent within a round.
// Corresponds to the agents table; Config round-trips as JSON.
type Agent struct {
	AgentID   string
	RoundID   string
	Name      string
	Config    AgentConfig
	CreatedAt int64 // unix ms
}

// Predefined agent profiles
var (
	// DefaultSignalStack mirrors the stock filter settings: trend filter
	// on a 20-tick SMA, volatility filter off.
	DefaultSignalStack = SignalStackConfig{
		UseSMAFilter:        true,
		SMAWindow:           20,
		UseVolatilityFilter: false,
		VolatilityWindow:    20,
		VolatilityThreshold: 1.5,
	}

	// DefaultRisk is the stock risk profile for strategy agents.
	DefaultRisk = RiskConfig{
		PositionSizePct: 10,
		StopLossPct:     5,
		TakeProfitPct:   15,
		MaxDrawdownPct:  25,
	}

	// GhostRisk is the benchmark profile: fully invested, every risk
	// check disabled so the agent tracks the path exactly.
	GhostRisk = RiskConfig{
		PositionSizePct: 100,
	}
)

// GhostAgentConfig returns the parameterless buy-and-hold benchmark
// agent. The signal stack is empty and risk checks are disabled.
func GhostAgentConfig(agentID string) AgentConfig {
	return AgentConfig{
		AgentID:  agentID,
		Name:     "GHOST",
		Strategy: StrategyParams{Type: StrategyGhost},
		Risk:     GhostRisk,
	}
}
