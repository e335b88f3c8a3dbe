package domain

// RoundStatus tracks the lifecycle of a simulation round.
type RoundStatus string

// Round status constants
const (
	RoundStatusPending   RoundStatus = "PENDING"
	RoundStatusRunning   RoundStatus = "RUNNING"
	RoundStatusCompleted RoundStatus = "COMPLETED"
	RoundStatusFailed    RoundStatus = "FAILED"
)

// Round is the persisted lifecycle record of a simulation round.
// Corresponds to the rounds table.
type Round struct {
	RoundID      string      // UUID or caller-supplied identifier
	Name         string      // human-readable label
	Status       RoundStatus // PENDING | RUNNING | COMPLETED | FAILED
	Seed         int64       // master seed for all random streams
	AgentCount   int         // agents in the batch
	TickCount    int         // path length
	Progress     float64     // 0..100, last reported progress
	ErrorMessage *string     // systemic failure detail (nullable)
	CreatedAt    int64       // unix ms
	StartedAt    *int64      // unix ms, nil until the round runs
	CompletedAt  *int64      // unix ms, nil until terminal
}

// RegimeConfig controls the Markov regime transitions of the synthetic
// generator. Probabilities are per tick.
type RegimeConfig struct {
	Persistence         float64 // probability of staying in the current regime
	TrendProbability    float64 // probability of a trend regime on switch, split evenly up/down
	VolatileProbability float64 // probability of HIGH_VOLATILITY on switch
}

// MarketConfig describes the price path for a round.
// Synthetic mode uses Drift/Volatility/Regime; replay mode uses
// Symbol/Interval (and optionally BenchmarkSymbol) against a bar source.
type MarketConfig struct {
	Mode            MarketMode
	NumTicks        int     // path length, >= 2
	InitialPrice    float64 // synthetic starting price
	Drift           float64 // per-tick base drift (log space)
	Volatility      float64 // per-tick base volatility
	Regime          RegimeConfig
	Symbol          string // replay asset symbol
	BenchmarkSymbol string // replay benchmark symbol, optional
	Interval        string // replay bar interval, e.g. "5m"
}

// ExecutionConfig holds round-level trade friction parameters.
type ExecutionConfig struct {
	FeeRate  float64 // fee as fraction of executed notional
	Slippage float64 // adverse price adjustment as fraction of signal price
}

// AnalyticsConfig holds round-level metric parameters.
type AnalyticsConfig struct {
	PeriodsPerYear    float64 // bars per year for annualization
	RollingBetaWindow int     // trailing window for the rolling beta series
}

// RoundConfig is the full input configuration of a round.
type RoundConfig struct {
	RoundID       string
	Name          string
	Seed          int64
	Workers       int     // parallel agent workers, 0 = default
	InitialEquity float64 // starting equity per agent
	Market        MarketConfig
	Execution     ExecutionConfig
	Analytics     AnalyticsConfig
}

// Default round parameters
const (
	DefaultNumTicks      = 1000
	DefaultInitialPrice  = 100.0
	DefaultInitialEquity = 100000.0
	DefaultWorkers       = 8
	DefaultDrift         = 0.0001 // per-tick log drift
	DefaultVolatility    = 0.02   // per-tick volatility
)

// Predefined default configurations
var (
	DefaultRegimeConfig = RegimeConfig{
		Persistence:         0.95,
		TrendProbability:    0.30,
		VolatileProbability: 0.20,
	}

	DefaultExecutionConfig = ExecutionConfig{
		FeeRate:  0.001,
		Slippage: 0.0005,
	}

	DefaultAnalyticsConfig = AnalyticsConfig{
		PeriodsPerYear:    252,
		RollingBetaWindow: 20,
	}
)
