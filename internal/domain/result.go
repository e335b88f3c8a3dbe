package domain

// AgentStatus is the terminal state of one agent within a round.
// A killed agent still COMPLETED: the kill switch is an outcome, not a
// failure.
type AgentStatus string

// Agent status constants
const (
	AgentStatusCompleted AgentStatus = "COMPLETED"
	AgentStatusFailed    AgentStatus = "FAILED"
)

// EquityPoint is one tick of an agent's equity curve.
type EquityPoint struct {
	Tick   int
	Equity float64 // marked-to-market equity after the tick
}

// AgentMetrics is the per-agent performance block. Metrics that are
// undefined for the run stay nil rather than 0 or NaN.
type AgentMetrics struct {
	FinalEquity      float64
	TotalReturn      float64  // final/initial - 1
	SharpeRatio      *float64 // nil when return stddev is 0 or < 2 returns
	MaxDrawdown      float64  // fraction of peak, in [0, 1]
	CalmarRatio      *float64 // nil when max drawdown is 0
	WinRate          *float64 // closing trades only, nil when none
	Beta             *float64 // CAPM beta vs benchmark, nil when undefined
	Alpha            *float64 // annualized alpha, nil when beta undefined
	InformationRatio *float64 // nil when excess-return stddev is 0

	TotalTrades   int // all trade records
	ClosingTrades int // CLOSE_* records
	SurvivalTime  int // ticks completed while alive
}

// AgentResult is everything one agent produced in a round.
type AgentResult struct {
	AgentID  string
	RoundID  string
	Name     string
	Strategy StrategyType
	Status   AgentStatus

	Killed       bool
	KillReason   *string // nil unless killed
	ErrorMessage *string // nil unless Status is FAILED

	Metrics         AgentMetrics
	Trades          []*Trade
	EquityCurve     []EquityPoint // always len == path len for completed agents
	CumulativeAlpha []float64     // running alpha sum, starts at 0, len == path len
	RollingBeta     []*float64    // nil entries before the window fills
}

// AgentSeries is the per-tick series block of one agent's run, as
// stored and served separately from the scalar metrics.
type AgentSeries struct {
	EquityCurve     []EquityPoint
	CumulativeAlpha []float64
	RollingBeta     []*float64
}

// RoundOutcome is the synchronous result of running a round.
type RoundOutcome struct {
	RoundID     string
	Status      RoundStatus
	PathHash    string // fingerprint of the shared price path
	Path        *PricePath
	Results     []*AgentResult // in input agent order
	StartedAt   int64          // unix ms
	CompletedAt int64          // unix ms
}
