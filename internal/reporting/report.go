package reporting

import "time"

// Report is the rendered view of one finished round.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Round summary
	Round RoundSummary

	// Per-agent rows in stored agent order
	Agents []AgentRow

	// Trade counts across the round, keyed by action
	TradeCounts TradeCounts
}

// RoundSummary describes the round the report covers.
type RoundSummary struct {
	RoundID     string
	Name        string
	Status      string
	Seed        int64
	TickCount   int
	AgentCount  int
	StartedAt   *int64 // unix ms, nil if never started
	CompletedAt *int64 // unix ms, nil if not terminal
}

// AgentRow is one agent's line in the metrics table. Pointer fields
// mirror the nullable metrics: nil renders as "n/a".
type AgentRow struct {
	AgentID  string
	Name     string
	Strategy string
	Status   string

	Killed     bool
	KillReason string // empty unless killed
	Error      string // empty unless FAILED

	FinalEquity      float64
	TotalReturn      float64
	SharpeRatio      *float64
	MaxDrawdown      float64
	CalmarRatio      *float64
	WinRate          *float64
	Beta             *float64
	Alpha            *float64
	InformationRatio *float64

	TotalTrades   int
	ClosingTrades int
	SurvivalTime  int
}

// TradeCounts totals the round's trade records by action.
type TradeCounts struct {
	OpenLong   int
	OpenShort  int
	CloseLong  int
	CloseShort int
}

// Total returns the number of trade records across all actions.
func (c TradeCounts) Total() int {
	return c.OpenLong + c.OpenShort + c.CloseLong + c.CloseShort
}
