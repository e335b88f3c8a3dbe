package domain

// TradeAction identifies what a trade record did to the position.
type TradeAction string

// Trade action constants
const (
	ActionOpenLong   TradeAction = "OPEN_LONG"
	ActionOpenShort  TradeAction = "OPEN_SHORT"
	ActionCloseLong  TradeAction = "CLOSE_LONG"
	ActionCloseShort TradeAction = "CLOSE_SHORT"
)

// IsClose reports whether the action closes a position.
func (a TradeAction) IsClose() bool {
	return a == ActionCloseLong || a == ActionCloseShort
}

// Trade is one executed transition of an agent's position.
// Corresponds to the trades table. A reversal produces two records on
// the same tick: the close first, then the open, ordered by Seq.
type Trade struct {
	TradeID string // deterministic hash
	RoundID string
	AgentID string

	Tick      int    // 0-based tick index
	Seq       int    // per-agent record sequence, orders same-tick records
	Timestamp *int64 // source bar timestamp (ms), nil for synthetic paths

	Action        TradeAction
	SignalPrice   float64 // market price when the signal fired
	ExecutedPrice float64 // after adverse slippage
	Size          float64 // position units
	FeeCost       float64 // executed_price * size * fee_rate
	RealizedPnl   float64 // 0 for opens; direction*(exit-entry)*size - fee for closes
	EquityAfter   float64 // ledger equity after fees and realized pnl
	Reason        string  // human-readable trigger description
}

// Forced-exit reason strings
const (
	ReasonStopLoss        = "Stop loss hit"
	ReasonTakeProfit      = "Take profit hit"
	ReasonMaxDrawdownKill = "Max drawdown kill"
	ReasonEquityDepleted  = "Equity depleted"
)
