// Package verification checks that persisted simulation output is
// reproducible: it re-runs agents from their stored configuration and
// field-diffs the replayed trades against the stored ones.
package verification

import (
	"math"

	"quant-arena/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons. Replayed
// runs are expected to be bit-identical, but stored values may have
// passed through a database float round-trip.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// TradeVerification is the result of verifying a single trade record.
type TradeVerification struct {
	TradeID     string
	Match       bool
	Divergences []FieldDivergence
}

// AgentVerification is the result of re-running one agent.
type AgentVerification struct {
	AgentID         string
	StoredTrades    int
	ReplayedTrades  int
	MatchedTrades   int
	DivergentTrades int
	Trades          []TradeVerification
}

// Match reports whether every stored trade was reproduced exactly.
func (v *AgentVerification) Match() bool {
	return v.StoredTrades == v.ReplayedTrades && v.DivergentTrades == 0
}

// RoundVerification aggregates per-agent verification of one round.
type RoundVerification struct {
	RoundID         string
	TotalAgents     int
	MatchedAgents   int
	DivergentAgents int
	Agents          []AgentVerification
}

// CompareTrades compares a stored trade against its replayed twin and
// returns the divergent fields. Identifier, tick and reason fields must
// match exactly; prices and pnl within FloatTolerance.
func CompareTrades(stored, replayed *domain.Trade) []FieldDivergence {
	var divergences []FieldDivergence

	diff := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.TradeID != replayed.TradeID {
		diff("TradeID", stored.TradeID, replayed.TradeID)
	}
	if stored.RoundID != replayed.RoundID {
		diff("RoundID", stored.RoundID, replayed.RoundID)
	}
	if stored.AgentID != replayed.AgentID {
		diff("AgentID", stored.AgentID, replayed.AgentID)
	}
	if stored.Tick != replayed.Tick {
		diff("Tick", stored.Tick, replayed.Tick)
	}
	if stored.Seq != replayed.Seq {
		diff("Seq", stored.Seq, replayed.Seq)
	}
	if !int64PtrEquals(stored.Timestamp, replayed.Timestamp) {
		diff("Timestamp", stored.Timestamp, replayed.Timestamp)
	}
	if stored.Action != replayed.Action {
		diff("Action", stored.Action, replayed.Action)
	}
	if !floatEquals(stored.SignalPrice, replayed.SignalPrice) {
		diff("SignalPrice", stored.SignalPrice, replayed.SignalPrice)
	}
	if !floatEquals(stored.ExecutedPrice, replayed.ExecutedPrice) {
		diff("ExecutedPrice", stored.ExecutedPrice, replayed.ExecutedPrice)
	}
	if !floatEquals(stored.Size, replayed.Size) {
		diff("Size", stored.Size, replayed.Size)
	}
	if !floatEquals(stored.FeeCost, replayed.FeeCost) {
		diff("FeeCost", stored.FeeCost, replayed.FeeCost)
	}
	if !floatEquals(stored.RealizedPnl, replayed.RealizedPnl) {
		diff("RealizedPnl", stored.RealizedPnl, replayed.RealizedPnl)
	}
	if !floatEquals(stored.EquityAfter, replayed.EquityAfter) {
		diff("EquityAfter", stored.EquityAfter, replayed.EquityAfter)
	}
	if stored.Reason != replayed.Reason {
		diff("Reason", stored.Reason, replayed.Reason)
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

// int64PtrEquals compares two *int64 values.
// Returns true if both are nil, or both are non-nil and equal.
func int64PtrEquals(a, b *int64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
