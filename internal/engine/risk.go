package engine

import (
	"quant-arena/internal/domain"
)

// applyRisk runs the forced-exit checks for this tick, in order:
// equity depletion, max drawdown, stop loss, take profit. At most one
// action fires per tick and a fired action consumes the tick. All four
// limits treat a zero configuration value as disabled.
func (e *Engine) applyRisk(tick int, pt domain.PricePoint) bool {
	price := pt.Price
	marked := e.markedEquity(price)

	// Depletion is an administrative kill: the position is cleared at
	// its marked value without a trade record, so the ledger lands on
	// the depleted equity exactly.
	if marked <= 0 {
		e.pos = nil
		e.equity = marked
		e.kill(domain.ReasonEquityDepleted)
		return true
	}

	// Drawdown is measured against the running peak and checked every
	// tick whether or not a position is open.
	if e.risk.MaxDrawdownPct > 0 && e.peak > 0 {
		if (e.peak-marked)/e.peak >= e.risk.MaxDrawdownPct/100 {
			if e.pos != nil {
				e.closePosition(tick, pt, domain.ReasonMaxDrawdownKill)
			}
			e.kill(domain.ReasonMaxDrawdownKill)
			return true
		}
	}

	if e.pos == nil {
		return false
	}

	// Stop loss and take profit measure the move from the entry fill,
	// in percent, signed so positive is favorable to the position.
	move := (price - e.pos.entryPrice) / e.pos.entryPrice * 100 * positionDirection(e.pos.side)

	if e.risk.StopLossPct > 0 && move <= -e.risk.StopLossPct {
		e.closePosition(tick, pt, domain.ReasonStopLoss)
		return true
	}
	if e.risk.TakeProfitPct > 0 && move >= e.risk.TakeProfitPct {
		e.closePosition(tick, pt, domain.ReasonTakeProfit)
		return true
	}

	return false
}

// kill marks the agent dead. The equity curve keeps appending the
// frozen ledger value for the remaining ticks.
func (e *Engine) kill(reason string) {
	e.killed = true
	e.killReason = reason
}
