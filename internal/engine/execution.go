package engine

import (
	"quant-arena/internal/domain"
	"quant-arena/internal/idhash"
	"quant-arena/internal/strategy"
)

// executedPrice applies adverse slippage: buys fill above the signal
// price, sells below it.
func (e *Engine) executedPrice(signal float64, buy bool) float64 {
	if buy {
		return signal * (1 + e.exec.Slippage)
	}
	return signal * (1 - e.exec.Slippage)
}

// openPosition sizes and opens a new exposure from flat. Size scales
// with the intent's confidence; a computed size <= 0 produces no trade
// and no record. The open fee comes straight out of ledger equity.
func (e *Engine) openPosition(tick int, pt domain.PricePoint, side domain.PositionSide, intent *strategy.Intent) {
	buy := side == domain.PositionLong
	exec := e.executedPrice(pt.Price, buy)

	size := e.equity * e.risk.PositionSizePct / 100 * intent.Confidence / exec
	if size <= 0 {
		return
	}

	fee := exec * size * e.exec.FeeRate
	e.equity -= fee
	e.pos = &position{side: side, entryPrice: exec, size: size, entryTick: tick}

	action := domain.ActionOpenLong
	if side == domain.PositionShort {
		action = domain.ActionOpenShort
	}
	e.record(tick, pt, action, exec, size, fee, 0, intent.Reason)
}

// closePosition realizes the open exposure at the tick price.
// Realized pnl is direction*(executed - entry)*size minus the close
// fee, and ledger equity moves by exactly that amount, so every close
// record satisfies equity_after = equity_before + realized_pnl.
func (e *Engine) closePosition(tick int, pt domain.PricePoint, reason string) {
	pos := e.pos
	buy := pos.side == domain.PositionShort // closing a short buys back
	exec := e.executedPrice(pt.Price, buy)

	fee := exec * pos.size * e.exec.FeeRate
	pnl := positionDirection(pos.side)*(exec-pos.entryPrice)*pos.size - fee
	e.equity += pnl
	e.pos = nil

	action := domain.ActionCloseLong
	if pos.side == domain.PositionShort {
		action = domain.ActionCloseShort
	}
	e.record(tick, pt, action, exec, pos.size, fee, pnl, reason)
}

// record appends a trade to the ledger with a deterministic trade ID.
// Seq orders same-tick records so reversal legs stay in close-then-open
// order.
func (e *Engine) record(tick int, pt domain.PricePoint, action domain.TradeAction, exec, size, fee, pnl float64, reason string) {
	var ts *int64
	if pt.Timestamp != nil {
		v := *pt.Timestamp
		ts = &v
	}

	e.trades = append(e.trades, &domain.Trade{
		TradeID:       idhash.ComputeTradeID(e.roundID, e.agentID, tick, e.seq, string(action)),
		RoundID:       e.roundID,
		AgentID:       e.agentID,
		Tick:          tick,
		Seq:           e.seq,
		Timestamp:     ts,
		Action:        action,
		SignalPrice:   pt.Price,
		ExecutedPrice: exec,
		Size:          size,
		FeeCost:       fee,
		RealizedPnl:   pnl,
		EquityAfter:   e.equity,
		Reason:        reason,
	})
	e.seq++
}
