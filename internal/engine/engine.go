// Package engine runs one agent against a price path tick by tick.
// Each tick applies risk limits first, then the strategy intent, then
// marks equity to market. The output is the agent's trade ledger and
// equity curve, which always spans the full path even after a kill.
package engine

import (
	"fmt"
	"sync/atomic"

	"quant-arena/internal/domain"
	"quant-arena/internal/strategy"
)

// position is an open exposure. Entry price is the executed (slipped)
// fill, so unrealized pnl is measured from what the agent actually paid.
type position struct {
	side       domain.PositionSide
	entryPrice float64
	size       float64
	entryTick  int
}

// RunResult is the raw output of one agent run, before analytics.
type RunResult struct {
	Trades      []*domain.Trade
	EquityCurve []domain.EquityPoint // len == path len
	FinalEquity float64              // marked equity at the last tick

	Killed        bool
	KillReason    string // empty unless Killed
	SurvivalTicks int    // ticks completed while alive
}

// Engine executes one agent against a shared price path.
// Not safe for concurrent use; the orchestrator builds one per agent.
type Engine struct {
	roundID string
	agentID string
	strat   strategy.Strategy
	risk    domain.RiskConfig
	exec    domain.ExecutionConfig

	equity float64 // ledger equity: realized pnl and fees only
	peak   float64 // highest marked equity seen so far
	pos    *position
	seq    int // per-agent trade record sequence

	killed     bool
	killReason string
	survival   int
	tick       int

	ticks *atomic.Int64 // optional shared progress counter

	trades []*domain.Trade
	curve  []domain.EquityPoint
}

// NewEngine creates an engine for one agent run. The strategy is built
// by the caller so stub strategies can drive tests.
func NewEngine(roundID string, agent domain.AgentConfig, strat strategy.Strategy, exec domain.ExecutionConfig, initialEquity float64) *Engine {
	return &Engine{
		roundID: roundID,
		agentID: agent.AgentID,
		strat:   strat,
		risk:    agent.Risk,
		exec:    exec,
		equity:  initialEquity,
		peak:    initialEquity,
		trades:  make([]*domain.Trade, 0),
	}
}

// WithTickCounter attaches a shared counter incremented once per
// processed tick, so a caller can track progress across agents.
func (e *Engine) WithTickCounter(c *atomic.Int64) *Engine {
	e.ticks = c
	return e
}

// Run walks the full path and returns the run output. The path is
// shared across agents and is never mutated. A panicking strategy is
// converted into an error carrying the agent identity and the tick it
// died on.
func (e *Engine) Run(path *domain.PricePath) (result *RunResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = &domain.AgentRunError{
				AgentID: e.agentID,
				Tick:    e.tick,
				Err:     fmt.Errorf("panic: %v", rec),
			}
		}
	}()

	prices := path.Prices()
	e.curve = make([]domain.EquityPoint, 0, len(path.Points))

	for t := range path.Points {
		e.step(t, path.Points[t], prices[:t+1])
	}

	final := e.equity
	if n := len(e.curve); n > 0 {
		final = e.curve[n-1].Equity
	}

	return &RunResult{
		Trades:        e.trades,
		EquityCurve:   e.curve,
		FinalEquity:   final,
		Killed:        e.killed,
		KillReason:    e.killReason,
		SurvivalTicks: e.survival,
	}, nil
}

// step processes a single tick. A killed agent only appends its frozen
// equity so the curve length always matches the path length.
func (e *Engine) step(tick int, pt domain.PricePoint, history []float64) {
	e.tick = tick
	if e.ticks != nil {
		defer e.ticks.Add(1)
	}

	if e.killed {
		e.curve = append(e.curve, domain.EquityPoint{Tick: tick, Equity: e.equity})
		return
	}

	// Risk pass. A forced close or kill consumes the tick and the
	// strategy is not consulted.
	if !e.applyRisk(tick, pt) {
		in := &strategy.Input{Prices: history, Position: e.positionSide()}
		e.apply(tick, pt, e.strat.Evaluate(in))
	}

	marked := e.markedEquity(pt.Price)
	e.curve = append(e.curve, domain.EquityPoint{Tick: tick, Equity: marked})
	if marked > e.peak {
		e.peak = marked
	}

	if !e.killed {
		e.survival = tick + 1
	}
}

// apply turns a strategy intent into position transitions. A nil intent
// holds. Reversals close first and reopen on the same tick, in that
// order, both legs carrying the signal's reason.
func (e *Engine) apply(tick int, pt domain.PricePoint, intent *strategy.Intent) {
	if intent == nil {
		return
	}

	switch intent.Direction {
	case strategy.DirectionLong:
		switch {
		case e.pos == nil:
			e.openPosition(tick, pt, domain.PositionLong, intent)
		case e.pos.side == domain.PositionShort:
			e.closePosition(tick, pt, intent.Reason)
			e.openPosition(tick, pt, domain.PositionLong, intent)
		}
	case strategy.DirectionShort:
		switch {
		case e.pos == nil:
			e.openPosition(tick, pt, domain.PositionShort, intent)
		case e.pos.side == domain.PositionLong:
			e.closePosition(tick, pt, intent.Reason)
			e.openPosition(tick, pt, domain.PositionShort, intent)
		}
	case strategy.DirectionExit, strategy.DirectionFlat:
		if e.pos != nil {
			e.closePosition(tick, pt, intent.Reason)
		}
	}
}

// markedEquity is ledger equity plus unrealized pnl at price.
func (e *Engine) markedEquity(price float64) float64 {
	if e.pos == nil {
		return e.equity
	}
	return e.equity + positionDirection(e.pos.side)*(price-e.pos.entryPrice)*e.pos.size
}

func (e *Engine) positionSide() domain.PositionSide {
	if e.pos == nil {
		return domain.PositionFlat
	}
	return e.pos.side
}

// positionDirection maps a side to its pnl sign.
func positionDirection(side domain.PositionSide) float64 {
	if side == domain.PositionShort {
		return -1.0
	}
	return 1.0
}
