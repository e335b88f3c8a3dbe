// Package strategy maps indicator state to directional trade intents.
// Each agent gets its own strategy instance wrapped in the universal
// signal filter stack; instances may keep per-run state and are not
// safe for concurrent use.
package strategy

import (
	"quant-arena/internal/domain"
)

// Direction is the exposure a strategy wants after the current tick.
// FLAT and EXIT both resolve to "no position": FLAT expresses no
// opinion, EXIT actively closes.
type Direction string

// Intent directions
const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionFlat  Direction = "FLAT"
	DirectionExit  Direction = "EXIT"
)

// Intent is a strategy's desired action for the current tick.
// Confidence scales position size on entries and is in [0,1].
type Intent struct {
	Direction  Direction
	Confidence float64
	Reason     string
}

// Input holds everything a strategy may inspect at a tick.
type Input struct {
	// Prices is the path history up to and including the current tick.
	Prices []float64

	// Position is the agent's current exposure.
	Position domain.PositionSide
}

// Strategy produces trade intents from price history.
type Strategy interface {
	// Evaluate returns the intent for the current tick, or nil to hold.
	// A nil intent leaves the agent's position untouched.
	Evaluate(in *Input) *Intent

	// Type identifies the strategy family.
	Type() domain.StrategyType
}
