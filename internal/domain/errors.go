package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two pre-run failure classes. Both abort the
// whole round before any agent ticks.
var (
	// ErrConfigInvalid wraps every round or agent validation failure.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrInsufficientData matches any InsufficientDataError.
	ErrInsufficientData = errors.New("insufficient market data")
)

// InsufficientDataError reports a replay series shorter than the
// requested tick count.
type InsufficientDataError struct {
	Symbol string
	Needed int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient market data for %s: need %d bars, got %d", e.Symbol, e.Needed, e.Got)
}

// Unwrap lets errors.Is(err, ErrInsufficientData) match.
func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// AgentRunError reports an agent that failed mid-simulation. It
// isolates the failure to that agent: the round keeps running.
type AgentRunError struct {
	AgentID string
	Tick    int
	Err     error
}

func (e *AgentRunError) Error() string {
	return fmt.Sprintf("agent %s failed at tick %d: %v", e.AgentID, e.Tick, e.Err)
}

func (e *AgentRunError) Unwrap() error {
	return e.Err
}
