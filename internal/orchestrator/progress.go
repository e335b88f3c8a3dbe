package orchestrator

import "sync/atomic"

// ProgressSnapshot is a point-in-time view of a running round. Ticks
// count agent-ticks: every agent contributes one per path point, so
// TicksTotal is len(agents) * path length.
type ProgressSnapshot struct {
	TicksDone   int64
	TicksTotal  int64
	AgentsDone  int64
	AgentsTotal int64
	Percent     float64 // 0..100
}

// progressState carries the shared counters of one round. Workers bump
// the atomics; readers snapshot them without locking.
type progressState struct {
	ticksDone  atomic.Int64
	agentsDone atomic.Int64

	ticksTotal  int64
	agentsTotal int64
}

func newProgressState(agents, ticks int) *progressState {
	return &progressState{
		ticksTotal:  int64(agents) * int64(ticks),
		agentsTotal: int64(agents),
	}
}

func (p *progressState) snapshot() ProgressSnapshot {
	snap := ProgressSnapshot{
		TicksDone:   p.ticksDone.Load(),
		TicksTotal:  p.ticksTotal,
		AgentsDone:  p.agentsDone.Load(),
		AgentsTotal: p.agentsTotal,
	}
	if snap.TicksTotal > 0 {
		snap.Percent = float64(snap.TicksDone) / float64(snap.TicksTotal) * 100
	}
	return snap
}

// atomicProgress swaps the active round's state in atomically so
// Progress can be polled while RunRound replaces it.
type atomicProgress struct {
	ptr atomic.Pointer[progressState]
}

func (a *atomicProgress) store(p *progressState) {
	a.ptr.Store(p)
}

func (a *atomicProgress) snapshot() ProgressSnapshot {
	p := a.ptr.Load()
	if p == nil {
		return ProgressSnapshot{}
	}
	return p.snapshot()
}
