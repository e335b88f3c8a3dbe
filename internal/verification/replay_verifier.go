package verification

import (
	"context"
	"fmt"

	"quant-arena/internal/domain"
	"quant-arena/internal/engine"
	"quant-arena/internal/idhash"
	"quant-arena/internal/market"
	"quant-arena/internal/storage"
	"quant-arena/internal/strategy"
)

// ReplayVerifier re-runs agents from their round configuration and
// compares the replayed trades against the stored records. The replay
// builds the price path from the same seed the round ran with, so any
// divergence means either the stored data was tampered with or the
// engine lost determinism.
type ReplayVerifier struct {
	provider *market.Provider
	trades   storage.TradeStore
}

// NewReplayVerifier creates a verifier over the given path provider and
// trade store. The provider must be configured the same way as the one
// the round originally ran with (same bar source for replay rounds).
func NewReplayVerifier(provider *market.Provider, trades storage.TradeStore) *ReplayVerifier {
	return &ReplayVerifier{provider: provider, trades: trades}
}

// VerifyAgent re-runs one agent and diffs its trades against storage.
func (v *ReplayVerifier) VerifyAgent(ctx context.Context, round domain.RoundConfig, agent domain.AgentConfig) (*AgentVerification, error) {
	path, err := v.provider.BuildPath(ctx, round.Seed, round.Market)
	if err != nil {
		return nil, fmt.Errorf("rebuild path: %w", err)
	}
	return v.verifyAgentOnPath(ctx, round, agent, path)
}

// VerifyRound re-runs every agent of a round against a single rebuilt
// path and reports per-agent matches.
func (v *ReplayVerifier) VerifyRound(ctx context.Context, round domain.RoundConfig, agents []domain.AgentConfig) (*RoundVerification, error) {
	path, err := v.provider.BuildPath(ctx, round.Seed, round.Market)
	if err != nil {
		return nil, fmt.Errorf("rebuild path: %w", err)
	}

	report := &RoundVerification{
		RoundID:     round.RoundID,
		TotalAgents: len(agents),
	}
	for _, agent := range agents {
		av, err := v.verifyAgentOnPath(ctx, round, agent, path)
		if err != nil {
			return nil, fmt.Errorf("verify agent %s: %w", agent.AgentID, err)
		}
		if av.Match() {
			report.MatchedAgents++
		} else {
			report.DivergentAgents++
		}
		report.Agents = append(report.Agents, *av)
	}
	return report, nil
}

func (v *ReplayVerifier) verifyAgentOnPath(ctx context.Context, round domain.RoundConfig, agent domain.AgentConfig, path *domain.PricePath) (*AgentVerification, error) {
	stored, err := v.trades.GetByRoundAgent(ctx, round.RoundID, agent.AgentID)
	if err != nil {
		return nil, fmt.Errorf("load stored trades: %w", err)
	}

	strat, err := strategy.FromConfig(agent, round)
	if err != nil {
		return nil, fmt.Errorf("build strategy: %w", err)
	}
	run, err := engine.NewEngine(round.RoundID, agent, strat, round.Execution, round.InitialEquity).Run(path)
	if err != nil {
		return nil, fmt.Errorf("replay run: %w", err)
	}

	result := &AgentVerification{
		AgentID:        agent.AgentID,
		StoredTrades:   len(stored),
		ReplayedTrades: len(run.Trades),
	}

	// Stored trades come back ordered by (tick, seq), the same order the
	// engine emits them, so a positional diff is enough.
	replayed := make(map[string]*domain.Trade, len(run.Trades))
	for _, t := range run.Trades {
		replayed[t.TradeID] = t
	}

	for _, st := range stored {
		tv := TradeVerification{TradeID: st.TradeID}
		rt, ok := replayed[st.TradeID]
		if !ok {
			tv.Divergences = []FieldDivergence{{
				Field:    "TradeID",
				Expected: st.TradeID,
				Actual:   nil,
			}}
		} else {
			tv.Divergences = CompareTrades(st, rt)
		}
		tv.Match = len(tv.Divergences) == 0
		if tv.Match {
			result.MatchedTrades++
		} else {
			result.DivergentTrades++
		}
		result.Trades = append(result.Trades, tv)
	}

	return result, nil
}

// PathFingerprint recomputes a round's path hash so callers can compare
// it against the stored outcome before bothering with a full replay.
func (v *ReplayVerifier) PathFingerprint(ctx context.Context, round domain.RoundConfig) (string, error) {
	path, err := v.provider.BuildPath(ctx, round.Seed, round.Market)
	if err != nil {
		return "", fmt.Errorf("rebuild path: %w", err)
	}
	return idhash.ComputePathHash(round.Seed, path.Prices()), nil
}
