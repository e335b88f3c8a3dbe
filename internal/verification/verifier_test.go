package verification

import (
	"context"
	"io"
	"log"
	"testing"

	"quant-arena/internal/domain"
	"quant-arena/internal/market"
	"quant-arena/internal/orchestrator"
	"quant-arena/internal/storage"
	"quant-arena/internal/storage/memory"
)

func makeTrade(tick int, action domain.TradeAction) *domain.Trade {
	return &domain.Trade{
		TradeID:       "trade-1",
		RoundID:       "round-1",
		AgentID:       "agent-1",
		Tick:          tick,
		Seq:           0,
		Action:        action,
		SignalPrice:   100.0,
		ExecutedPrice: 100.05,
		Size:          99.5,
		FeeCost:       9.96,
		RealizedPnl:   0,
		EquityAfter:   99990.04,
		Reason:        "z-score -2.3 below entry threshold",
	}
}

func TestCompareTrades_Identical(t *testing.T) {
	a := makeTrade(10, domain.ActionOpenLong)
	b := makeTrade(10, domain.ActionOpenLong)

	divergences := CompareTrades(a, b)
	if len(divergences) != 0 {
		t.Errorf("expected no divergences, got %v", divergences)
	}
}

func TestCompareTrades_WithinTolerance(t *testing.T) {
	a := makeTrade(10, domain.ActionOpenLong)
	b := makeTrade(10, domain.ActionOpenLong)
	b.ExecutedPrice = a.ExecutedPrice + FloatTolerance/2

	divergences := CompareTrades(a, b)
	if len(divergences) != 0 {
		t.Errorf("divergence within tolerance should pass, got %v", divergences)
	}
}

func TestCompareTrades_DivergentFields(t *testing.T) {
	a := makeTrade(10, domain.ActionOpenLong)
	b := makeTrade(10, domain.ActionOpenLong)
	b.ExecutedPrice = 101.0
	b.RealizedPnl = 5.0
	b.Reason = "different reason"

	divergences := CompareTrades(a, b)
	if len(divergences) != 3 {
		t.Fatalf("expected 3 divergences, got %d: %v", len(divergences), divergences)
	}

	fields := make(map[string]bool)
	for _, d := range divergences {
		fields[d.Field] = true
	}
	for _, want := range []string{"ExecutedPrice", "RealizedPnl", "Reason"} {
		if !fields[want] {
			t.Errorf("expected divergence on %s, got %v", want, divergences)
		}
	}
}

func TestCompareTrades_TimestampPointer(t *testing.T) {
	ts := int64(1700000000000)

	a := makeTrade(10, domain.ActionCloseLong)
	b := makeTrade(10, domain.ActionCloseLong)
	a.Timestamp = &ts

	divergences := CompareTrades(a, b)
	if len(divergences) != 1 || divergences[0].Field != "Timestamp" {
		t.Errorf("expected a single Timestamp divergence, got %v", divergences)
	}
}

// runStoredRound runs a round into memory stores and returns the
// configs the verifier needs to replay it.
func runStoredRound(t *testing.T) (domain.RoundConfig, []domain.AgentConfig, *market.Provider, storage.TradeStore) {
	t.Helper()

	round := domain.RoundConfig{
		RoundID:       "round-verify",
		Name:          "verify round",
		Seed:          1234,
		InitialEquity: domain.DefaultInitialEquity,
		Market: domain.MarketConfig{
			Mode:         domain.ModeSynthetic,
			NumTicks:     300,
			InitialPrice: 100,
			Drift:        domain.DefaultDrift,
			Volatility:   domain.DefaultVolatility,
			Regime:       domain.DefaultRegimeConfig,
		},
		Execution: domain.DefaultExecutionConfig,
		Analytics: domain.DefaultAnalyticsConfig,
	}
	agents := []domain.AgentConfig{
		{
			AgentID: "agent-mr",
			Name:    "mean-reversion",
			Strategy: domain.StrategyParams{
				Type:          domain.StrategyMeanReversion,
				MeanReversion: &domain.MeanReversionParams{Window: 20, EntryZ: 1.5, ExitZ: 0.5},
			},
			Risk: domain.DefaultRisk,
		},
		{
			AgentID: "agent-tf",
			Name:    "trend-following",
			Strategy: domain.StrategyParams{
				Type:           domain.StrategyTrendFollowing,
				TrendFollowing: &domain.TrendFollowingParams{FastWindow: 5, SlowWindow: 20},
			},
			Risk: domain.DefaultRisk,
		},
	}

	trades := memory.NewTradeStore()
	results := memory.NewResultStore()
	sink := storage.NewStoreSink(trades, results)

	provider := market.NewProvider(nil)
	runner := orchestrator.NewRunner(provider).
		WithSink(sink).
		WithLogger(log.New(io.Discard, "", 0))

	outcome, err := runner.RunRound(context.Background(), round, agents)
	if err != nil {
		t.Fatalf("RunRound: %v", err)
	}
	if outcome.Status != domain.RoundStatusCompleted {
		t.Fatalf("round status = %s, want COMPLETED", outcome.Status)
	}

	return round, agents, provider, trades
}

func TestReplayVerifier_MatchesStoredRound(t *testing.T) {
	round, agents, provider, trades := runStoredRound(t)

	verifier := NewReplayVerifier(provider, trades)
	report, err := verifier.VerifyRound(context.Background(), round, agents)
	if err != nil {
		t.Fatalf("VerifyRound: %v", err)
	}

	if report.TotalAgents != len(agents) {
		t.Errorf("TotalAgents = %d, want %d", report.TotalAgents, len(agents))
	}
	if report.DivergentAgents != 0 {
		t.Fatalf("expected a clean replay, got %d divergent agents: %+v", report.DivergentAgents, report.Agents)
	}
	if report.MatchedAgents != len(agents) {
		t.Errorf("MatchedAgents = %d, want %d", report.MatchedAgents, len(agents))
	}
}

func TestReplayVerifier_DetectsTamperedTrade(t *testing.T) {
	round, agents, provider, trades := runStoredRound(t)

	ctx := context.Background()
	stored, err := trades.GetByRoundAgent(ctx, round.RoundID, agents[0].AgentID)
	if err != nil {
		t.Fatalf("GetByRoundAgent: %v", err)
	}
	if len(stored) == 0 {
		t.Fatal("expected the mean reversion agent to trade on this seed")
	}

	// Rewrite one stored trade with a shifted pnl.
	tampered := *stored[0]
	tampered.RealizedPnl += 1.0
	if err := trades.DeleteByRound(ctx, round.RoundID); err != nil {
		t.Fatalf("DeleteByRound: %v", err)
	}
	rewritten := append([]*domain.Trade{&tampered}, stored[1:]...)
	if err := trades.InsertBulk(ctx, rewritten); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	verifier := NewReplayVerifier(provider, trades)
	av, err := verifier.VerifyAgent(ctx, round, agents[0])
	if err != nil {
		t.Fatalf("VerifyAgent: %v", err)
	}

	if av.Match() {
		t.Fatal("tampered trade should not verify")
	}
	if av.DivergentTrades != 1 {
		t.Errorf("DivergentTrades = %d, want 1", av.DivergentTrades)
	}
}

func TestReplayVerifier_PathFingerprintStable(t *testing.T) {
	round, _, provider, trades := runStoredRound(t)

	verifier := NewReplayVerifier(provider, trades)
	first, err := verifier.PathFingerprint(context.Background(), round)
	if err != nil {
		t.Fatalf("PathFingerprint: %v", err)
	}
	second, err := verifier.PathFingerprint(context.Background(), round)
	if err != nil {
		t.Fatalf("PathFingerprint: %v", err)
	}
	if first != second {
		t.Errorf("fingerprint not stable: %s vs %s", first, second)
	}
}
