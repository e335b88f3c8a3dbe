// Package reporting builds human-readable round reports from the
// record stores and renders them as Markdown or CSV. Output is
// deterministic for a given store state and clock.
package reporting

import (
	"context"
	"fmt"
	"time"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

// Generator assembles round reports from stores.
type Generator struct {
	rounds  storage.RoundStore
	results storage.ResultStore
	trades  storage.TradeStore
	clock   func() time.Time
}

// NewGenerator creates a report generator over the given stores.
func NewGenerator(rounds storage.RoundStore, results storage.ResultStore, trades storage.TradeStore) *Generator {
	return &Generator{
		rounds:  rounds,
		results: results,
		trades:  trades,
		clock:   time.Now,
	}
}

// WithClock overrides the report timestamp source for deterministic output.
func (g *Generator) WithClock(clock func() time.Time) *Generator {
	g.clock = clock
	return g
}

// BuildRoundReport assembles the report of one stored round.
func (g *Generator) BuildRoundReport(ctx context.Context, roundID string) (*Report, error) {
	round, err := g.rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("load round %s: %w", roundID, err)
	}

	results, err := g.results.GetByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("load results for round %s: %w", roundID, err)
	}

	trades, err := g.trades.GetByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("load trades for round %s: %w", roundID, err)
	}

	report := &Report{
		GeneratedAt: g.clock().UTC(),
		Round: RoundSummary{
			RoundID:     round.RoundID,
			Name:        round.Name,
			Status:      string(round.Status),
			Seed:        round.Seed,
			TickCount:   round.TickCount,
			AgentCount:  round.AgentCount,
			StartedAt:   round.StartedAt,
			CompletedAt: round.CompletedAt,
		},
	}

	for _, res := range results {
		report.Agents = append(report.Agents, agentRow(res))
	}

	for _, t := range trades {
		switch t.Action {
		case domain.ActionOpenLong:
			report.TradeCounts.OpenLong++
		case domain.ActionOpenShort:
			report.TradeCounts.OpenShort++
		case domain.ActionCloseLong:
			report.TradeCounts.CloseLong++
		case domain.ActionCloseShort:
			report.TradeCounts.CloseShort++
		}
	}

	return report, nil
}

// agentRow flattens one stored result into a report row.
func agentRow(res *domain.AgentResult) AgentRow {
	row := AgentRow{
		AgentID:  res.AgentID,
		Name:     res.Name,
		Strategy: string(res.Strategy),
		Status:   string(res.Status),
		Killed:   res.Killed,

		FinalEquity:      res.Metrics.FinalEquity,
		TotalReturn:      res.Metrics.TotalReturn,
		SharpeRatio:      res.Metrics.SharpeRatio,
		MaxDrawdown:      res.Metrics.MaxDrawdown,
		CalmarRatio:      res.Metrics.CalmarRatio,
		WinRate:          res.Metrics.WinRate,
		Beta:             res.Metrics.Beta,
		Alpha:            res.Metrics.Alpha,
		InformationRatio: res.Metrics.InformationRatio,

		TotalTrades:   res.Metrics.TotalTrades,
		ClosingTrades: res.Metrics.ClosingTrades,
		SurvivalTime:  res.Metrics.SurvivalTime,
	}
	if res.KillReason != nil {
		row.KillReason = *res.KillReason
	}
	if res.ErrorMessage != nil {
		row.Error = *res.ErrorMessage
	}
	return row
}
