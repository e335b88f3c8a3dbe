// Package orchestrator runs simulation rounds end to end: it validates
// the configuration, builds the shared price path once, fans the agents
// out over a bounded worker pool, and collects per-agent results in
// input order so the outcome is identical for any worker count.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"quant-arena/internal/domain"
	"quant-arena/internal/engine"
	"quant-arena/internal/idhash"
	"quant-arena/internal/market"
	"quant-arena/internal/metrics"
	"quant-arena/internal/storage"
	"quant-arena/internal/strategy"
)

// Runner executes rounds. A single Runner can run rounds back to back;
// Progress reports on the round currently in flight.
type Runner struct {
	provider *market.Provider
	sink     storage.ResultSink
	logger   *log.Logger
	clock    func() time.Time

	progress atomicProgress
}

// NewRunner creates a round runner on top of the given path provider.
func NewRunner(provider *market.Provider) *Runner {
	return &Runner{
		provider: provider,
		logger:   log.New(os.Stdout, "[orchestrator] ", log.LstdFlags),
		clock:    time.Now,
	}
}

// WithSink attaches a result sink that receives the finished round.
// Without a sink, results are only returned to the caller.
func (r *Runner) WithSink(sink storage.ResultSink) *Runner {
	r.sink = sink
	return r
}

// WithLogger overrides the default stdout logger.
func (r *Runner) WithLogger(logger *log.Logger) *Runner {
	r.logger = logger
	return r
}

// WithClock overrides the wall clock used for outcome timestamps.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	return r
}

// RunRound executes one round synchronously and returns the per-agent
// results in input order.
//
// Validation failures and path build failures abort before any agent
// runs. A failing agent does not: its result carries status FAILED and
// the error message while the rest of the batch keeps going. The round
// itself only fails on systemic faults (config, path build, sink
// write) or context cancellation, which is honored between agents
// rather than mid-run.
func (r *Runner) RunRound(ctx context.Context, round domain.RoundConfig, agents []domain.AgentConfig) (*domain.RoundOutcome, error) {
	if err := round.Validate(); err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: round has no agents", domain.ErrConfigInvalid)
	}
	for i := range agents {
		if err := agents[i].Validate(); err != nil {
			return nil, err
		}
	}

	started := r.clock().UnixMilli()
	path, err := r.provider.BuildPath(ctx, round.Seed, round.Market)
	if err != nil {
		return nil, fmt.Errorf("build path: %w", err)
	}

	prog := newProgressState(len(agents), path.Len())
	r.progress.store(prog)

	workers := round.Workers
	if workers <= 0 {
		workers = domain.DefaultWorkers
	}
	if workers > len(agents) {
		workers = len(agents)
	}
	r.logger.Printf("round %s: %d agents over %d ticks, %d workers", round.RoundID, len(agents), path.Len(), workers)

	// The path is shared read-only across all workers. Each result is
	// written to its own slot, so no locking is needed and the output
	// order matches the input order regardless of scheduling.
	results := make([]*domain.AgentResult, len(agents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range agents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.runAgent(round, agents[i], path, prog)
			prog.agentsDone.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("round %s aborted: %w", round.RoundID, err)
	}

	outcome := &domain.RoundOutcome{
		RoundID:     round.RoundID,
		Status:      domain.RoundStatusCompleted,
		PathHash:    idhash.ComputePathHash(round.Seed, path.Prices()),
		Path:        path,
		Results:     results,
		StartedAt:   started,
		CompletedAt: r.clock().UnixMilli(),
	}

	if r.sink != nil {
		if err := r.sink.SaveResult(ctx, outcome); err != nil {
			return nil, fmt.Errorf("save round %s: %w", round.RoundID, err)
		}
	}

	failed := 0
	for _, res := range results {
		if res.Status == domain.AgentStatusFailed {
			failed++
		}
	}
	r.logger.Printf("round %s: completed, %d/%d agents ok", round.RoundID, len(results)-failed, len(results))
	return outcome, nil
}

// Progress returns a snapshot of the round currently in flight, or a
// zero snapshot when no round has started.
func (r *Runner) Progress() ProgressSnapshot {
	return r.progress.snapshot()
}

// runAgent executes one agent against the shared path and always
// returns a result: failures and panics are folded into a FAILED
// result so one broken agent cannot take the round down.
func (r *Runner) runAgent(round domain.RoundConfig, cfg domain.AgentConfig, path *domain.PricePath, prog *progressState) (res *domain.AgentResult) {
	res = &domain.AgentResult{
		AgentID:  cfg.AgentID,
		RoundID:  round.RoundID,
		Name:     cfg.Name,
		Strategy: cfg.Strategy.Type,
		Status:   domain.AgentStatusCompleted,
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.markFailed(res, cfg, fmt.Errorf("panic: %v", rec))
		}
	}()

	strat, err := strategy.FromConfig(cfg, round)
	if err != nil {
		r.markFailed(res, cfg, err)
		return res
	}

	eng := engine.NewEngine(round.RoundID, cfg, strat, round.Execution, round.InitialEquity).
		WithTickCounter(&prog.ticksDone)
	run, err := eng.Run(path)
	if err != nil {
		r.markFailed(res, cfg, err)
		return res
	}

	analysis := metrics.Analyze(&metrics.RunInput{
		InitialEquity:    round.InitialEquity,
		EquityCurve:      run.EquityCurve,
		Trades:           run.Trades,
		BenchmarkReturns: path.BenchmarkReturns,
		SurvivalTicks:    run.SurvivalTicks,
		Analytics:        round.Analytics,
	})

	res.Killed = run.Killed
	if run.KillReason != "" {
		reason := run.KillReason
		res.KillReason = &reason
	}
	res.Metrics = analysis.Metrics
	res.Trades = run.Trades
	res.EquityCurve = run.EquityCurve
	res.CumulativeAlpha = analysis.CumulativeAlpha
	res.RollingBeta = analysis.RollingBeta
	return res
}

func (r *Runner) markFailed(res *domain.AgentResult, cfg domain.AgentConfig, err error) {
	msg := err.Error()
	res.Status = domain.AgentStatusFailed
	res.ErrorMessage = &msg
	r.logger.Printf("agent %s (%s) failed: %v", cfg.AgentID, cfg.Name, err)
}
