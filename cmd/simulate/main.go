// Package main runs one simulation round from a YAML round file:
// build the price path, fan out the agents, persist trades/results and
// optionally render a markdown report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quant-arena/internal/config"
	"quant-arena/internal/domain"
	"quant-arena/internal/market"
	"quant-arena/internal/observability"
	"quant-arena/internal/orchestrator"
	"quant-arena/internal/reporting"
	"quant-arena/internal/storage"
	chstore "quant-arena/internal/storage/clickhouse"
	"quant-arena/internal/storage/memory"
	"quant-arena/internal/storage/migrations"
	pgstore "quant-arena/internal/storage/postgres"
	"quant-arena/internal/verification"
)

// roundStores bundles everything a round run touches.
type roundStores struct {
	rounds  storage.RoundStore
	agents  storage.AgentStore
	trades  storage.TradeStore
	results storage.ResultStore
	bars    storage.BarStore
	paths   storage.PathStore
	curves  storage.CurveStore
}

func main() {
	loadEnvFile()

	roundPath := flag.String("round", "", "Path to the YAML round file (required)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	outputDir := flag.String("output-dir", "", "Directory for the round report (empty to skip)")
	verify := flag.Bool("verify", false, "Replay the round after the run and verify stored trades")
	flag.Parse()

	logger := log.New(os.Stdout, "[simulate] ", log.LstdFlags)

	if *roundPath == "" {
		logger.Fatal("--round is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	round, agents, err := config.LoadRound(*roundPath)
	if err != nil {
		logger.Fatalf("Failed to load round file: %v", err)
	}

	ctx := context.Background()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if err := run(ctx, logger, stores, round, agents, *outputDir, *verify); err != nil {
		logger.Fatalf("Round failed: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, stores *roundStores, round domain.RoundConfig, agents []domain.AgentConfig, outputDir string, verify bool) error {
	now := time.Now().UnixMilli()

	if err := recordRound(ctx, stores, round, agents, now); err != nil {
		return fmt.Errorf("record round: %w", err)
	}

	provider := market.NewProvider(stores.bars)
	sink := storage.NewStoreSink(stores.trades, stores.results).
		WithSeriesStores(stores.paths, stores.curves)
	runner := orchestrator.NewRunner(provider).WithSink(sink).WithLogger(logger)

	if err := stores.rounds.UpdateStatus(ctx, round.RoundID, domain.RoundStatusRunning, nil, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("mark round running: %w", err)
	}
	observability.RecordRoundStarted()

	// Mirror worker progress into the round record while the run is in
	// flight.
	progressDone := make(chan struct{})
	go trackProgress(ctx, stores.rounds, runner, round.RoundID, progressDone)

	start := time.Now()
	outcome, err := runner.RunRound(ctx, round, agents)
	close(progressDone)
	if err != nil {
		msg := err.Error()
		if uerr := stores.rounds.UpdateStatus(ctx, round.RoundID, domain.RoundStatusFailed, &msg, time.Now().UnixMilli()); uerr != nil {
			logger.Printf("Failed to mark round failed: %v", uerr)
		}
		observability.RecordRoundFinished("failed", time.Since(start).Seconds(), time.Now().Unix())
		return err
	}

	if err := stores.rounds.UpdateProgress(ctx, round.RoundID, 100); err != nil {
		logger.Printf("Failed to finalize progress: %v", err)
	}
	if err := stores.rounds.UpdateStatus(ctx, round.RoundID, domain.RoundStatusCompleted, nil, outcome.CompletedAt); err != nil {
		return fmt.Errorf("mark round completed: %w", err)
	}
	observability.RecordRoundFinished("completed", time.Since(start).Seconds(), time.Now().Unix())
	recordAgentMetrics(outcome)

	logger.Printf("Round %s done in %v, path hash %s", round.RoundID, time.Since(start), outcome.PathHash)

	if verify {
		if err := verifyRound(ctx, logger, provider, stores.trades, round, agents); err != nil {
			return err
		}
	}

	if outputDir != "" {
		if err := writeReport(ctx, logger, stores, round.RoundID, outputDir); err != nil {
			return err
		}
	}

	return nil
}

// recordRound persists the round and agent records before the run so a
// crash leaves a PENDING row behind. Re-running the same round ID
// replaces the previous agent set.
func recordRound(ctx context.Context, stores *roundStores, round domain.RoundConfig, agents []domain.AgentConfig, nowMs int64) error {
	err := stores.rounds.Insert(ctx, &domain.Round{
		RoundID:    round.RoundID,
		Name:       round.Name,
		Status:     domain.RoundStatusPending,
		Seed:       round.Seed,
		AgentCount: len(agents),
		TickCount:  round.Market.NumTicks,
		CreatedAt:  nowMs,
	})
	if err == storage.ErrDuplicateKey {
		// Round re-run: reset the record and replace the agent set.
		if err := stores.agents.DeleteByRound(ctx, round.RoundID); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	records := make([]*domain.Agent, len(agents))
	for i, cfg := range agents {
		records[i] = &domain.Agent{
			AgentID:   cfg.AgentID,
			RoundID:   round.RoundID,
			Name:      cfg.Name,
			Config:    cfg,
			CreatedAt: nowMs,
		}
	}
	return stores.agents.InsertBulk(ctx, records)
}

// trackProgress polls the runner and writes progress to the round
// record until the run finishes.
func trackProgress(ctx context.Context, rounds storage.RoundStore, runner *orchestrator.Runner, roundID string, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := runner.Progress()
			observability.UpdateRoundProgress(snap.Percent)
			_ = rounds.UpdateProgress(ctx, roundID, snap.Percent)
		}
	}
}

func recordAgentMetrics(outcome *domain.RoundOutcome) {
	for _, res := range outcome.Results {
		observability.RecordAgentResult(string(res.Strategy), string(res.Status))
		if res.Killed && res.KillReason != nil {
			observability.RecordAgentKilled(*res.KillReason)
		}
		byAction := map[string]int{}
		for _, tr := range res.Trades {
			byAction[string(tr.Action)]++
		}
		for action, n := range byAction {
			observability.RecordTrades(action, n)
		}
	}
}

// verifyRound replays the round against the stored trades and fails on
// any divergence.
func verifyRound(ctx context.Context, logger *log.Logger, provider *market.Provider, trades storage.TradeStore, round domain.RoundConfig, agents []domain.AgentConfig) error {
	verifier := verification.NewReplayVerifier(provider, trades)
	rv, err := verifier.VerifyRound(ctx, round, agents)
	if err != nil {
		return fmt.Errorf("verify round: %w", err)
	}
	if rv.DivergentAgents > 0 {
		for _, av := range rv.Agents {
			if av.Match() {
				continue
			}
			logger.Printf("agent %s diverged: %d stored vs %d replayed trades, %d divergent",
				av.AgentID, av.StoredTrades, av.ReplayedTrades, av.DivergentTrades)
		}
		return fmt.Errorf("round %s is not reproducible: %d/%d agents diverged", round.RoundID, rv.DivergentAgents, rv.TotalAgents)
	}
	logger.Printf("Round %s verified: replay matches stored trades", round.RoundID)
	return nil
}

func writeReport(ctx context.Context, logger *log.Logger, stores *roundStores, roundID, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	gen := reporting.NewGenerator(stores.rounds, stores.results, stores.trades)
	report, err := gen.BuildRoundReport(ctx, roundID)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	mdPath := filepath.Join(outputDir, fmt.Sprintf("ROUND_%s.md", roundID))
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}

	csvPath := filepath.Join(outputDir, fmt.Sprintf("ROUND_%s_agents.csv", roundID))
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Agents)), 0644); err != nil {
		return fmt.Errorf("write CSV report: %w", err)
	}

	logger.Printf("Report written to %s and %s", mdPath, csvPath)
	return nil
}

// createStores wires the record stores on PostgreSQL and the series
// stores on ClickHouse, or everything in memory.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*roundStores, func(), error) {
	if useMemory {
		return &roundStores{
			rounds:  memory.NewRoundStore(),
			agents:  memory.NewAgentStore(),
			trades:  memory.NewTradeStore(),
			results: memory.NewResultStore(),
			bars:    memory.NewBarStore(),
			paths:   memory.NewPathStore(),
			curves:  memory.NewCurveStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &roundStores{
		rounds:  pgstore.NewRoundStore(pool),
		agents:  pgstore.NewAgentStore(pool),
		trades:  pgstore.NewTradeStore(pool),
		results: pgstore.NewResultStore(pool),
		bars:    pgstore.NewBarStore(pool),
		paths:   chstore.NewPathStore(chConn),
		curves:  chstore.NewCurveStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
