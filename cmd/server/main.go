// Package main provides the simulation service: rounds are submitted
// as YAML over HTTP, run asynchronously on a single job queue, and
// progress is served by polling (/status) and WebSocket push (/ws).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"quant-arena/internal/config"
	"quant-arena/internal/domain"
	"quant-arena/internal/market"
	"quant-arena/internal/observability"
	"quant-arena/internal/orchestrator"
	"quant-arena/internal/storage"
	chstore "quant-arena/internal/storage/clickhouse"
	"quant-arena/internal/storage/memory"
	"quant-arena/internal/storage/migrations"
	pgstore "quant-arena/internal/storage/postgres"
)

// maxRoundBody bounds the accepted YAML round file size.
const maxRoundBody = 1 << 20

// roundJob is one queued round submission.
type roundJob struct {
	round  domain.RoundConfig
	agents []domain.AgentConfig
}

// serverStores bundles everything the service touches.
type serverStores struct {
	rounds  storage.RoundStore
	agents  storage.AgentStore
	trades  storage.TradeStore
	results storage.ResultStore
	bars    storage.BarStore
	paths   storage.PathStore
	curves  storage.CurveStore
}

// Server runs queued rounds and serves their state.
type Server struct {
	stores *serverStores
	runner *orchestrator.Runner
	hub    *WSHub
	logger *log.Logger
	jobs   chan roundJob

	mu            sync.Mutex
	activeRoundID string
	queued        int
}

func main() {
	loadEnvFile()

	addr := flag.String("addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	queueSize := flag.Int("queue-size", 16, "Maximum number of pending round jobs")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	sink := storage.NewStoreSink(stores.trades, stores.results).
		WithSeriesStores(stores.paths, stores.curves)
	runner := orchestrator.NewRunner(market.NewProvider(stores.bars)).
		WithSink(sink).
		WithLogger(logger)

	server := &Server{
		stores: stores,
		runner: runner,
		hub:    NewWSHub(logger),
		logger: logger,
		jobs:   make(chan roundJob, *queueSize),
	}

	go server.hub.Run()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		server.runJobs(ctx)
	}()

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-workerDone:
		}
	}()

	logger.Printf("Listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	<-workerDone
	logger.Println("Shutdown complete")
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /rounds", s.handleSubmitRound)
	mux.HandleFunc("GET /rounds", s.handleListRounds)
	mux.HandleFunc("GET /rounds/{id}", s.handleGetRound)
	mux.HandleFunc("GET /rounds/{id}/results", s.handleGetResults)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /ws", s.hub.HandleWS)

	return mux
}

// runJobs executes queued rounds one at a time.
func (s *Server) runJobs(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.runOne(ctx, job)
			s.mu.Lock()
			s.queued--
			observability.DefaultMetrics.JobsQueued.Set(float64(s.queued))
			s.mu.Unlock()
		}
	}
}

// runOne runs a single round: status transitions, progress push, and
// terminal broadcast.
func (s *Server) runOne(ctx context.Context, job roundJob) {
	roundID := job.round.RoundID

	s.mu.Lock()
	s.activeRoundID = roundID
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.activeRoundID = ""
		s.mu.Unlock()
	}()

	if err := s.stores.rounds.UpdateStatus(ctx, roundID, domain.RoundStatusRunning, nil, time.Now().UnixMilli()); err != nil {
		s.logger.Printf("round %s: failed to mark running: %v", roundID, err)
		return
	}
	observability.RecordRoundStarted()

	progressDone := make(chan struct{})
	go s.pushProgress(ctx, roundID, progressDone)

	start := time.Now()
	outcome, err := s.runner.RunRound(ctx, job.round, job.agents)
	close(progressDone)

	if err != nil {
		msg := err.Error()
		if uerr := s.stores.rounds.UpdateStatus(ctx, roundID, domain.RoundStatusFailed, &msg, time.Now().UnixMilli()); uerr != nil {
			s.logger.Printf("round %s: failed to mark failed: %v", roundID, uerr)
		}
		observability.RecordRoundFinished("failed", time.Since(start).Seconds(), time.Now().Unix())
		s.hub.Broadcast(ProgressMessage{Type: "round_failed", RoundID: roundID, Error: msg})
		s.logger.Printf("round %s failed: %v", roundID, err)
		return
	}

	if err := s.stores.rounds.UpdateProgress(ctx, roundID, 100); err != nil {
		s.logger.Printf("round %s: failed to finalize progress: %v", roundID, err)
	}
	if err := s.stores.rounds.UpdateStatus(ctx, roundID, domain.RoundStatusCompleted, nil, outcome.CompletedAt); err != nil {
		s.logger.Printf("round %s: failed to mark completed: %v", roundID, err)
	}
	observability.RecordRoundFinished("completed", time.Since(start).Seconds(), time.Now().Unix())
	recordAgentMetrics(outcome)

	snap := s.runner.Progress()
	s.hub.Broadcast(ProgressMessage{
		Type:        "round_completed",
		RoundID:     roundID,
		Percent:     100,
		AgentsDone:  snap.AgentsTotal,
		AgentsTotal: snap.AgentsTotal,
		TicksDone:   snap.TicksTotal,
		TicksTotal:  snap.TicksTotal,
	})
	s.logger.Printf("round %s completed in %v", roundID, time.Since(start))
}

// pushProgress mirrors worker progress into the round record, the
// metrics gauge and the WebSocket hub until the run finishes.
func (s *Server) pushProgress(ctx context.Context, roundID string, done <-chan struct{}) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.runner.Progress()
			observability.UpdateRoundProgress(snap.Percent)
			_ = s.stores.rounds.UpdateProgress(ctx, roundID, snap.Percent)
			s.hub.Broadcast(ProgressMessage{
				Type:        "progress",
				RoundID:     roundID,
				Percent:     snap.Percent,
				AgentsDone:  snap.AgentsDone,
				AgentsTotal: snap.AgentsTotal,
				TicksDone:   snap.TicksDone,
				TicksTotal:  snap.TicksTotal,
			})
		}
	}
}

// handleSubmitRound accepts a YAML round file, records it and queues
// the run.
func (s *Server) handleSubmitRound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRoundBody))
	if err != nil {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return
	}

	round, agents, err := config.ParseRound(body)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UnixMilli()
	err = s.stores.rounds.Insert(r.Context(), &domain.Round{
		RoundID:    round.RoundID,
		Name:       round.Name,
		Status:     domain.RoundStatusPending,
		Seed:       round.Seed,
		AgentCount: len(agents),
		TickCount:  round.Market.NumTicks,
		CreatedAt:  now,
	})
	if err == storage.ErrDuplicateKey {
		httpError(w, http.StatusConflict, fmt.Sprintf("round %s already exists", round.RoundID))
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	records := make([]*domain.Agent, len(agents))
	for i, cfg := range agents {
		records[i] = &domain.Agent{
			AgentID:   cfg.AgentID,
			RoundID:   round.RoundID,
			Name:      cfg.Name,
			Config:    cfg,
			CreatedAt: now,
		}
	}
	if err := s.stores.agents.InsertBulk(r.Context(), records); err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	select {
	case s.jobs <- roundJob{round: round, agents: agents}:
		s.mu.Lock()
		s.queued++
		observability.DefaultMetrics.JobsQueued.Set(float64(s.queued))
		s.mu.Unlock()
	default:
		msg := "job queue full"
		_ = s.stores.rounds.UpdateStatus(r.Context(), round.RoundID, domain.RoundStatusFailed, &msg, time.Now().UnixMilli())
		httpError(w, http.StatusServiceUnavailable, msg)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"round_id":    round.RoundID,
		"status":      domain.RoundStatusPending,
		"agent_count": len(agents),
	})
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.stores.rounds.List(r.Context(), 100)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]roundJSON, len(rounds))
	for i, rd := range rounds {
		out[i] = toRoundJSON(rd)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.stores.rounds.GetByID(r.Context(), r.PathValue("id"))
	if err == storage.ErrNotFound {
		httpError(w, http.StatusNotFound, "round not found")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toRoundJSON(round))
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	roundID := r.PathValue("id")
	results, err := s.stores.results.GetByRound(r.Context(), roundID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(results) == 0 {
		httpError(w, http.StatusNotFound, "no results for round")
		return
	}

	out := make([]resultJSON, len(results))
	for i, res := range results {
		out[i] = toResultJSON(res)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleStatus reports the active round's progress snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active := s.activeRoundID
	queued := s.queued
	s.mu.Unlock()

	resp := map[string]interface{}{
		"active_round": active,
		"jobs_queued":  queued,
	}
	if active != "" {
		snap := s.runner.Progress()
		resp["progress"] = map[string]interface{}{
			"percent":      snap.Percent,
			"agents_done":  snap.AgentsDone,
			"agents_total": snap.AgentsTotal,
			"ticks_done":   snap.TicksDone,
			"ticks_total":  snap.TicksTotal,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// roundJSON is the wire form of a round record.
type roundJSON struct {
	RoundID      string  `json:"round_id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	Seed         int64   `json:"seed"`
	AgentCount   int     `json:"agent_count"`
	TickCount    int     `json:"tick_count"`
	Progress     float64 `json:"progress"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    int64   `json:"created_at"`
	StartedAt    *int64  `json:"started_at,omitempty"`
	CompletedAt  *int64  `json:"completed_at,omitempty"`
}

func toRoundJSON(r *domain.Round) roundJSON {
	return roundJSON{
		RoundID:      r.RoundID,
		Name:         r.Name,
		Status:       string(r.Status),
		Seed:         r.Seed,
		AgentCount:   r.AgentCount,
		TickCount:    r.TickCount,
		Progress:     r.Progress,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
}

// resultJSON is the wire form of one agent's scalar result block.
type resultJSON struct {
	AgentID      string  `json:"agent_id"`
	Name         string  `json:"name"`
	Strategy     string  `json:"strategy"`
	Status       string  `json:"status"`
	Killed       bool    `json:"killed"`
	KillReason   *string `json:"kill_reason,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`

	FinalEquity      float64  `json:"final_equity"`
	TotalReturn      float64  `json:"total_return"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	CalmarRatio      *float64 `json:"calmar_ratio"`
	WinRate          *float64 `json:"win_rate"`
	Beta             *float64 `json:"beta"`
	Alpha            *float64 `json:"alpha"`
	InformationRatio *float64 `json:"information_ratio"`
	TotalTrades      int      `json:"total_trades"`
	ClosingTrades    int      `json:"closing_trades"`
	SurvivalTime     int      `json:"survival_time"`
}

func toResultJSON(res *domain.AgentResult) resultJSON {
	m := res.Metrics
	return resultJSON{
		AgentID:          res.AgentID,
		Name:             res.Name,
		Strategy:         string(res.Strategy),
		Status:           string(res.Status),
		Killed:           res.Killed,
		KillReason:       res.KillReason,
		ErrorMessage:     res.ErrorMessage,
		FinalEquity:      m.FinalEquity,
		TotalReturn:      m.TotalReturn,
		SharpeRatio:      m.SharpeRatio,
		MaxDrawdown:      m.MaxDrawdown,
		CalmarRatio:      m.CalmarRatio,
		WinRate:          m.WinRate,
		Beta:             m.Beta,
		Alpha:            m.Alpha,
		InformationRatio: m.InformationRatio,
		TotalTrades:      m.TotalTrades,
		ClosingTrades:    m.ClosingTrades,
		SurvivalTime:     m.SurvivalTime,
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

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// createStores wires the record stores on PostgreSQL and the series
// stores on ClickHouse, or everything in memory.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*serverStores, func(), error) {
	if useMemory {
		return &serverStores{
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

	stores := &serverStores{
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
