// Package main renders a markdown and CSV report for a stored round.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quant-arena/internal/reporting"
	"quant-arena/internal/storage"
	pgstore "quant-arena/internal/storage/postgres"
)

func main() {
	loadEnvFile()

	roundID := flag.String("round-id", "", "ID of the round to report on (empty for the most recent round)")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	at := flag.String("at", "", "Pin the report's generated-at time (RFC3339, for reproducible output)")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	rounds := pgstore.NewRoundStore(pool)
	results := pgstore.NewResultStore(pool)
	trades := pgstore.NewTradeStore(pool)

	id := *roundID
	if id == "" {
		id, err = latestRoundID(ctx, rounds)
		if err != nil {
			logger.Fatalf("Failed to pick a round: %v", err)
		}
		logger.Printf("No --round-id given, using most recent round %s", id)
	}

	gen := reporting.NewGenerator(rounds, results, trades)
	if *at != "" {
		fixed, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			logger.Fatalf("Invalid --at value: %v", err)
		}
		gen = gen.WithClock(func() time.Time { return fixed })
	}

	report, err := gen.BuildRoundReport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Fatalf("Round %s not found", id)
		}
		logger.Fatalf("Failed to build report: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatalf("Failed to create output directory: %v", err)
	}

	mdPath := filepath.Join(*outputDir, fmt.Sprintf("ROUND_%s.md", id))
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		logger.Fatalf("Failed to write markdown report: %v", err)
	}

	csvPath := filepath.Join(*outputDir, fmt.Sprintf("ROUND_%s_agents.csv", id))
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Agents)), 0644); err != nil {
		logger.Fatalf("Failed to write CSV report: %v", err)
	}

	logger.Println("Report generated:")
	logger.Printf("  - %s", mdPath)
	logger.Printf("  - %s", csvPath)
}

func latestRoundID(ctx context.Context, rounds storage.RoundStore) (string, error) {
	list, err := rounds.List(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", errors.New("no rounds stored")
	}
	return list[0].RoundID, nil
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
