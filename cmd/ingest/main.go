// Package main loads OHLCV bars from a CSV file into the bar store so
// replay rounds can run against real market data.
//
// Expected CSV columns: timestamp_ms,open,high,low,close,volume.
// A header row is detected and skipped.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
	"quant-arena/internal/storage/migrations"
	pgstore "quant-arena/internal/storage/postgres"
)

// insertBatchSize bounds the per-transaction insert size.
const insertBatchSize = 1000

func main() {
	loadEnvFile()

	csvPath := flag.String("csv", "", "Path to the CSV bar file (required)")
	symbol := flag.String("symbol", "", "Asset symbol the bars belong to (required)")
	interval := flag.String("interval", "5m", "Bar interval, e.g. 1m, 5m, 1h")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags)

	if *csvPath == "" {
		logger.Fatal("--csv is required")
	}
	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	store := pgstore.NewBarStore(pool)

	inserted, skipped, err := ingestFile(ctx, store, *csvPath, *symbol, *interval)
	if err != nil {
		logger.Fatalf("Ingest failed: %v", err)
	}

	total, err := store.CountBars(ctx, *symbol, *interval)
	if err != nil {
		logger.Fatalf("Failed to count bars: %v", err)
	}

	logger.Printf("Ingested %d bars for %s/%s (%d duplicate batches skipped, %d total in store)",
		inserted, *symbol, *interval, skipped, total)
}

// ingestFile streams the CSV into the store in bounded batches. A batch
// hitting an existing (symbol, interval, timestamp) key is skipped
// whole, matching the all-or-nothing insert semantics.
func ingestFile(ctx context.Context, store storage.BarStore, path, symbol, interval string) (inserted, skippedBatches int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 6

	var batch []*domain.Bar
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.InsertBulk(ctx, batch); err != nil {
			if err == storage.ErrDuplicateKey {
				skippedBatches++
				batch = batch[:0]
				return nil
			}
			return err
		}
		inserted += len(batch)
		batch = batch[:0]
		return nil
	}

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return inserted, skippedBatches, fmt.Errorf("read csv: %w", err)
		}
		line++

		if line == 1 && isHeaderRow(record) {
			continue
		}

		bar, err := parseBar(record, symbol, interval)
		if err != nil {
			return inserted, skippedBatches, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, bar)

		if len(batch) >= insertBatchSize {
			if err := flush(); err != nil {
				return inserted, skippedBatches, err
			}
		}
	}

	if err := flush(); err != nil {
		return inserted, skippedBatches, err
	}
	return inserted, skippedBatches, nil
}

// isHeaderRow reports whether the first field is non-numeric.
func isHeaderRow(record []string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	return err != nil
}

func parseBar(record []string, symbol, interval string) (*domain.Bar, error) {
	ts, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", record[0], err)
	}

	fields := make([]float64, 5)
	names := []string{"open", "high", "low", "close", "volume"}
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", names[i], record[i+1], err)
		}
		fields[i] = v
	}

	return &domain.Bar{
		Symbol:    symbol,
		Interval:  interval,
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
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
