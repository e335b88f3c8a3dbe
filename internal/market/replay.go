package market

import (
	"context"
	"math"

	"quant-arena/internal/domain"
)

// BarSource supplies stored historical bars for replay paths.
type BarSource interface {
	// GetBars retrieves bars for (symbol, interval) ordered by timestamp ASC.
	// limit <= 0 retrieves all stored bars.
	GetBars(ctx context.Context, symbol, interval string, limit int) ([]*domain.Bar, error)

	// CountBars reports the number of stored bars for (symbol, interval).
	CountBars(ctx context.Context, symbol, interval string) (int, error)
}

// BuildReplay constructs a price path from stored bars. The asset
// series is truncated to the first cfg.NumTicks usable bars in
// ascending timestamp order; a bar is usable when its close is
// positive. When a benchmark symbol is configured, both series are
// first aligned on their common timestamps and the benchmark's log
// returns ride along; otherwise the benchmark defaults to the asset's
// own returns.
func BuildReplay(ctx context.Context, src BarSource, cfg domain.MarketConfig) (*domain.PricePath, error) {
	assetBars, err := loadUsableBars(ctx, src, cfg.Symbol, cfg.Interval)
	if err != nil {
		return nil, err
	}
	if len(assetBars) < cfg.NumTicks {
		return nil, &domain.InsufficientDataError{Symbol: cfg.Symbol, Needed: cfg.NumTicks, Got: len(assetBars)}
	}

	var benchBars []*domain.Bar
	if cfg.BenchmarkSymbol != "" {
		benchBars, err = loadUsableBars(ctx, src, cfg.BenchmarkSymbol, cfg.Interval)
		if err != nil {
			return nil, err
		}
		if len(benchBars) < cfg.NumTicks {
			return nil, &domain.InsufficientDataError{Symbol: cfg.BenchmarkSymbol, Needed: cfg.NumTicks, Got: len(benchBars)}
		}

		assetBars, benchBars = alignByTimestamp(assetBars, benchBars)
		if len(assetBars) < cfg.NumTicks {
			return nil, &domain.InsufficientDataError{Symbol: cfg.Symbol, Needed: cfg.NumTicks, Got: len(assetBars)}
		}
		benchBars = benchBars[:cfg.NumTicks]
	}
	assetBars = assetBars[:cfg.NumTicks]

	points := make([]domain.PricePoint, len(assetBars))
	for i, bar := range assetBars {
		ts := bar.Timestamp
		points[i] = domain.PricePoint{Tick: i, Timestamp: &ts, Price: bar.Close}
	}

	benchmark := pathLogReturns(points)
	if benchBars != nil {
		benchmark = barLogReturns(benchBars)
	}

	return &domain.PricePath{Points: points, BenchmarkReturns: benchmark}, nil
}

// loadUsableBars fetches all bars for (symbol, interval) and drops any
// with a non-positive close.
func loadUsableBars(ctx context.Context, src BarSource, symbol, interval string) ([]*domain.Bar, error) {
	bars, err := src.GetBars(ctx, symbol, interval, 0)
	if err != nil {
		return nil, err
	}
	usable := make([]*domain.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Close > 0 {
			usable = append(usable, b)
		}
	}
	return usable, nil
}

// alignByTimestamp keeps only the bars whose timestamps appear in both
// series, preserving ascending order.
func alignByTimestamp(a, b []*domain.Bar) ([]*domain.Bar, []*domain.Bar) {
	inB := make(map[int64]*domain.Bar, len(b))
	for _, bar := range b {
		inB[bar.Timestamp] = bar
	}

	alignedA := make([]*domain.Bar, 0, len(a))
	alignedB := make([]*domain.Bar, 0, len(a))
	for _, bar := range a {
		match, ok := inB[bar.Timestamp]
		if !ok {
			continue
		}
		alignedA = append(alignedA, bar)
		alignedB = append(alignedB, match)
	}
	return alignedA, alignedB
}

// barLogReturns computes ln(close[t+1]/close[t]) for consecutive bars.
func barLogReturns(bars []*domain.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}
	return returns
}
