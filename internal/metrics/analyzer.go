package metrics

import (
	"quant-arena/internal/domain"
)

// RunInput is everything one agent run exposes to analytics.
type RunInput struct {
	InitialEquity    float64
	EquityCurve      []domain.EquityPoint
	Trades           []*domain.Trade
	BenchmarkReturns []float64 // per-tick benchmark log returns, len = path len - 1
	SurvivalTicks    int
	Analytics        domain.AnalyticsConfig
}

// Analysis bundles the metric block with the per-tick series computed
// alongside it.
type Analysis struct {
	Metrics         domain.AgentMetrics
	CumulativeAlpha []float64  // running alpha sum, starts at 0, len = curve len
	RollingBeta     []*float64 // aligned to the return series, nil before the window
}

// Analyze computes the full per-agent metric block from a finished run.
// Metrics that are undefined for the run stay nil rather than 0 or NaN.
func Analyze(in *RunInput) *Analysis {
	periodsPerYear := in.Analytics.PeriodsPerYear
	if periodsPerYear <= 0 {
		periodsPerYear = domain.DefaultAnalyticsConfig.PeriodsPerYear
	}
	window := in.Analytics.RollingBetaWindow
	if window <= 0 {
		window = domain.DefaultAnalyticsConfig.RollingBetaWindow
	}

	equity := make([]float64, len(in.EquityCurve))
	for i, pt := range in.EquityCurve {
		equity[i] = pt.Equity
	}

	final := in.InitialEquity
	if len(equity) > 0 {
		final = equity[len(equity)-1]
	}

	returns := logReturns(equity)
	maxDrawdown := computeMaxDrawdown(equity)
	beta := computeBeta(returns, in.BenchmarkReturns)

	return &Analysis{
		Metrics: domain.AgentMetrics{
			FinalEquity:      final,
			TotalReturn:      final/in.InitialEquity - 1,
			SharpeRatio:      computeSharpe(returns, periodsPerYear),
			MaxDrawdown:      maxDrawdown,
			CalmarRatio:      computeCalmar(returns, maxDrawdown, periodsPerYear),
			WinRate:          computeWinRate(in.Trades),
			Beta:             beta,
			Alpha:            computeAlpha(returns, in.BenchmarkReturns, beta, periodsPerYear),
			InformationRatio: computeInformationRatio(returns, in.BenchmarkReturns, periodsPerYear),
			TotalTrades:      len(in.Trades),
			ClosingTrades:    countClosing(in.Trades),
			SurvivalTime:     in.SurvivalTicks,
		},
		CumulativeAlpha: computeCumulativeAlpha(len(equity), returns, in.BenchmarkReturns, beta),
		RollingBeta:     computeRollingBeta(returns, in.BenchmarkReturns, window),
	}
}
