package metrics

import (
	"math"

	"quant-arena/internal/domain"
)

// logReturns computes per-tick log returns r_t = ln(e_t / e_{t-1}).
// The series stops at the first non-positive equity value, where the
// ratio stops being defined; a depleted agent's returns end at its kill.
func logReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 || equity[i] <= 0 {
			break
		}
		returns = append(returns, math.Log(equity[i]/equity[i-1]))
	}
	return returns
}

// computeMean calculates arithmetic mean.
func computeMean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(xs []float64, mean float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	sumSq := 0.0
	for _, x := range xs {
		diff := x - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computeSampleVariance calculates sample variance (n-1 denominator).
func computeSampleVariance(xs []float64, mean float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, x := range xs {
		diff := x - mean
		sumSq += diff * diff
	}
	return sumSq / float64(n-1)
}

// computeSampleCovariance calculates sample covariance (n-1 denominator).
// Slices must have equal length.
func computeSampleCovariance(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	meanX := computeMean(xs)
	meanY := computeMean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - meanX) * (ys[i] - meanY)
	}
	return sum / float64(n-1)
}

// computeSharpe calculates the annualized Sharpe ratio
// sqrt(P) * mean(r) / stddev(r). Nil when fewer than 2 returns exist
// or the stddev is 0.
func computeSharpe(returns []float64, periodsPerYear float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	mean := computeMean(returns)
	stddev := computeStddev(returns, mean)
	if stddev == 0 {
		return nil
	}
	sharpe := math.Sqrt(periodsPerYear) * mean / stddev
	return &sharpe
}

// computeMaxDrawdown calculates the worst peak-to-trough drop of the
// equity curve as a fraction of the peak, clamped to [0, 1]. Equity at
// or below zero counts as a full drawdown.
func computeMaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0]
	maxDrawdown := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - e) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	if maxDrawdown > 1 {
		return 1
	}
	return maxDrawdown
}

// computeCalmar calculates annualized return mean(r)*P over max
// drawdown. Nil when max drawdown is 0.
func computeCalmar(returns []float64, maxDrawdown, periodsPerYear float64) *float64 {
	if maxDrawdown == 0 {
		return nil
	}
	calmar := computeMean(returns) * periodsPerYear / maxDrawdown
	return &calmar
}

// computeWinRate calculates winning closing trades over all closing
// trades, in [0, 1]. Nil when there are no closing trades.
func computeWinRate(trades []*domain.Trade) *float64 {
	closing := 0
	wins := 0
	for _, t := range trades {
		if !t.Action.IsClose() {
			continue
		}
		closing++
		if t.RealizedPnl > 0 {
			wins++
		}
	}
	if closing == 0 {
		return nil
	}
	rate := float64(wins) / float64(closing)
	return &rate
}

// countClosing counts CLOSE_* trade records.
func countClosing(trades []*domain.Trade) int {
	n := 0
	for _, t := range trades {
		if t.Action.IsClose() {
			n++
		}
	}
	return n
}

// computeBeta calculates CAPM beta Cov(r, bench) / Var(bench) over the
// common length of the two series, sample formulas throughout. Nil when
// fewer than 2 common points exist or the benchmark variance is 0.
func computeBeta(returns, bench []float64) *float64 {
	n := commonLen(returns, bench)
	if n < 2 {
		return nil
	}
	r := returns[:n]
	b := bench[:n]

	benchVar := computeSampleVariance(b, computeMean(b))
	if benchVar == 0 {
		return nil
	}
	beta := computeSampleCovariance(r, b) / benchVar
	return &beta
}

// computeAlpha calculates annualized CAPM alpha
// mean(r_t - beta*bench_t) * P. Nil when beta is undefined.
func computeAlpha(returns, bench []float64, beta *float64, periodsPerYear float64) *float64 {
	if beta == nil {
		return nil
	}
	n := commonLen(returns, bench)
	excess := make([]float64, n)
	for i := 0; i < n; i++ {
		excess[i] = returns[i] - *beta*bench[i]
	}
	alpha := computeMean(excess) * periodsPerYear
	return &alpha
}

// computeCumulativeAlpha builds the running sum of per-tick alphas,
// starting at 0 and spanning the full curve length. Ticks past the end
// of the return series carry the last sum forward; an undefined beta
// leaves the curve at zero.
func computeCumulativeAlpha(curveLen int, returns, bench []float64, beta *float64) []float64 {
	out := make([]float64, curveLen)
	if beta == nil {
		return out
	}

	n := commonLen(returns, bench)
	sum := 0.0
	for t := 1; t < curveLen; t++ {
		if t-1 < n {
			sum += returns[t-1] - *beta*bench[t-1]
		}
		out[t] = sum
	}
	return out
}

// computeInformationRatio calculates mean(r - bench) / stddev(r - bench)
// * sqrt(P). Nil when fewer than 2 common points exist or the tracking
// error is 0.
func computeInformationRatio(returns, bench []float64, periodsPerYear float64) *float64 {
	n := commonLen(returns, bench)
	if n < 2 {
		return nil
	}

	excess := make([]float64, n)
	for i := 0; i < n; i++ {
		excess[i] = returns[i] - bench[i]
	}
	mean := computeMean(excess)
	trackingError := computeStddev(excess, mean)
	if trackingError == 0 {
		return nil
	}
	ir := mean / trackingError * math.Sqrt(periodsPerYear)
	return &ir
}

// computeRollingBeta calculates trailing-window betas aligned to the
// return series. Entries stay nil before the window fills or when the
// window's benchmark variance is 0.
func computeRollingBeta(returns, bench []float64, window int) []*float64 {
	n := commonLen(returns, bench)
	out := make([]*float64, n)
	if window < 2 {
		return out
	}

	for i := window - 1; i < n; i++ {
		r := returns[i-window+1 : i+1]
		b := bench[i-window+1 : i+1]

		benchVar := computeSampleVariance(b, computeMean(b))
		if benchVar == 0 {
			continue
		}
		beta := computeSampleCovariance(r, b) / benchVar
		out[i] = &beta
	}
	return out
}

// commonLen trims two series to their shared length.
func commonLen(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
