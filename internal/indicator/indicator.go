// Package indicator provides pure technical indicator functions over
// price slices. Every function returns nil until its lookback window
// is filled, so callers can treat nil as "hold".
package indicator

import "math"

// SMA returns the simple moving average of the trailing window.
func SMA(prices []float64, window int) *float64 {
	if window <= 0 || len(prices) < window {
		return nil
	}
	sum := 0.0
	for _, p := range prices[len(prices)-window:] {
		sum += p
	}
	v := sum / float64(window)
	return &v
}

// StdDev returns the sample standard deviation (n-1 denominator) of
// the trailing window.
func StdDev(prices []float64, window int) *float64 {
	if window < 2 || len(prices) < window {
		return nil
	}
	tail := prices[len(prices)-window:]
	mean := 0.0
	for _, p := range tail {
		mean += p
	}
	mean /= float64(window)

	sumSq := 0.0
	for _, p := range tail {
		diff := p - mean
		sumSq += diff * diff
	}
	v := math.Sqrt(sumSq / float64(window-1))
	return &v
}

// ZScore returns how many standard deviations the latest price sits
// from the trailing SMA. A zero-variance window yields exactly 0, so a
// flat path never signals.
func ZScore(prices []float64, window int) *float64 {
	sma := SMA(prices, window)
	sd := StdDev(prices, window)
	if sma == nil || sd == nil {
		return nil
	}
	v := 0.0
	if *sd > 0 {
		v = (prices[len(prices)-1] - *sma) / *sd
	}
	return &v
}

// EMA returns the exponential moving average with smoothing factor
// 2/(window+1), seeded from the first price and iterated over the whole
// series. Defined once len(prices) >= window.
func EMA(prices []float64, window int) *float64 {
	if window <= 0 || len(prices) < window {
		return nil
	}
	alpha := 2.0 / float64(window+1)
	v := prices[0]
	for _, p := range prices[1:] {
		v = alpha*p + (1-alpha)*v
	}
	return &v
}

// ATR returns a close-only average true range proxy: the mean absolute
// tick-to-tick change over the trailing window. Needs window+1 prices.
func ATR(prices []float64, window int) *float64 {
	if window <= 0 || len(prices) < window+1 {
		return nil
	}
	tail := prices[len(prices)-window-1:]
	sum := 0.0
	for i := 1; i < len(tail); i++ {
		sum += math.Abs(tail[i] - tail[i-1])
	}
	v := sum / float64(window)
	return &v
}

// RSI returns the relative strength index over simple average gains and
// losses across the trailing window. When the average loss is 0 with
// gains present the RSI is 100; when both averages are 0 (flat window)
// it is the neutral 50.
func RSI(prices []float64, window int) *float64 {
	if window <= 0 || len(prices) < window+1 {
		return nil
	}
	tail := prices[len(prices)-window-1:]
	gains := 0.0
	losses := 0.0
	for i := 1; i < len(tail); i++ {
		change := tail[i] - tail[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(window)
	avgLoss := losses / float64(window)

	v := 0.0
	switch {
	case avgLoss == 0 && avgGain == 0:
		v = 50.0
	case avgLoss == 0:
		v = 100.0
	default:
		rs := avgGain / avgLoss
		v = 100.0 - 100.0/(1.0+rs)
	}
	return &v
}

// Momentum returns the percent change over the trailing window:
// (latest/ago - 1) * 100. Needs window+1 prices.
func Momentum(prices []float64, window int) *float64 {
	if window <= 0 || len(prices) < window+1 {
		return nil
	}
	ago := prices[len(prices)-window-1]
	if ago == 0 {
		return nil
	}
	v := (prices[len(prices)-1]/ago - 1) * 100.0
	return &v
}

// RealizedVolatility returns the sample standard deviation of log
// returns over the trailing window, annualized by sqrt(periodsPerYear).
// Needs window+1 prices.
func RealizedVolatility(prices []float64, window int, periodsPerYear float64) *float64 {
	if window < 2 || len(prices) < window+1 || periodsPerYear <= 0 {
		return nil
	}
	tail := prices[len(prices)-window-1:]
	rets := make([]float64, 0, window)
	for i := 1; i < len(tail); i++ {
		if tail[i-1] <= 0 || tail[i] <= 0 {
			return nil
		}
		rets = append(rets, math.Log(tail[i]/tail[i-1]))
	}

	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	sumSq := 0.0
	for _, r := range rets {
		diff := r - mean
		sumSq += diff * diff
	}
	v := math.Sqrt(sumSq/float64(len(rets)-1)) * math.Sqrt(periodsPerYear)
	return &v
}
