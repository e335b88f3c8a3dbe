package metrics

import (
	"math"
	"testing"

	"quant-arena/internal/domain"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance
}

func assertFloatPtr(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s = nil, want %v", name, want)
	}
	if !almostEqual(*got, want) {
		t.Errorf("%s = %v, want %v", name, *got, want)
	}
}

func assertNilFloat(t *testing.T, name string, got *float64) {
	t.Helper()
	if got != nil {
		t.Errorf("%s = %v, want nil", name, *got)
	}
}

func TestLogReturns(t *testing.T) {
	returns := logReturns([]float64{100, 110, 121})
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	want := math.Log(1.1)
	if !almostEqual(returns[0], want) || !almostEqual(returns[1], want) {
		t.Errorf("returns = %v, want both %v", returns, want)
	}
}

func TestLogReturns_StopsAtNonPositiveEquity(t *testing.T) {
	// Equity goes negative at index 2: the series ends with the last
	// well-defined ratio.
	returns := logReturns([]float64{100, 50, -10, 60})
	if len(returns) != 1 {
		t.Fatalf("expected 1 return, got %d", len(returns))
	}
	if !almostEqual(returns[0], math.Log(0.5)) {
		t.Errorf("returns[0] = %v, want %v", returns[0], math.Log(0.5))
	}
}

func TestLogReturns_TooShort(t *testing.T) {
	if got := logReturns([]float64{100}); got != nil {
		t.Errorf("expected nil for single-point curve, got %v", got)
	}
}

func TestComputeSharpe_KnownValue(t *testing.T) {
	// mean 0.02, sample stddev 0.01 → sharpe = sqrt(252) * 2
	returns := []float64{0.01, 0.02, 0.03}
	want := math.Sqrt(252) * 2
	assertFloatPtr(t, "sharpe", computeSharpe(returns, 252), want)
}

func TestComputeSharpe_Undefined(t *testing.T) {
	// Constant returns have zero stddev.
	assertNilFloat(t, "sharpe flat", computeSharpe([]float64{0.01, 0.01, 0.01}, 252))
	// Fewer than 2 returns.
	assertNilFloat(t, "sharpe short", computeSharpe([]float64{0.01}, 252))
}

func TestComputeMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		equity []float64
		want   float64
	}{
		{name: "flat curve", equity: []float64{100, 100, 100}, want: 0},
		{name: "monotonic rise", equity: []float64{100, 110, 120}, want: 0},
		{name: "peak to trough", equity: []float64{100, 120, 90, 110}, want: 0.25},
		{name: "depleted clamps to 1", equity: []float64{100, -50}, want: 1},
		{name: "empty", equity: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeMaxDrawdown(tt.equity)
			if !almostEqual(got, tt.want) {
				t.Errorf("max drawdown = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeCalmar(t *testing.T) {
	returns := []float64{0.001, 0.001, 0.001}
	// mean 0.001 annualized over a 0.2 drawdown
	assertFloatPtr(t, "calmar", computeCalmar(returns, 0.2, 252), 0.001*252/0.2)

	// Undefined when max drawdown is 0.
	assertNilFloat(t, "calmar zero dd", computeCalmar(returns, 0, 252))
}

func TestComputeWinRate(t *testing.T) {
	trades := []*domain.Trade{
		{Action: domain.ActionOpenLong, RealizedPnl: 0},
		{Action: domain.ActionCloseLong, RealizedPnl: 50},
		{Action: domain.ActionOpenShort, RealizedPnl: 0},
		{Action: domain.ActionCloseShort, RealizedPnl: -20},
		{Action: domain.ActionCloseLong, RealizedPnl: 10},
	}

	// 2 of 3 closing trades are winners; opens never count.
	assertFloatPtr(t, "win rate", computeWinRate(trades), 2.0/3.0)
}

func TestComputeWinRate_NoClosingTrades(t *testing.T) {
	trades := []*domain.Trade{
		{Action: domain.ActionOpenLong},
	}
	assertNilFloat(t, "win rate", computeWinRate(trades))
	assertNilFloat(t, "win rate empty", computeWinRate(nil))
}

func TestComputeBeta(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.015, 0.03, -0.01}

	// A series identical to the benchmark has beta exactly 1.
	assertFloatPtr(t, "beta identity", computeBeta(bench, bench), 1)

	// A series moving twice the benchmark has beta 2.
	doubled := make([]float64, len(bench))
	for i, b := range bench {
		doubled[i] = 2 * b
	}
	assertFloatPtr(t, "beta doubled", computeBeta(doubled, bench), 2)
}

func TestComputeBeta_Undefined(t *testing.T) {
	// Zero benchmark variance.
	assertNilFloat(t, "beta flat bench", computeBeta([]float64{0.01, 0.02}, []float64{0.01, 0.01}))
	// Fewer than 2 common points.
	assertNilFloat(t, "beta short", computeBeta([]float64{0.01}, []float64{0.01, 0.02}))
}

func TestComputeBeta_TrimsToCommonLength(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.015}
	// Extra returns past the benchmark length are ignored.
	returns := []float64{0.01, -0.02, 0.015, 99, -99}
	assertFloatPtr(t, "beta trimmed", computeBeta(returns, bench), 1)
}

func TestComputeAlpha(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.015, 0.03}

	// Returns identical to the benchmark: beta 1, alpha 0.
	beta := 1.0
	assertFloatPtr(t, "alpha identity", computeAlpha(bench, bench, &beta, 252), 0)

	// A constant per-tick edge of 0.001 over the benchmark annualizes
	// to 0.001 * P.
	shifted := make([]float64, len(bench))
	for i, b := range bench {
		shifted[i] = b + 0.001
	}
	assertFloatPtr(t, "alpha shifted", computeAlpha(shifted, bench, &beta, 252), 0.001*252)

	// Undefined without a beta.
	assertNilFloat(t, "alpha no beta", computeAlpha(bench, bench, nil, 252))
}

func TestComputeInformationRatio(t *testing.T) {
	bench := []float64{0.01, 0.02, 0.03, 0.04}
	returns := []float64{0.02, 0.02, 0.05, 0.04}

	excess := []float64{0.01, 0, 0.02, 0}
	mean := computeMean(excess)
	want := mean / computeStddev(excess, mean) * math.Sqrt(252)
	assertFloatPtr(t, "information ratio", computeInformationRatio(returns, bench, 252), want)
}

func TestComputeInformationRatio_Undefined(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.015}
	// Tracking the benchmark exactly leaves zero tracking error.
	assertNilFloat(t, "ir identity", computeInformationRatio(bench, bench, 252))
	assertNilFloat(t, "ir short", computeInformationRatio([]float64{0.01}, bench, 252))
}

func TestComputeRollingBeta(t *testing.T) {
	bench := []float64{0.01, 0.03, 0.02, 0.05, 0.04}
	out := computeRollingBeta(bench, bench, 3)

	if len(out) != len(bench) {
		t.Fatalf("expected length %d, got %d", len(bench), len(out))
	}
	// Nil before the window fills.
	if out[0] != nil || out[1] != nil {
		t.Error("expected nil betas before the window fills")
	}
	for i := 2; i < len(out); i++ {
		if out[i] == nil {
			t.Fatalf("rolling beta[%d] = nil, want 1", i)
		}
		if !almostEqual(*out[i], 1) {
			t.Errorf("rolling beta[%d] = %v, want 1", i, *out[i])
		}
	}
}

func TestComputeCumulativeAlpha(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.015}
	shifted := make([]float64, len(bench))
	for i, b := range bench {
		shifted[i] = b + 0.001
	}
	beta := 1.0

	// Curve longer than the return series: the sum carries forward.
	out := computeCumulativeAlpha(6, shifted, bench, &beta)
	if len(out) != 6 {
		t.Fatalf("expected length 6, got %d", len(out))
	}
	want := []float64{0, 0.001, 0.002, 0.003, 0.003, 0.003}
	for i := range want {
		if !almostEqual(out[i], want[i]) {
			t.Errorf("cumulative alpha[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestComputeCumulativeAlpha_NoBeta(t *testing.T) {
	out := computeCumulativeAlpha(4, []float64{0.01, 0.02}, []float64{0.01, 0.02}, nil)
	if len(out) != 4 {
		t.Fatalf("expected length 4, got %d", len(out))
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("cumulative alpha[%d] = %v, want 0", i, v)
		}
	}
}
