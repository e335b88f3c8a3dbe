package indicator

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		window int
		want   *float64
	}{
		{"empty", nil, 3, nil},
		{"short of window", []float64{1, 2}, 3, nil},
		{"exact window", []float64{1, 2, 3}, 3, ptr(2.0)},
		{"trailing window only", []float64{100, 1, 2, 3}, 3, ptr(2.0)},
		{"window one", []float64{5, 7}, 1, ptr(7.0)},
		{"zero window", []float64{1, 2, 3}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SMA(tt.prices, tt.window)
			assertFloatPtr(t, got, tt.want)
		})
	}
}

func TestStdDev(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		window int
		want   *float64
	}{
		{"short of window", []float64{1, 2}, 3, nil},
		{"window below two", []float64{1, 2, 3}, 1, nil},
		{"flat window", []float64{5, 5, 5, 5}, 4, ptr(0.0)},
		// Sample stddev of {2,4,4,4,5,5,7,9} is 2.138089935...
		{"known series", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 8, ptr(2.1380899352993947)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StdDev(tt.prices, tt.window)
			assertFloatPtr(t, got, tt.want)
		})
	}
}

func TestZScore(t *testing.T) {
	t.Run("nil before window", func(t *testing.T) {
		if got := ZScore([]float64{1, 2}, 3); got != nil {
			t.Fatalf("expected nil, got %v", *got)
		}
	})

	t.Run("flat series yields zero", func(t *testing.T) {
		got := ZScore([]float64{100, 100, 100, 100, 100}, 5)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if *got != 0 {
			t.Fatalf("expected 0 on zero variance, got %v", *got)
		}
	})

	t.Run("latest above mean is positive", func(t *testing.T) {
		got := ZScore([]float64{1, 2, 3, 4, 10}, 5)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if *got <= 0 {
			t.Fatalf("expected positive z-score, got %v", *got)
		}
	})

	t.Run("latest below mean is negative", func(t *testing.T) {
		got := ZScore([]float64{10, 9, 8, 7, 1}, 5)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if *got >= 0 {
			t.Fatalf("expected negative z-score, got %v", *got)
		}
	})
}

func TestEMA(t *testing.T) {
	t.Run("nil before window", func(t *testing.T) {
		if got := EMA([]float64{1, 2}, 3); got != nil {
			t.Fatalf("expected nil, got %v", *got)
		}
	})

	t.Run("seeded from first price", func(t *testing.T) {
		got := EMA([]float64{10}, 1)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if !almostEqual(*got, 10) {
			t.Fatalf("expected 10, got %v", *got)
		}
	})

	t.Run("iterates whole series", func(t *testing.T) {
		// alpha = 2/(2+1) = 2/3; seed 1, then
		// 2/3*2 + 1/3*1 = 5/3, then 2/3*3 + 1/3*5/3 = 23/9.
		got := EMA([]float64{1, 2, 3}, 2)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if !almostEqual(*got, 23.0/9.0) {
			t.Fatalf("expected %v, got %v", 23.0/9.0, *got)
		}
	})

	t.Run("flat series converges to the level", func(t *testing.T) {
		got := EMA([]float64{7, 7, 7, 7, 7}, 3)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if !almostEqual(*got, 7) {
			t.Fatalf("expected 7, got %v", *got)
		}
	})
}

func TestATR(t *testing.T) {
	t.Run("needs window plus one", func(t *testing.T) {
		if got := ATR([]float64{1, 2, 3}, 3); got != nil {
			t.Fatalf("expected nil, got %v", *got)
		}
	})

	t.Run("mean absolute change", func(t *testing.T) {
		// Changes: +1, -2, +3 over window 3 -> mean abs = 2.
		got := ATR([]float64{10, 11, 9, 12}, 3)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if !almostEqual(*got, 2) {
			t.Fatalf("expected 2, got %v", *got)
		}
	})

	t.Run("flat path has zero range", func(t *testing.T) {
		got := ATR([]float64{5, 5, 5, 5}, 3)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if *got != 0 {
			t.Fatalf("expected 0, got %v", *got)
		}
	})
}

func TestRSI(t *testing.T) {
	t.Run("needs window plus one", func(t *testing.T) {
		if got := RSI([]float64{1, 2, 3}, 3); got != nil {
			t.Fatalf("expected nil, got %v", *got)
		}
	})

	t.Run("all gains is 100", func(t *testing.T) {
		got := RSI([]float64{1, 2, 3, 4, 5}, 4)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if *got != 100 {
			t.Fatalf("expected 100, got %v", *got)
		}
	})

	t.Run("all losses is 0", func(t *testing.T) {
		got := RSI([]float64{5, 4, 3, 2, 1}, 4)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if *got != 0 {
			t.Fatalf("expected 0, got %v", *got)
		}
	})

	t.Run("flat window is neutral 50", func(t *testing.T) {
		got := RSI([]float64{3, 3, 3, 3, 3}, 4)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if *got != 50 {
			t.Fatalf("expected 50, got %v", *got)
		}
	})

	t.Run("balanced gains and losses is 50", func(t *testing.T) {
		got := RSI([]float64{10, 11, 10, 11, 10}, 4)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if !almostEqual(*got, 50) {
			t.Fatalf("expected 50, got %v", *got)
		}
	})
}

func TestMomentum(t *testing.T) {
	t.Run("needs window plus one", func(t *testing.T) {
		if got := Momentum([]float64{1, 2, 3}, 3); got != nil {
			t.Fatalf("expected nil, got %v", *got)
		}
	})

	t.Run("percent change over window", func(t *testing.T) {
		got := Momentum([]float64{100, 101, 102, 110}, 3)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if !almostEqual(*got, 10) {
			t.Fatalf("expected 10, got %v", *got)
		}
	})

	t.Run("negative momentum", func(t *testing.T) {
		got := Momentum([]float64{100, 95, 90}, 2)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if !almostEqual(*got, -10) {
			t.Fatalf("expected -10, got %v", *got)
		}
	})
}

func TestRealizedVolatility(t *testing.T) {
	t.Run("needs window plus one", func(t *testing.T) {
		if got := RealizedVolatility([]float64{1, 2, 3}, 3, 252); got != nil {
			t.Fatalf("expected nil, got %v", *got)
		}
	})

	t.Run("flat path has zero volatility", func(t *testing.T) {
		got := RealizedVolatility([]float64{100, 100, 100, 100}, 3, 252)
		if got == nil {
			t.Fatal("expected value, got nil")
		}
		if *got != 0 {
			t.Fatalf("expected 0, got %v", *got)
		}
	})

	t.Run("annualization scales by sqrt", func(t *testing.T) {
		prices := []float64{100, 102, 99, 104, 101}
		a := RealizedVolatility(prices, 4, 252)
		b := RealizedVolatility(prices, 4, 63)
		if a == nil || b == nil {
			t.Fatal("expected values, got nil")
		}
		if !almostEqual(*a, *b*2) {
			t.Fatalf("expected 252-period vol to be 2x 63-period vol, got %v vs %v", *a, *b)
		}
	})
}

func ptr(v float64) *float64 {
	return &v
}

func assertFloatPtr(t *testing.T, got, want *float64) {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Fatalf("expected nil, got %v", *got)
		}
		return
	}
	if got == nil {
		t.Fatalf("expected %v, got nil", *want)
	}
	if !almostEqual(*got, *want) {
		t.Fatalf("expected %v, got %v", *want, *got)
	}
}
