package idhash

import (
	"testing"
)

func TestComputePathHash(t *testing.T) {
	prices := []float64{100.0, 100.5, 99.8, 101.2}

	got := ComputePathHash(42, prices)
	if len(got) != 64 {
		t.Errorf("ComputePathHash() length = %d, want 64", len(got))
	}

	// Verify determinism: same inputs should produce same output
	got2 := ComputePathHash(42, prices)
	if got != got2 {
		t.Errorf("ComputePathHash() not deterministic: %s != %s", got, got2)
	}
}

func TestComputePathHash_DifferentInputs(t *testing.T) {
	prices := []float64{100.0, 100.5, 99.8}
	base := ComputePathHash(42, prices)

	diffSeed := ComputePathHash(43, prices)
	if base == diffSeed {
		t.Error("Different seed should produce different hash")
	}

	diffPrices := ComputePathHash(42, []float64{100.0, 100.5, 99.9})
	if base == diffPrices {
		t.Error("Different prices should produce different hash")
	}

	shorter := ComputePathHash(42, prices[:2])
	if base == shorter {
		t.Error("Truncated path should produce different hash")
	}
}
