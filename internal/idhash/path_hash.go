package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// ComputePathHash computes a deterministic fingerprint of a price path
// using SHA256.
// Formula: SHA256(seed|price_bits_0|price_bits_1|...)
// Returns hex-encoded hash (64 characters).
//
// Prices are folded in by their IEEE 754 bit patterns so the fingerprint
// is exact rather than subject to decimal formatting.
func ComputePathHash(seed int64, prices []float64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d", seed)
	for _, p := range prices {
		fmt.Fprintf(h, "|%x", math.Float64bits(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
