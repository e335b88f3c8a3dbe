package market

import "math/rand"

// Stream identifiers keying the independent random streams of a tick.
const (
	streamRegime uint64 = 1
	streamShock  uint64 = 2
)

// mix64 is the splitmix64 finalizer. It spreads the bits of x so that
// nearby (seed, tick, stream) keys yield unrelated generator seeds.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// streamRand returns a generator whose draws are a pure function of
// (seed, tick, stream). No global RNG state is involved, so the draw at
// a tick does not depend on how many draws happened at earlier ticks.
func streamRand(seed int64, tick int, stream uint64) *rand.Rand {
	x := mix64(uint64(seed) ^ 0x9e3779b97f4a7c15)
	x = mix64(x ^ uint64(tick))
	x = mix64(x ^ stream)
	return rand.New(rand.NewSource(int64(x)))
}
