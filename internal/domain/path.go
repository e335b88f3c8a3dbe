package domain

// MarketMode selects how the price path for a round is produced.
type MarketMode string

// Market mode constants
const (
	ModeSynthetic MarketMode = "synthetic"
	ModeReplay    MarketMode = "replay"
)

// Regime identifies the market regime driving the synthetic generator.
type Regime string

// Regime constants
const (
	RegimeTrendingUp     Regime = "TRENDING_UP"
	RegimeTrendingDown   Regime = "TRENDING_DOWN"
	RegimeRangeBound     Regime = "RANGE_BOUND"
	RegimeHighVolatility Regime = "HIGH_VOLATILITY"
)

// PricePoint is a single tick of a price path.
type PricePoint struct {
	Tick      int     // 0-based tick index
	Timestamp *int64  // source bar timestamp (ms), nil for synthetic paths
	Price     float64 // close price at this tick
}

// PricePath is the immutable per-round price series shared by all agents.
// BenchmarkReturns holds per-tick benchmark log returns:
// BenchmarkReturns[i] is the return from tick i to tick i+1, so its
// length is always len(Points)-1. For synthetic paths the benchmark is
// the path itself. Regimes records the regime active at each tick and
// is nil for replay paths.
type PricePath struct {
	Points           []PricePoint
	BenchmarkReturns []float64
	Regimes          []Regime
}

// Len returns the number of ticks in the path.
func (p *PricePath) Len() int {
	return len(p.Points)
}

// Prices materializes the close prices as a flat slice.
// Callers must treat the result as read-only when it is shared.
func (p *PricePath) Prices() []float64 {
	prices := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		prices[i] = pt.Price
	}
	return prices
}
