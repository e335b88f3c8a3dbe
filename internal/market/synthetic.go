package market

import (
	"math"
	"math/rand"

	"quant-arena/internal/domain"
)

// MinPrice is the floor applied after every synthetic price update.
const MinPrice = 0.01

// regimeParams returns the effective drift and volatility for a regime
// given the configured base values.
func regimeParams(r domain.Regime, baseDrift, baseVol float64) (drift, vol float64) {
	switch r {
	case domain.RegimeTrendingUp:
		return 3.0 * baseDrift, 1.2 * baseVol
	case domain.RegimeTrendingDown:
		return -2.0 * baseDrift, 1.2 * baseVol
	case domain.RegimeHighVolatility:
		return 0.0, 2.5 * baseVol
	default:
		return 0.0, baseVol
	}
}

// drawRegime maps a uniform roll in [0,1) to a regime: the trend
// probability is split evenly between up and down, the volatile
// probability follows, and the remainder is range-bound.
func drawRegime(roll float64, rc domain.RegimeConfig) domain.Regime {
	switch {
	case roll < rc.TrendProbability/2:
		return domain.RegimeTrendingUp
	case roll < rc.TrendProbability:
		return domain.RegimeTrendingDown
	case roll < rc.TrendProbability+rc.VolatileProbability:
		return domain.RegimeHighVolatility
	default:
		return domain.RegimeRangeBound
	}
}

// nextRegime keeps the current regime with the configured persistence
// probability, otherwise redraws from the switch weights.
func nextRegime(rng *rand.Rand, current domain.Regime, rc domain.RegimeConfig) domain.Regime {
	if rng.Float64() < rc.Persistence {
		return current
	}
	return drawRegime(rng.Float64(), rc)
}

// GenerateSynthetic produces a regime-switching geometric price path of
// cfg.NumTicks points. Tick 0 carries the initial price; every later
// tick applies
//
//	price[t] = price[t-1] * exp((drift - 0.5*vol^2) + vol*shock)
//
// with shock ~ N(0,1) drawn from the (seed, tick, stream) keyed stream,
// floored at MinPrice. Benchmark returns default to the path's own log
// returns.
func GenerateSynthetic(seed int64, cfg domain.MarketConfig) *domain.PricePath {
	n := cfg.NumTicks
	points := make([]domain.PricePoint, n)
	regimes := make([]domain.Regime, n)

	regime := drawRegime(streamRand(seed, 0, streamRegime).Float64(), cfg.Regime)
	price := cfg.InitialPrice
	points[0] = domain.PricePoint{Tick: 0, Price: price}
	regimes[0] = regime

	for t := 1; t < n; t++ {
		regime = nextRegime(streamRand(seed, t, streamRegime), regime, cfg.Regime)
		drift, vol := regimeParams(regime, cfg.Drift, cfg.Volatility)
		shock := streamRand(seed, t, streamShock).NormFloat64()

		price *= math.Exp((drift - 0.5*vol*vol) + vol*shock)
		if price < MinPrice {
			price = MinPrice
		}
		points[t] = domain.PricePoint{Tick: t, Price: price}
		regimes[t] = regime
	}

	return &domain.PricePath{
		Points:           points,
		BenchmarkReturns: pathLogReturns(points),
		Regimes:          regimes,
	}
}

// pathLogReturns computes ln(p[t+1]/p[t]) for consecutive points.
func pathLogReturns(points []domain.PricePoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	returns := make([]float64, len(points)-1)
	for i := 1; i < len(points); i++ {
		returns[i-1] = math.Log(points[i].Price / points[i-1].Price)
	}
	return returns
}
