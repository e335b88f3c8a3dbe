// Package market builds the shared per-round price path, either by
// synthesizing a regime-switching geometric walk from a seed or by
// replaying stored historical bars.
package market

import (
	"context"
	"fmt"

	"quant-arena/internal/domain"
)

// Provider builds price paths for rounds. The bar source is only
// required for replay mode and may be nil otherwise.
type Provider struct {
	bars BarSource
}

// NewProvider creates a path provider backed by the given bar source.
func NewProvider(bars BarSource) *Provider {
	return &Provider{bars: bars}
}

// BuildPath produces the immutable price path for a round. Synthetic
// paths depend only on (seed, cfg); replay paths additionally depend on
// the stored bar series.
func (p *Provider) BuildPath(ctx context.Context, seed int64, cfg domain.MarketConfig) (*domain.PricePath, error) {
	switch cfg.Mode {
	case domain.ModeSynthetic:
		return GenerateSynthetic(seed, cfg), nil
	case domain.ModeReplay:
		if p.bars == nil {
			return nil, fmt.Errorf("replay mode requires a bar source")
		}
		return BuildReplay(ctx, p.bars, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown market mode %q", domain.ErrConfigInvalid, cfg.Mode)
	}
}

// CanReplay reports whether enough bars are stored to replay the
// configured market: at least NumTicks bars for the asset symbol and,
// when set, the benchmark symbol.
func (p *Provider) CanReplay(ctx context.Context, cfg domain.MarketConfig) (bool, error) {
	if p.bars == nil {
		return false, fmt.Errorf("replay mode requires a bar source")
	}
	count, err := p.bars.CountBars(ctx, cfg.Symbol, cfg.Interval)
	if err != nil {
		return false, err
	}
	if count < cfg.NumTicks {
		return false, nil
	}
	if cfg.BenchmarkSymbol != "" {
		count, err = p.bars.CountBars(ctx, cfg.BenchmarkSymbol, cfg.Interval)
		if err != nil {
			return false, err
		}
		if count < cfg.NumTicks {
			return false, nil
		}
	}
	return true, nil
}
