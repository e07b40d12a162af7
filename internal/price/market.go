// internal/price/market.go
package price

import (
	"context"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/position"
)

// SupplySource reports a token's circulating supply in human units.
type SupplySource interface {
	TokenSupply(ctx context.Context, mint string) (float64, error)
}

// MarketBuilder assembles the market inputs of a metrics row. Lookup
// failures become gaps and are logged.
type MarketBuilder struct {
	prices        Lookup
	supply        SupplySource
	solMint       string
	defaultSupply float64
	logger        *zap.Logger
}

// NewMarketBuilder creates a builder. supply may be nil, in which case
// cfg.Supply is used for every token.
func NewMarketBuilder(prices Lookup, supply SupplySource, cfg Config, logger *zap.Logger) *MarketBuilder {
	if cfg.SOLMint == "" {
		cfg.SOLMint = domain.WrappedSOLMint
	}
	return &MarketBuilder{
		prices:        prices,
		supply:        supply,
		solMint:       cfg.SOLMint,
		defaultSupply: cfg.Supply,
		logger:        logger,
	}
}

// SOLPrice returns the SOL/USD price.
func (b *MarketBuilder) SOLPrice(ctx context.Context) domain.Metric {
	return b.price(ctx, b.solMint)
}

func (b *MarketBuilder) price(ctx context.Context, mint string) domain.Metric {
	v, err := b.prices.Price(ctx, mint)
	if err != nil {
		b.logger.Warn("Price lookup failed", zap.String("mint", mint), zap.Error(err))
		return domain.Unavailable()
	}
	return v
}

// Supply returns the token supply, falling back to the configured default.
func (b *MarketBuilder) Supply(ctx context.Context, mint string) domain.Metric {
	if b.supply != nil {
		s, err := b.supply.TokenSupply(ctx, mint)
		if err == nil && s > 0 {
			return domain.Available(s)
		}
		if err != nil {
			b.logger.Debug("Supply lookup failed, using default",
				zap.String("mint", mint), zap.Error(err))
		}
	}
	if b.defaultSupply > 0 {
		return domain.Available(b.defaultSupply)
	}
	return domain.Unavailable()
}

// Market returns the market inputs for mint given the SOL/USD price.
func (b *MarketBuilder) Market(ctx context.Context, mint string, solUSD domain.Metric) position.Market {
	return position.Market{
		SOLPriceUSD: solUSD,
		Supply:      b.Supply(ctx, mint),
		PriceUSD:    b.price(ctx, mint),
	}
}

// PricesInSOL converts USD prices of mints into SOL per token for
// position.WithPrices. Mints without a price are left out.
func (b *MarketBuilder) PricesInSOL(ctx context.Context, mints []string, solUSD domain.Metric) map[string]float64 {
	out := make(map[string]float64)
	if !solUSD.OK || solUSD.Value <= 0 {
		return out
	}
	for _, m := range mints {
		if p := b.price(ctx, m); p.OK {
			out[m] = p.Value / solUSD.Value
		}
	}
	return out
}
