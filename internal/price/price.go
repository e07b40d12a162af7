// internal/price/price.go
package price

import (
	"context"
	"time"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

// Lookup resolves a mint's current USD price. An unknown price is an
// unavailable metric, not an error.
type Lookup interface {
	Price(ctx context.Context, mint string) (domain.Metric, error)
}

// Config configures price lookups.
type Config struct {
	BaseURL  string        `mapstructure:"base_url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Retries  int           `mapstructure:"retries"`
	Timeout  time.Duration `mapstructure:"timeout"`
	SOLMint  string        `mapstructure:"sol_mint"`
	// Supply is used for market caps when the chain cannot be asked.
	Supply float64 `mapstructure:"supply"`
}

const (
	DefaultBaseURL = "https://api.dexscreener.com/latest/dex"
	DefaultSupply  = 1_000_000_000
)

// DefaultConfig returns DexScreener settings with a 60 second cache.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		CacheTTL: 60 * time.Second,
		Retries:  3,
		Timeout:  15 * time.Second,
		SOLMint:  domain.WrappedSOLMint,
		Supply:   DefaultSupply,
	}
}

// Static is a fixed price table, used for tests and offline runs.
type Static map[string]float64

// Price implements Lookup.
func (s Static) Price(_ context.Context, mint string) (domain.Metric, error) {
	if p, ok := s[mint]; ok && p > 0 {
		return domain.Available(p), nil
	}
	return domain.Unavailable(), nil
}

// None never knows a price.
type None struct{}

// Price implements Lookup.
func (None) Price(context.Context, string) (domain.Metric, error) {
	return domain.Unavailable(), nil
}
