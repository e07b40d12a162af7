// internal/fees/fees.go
package fees

import (
	"errors"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

// Default fee schedule in SOL (fixed) and fraction of trade size (percent).
const (
	DefaultBuyFixed    = 0.002
	DefaultBuyPercent  = 0.022912
	DefaultSellFixed   = 0.002
	DefaultSellPercent = 0.063
)

// Config is the fee schedule applied to every trade. Percent fields are fractions,
// so 0.063 means 6.3%.
type Config struct {
	BuyFixed    float64 `mapstructure:"buy_fixed"`
	BuyPercent  float64 `mapstructure:"buy_percent"`
	SellFixed   float64 `mapstructure:"sell_fixed"`
	SellPercent float64 `mapstructure:"sell_percent"`
}

// DefaultConfig returns the stock fee schedule.
func DefaultConfig() Config {
	return Config{
		BuyFixed:    DefaultBuyFixed,
		BuyPercent:  DefaultBuyPercent,
		SellFixed:   DefaultSellFixed,
		SellPercent: DefaultSellPercent,
	}
}

// Validate rejects negative rates.
func (c Config) Validate() error {
	if c.BuyFixed < 0 || c.SellFixed < 0 {
		return errors.New("fixed fees must be non-negative")
	}
	if c.BuyPercent < 0 || c.SellPercent < 0 {
		return errors.New("percent fees must be non-negative")
	}
	return nil
}

// Fee returns the SOL fee paid on a trade of solAmount in the given direction.
func Fee(dir domain.Direction, solAmount float64, cfg Config) float64 {
	if solAmount < 0 {
		solAmount = 0
	}
	switch dir {
	case domain.DirectionSell:
		return cfg.SellFixed + solAmount*cfg.SellPercent
	default:
		return cfg.BuyFixed + solAmount*cfg.BuyPercent
	}
}
