// internal/position/position.go
package position

import (
	"time"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

// SellResult is the realized outcome of one sell.
type SellResult struct {
	Time      time.Time     `json:"time"`
	Tokens    float64       `json:"tokens"`
	Proceeds  float64       `json:"proceeds"`
	CostBasis float64       `json:"cost_basis"`
	PnL       float64       `json:"pnl"`
	HoldTime  time.Duration `json:"hold_time"`
}

// ROIPercent returns PnL as a percentage of the cost basis sold.
func (s SellResult) ROIPercent() domain.Metric {
	if s.CostBasis <= 0 {
		return domain.Unavailable()
	}
	return domain.Available(s.PnL / s.CostBasis * 100)
}

// BuyEntry records one buy for entry statistics.
type BuyEntry struct {
	Time     time.Time `json:"time"`
	SOL      float64   `json:"sol"`
	Tokens   float64   `json:"tokens"`
	Fee      float64   `json:"fee"`
	Invested float64   `json:"invested"`
}

// TokenPosition is the folded trading history of one wallet on one token.
// After Aggregate returns it is read-only.
type TokenPosition struct {
	Wallet    string `json:"wallet"`
	TokenMint string `json:"token_mint"`

	SOLInvested  float64 `json:"sol_invested"`
	SOLReceived  float64 `json:"sol_received"`
	TokensHeld   float64 `json:"tokens_held"`
	TokensBought float64 `json:"tokens_bought"`
	TokensSold   float64 `json:"tokens_sold"`
	BuyCount     int     `json:"buy_count"`
	SellCount    int     `json:"sell_count"`
	TotalFees    float64 `json:"total_fees"`
	RealizedPnL  float64 `json:"realized_pnl"`

	// RemainingValue is TokensHeld times the current price in SOL.
	RemainingValue domain.Metric `json:"remaining_value"`

	FirstTradeTime time.Time `json:"first_trade_time"`
	LastTradeTime  time.Time `json:"last_trade_time"`

	Buys      []BuyEntry      `json:"buys"`
	Sells     []SellResult    `json:"sells"`
	HoldTimes []time.Duration `json:"hold_times"`

	basis Basis
}

// FirstBuy returns the earliest buy, if any.
func (p *TokenPosition) FirstBuy() (BuyEntry, bool) {
	if len(p.Buys) == 0 {
		return BuyEntry{}, false
	}
	return p.Buys[0], true
}

// CostBasis returns the cost still carried by held tokens.
func (p *TokenPosition) CostBasis() float64 {
	return p.basis.Cost
}

// UnrealizedPnL is RemainingValue minus the carried cost basis.
func (p *TokenPosition) UnrealizedPnL() domain.Metric {
	if !p.RemainingValue.OK {
		return domain.Unavailable()
	}
	return domain.Available(p.RemainingValue.Value - p.basis.Cost)
}

// ROI returns RealizedPnL / SOLInvested * 100.
func (p *TokenPosition) ROI() domain.Metric {
	if p.SOLInvested <= 0 {
		return domain.Unavailable()
	}
	return domain.Available(p.RealizedPnL / p.SOLInvested * 100)
}

// Closed reports whether every bought token has been sold.
func (p *TokenPosition) Closed() bool {
	return p.SellCount > 0 && p.TokensHeld <= 0
}
