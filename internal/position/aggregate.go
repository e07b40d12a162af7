// internal/position/aggregate.go
package position

import (
	"sort"
	"time"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/fees"
)

type options struct {
	policy CostPolicy
	prices map[string]float64
}

// Option customizes Aggregate.
type Option func(*options)

// WithPolicy replaces the AverageCost policy.
func WithPolicy(p CostPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithPrices supplies current prices in SOL per token, used for RemainingValue.
// Mints missing from the map keep RemainingValue unavailable.
func WithPrices(prices map[string]float64) Option {
	return func(o *options) { o.prices = prices }
}

// Aggregate replays trades in chronological order and folds them into one
// position per token mint. An empty input yields an empty map.
func Aggregate(wallet string, trades []domain.ClassifiedTrade, cfg fees.Config, opts ...Option) map[string]*TokenPosition {
	o := options{policy: AverageCost{}}
	for _, opt := range opts {
		opt(&o)
	}

	positions := make(map[string]*TokenPosition)
	for _, t := range Chronological(trades) {
		p, ok := positions[t.TokenMint]
		if !ok {
			p = &TokenPosition{
				Wallet:         wallet,
				TokenMint:      t.TokenMint,
				FirstTradeTime: t.Timestamp,
			}
			positions[t.TokenMint] = p
		}
		apply(p, t, cfg, o.policy)
		p.LastTradeTime = t.Timestamp
	}

	for mint, p := range positions {
		finalizeHoldTimes(p)
		if price, ok := o.prices[mint]; ok && price >= 0 {
			p.RemainingValue = domain.Available(p.TokensHeld * price)
		}
	}
	return positions
}

// Chronological returns a copy of trades sorted by timestamp. Equal timestamps
// keep feed order, then leg order, then input order.
func Chronological(trades []domain.ClassifiedTrade) []domain.ClassifiedTrade {
	sorted := make([]domain.ClassifiedTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.FeedIndex != b.FeedIndex {
			return a.FeedIndex < b.FeedIndex
		}
		return a.Leg < b.Leg
	})
	return sorted
}

func apply(p *TokenPosition, t domain.ClassifiedTrade, cfg fees.Config, policy CostPolicy) {
	switch t.Kind {
	case domain.KindBuy:
		fee := fees.Fee(domain.DirectionBuy, t.SOLAmount, cfg)
		cost := t.SOLAmount + fee
		p.SOLInvested += cost
		p.TotalFees += fee
		p.TokensHeld += t.TokenAmount
		p.TokensBought += t.TokenAmount
		p.BuyCount++
		policy.Acquire(&p.basis, cost, t.TokenAmount)
		p.Buys = append(p.Buys, BuyEntry{
			Time:     t.Timestamp,
			SOL:      t.SOLAmount,
			Tokens:   t.TokenAmount,
			Fee:      fee,
			Invested: cost,
		})

	case domain.KindSell:
		fee := fees.Fee(domain.DirectionSell, t.SOLAmount, cfg)
		proceeds := t.SOLAmount - fee
		sold := clampSold(t.TokenAmount, p.TokensHeld)
		costOfSold := policy.Dispose(&p.basis, sold)

		p.SOLReceived += proceeds
		p.TotalFees += fee
		p.TokensHeld -= sold
		p.TokensSold += sold
		p.SellCount++
		pnl := proceeds - costOfSold
		p.RealizedPnL += pnl
		p.Sells = append(p.Sells, SellResult{
			Time:      t.Timestamp,
			Tokens:    sold,
			Proceeds:  proceeds,
			CostBasis: costOfSold,
			PnL:       pnl,
		})

	case domain.KindTransferIn:
		p.TokensHeld += t.TokenAmount
		policy.Acquire(&p.basis, 0, t.TokenAmount)

	case domain.KindTransferOut:
		moved := clampSold(t.TokenAmount, p.TokensHeld)
		policy.Dispose(&p.basis, moved)
		p.TokensHeld -= moved
	}

	if p.TokensHeld < 0 {
		p.TokensHeld = 0
	}
}

func clampSold(amount, held float64) float64 {
	if amount > held {
		return held
	}
	if amount < 0 {
		return 0
	}
	return amount
}

// finalizeHoldTimes approximates the hold time of each sell without lot tracking:
// with one buy it is measured from the first trade, otherwise from the median
// buy timestamp.
func finalizeHoldTimes(p *TokenPosition) {
	if p.BuyCount == 0 || len(p.Sells) == 0 {
		return
	}

	anchor := p.FirstTradeTime
	if p.BuyCount > 1 {
		times := make([]time.Time, len(p.Buys))
		for i, b := range p.Buys {
			times[i] = b.Time
		}
		anchor, _ = domain.MedianTime(times)
	}

	p.HoldTimes = make([]time.Duration, len(p.Sells))
	for i := range p.Sells {
		d := p.Sells[i].Time.Sub(anchor)
		if d < 0 {
			d = 0
		}
		p.Sells[i].HoldTime = d
		p.HoldTimes[i] = d
	}
}
