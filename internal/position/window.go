// internal/position/window.go
package position

import (
	"time"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

// Window returns the trades with timestamp >= now-d, in input order.
// A non-positive d returns every trade.
func Window(trades []domain.ClassifiedTrade, now time.Time, d time.Duration) []domain.ClassifiedTrade {
	if d <= 0 {
		out := make([]domain.ClassifiedTrade, len(trades))
		copy(out, trades)
		return out
	}

	cutoff := now.Add(-d)
	var out []domain.ClassifiedTrade
	for _, t := range trades {
		if !t.Timestamp.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Totals sums a set of positions.
type Totals struct {
	Invested    float64
	Received    float64
	RealizedPnL float64
	Fees        float64
	Tokens      int
	Wins        int
	Losses      int
	Sold        int
}

// Sum folds positions into Totals. A token is a win when its realized P&L is
// positive; every other token, including one that was only bought, is a loss.
func Sum(positions map[string]*TokenPosition) Totals {
	var t Totals
	for _, p := range positions {
		t.Invested += p.SOLInvested
		t.Received += p.SOLReceived
		t.RealizedPnL += p.RealizedPnL
		t.Fees += p.TotalFees
		t.Tokens++
		if p.SellCount > 0 {
			t.Sold++
		}
		if p.RealizedPnL > 0 {
			t.Wins++
		} else {
			t.Losses++
		}
	}
	return t
}
