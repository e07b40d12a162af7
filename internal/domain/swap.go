// internal/domain/swap.go
package domain

import (
	"math"
	"time"
)

// Swap is a two-leg DEX activity as reported by an indexer: the wallet spent
// Amount1 of Token1 and received Amount2 of Token2. Amounts are raw integer
// units; decimals scale them.
type Swap struct {
	Signature      string
	BlockTime      time.Time
	Slot           uint64
	Platform       string
	From           string
	Token1         string
	Token2         string
	Token1Decimals int
	Token2Decimals int
	Amount1        float64
	Amount2        float64
}

// Amount1UI returns Amount1 in human units.
func (s Swap) Amount1UI() float64 {
	return s.Amount1 / math.Pow10(s.Token1Decimals)
}

// Amount2UI returns Amount2 in human units.
func (s Swap) Amount2UI() float64 {
	return s.Amount2 / math.Pow10(s.Token2Decimals)
}

// RawTx converts the swap into balance deltas owned by wallet.
func (s Swap) RawTx(wallet string, feedIndex int) RawTx {
	return RawTx{
		Signature: s.Signature,
		BlockTime: s.BlockTime,
		Slot:      s.Slot,
		Platform:  s.Platform,
		FeePayer:  s.From,
		FeedIndex: feedIndex,
		TokenChanges: []TokenBalanceChange{
			{Mint: s.Token1, Owner: wallet, Decimals: s.Token1Decimals, PostAmount: -s.Amount1UI()},
			{Mint: s.Token2, Owner: wallet, Decimals: s.Token2Decimals, PostAmount: s.Amount2UI()},
		},
	}
}

// SwapsToRawTxs converts a most-recent-first feed. FeedIndex is assigned so
// that ascending index is chronological.
func SwapsToRawTxs(swaps []Swap, wallet string) []RawTx {
	out := make([]RawTx, len(swaps))
	for i, s := range swaps {
		out[i] = s.RawTx(wallet, len(swaps)-1-i)
	}
	return out
}
