// internal/holders/holders.go
package holders

import (
	"sort"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

// Distribution describes how concentrated a token's supply is.
type Distribution struct {
	Holders int `json:"holders"`

	// Shares of total supply, in percent.
	Top1  domain.Metric `json:"top1"`
	Top10 domain.Metric `json:"top10"`
	Top20 domain.Metric `json:"top20"`

	// HHI is the Herfindahl-Hirschman index over supply shares, 0..10000.
	HHI  domain.Metric `json:"hhi"`
	Gini domain.Metric `json:"gini"`
}

// Ranked returns a copy of holders sorted by amount descending with Rank set
// from 1. Equal amounts are ordered by owner.
func Ranked(holders []domain.HolderRecord) []domain.HolderRecord {
	out := make([]domain.HolderRecord, len(holders))
	copy(out, holders)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Owner < out[j].Owner
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Compute derives the distribution from the holder list. Supply shares are
// unavailable when supply is not positive; the Gini coefficient only depends
// on the holder amounts.
func Compute(holders []domain.HolderRecord, supply float64) Distribution {
	ranked := Ranked(holders)
	d := Distribution{Holders: len(ranked)}

	if supply > 0 {
		d.Top1 = domain.Available(topShare(ranked, 1, supply))
		d.Top10 = domain.Available(topShare(ranked, 10, supply))
		d.Top20 = domain.Available(topShare(ranked, 20, supply))

		var hhi float64
		for _, h := range ranked {
			s := h.Amount / supply * 100
			hhi += s * s
		}
		d.HHI = domain.Available(hhi)
	}

	d.Gini = gini(ranked)
	return d
}

func topShare(ranked []domain.HolderRecord, n int, supply float64) float64 {
	var sum float64
	for i := 0; i < n && i < len(ranked); i++ {
		sum += ranked[i].Amount
	}
	return sum / supply * 100
}

// gini expects amounts sorted descending.
func gini(ranked []domain.HolderRecord) domain.Metric {
	n := len(ranked)
	if n == 0 {
		return domain.Unavailable()
	}

	var total, weighted float64
	for i := range ranked {
		// ascending position, 1-based
		x := ranked[n-1-i].Amount
		if x < 0 {
			x = 0
		}
		total += x
		weighted += float64(i+1) * x
	}
	if total == 0 {
		return domain.Unavailable()
	}
	nf := float64(n)
	return domain.Available(2*weighted/(nf*total) - (nf+1)/nf)
}
