// internal/roi/rank.go
package roi

import (
	"fmt"
	"sort"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

// SortKey selects the metric wallets are ranked by.
type SortKey string

const (
	SortROI24h      SortKey = "roi24h"
	SortROI7d       SortKey = "roi7d"
	SortROI30d      SortKey = "roi30d"
	SortPnL30d      SortKey = "pnl30d"
	SortWinRate30d  SortKey = "wr30d"
	SortInvested30d SortKey = "invested30d"
)

// DefaultSortKey ranks by 30 day ROI.
const DefaultSortKey = SortROI30d

// ParseSortKey validates a user-supplied sort key. Empty selects the default.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return DefaultSortKey, nil
	}
	switch k := SortKey(s); k {
	case SortROI24h, SortROI7d, SortROI30d, SortPnL30d, SortWinRate30d, SortInvested30d:
		return k, nil
	}
	return "", &domain.ParseError{Input: s, Token: s, Reason: fmt.Sprintf("unknown sort key, want one of %v", sortKeys())}
}

func sortKeys() []SortKey {
	return []SortKey{SortROI24h, SortROI7d, SortROI30d, SortPnL30d, SortWinRate30d, SortInvested30d}
}

// Value extracts the ranking metric from a summary.
func (k SortKey) Value(s WalletSummary) domain.Metric {
	switch k {
	case SortROI24h:
		return s.Period(Period24h.Name).ROI
	case SortROI7d:
		return s.Period(Period7d.Name).ROI
	case SortPnL30d:
		return domain.Available(s.Period(Period30d.Name).RealizedPnL)
	case SortWinRate30d:
		return s.Period(Period30d.Name).WinRate
	case SortInvested30d:
		return domain.Available(s.Period(Period30d.Name).Invested)
	default:
		return s.Period(Period30d.Name).ROI
	}
}

// Rank sorts a copy of summaries by key. Unavailable values go last in either
// direction; ties are broken by wallet address ascending.
func Rank(summaries []WalletSummary, key SortKey, desc bool) []WalletSummary {
	out := make([]WalletSummary, len(summaries))
	copy(out, summaries)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := key.Value(out[i]), key.Value(out[j])
		if a.OK != b.OK {
			return a.OK
		}
		if a.OK && a.Value != b.Value {
			if desc {
				return a.Value > b.Value
			}
			return a.Value < b.Value
		}
		return out[i].Wallet < out[j].Wallet
	})
	return out
}
