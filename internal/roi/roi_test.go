package roi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/fees"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func trade(kind domain.TradeKind, ago time.Duration, mint string, sol, tokens float64) domain.ClassifiedTrade {
	return domain.ClassifiedTrade{
		Timestamp:   now.Add(-ago),
		Kind:        kind,
		TokenMint:   mint,
		SOLAmount:   sol,
		TokenAmount: tokens,
	}
}

func TestComputePeriods(t *testing.T) {
	trades := []domain.ClassifiedTrade{
		trade(domain.KindBuy, 20*24*time.Hour, "old", 1, 100),
		trade(domain.KindSell, 19*24*time.Hour, "old", 0.5, 100),
		trade(domain.KindBuy, 3*time.Hour, "new", 1, 100),
		trade(domain.KindSell, 2*time.Hour, "new", 3, 100),
	}

	s := Compute("w1", trades, now, fees.Config{})
	assert.Equal(t, "w1", s.Wallet)
	assert.Equal(t, 4, s.Trades)
	require.Len(t, s.Periods, len(DefaultPeriods))

	day := s.Period("24h")
	assert.InDelta(t, 1, day.Invested, 1e-12)
	assert.InDelta(t, 2, day.RealizedPnL, 1e-12)
	assert.InDelta(t, 200, day.ROI.Value, 1e-9)
	assert.InDelta(t, 100, day.WinRate.Value, 1e-9)
	assert.Equal(t, domain.Available(200), day.MedianROI)
	assert.Equal(t, domain.Available(0), day.ROIStdDev)

	month := s.Period("30d")
	assert.InDelta(t, 2, month.Invested, 1e-12)
	assert.InDelta(t, 1.5, month.RealizedPnL, 1e-12)
	assert.InDelta(t, 75, month.ROI.Value, 1e-9)
	assert.InDelta(t, 50, month.WinRate.Value, 1e-9)
	assert.Equal(t, 1, month.Wins)
	assert.Equal(t, 1, month.Losses)
	assert.Equal(t, domain.Available(200), month.MedianROI, "upper middle of [-50 200]")
	assert.InDelta(t, 125, month.ROIStdDev.Value, 1e-9)
}

func TestWinRateCountsBuyOnlyTokens(t *testing.T) {
	trades := []domain.ClassifiedTrade{
		trade(domain.KindBuy, 5*time.Hour, "a", 1, 100),
		trade(domain.KindSell, 4*time.Hour, "a", 2, 100),
		trade(domain.KindBuy, 3*time.Hour, "b", 1, 100),
		trade(domain.KindBuy, 2*time.Hour, "c", 1, 100),
		trade(domain.KindBuy, time.Hour, "d", 1, 100),
	}

	day := Compute("w", trades, now, fees.Config{}, Period24h).Period("24h")
	assert.Equal(t, 4, day.Tokens)
	assert.Equal(t, 1, day.Wins)
	assert.Equal(t, 3, day.Losses)
	require.True(t, day.WinRate.OK)
	assert.InDelta(t, 25, day.WinRate.Value, 1e-9)

	assert.Equal(t, domain.Available(0), day.MedianROI)
	require.True(t, day.ROIStdDev.OK)
	assert.InDelta(t, 43.30127018922193, day.ROIStdDev.Value, 1e-9)
}

func TestComputeZeroInvestedIsUnavailable(t *testing.T) {
	s := Compute("w", nil, now, fees.DefaultConfig(), Period24h)
	p := s.Period("24h")
	assert.False(t, p.ROI.OK)
	assert.False(t, p.WinRate.OK)
	assert.False(t, p.MedianROI.OK)
	assert.False(t, p.ROIStdDev.OK)
	assert.Zero(t, p.Invested)

	// Sells only: received but nothing invested.
	s = Compute("w", []domain.ClassifiedTrade{
		trade(domain.KindSell, time.Hour, "x", 1, 1),
	}, now, fees.DefaultConfig(), Period24h)
	assert.False(t, s.Period("24h").ROI.OK)
	assert.True(t, s.Period("24h").WinRate.OK, "one token in the window")
	assert.False(t, s.Period("24h").MedianROI.OK, "no token has a cost basis")
}

func TestRank(t *testing.T) {
	mk := func(wallet string, roi domain.Metric, pnl float64) WalletSummary {
		return WalletSummary{
			Wallet: wallet,
			Periods: map[string]PeriodStats{
				"30d": {ROI: roi, RealizedPnL: pnl},
			},
		}
	}

	summaries := []WalletSummary{
		mk("d", domain.Unavailable(), 0),
		mk("c", domain.Available(10), 5),
		mk("a", domain.Available(50), 1),
		mk("b", domain.Available(10), 9),
	}

	ranked := Rank(summaries, DefaultSortKey, true)
	assert.Equal(t, []string{"a", "b", "c", "d"}, wallets(ranked))

	ranked = Rank(summaries, SortROI30d, false)
	assert.Equal(t, []string{"b", "c", "a", "d"}, wallets(ranked), "unavailable stays last ascending too")

	ranked = Rank(summaries, SortPnL30d, true)
	assert.Equal(t, []string{"b", "c", "a", "d"}, wallets(ranked))

	assert.Equal(t, "d", summaries[0].Wallet, "input is not reordered")
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortROI30d, k)

	k, err = ParseSortKey("wr30d")
	require.NoError(t, err)
	assert.Equal(t, SortWinRate30d, k)

	_, err = ParseSortKey("bogus")
	assert.True(t, domain.IsParse(err))
}

func wallets(s []WalletSummary) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Wallet
	}
	return out
}
