package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/fees"
)

const (
	wallet = "Wa11et1111111111111111111111111111111111111"
	other  = "0ther11111111111111111111111111111111111111"
	mintA  = "AAAAmint1111111111111111111111111111111111"
	mintB  = "BBBBmint1111111111111111111111111111111111"
)

var ts = time.Unix(1_700_000_000, 0)

func rawTx(sig string, lamports int64, changes ...domain.TokenBalanceChange) domain.RawTx {
	return domain.RawTx{
		Signature:    sig,
		BlockTime:    ts,
		SOLChange:    lamports,
		TokenChanges: changes,
	}
}

func change(mint, owner string, pre, post float64) domain.TokenBalanceChange {
	return domain.TokenBalanceChange{Mint: mint, Owner: owner, PreAmount: pre, PostAmount: post}
}

func TestClassifyBuyAndSell(t *testing.T) {
	c := New(DefaultOptions())

	buys, err := c.Classify(rawTx("buy", -500_000_000, change(mintA, wallet, 0, 1000)), wallet)
	require.NoError(t, err)
	require.Len(t, buys, 1)
	assert.Equal(t, domain.KindBuy, buys[0].Kind)
	assert.Equal(t, mintA, buys[0].TokenMint)
	assert.InDelta(t, 0.5, buys[0].SOLAmount, 1e-12)
	assert.InDelta(t, 1000, buys[0].TokenAmount, 1e-12)

	sells, err := c.Classify(rawTx("sell", 700_000_000, change(mintA, wallet, 1000, 0)), wallet)
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.Equal(t, domain.KindSell, sells[0].Kind)
	assert.InDelta(t, 0.7, sells[0].SOLAmount, 1e-12)
}

func TestClassifyWrappedSOLLeg(t *testing.T) {
	c := New(DefaultOptions())

	tx := rawTx("wsol", 0,
		change(domain.WrappedSOLMint, wallet, 2, 1.25),
		change(mintA, wallet, 0, 42),
	)
	trades, err := c.Classify(tx, wallet)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, domain.KindBuy, trades[0].Kind)
	assert.InDelta(t, 0.75, trades[0].SOLAmount, 1e-12)
}

func TestClassifyIgnoresOtherOwners(t *testing.T) {
	c := New(DefaultOptions())

	tx := rawTx("pool", -100_000_000,
		change(mintA, other, 5000, 4000),
		change(mintA, wallet, 0, 1000),
	)
	trades, err := c.Classify(tx, wallet)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.InDelta(t, 1000, trades[0].TokenAmount, 1e-12)
}

func TestClassifyDropsNonTrades(t *testing.T) {
	c := New(DefaultOptions())

	tests := []struct {
		name    string
		tx      domain.RawTx
		outcome Outcome
	}{
		{"pure sol transfer", rawTx("t1", -1_000_000_000), OutcomeNoTokenLeg},
		{"token to token swap", rawTx("t2", 0, change(mintA, wallet, 10, 0), change(mintB, wallet, 0, 5)), OutcomeNonSOLSwap},
		{"stablecoin leg", rawTx("t3", -1_000_000_000, change(domain.USDCMint, wallet, 0, 150)), OutcomeStablecoin},
		{"sol out token out", rawTx("t4", -1_000_000_000, change(mintA, wallet, 10, 0)), OutcomeNoMatchingLeg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades, outcome, err := c.classify(tt.tx, wallet)
			require.NoError(t, err)
			assert.Nil(t, trades)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestClassifyRejectsMalformed(t *testing.T) {
	c := New(DefaultOptions())

	_, err := c.Classify(domain.RawTx{BlockTime: ts}, wallet)
	assert.True(t, domain.IsParse(err))

	_, err = c.Classify(domain.RawTx{Signature: "x"}, wallet)
	assert.True(t, domain.IsParse(err))
}

func TestSplitPolicies(t *testing.T) {
	tx := rawTx("multi", -900_000_000,
		change(mintB, wallet, 0, 100),
		change(mintA, wallet, 0, 200),
	)

	t.Run("equal split without prices", func(t *testing.T) {
		trades, err := New(DefaultOptions()).Classify(tx, wallet)
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, mintA, trades[0].TokenMint, "legs are ordered by mint")
		assert.Equal(t, 0, trades[0].Leg)
		assert.Equal(t, 1, trades[1].Leg)
		assert.InDelta(t, 0.45, trades[0].SOLAmount, 1e-12)
		assert.InDelta(t, 0.45, trades[1].SOLAmount, 1e-12)
	})

	t.Run("pro rata by value", func(t *testing.T) {
		opts := DefaultOptions()
		opts.LegPrices = map[string]float64{mintA: 0.001, mintB: 0.007}
		trades, err := New(opts).Classify(tx, wallet)
		require.NoError(t, err)
		require.Len(t, trades, 2)
		// values: A = 0.2, B = 0.7
		assert.InDelta(t, 0.9*0.2/0.9, trades[0].SOLAmount, 1e-12)
		assert.InDelta(t, 0.9*0.7/0.9, trades[1].SOLAmount, 1e-12)
	})

	t.Run("missing price falls back to equal", func(t *testing.T) {
		opts := DefaultOptions()
		opts.LegPrices = map[string]float64{mintA: 0.001}
		trades, err := New(opts).Classify(tx, wallet)
		require.NoError(t, err)
		assert.InDelta(t, trades[0].SOLAmount, trades[1].SOLAmount, 1e-12)
	})

	t.Run("equal policy ignores prices", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Split = SplitEqual
		opts.LegPrices = map[string]float64{mintA: 0.001, mintB: 0.007}
		trades, err := New(opts).Classify(tx, wallet)
		require.NoError(t, err)
		assert.InDelta(t, 0.45, trades[1].SOLAmount, 1e-12)
	})
}

func TestClassifyStampsFee(t *testing.T) {
	cfg := fees.DefaultConfig()
	opts := DefaultOptions()
	opts.Fees = &cfg

	trades, err := New(opts).Classify(rawTx("buy", -1_000_000_000, change(mintA, wallet, 0, 1)), wallet)
	require.NoError(t, err)
	assert.InDelta(t, 0.002+0.022912, trades[0].FeeSOL, 1e-12)
}

func TestClassifyTransfer(t *testing.T) {
	opts := DefaultOptions()
	opts.DustSOL = 0.001
	c := New(opts)

	moves, err := c.ClassifyTransfer(rawTx("in", 2_000_000_000), wallet)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, domain.KindTransferIn, moves[0].Kind)
	assert.Equal(t, domain.NativeSOLMint, moves[0].TokenMint)

	moves, err = c.ClassifyTransfer(rawTx("dust", -5000), wallet)
	require.NoError(t, err)
	assert.Empty(t, moves)

	moves, err = c.ClassifyTransfer(rawTx("tok", 0, change(mintA, wallet, 10, 4)), wallet)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, domain.KindTransferOut, moves[0].Kind)
	assert.InDelta(t, 6, moves[0].TokenAmount, 1e-12)

	moves, err = c.ClassifyTransfer(rawTx("swap", -1_000_000_000, change(mintA, wallet, 0, 10)), wallet)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestClassifyAllCountsOutcomes(t *testing.T) {
	c := New(DefaultOptions())
	feed := []domain.RawTx{
		rawTx("b", -100_000_000, change(mintA, wallet, 0, 10)),
		rawTx("s", 0, change(mintA, wallet, 10, 0), change(mintB, wallet, 0, 1)),
		{Signature: "", BlockTime: ts},
		rawTx("u", -100_000_000, change(domain.USDTMint, wallet, 0, 10)),
	}

	trades, stats := c.ClassifyAll(feed, wallet, zaptest.NewLogger(t))
	assert.Len(t, trades, 1)
	assert.Equal(t, Stats{Seen: 4, Trades: 1, NonSOLSwaps: 1, Stablecoin: 1, Rejected: 1}, stats)
}
