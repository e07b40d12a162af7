package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/solscan"
)

const wallet = "WaLLet1111111111111111111111111111111111111"

func swapAt(sig string, unix int64) domain.Swap {
	return domain.Swap{
		Signature:      sig,
		BlockTime:      time.Unix(unix, 0).UTC(),
		Slot:           uint64(unix),
		Platform:       "raydium",
		From:           wallet,
		Token1:         domain.WrappedSOLMint,
		Token2:         "TokenMint",
		Token1Decimals: 9,
		Token2Decimals: 6,
		Amount1:        1_500_000_000,
		Amount2:        123_456.5,
	}
}

func TestTradeCacheRoundTrip(t *testing.T) {
	c := NewTradeCache(t.TempDir(), zaptest.NewLogger(t))

	got, err := c.Load(wallet)
	require.NoError(t, err)
	assert.Empty(t, got, "missing file is an empty cache")

	added, err := c.Append(wallet, []domain.Swap{swapAt("a", 100), swapAt("b", 300)})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = c.Append(wallet, []domain.Swap{swapAt("b", 300), swapAt("c", 200)})
	require.NoError(t, err)
	assert.Equal(t, 1, added, "known signature is not written twice")

	got, err = c.Load(wallet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{got[0].Signature, got[1].Signature, got[2].Signature})
	assert.Equal(t, swapAt("b", 300), got[0])

	latest, ok, err := c.Latest(wallet)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(300), latest.Unix())
}

func TestTradeCacheSkipsMalformedRows(t *testing.T) {
	c := NewTradeCache(t.TempDir(), zap.NewNop())
	_, err := c.Append(wallet, []domain.Swap{swapAt("good", 100)})
	require.NoError(t, err)

	f, err := os.OpenFile(c.Path(wallet), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("bad,notatime,1,a,b,9,6,1,2,w,p\nshort,row\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := c.Load(wallet)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Signature)
}

func TestMerge(t *testing.T) {
	cached := []domain.Swap{swapAt("b", 200), swapAt("a", 100)}
	updated := swapAt("b", 200)
	updated.Amount2 = 1
	fresh := []domain.Swap{swapAt("c", 300), updated}

	got := Merge(cached, fresh)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Signature)
	assert.Equal(t, 1.0, got[1].Amount2, "fresh record wins")
	assert.Equal(t, "a", got[2].Signature)
}

type fakeFetcher struct {
	swaps []domain.Swap
	err   error
	opts  solscan.FetchOptions
	calls int
}

func (f *fakeFetcher) FetchSwaps(_ context.Context, _ string, opts solscan.FetchOptions) ([]domain.Swap, error) {
	f.calls++
	f.opts = opts
	return f.swaps, f.err
}

func TestCachedSourceIncremental(t *testing.T) {
	cache := NewTradeCache(t.TempDir(), zap.NewNop())
	_, err := cache.Append(wallet, []domain.Swap{swapAt("old", 8000), swapAt("ancient", 10)})
	require.NoError(t, err)

	fetcher := &fakeFetcher{swaps: []domain.Swap{swapAt("new", 9000)}}
	src := NewCachedSource(cache, fetcher, false, time.Hour, zap.NewNop())
	src.now = func() time.Time { return time.Unix(10000, 0) }

	txs, err := src.FetchTransactions(context.Background(), wallet, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.Contains(t, fetcher.opts.Known, "old")
	assert.Equal(t, time.Hour, fetcher.opts.Horizon)

	// "ancient" is outside the one hour horizon
	require.Len(t, txs, 2)
	assert.Equal(t, "new", txs[0].Signature)
	assert.Equal(t, 1, txs[0].FeedIndex)
	assert.Equal(t, "old", txs[1].Signature)
	assert.Equal(t, 0, txs[1].FeedIndex)

	stored, err := cache.Load(wallet)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	txs, err = src.FetchTransactions(context.Background(), wallet, 1)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestCachedSourceCacheOnly(t *testing.T) {
	cache := NewTradeCache(t.TempDir(), zap.NewNop())
	fetcher := &fakeFetcher{}
	src := NewCachedSource(cache, fetcher, true, 0, zap.NewNop())

	_, err := src.FetchTransactions(context.Background(), wallet, 0)
	assert.True(t, errors.Is(err, ErrNoCache))

	_, err = cache.Append(wallet, []domain.Swap{swapAt("x", 100)})
	require.NoError(t, err)
	txs, err := src.FetchTransactions(context.Background(), wallet, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Zero(t, fetcher.calls)
}

func TestCachedSourceFetchError(t *testing.T) {
	cache := NewTradeCache(t.TempDir(), zap.NewNop())
	boom := domain.NewRetrievalError("dextrading", wallet, 403, domain.ErrForbidden)
	src := NewCachedSource(cache, &fakeFetcher{err: boom}, false, 0, zap.NewNop())

	_, err := src.FetchTransactions(context.Background(), wallet, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
