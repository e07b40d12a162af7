package solscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

const wallet = "3jU3igB7fqix2GZuS6wGfdenLwanTJM5LMA7eEzCfkbm"

func newTestClient(t *testing.T, h http.HandlerFunc, pageSize int) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:    srv.URL,
		AuthToken:  "secret",
		PageSize:   pageSize,
		MaxPages:   5,
		Retries:    3,
		RetryDelay: time.Millisecond,
	}, zaptest.NewLogger(t))
	return c, srv
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func activity(sig string, blockTime int64) map[string]interface{} {
	return map[string]interface{}{
		"block_id":      12345,
		"trans_id":      sig,
		"block_time":    blockTime,
		"activity_type": "ACTIVITY_TOKEN_SWAP",
		"from_address":  wallet,
		"platform":      []string{"pump"},
		"amount_info": map[string]interface{}{
			"token1":          domain.WrappedSOLMint,
			"token1_decimals": 9,
			"amount1":         1500000000,
			"token2":          "TokenMint111",
			"token2_decimals": 6,
			"amount2":         2500000000,
		},
	}
}

func TestDexActivity(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/account/activity/dextrading", r.URL.Path)
		assert.Equal(t, wallet, r.URL.Query().Get("address"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.ElementsMatch(t, swapActivityTypes, r.URL.Query()["activity_type[]"])
		assert.Equal(t, "1700000000", r.URL.Query().Get("from_time"))
		assert.Equal(t, "secret", r.Header.Get("sol-aut"))
		assert.Equal(t, siteOrigin, r.Header.Get("Origin"))

		writeJSON(w, map[string]interface{}{
			"success": true,
			"data": []interface{}{
				activity("sig1", 1700000100),
				map[string]interface{}{"trans_id": ""},
			},
		})
	}, 10)

	swaps, err := c.DexActivity(context.Background(), wallet, 2, 10, TimeRange{From: time.Unix(1700000000, 0)})
	require.NoError(t, err)
	require.Len(t, swaps, 1)

	s := swaps[0]
	assert.Equal(t, "sig1", s.Signature)
	assert.Equal(t, "pump", s.Platform)
	assert.Equal(t, uint64(12345), s.Slot)
	assert.InDelta(t, 1.5, s.Amount1UI(), 1e-12)
	assert.InDelta(t, 2500, s.Amount2UI(), 1e-9)
	assert.Equal(t, int64(1700000100), s.BlockTime.Unix())
}

func TestFetchSwapsStopsAtKnownSignature(t *testing.T) {
	now := time.Unix(1700100000, 0)
	var pages int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&pages, 1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		base := now.Unix() - int64(page*10)
		writeJSON(w, map[string]interface{}{
			"success": true,
			"data": []interface{}{
				activity(fmt.Sprintf("p%d-a", page), base),
				activity(fmt.Sprintf("p%d-b", page), base-1),
			},
		})
	}, 2)

	swaps, err := c.FetchSwaps(context.Background(), wallet, FetchOptions{
		Now:   now,
		Known: map[string]struct{}{"p2-b": {}},
	})
	require.NoError(t, err)
	require.Len(t, swaps, 3)
	assert.Equal(t, "p1-a", swaps[0].Signature)
	assert.Equal(t, "p2-a", swaps[2].Signature)
	assert.Equal(t, int32(2), atomic.LoadInt32(&pages))
}

func TestFetchSwapsHorizonAndMax(t *testing.T) {
	now := time.Unix(1700100000, 0)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"success": true,
			"data": []interface{}{
				activity("new", now.Unix()-60),
				activity("mid", now.Unix()-3600),
				activity("old", now.Unix()-3*86400),
			},
		})
	}, 3)

	swaps, err := c.FetchSwaps(context.Background(), wallet, FetchOptions{Now: now, Horizon: 24 * time.Hour})
	require.NoError(t, err)
	assert.Len(t, swaps, 2)

	swaps, err = c.FetchSwaps(context.Background(), wallet, FetchOptions{Now: now, Horizon: 24 * time.Hour, Max: 1})
	require.NoError(t, err)
	assert.Len(t, swaps, 1)

	txs, err := c.FetchTransactions(context.Background(), wallet, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 1, txs[0].FeedIndex, "most recent record has the highest feed index")
	assert.Equal(t, 0, txs[1].FeedIndex)
}

func TestForbiddenIsNotRetried(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}, 10)

	_, err := c.AccountBalance(context.Background(), wallet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	var re *domain.RetrievalError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusForbidden, re.Status)
	assert.Equal(t, "account", re.Op)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestServerErrorIsRetried(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"lamports": 2500000000},
		})
	}, 10)

	bal, err := c.AccountBalance(context.Background(), wallet)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, bal, 1e-12)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestRetriesExhausted(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, 10)

	_, err := c.DexActivityTotal(context.Background(), wallet)
	require.Error(t, err)
	assert.True(t, domain.IsRetrieval(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestTokenHoldersAndMeta(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token/holders":
			writeJSON(w, map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"total": 2,
					"items": []interface{}{
						map[string]interface{}{"address": "acc1", "owner": "own1", "amount": 5000000, "decimals": 6, "rank": 1},
						map[string]interface{}{"address": "acc2", "amount": 1000000, "decimals": 6, "rank": 2},
					},
				},
			})
		case "/account":
			writeJSON(w, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"tokenInfo": map[string]interface{}{"decimals": 6}},
				"metadata": map[string]interface{}{
					"data": map[string]interface{}{"name": "Test", "symbol": "TST"},
					"tokens": map[string]interface{}{
						"mint1": map[string]interface{}{"price_usdt": 0.0012},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}, 10)

	hs, err := c.FetchHolders(context.Background(), "mint1", 20)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, "own1", hs[0].Owner)
	assert.InDelta(t, 5, hs[0].Amount, 1e-12)
	assert.Equal(t, "acc2", hs[1].Owner)

	meta, err := c.TokenMeta(context.Background(), "mint1")
	require.NoError(t, err)
	assert.Equal(t, "TST", meta.Symbol)
	assert.Equal(t, 6, meta.Decimals)
	assert.True(t, meta.PriceUSD.OK)
	assert.InDelta(t, 0.0012, meta.PriceUSD.Value, 1e-12)
}

func TestTransfers(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/account/transfer", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("remove_spam"))
		writeJSON(w, map[string]interface{}{
			"success": true,
			"data": []interface{}{
				map[string]interface{}{
					"trans_id": "t1", "block_time": 1700000000, "from_address": wallet, "to_address": "other",
					"token_address": domain.NativeSOLMint, "token_decimals": 9, "amount": 250000000, "flow": "out",
				},
			},
		})
	}, 10)

	txs, err := c.FetchTransfers(context.Background(), wallet, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(-250000000), txs[0].SOLChange)
	assert.Equal(t, []string{"other"}, txs[0].Counterparties)
}
