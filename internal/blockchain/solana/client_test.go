package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

const testWallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

func rpcServer(t *testing.T, results map[string]interface{}) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected method %s", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func failingServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNewClientRejectsBadURLs(t *testing.T) {
	_, err := NewClient(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient([]string{"not a url", "://"}, zap.NewNop())
	assert.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	pk, err := ParseAddress(testWallet)
	require.NoError(t, err)
	assert.Equal(t, testWallet, pk.String())

	_, err = ParseAddress("0OIl")
	require.Error(t, err)
	assert.True(t, domain.IsParse(err))
}

func TestGetBalance(t *testing.T) {
	srv, _ := rpcServer(t, map[string]interface{}{
		"getBalance": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   2_500_000_000,
		},
	})

	c, err := NewClient([]string{srv.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)

	bal, err := c.GetBalance(context.Background(), testWallet)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, bal, 1e-9)
}

func TestTokenSupply(t *testing.T) {
	srv, _ := rpcServer(t, map[string]interface{}{
		"getTokenSupply": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": map[string]interface{}{
				"amount":         "999999000000000",
				"decimals":       6,
				"uiAmount":       999999000.0,
				"uiAmountString": "999999000",
			},
		},
	})

	c, err := NewClient([]string{srv.URL}, zap.NewNop())
	require.NoError(t, err)

	supply, err := c.TokenSupply(context.Background(), domain.USDCMint)
	require.NoError(t, err)
	assert.Equal(t, 999999000.0, supply)
}

func TestFailoverToNextEndpoint(t *testing.T) {
	bad, badHits := failingServer(t)
	good, goodHits := rpcServer(t, map[string]interface{}{
		"getBalance": map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   1_000_000_000,
		},
	})

	c, err := NewClient([]string{bad.URL, good.URL}, zap.NewNop())
	require.NoError(t, err)

	bal, err := c.GetBalance(context.Background(), testWallet)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, bal, 1e-9)
	assert.Equal(t, int32(1), atomic.LoadInt32(badHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(goodHits))

	// The failed endpoint stays out of rotation until its cooldown passes.
	_, err = c.GetBalance(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(badHits))

	stats := c.Stats()
	require.Len(t, stats, 2)
	assert.False(t, stats[0].Active)
	assert.Equal(t, uint64(1), stats[0].Errors)
	assert.Equal(t, uint64(2), stats[1].Successes)
}

func TestCooldownReactivatesEndpoint(t *testing.T) {
	bad, badHits := failingServer(t)

	c, err := NewClient([]string{bad.URL}, zap.NewNop())
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	_, err = c.GetBalance(context.Background(), testWallet)
	require.Error(t, err)
	assert.True(t, domain.IsRetrieval(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(badHits), "single endpoint is disabled after its first failure")

	now = now.Add(cooldown)
	_, err = c.GetBalance(context.Background(), testWallet)
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(badHits))
}

func TestValidate(t *testing.T) {
	good, _ := rpcServer(t, map[string]interface{}{
		"getVersion": map[string]interface{}{"solana-core": "1.18.0", "feature-set": 1},
	})
	bad, _ := failingServer(t)

	c, err := NewClient([]string{good.URL, bad.URL}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Validate(context.Background()))

	stats := c.Stats()
	assert.True(t, stats[0].Active)
	assert.False(t, stats[1].Active)
}
