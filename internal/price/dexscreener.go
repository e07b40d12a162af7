// internal/price/dexscreener.go
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/metrics"
)

// Quote is the most liquid pair found for a token.
type Quote struct {
	Mint         string
	Symbol       string
	PriceUSD     float64
	LiquidityUSD float64
	FDV          float64
}

// DexScreener looks prices up on the public DexScreener API.
type DexScreener struct {
	baseURL string
	retries int
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewDexScreener creates a client.
func NewDexScreener(cfg Config, logger *zap.Logger) *DexScreener {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Retries <= 0 {
		cfg.Retries = def.Retries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &DexScreener{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		retries: cfg.Retries,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("dexscreener"),
	}
}

// WithMetrics records every quote request on m.
func (d *DexScreener) WithMetrics(m *metrics.Collector) *DexScreener {
	d.metrics = m
	return d
}

type pairsResponse struct {
	Pairs []struct {
		ChainID   string  `json:"chainId"`
		PriceUSD  string  `json:"priceUsd"`
		FDV       float64 `json:"fdv"`
		BaseToken struct {
			Address string `json:"address"`
			Symbol  string `json:"symbol"`
		} `json:"baseToken"`
		Liquidity struct {
			USD float64 `json:"usd"`
		} `json:"liquidity"`
	} `json:"pairs"`
}

// Quote returns the highest-liquidity Solana pair where mint is the base token.
// ok is false when no priced pair exists.
func (d *DexScreener) Quote(ctx context.Context, mint string) (Quote, bool, error) {
	endpoint := fmt.Sprintf("%s/tokens/%s", d.baseURL, mint)

	operation := func() (*pairsResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := d.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusForbidden:
			return nil, backoff.Permanent(domain.ErrForbidden)
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, backoff.RetryAfter(2)
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var out pairsResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("decode pairs: %w", err))
		}
		return &out, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond

	start := time.Now()
	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(d.retries)))
	d.metrics.ObserveRequest(metrics.SourceDexScreener, "price", time.Since(start), err)
	if err != nil {
		return Quote{}, false, domain.NewRetrievalError("price", mint, 0, err)
	}

	var (
		best  Quote
		found bool
	)
	for _, p := range res.Pairs {
		if p.ChainID != "" && p.ChainID != "solana" {
			continue
		}
		if p.BaseToken.Address != "" && p.BaseToken.Address != mint {
			continue
		}
		px, err := strconv.ParseFloat(p.PriceUSD, 64)
		if err != nil || px <= 0 {
			continue
		}
		if !found || p.Liquidity.USD > best.LiquidityUSD {
			best = Quote{
				Mint:         mint,
				Symbol:       p.BaseToken.Symbol,
				PriceUSD:     px,
				LiquidityUSD: p.Liquidity.USD,
				FDV:          p.FDV,
			}
			found = true
		}
	}

	d.logger.Debug("Price quote",
		zap.String("mint", mint),
		zap.Bool("found", found),
		zap.Float64("price_usd", best.PriceUSD),
		zap.Int("pairs", len(res.Pairs)))
	return best, found, nil
}

// Price implements Lookup.
func (d *DexScreener) Price(ctx context.Context, mint string) (domain.Metric, error) {
	q, ok, err := d.Quote(ctx, mint)
	if err != nil {
		return domain.Unavailable(), err
	}
	if !ok {
		return domain.Unavailable(), nil
	}
	return domain.Available(q.PriceUSD), nil
}
