// internal/solscan/client.go
package solscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/metrics"
)

const (
	DefaultBaseURL  = "https://api-v2.solscan.io/v2"
	DefaultPageSize = 100
	DefaultMaxPages = 100
	DefaultHorizon  = 60 * 24 * time.Hour
	DefaultRetries  = 3

	siteOrigin = "https://solscan.io"
	userAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Config configures the Solscan client.
type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	AuthToken   string        `mapstructure:"auth_token"`
	PageSize    int           `mapstructure:"page_size"`
	MaxPages    int           `mapstructure:"max_pages"`
	HorizonDays int           `mapstructure:"horizon_days"`
	Retries     int           `mapstructure:"retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// ProxyURL routes requests through an HTTP proxy when set.
	ProxyURL string `mapstructure:"proxy_url"`
}

// DefaultConfig returns the public endpoint settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		PageSize:    DefaultPageSize,
		MaxPages:    DefaultMaxPages,
		HorizonDays: int(DefaultHorizon / (24 * time.Hour)),
		Retries:     DefaultRetries,
		RetryDelay:  5 * time.Second,
		Timeout:     30 * time.Second,
	}
}

// Horizon returns how far back activity is fetched.
func (c Config) Horizon() time.Duration {
	if c.HorizonDays <= 0 {
		return DefaultHorizon
	}
	return time.Duration(c.HorizonDays) * 24 * time.Hour
}

// Client talks to the Solscan web API.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewClient creates a client. Zero config fields fall back to defaults.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	if cfg.Retries <= 0 {
		cfg.Retries = def.Retries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	logger = logger.Named("solscan")
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.ProxyURL != "" {
		if proxy, err := url.Parse(cfg.ProxyURL); err == nil && proxy.Host != "" {
			httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
		} else {
			logger.Warn("Ignoring invalid proxy URL", zap.String("proxy_url", cfg.ProxyURL))
		}
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
	}
}

// WithMetrics records every request on m.
func (c *Client) WithMetrics(m *metrics.Collector) *Client {
	c.metrics = m
	return c
}

// envelope is the common response wrapper.
type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Metadata json.RawMessage `json:"metadata"`
}

// statusError is a non-2xx answer.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

// get performs a GET with retries and decodes the envelope. 403 is never retried.
func (c *Client) get(ctx context.Context, op, address, path string, query url.Values) (*envelope, error) {
	endpoint := c.cfg.BaseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryDelay
	policy.Multiplier = 1.2
	policy.MaxInterval = c.cfg.RetryDelay * 10

	notify := func(err error, wait time.Duration) {
		c.logger.Debug("Retrying request",
			zap.String("op", op),
			zap.String("address", address),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	lastStatus := 0
	operation := func() (*envelope, error) {
		body, status, err := c.do(ctx, endpoint)
		lastStatus = status
		if err != nil {
			return nil, err
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &env, nil
	}

	start := time.Now()
	env, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.cfg.Retries)),
		backoff.WithNotify(notify))
	c.metrics.ObserveRequest(metrics.SourceSolscan, op, time.Since(start), err)
	if err != nil {
		return nil, domain.NewRetrievalError(op, address, lastStatus, err)
	}
	if !env.Success {
		return nil, domain.NewRetrievalError(op, address, lastStatus, errors.New("request was not successful"))
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", siteOrigin)
	req.Header.Set("Referer", siteOrigin+"/")
	req.Header.Set("User-Agent", userAgent)
	if c.cfg.AuthToken != "" {
		req.Header.Set("sol-aut", c.cfg.AuthToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, resp.StatusCode, backoff.Permanent(domain.ErrForbidden)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &statusError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, resp.StatusCode, backoff.Permanent(domain.ErrEmptyResponse)
	}
	return body, resp.StatusCode, nil
}

// AccountBalance returns the SOL balance of an address.
func (c *Client) AccountBalance(ctx context.Context, address string) (float64, error) {
	env, err := c.get(ctx, "account", address, "account", url.Values{"address": {address}})
	if err != nil {
		return 0, err
	}

	var data struct {
		Lamports json.Number `json:"lamports"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, domain.NewRetrievalError("account", address, 0, err)
	}
	lamports, err := data.Lamports.Float64()
	if err != nil && data.Lamports != "" {
		return 0, domain.NewRetrievalError("account", address, 0, err)
	}
	return lamports / domain.LamportsPerSOL, nil
}

// TokenMeta is token metadata and its indexer price.
type TokenMeta struct {
	Mint     string
	Name     string
	Symbol   string
	Decimals int
	PriceUSD domain.Metric
}

// TokenMeta looks up a mint's metadata. A missing price is an unavailable
// metric, not an error.
func (c *Client) TokenMeta(ctx context.Context, mint string) (TokenMeta, error) {
	env, err := c.get(ctx, "token_meta", mint, "account", url.Values{"address": {mint}})
	if err != nil {
		return TokenMeta{}, err
	}

	var data struct {
		TokenInfo struct {
			Decimals int `json:"decimals"`
		} `json:"tokenInfo"`
	}
	var meta struct {
		Data struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"data"`
		Tokens map[string]struct {
			PriceUSDT *float64 `json:"price_usdt"`
			Symbol    string   `json:"token_symbol"`
			Name      string   `json:"token_name"`
		} `json:"tokens"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return TokenMeta{}, domain.NewRetrievalError("token_meta", mint, 0, err)
		}
	}
	if len(env.Metadata) > 0 {
		if err := json.Unmarshal(env.Metadata, &meta); err != nil {
			return TokenMeta{}, domain.NewRetrievalError("token_meta", mint, 0, err)
		}
	}

	tm := TokenMeta{
		Mint:     mint,
		Name:     meta.Data.Name,
		Symbol:   meta.Data.Symbol,
		Decimals: data.TokenInfo.Decimals,
	}
	if tok, ok := meta.Tokens[mint]; ok {
		if tok.PriceUSDT != nil && *tok.PriceUSDT > 0 {
			tm.PriceUSD = domain.Available(*tok.PriceUSDT)
		}
		if tm.Symbol == "" {
			tm.Symbol = tok.Symbol
		}
		if tm.Name == "" {
			tm.Name = tok.Name
		}
	}
	return tm, nil
}
