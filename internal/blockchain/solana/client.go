// internal/blockchain/solana/client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/metrics"
)

// ErrNoActiveClients все узлы выключены
var ErrNoActiveClients = errors.New("no active RPC clients available")

// Client ходит в несколько RPC узлов по кругу и переключается при ошибках
type Client struct {
	pool      *pool
	logger    *zap.Logger
	now       func() time.Time
	collector *metrics.Collector
}

// NewClient создает клиента. Соединения не проверяются, для этого есть Validate.
func NewClient(rpcURLs []string, logger *zap.Logger) (*Client, error) {
	if len(rpcURLs) == 0 {
		return nil, errors.New("empty RPC URL list")
	}

	var endpoints []*endpoint
	for _, raw := range rpcURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			logger.Warn("Invalid RPC URL", zap.String("url", raw), zap.Error(err))
			continue
		}
		endpoints = append(endpoints, newEndpoint(raw))
	}
	if len(endpoints) == 0 {
		return nil, errors.New("no valid RPC URLs provided")
	}

	return &Client{
		pool:   newPool(endpoints),
		logger: logger.Named("rpc"),
		now:    time.Now,
	}, nil
}

// WithMetrics пишет каждый вызов в коллектор
func (c *Client) WithMetrics(m *metrics.Collector) *Client {
	c.collector = m
	return c
}

// ParseAddress проверяет base58 адрес
func ParseAddress(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, &domain.ParseError{Input: address, Reason: "invalid base58 address"}
	}
	return pk, nil
}

// Validate опрашивает все узлы параллельно и выключает недоступные.
// Ошибка только если не осталось ни одного узла.
func (c *Client) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var g errgroup.Group
	for _, e := range c.pool.endpoints {
		g.Go(func() error {
			version, err := backoff.Retry(ctx, func() (*rpc.GetVersionResult, error) {
				start := time.Now()
				v, err := e.rpc.GetVersion(ctx)
				e.record(err == nil, time.Since(start))
				return v, err
			},
				backoff.WithBackOff(backoff.NewConstantBackOff(retryDelay)),
				backoff.WithMaxTries(maxRetries))
			if err != nil {
				c.logger.Warn("RPC endpoint unavailable", zap.String("url", e.url), zap.Error(err))
				e.disable(c.now())
				return nil
			}
			c.logger.Debug("Connected to RPC",
				zap.String("url", e.url),
				zap.String("solana_core", version.SolanaCore))
			return nil
		})
	}
	_ = g.Wait()

	if !c.pool.anyAvailable(c.now()) {
		return ErrNoActiveClients
	}
	return nil
}

// call выполняет fn на следующем доступном узле. Упавший узел уходит
// на cooldown, запрос повторяется на другом.
func (c *Client) call(ctx context.Context, op, address string, fn func(*rpc.Client) error) (err error) {
	defer func(start time.Time) {
		c.collector.ObserveRequest(metrics.SourceRPC, op, time.Since(start), err)
	}(time.Now())

	lastErr := ErrNoActiveClients
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.NewRetrievalError(op, address, 0, err)
		}
		e := c.pool.next(c.now())
		if e == nil {
			break
		}

		start := time.Now()
		err := fn(e.rpc)
		e.record(err == nil, time.Since(start))
		if err == nil {
			return nil
		}

		lastErr = err
		e.disable(c.now())
		c.logger.Debug("RPC call failed",
			zap.String("op", op),
			zap.String("url", e.url),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return domain.NewRetrievalError(op, address, 0, fmt.Errorf("rpc %s: %w", op, lastErr))
}

// GetBalance возвращает баланс кошелька в SOL
func (c *Client) GetBalance(ctx context.Context, address string) (float64, error) {
	pk, err := ParseAddress(address)
	if err != nil {
		return 0, err
	}

	var lamports uint64
	err = c.call(ctx, "balance", address, func(rc *rpc.Client) error {
		res, err := rc.GetBalance(ctx, pk, rpc.CommitmentFinalized)
		if err != nil {
			return err
		}
		lamports = res.Value
		return nil
	})
	if err != nil {
		return 0, err
	}
	return float64(lamports) / domain.LamportsPerSOL, nil
}

// TokenSupply возвращает эмиссию токена в человеческих единицах
func (c *Client) TokenSupply(ctx context.Context, mint string) (float64, error) {
	pk, err := ParseAddress(mint)
	if err != nil {
		return 0, err
	}

	var supply float64
	err = c.call(ctx, "token_supply", mint, func(rc *rpc.Client) error {
		res, err := rc.GetTokenSupply(ctx, pk, rpc.CommitmentFinalized)
		if err != nil {
			return err
		}
		if res == nil || res.Value == nil {
			return domain.ErrEmptyResponse
		}
		supply, err = strconv.ParseFloat(res.Value.UiAmountString, 64)
		if err != nil {
			return fmt.Errorf("parse supply %q: %w", res.Value.UiAmountString, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return supply, nil
}
