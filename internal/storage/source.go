// internal/storage/source.go
package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/metrics"
	"github.com/rovshanmuradov/solana-research/internal/solscan"
)

// SwapFetcher загружает свопы кошелька из индексатора
type SwapFetcher interface {
	FetchSwaps(ctx context.Context, address string, opts solscan.FetchOptions) ([]domain.Swap, error)
}

// CachedSource дополняет кеш новыми свопами и отдает историю как RawTx
type CachedSource struct {
	cache     Store
	fetcher   SwapFetcher
	cacheOnly bool
	horizon   time.Duration
	now       func() time.Time
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewCachedSource создает источник. fetcher может быть nil только при cacheOnly.
func NewCachedSource(cache Store, fetcher SwapFetcher, cacheOnly bool, horizon time.Duration, logger *zap.Logger) *CachedSource {
	return &CachedSource{
		cache:     cache,
		fetcher:   fetcher,
		cacheOnly: cacheOnly,
		horizon:   horizon,
		now:       time.Now,
		logger:    logger.Named("source"),
	}
}

// WithMetrics считает записи из кеша и из индексатора
func (s *CachedSource) WithMetrics(m *metrics.Collector) *CachedSource {
	s.metrics = m
	return s
}

// Swaps возвращает свопы в пределах горизонта, новые первыми
func (s *CachedSource) Swaps(ctx context.Context, address string) ([]domain.Swap, error) {
	cached, err := s.cache.Load(address)
	if err != nil {
		return nil, err
	}

	if s.cacheOnly {
		if len(cached) == 0 {
			return nil, fmt.Errorf("%s: %w", address, ErrNoCache)
		}
		s.metrics.AddRecords(metrics.OriginCache, len(cached))
		return s.withinHorizon(cached), nil
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", address)
	}

	fresh, err := s.fetcher.FetchSwaps(ctx, address, solscan.FetchOptions{
		Now:     s.now(),
		Horizon: s.horizon,
		Known:   Signatures(cached),
	})
	if err != nil {
		return nil, err
	}

	added, err := s.cache.Append(address, fresh)
	if err != nil {
		// Кеш не критичен, отчет строим по тому, что есть
		s.logger.Warn("Failed to update cache", zap.String("wallet", address), zap.Error(err))
	}
	s.metrics.AddRecords(metrics.OriginCache, len(cached))
	s.metrics.AddRecords(metrics.OriginFetched, len(fresh))
	s.logger.Info("Fetched swaps",
		zap.String("wallet", address),
		zap.Int("count", len(fresh)),
		zap.Int("cached", len(cached)),
		zap.Int("added", added))

	return s.withinHorizon(Merge(cached, fresh)), nil
}

// FetchTransactions возвращает до max транзакций, новые первыми; max <= 0 без ограничения
func (s *CachedSource) FetchTransactions(ctx context.Context, address string, max int) ([]domain.RawTx, error) {
	swaps, err := s.Swaps(ctx, address)
	if err != nil {
		return nil, err
	}
	if max > 0 && len(swaps) > max {
		swaps = swaps[:max]
	}
	return domain.SwapsToRawTxs(swaps, address), nil
}

func (s *CachedSource) withinHorizon(swaps []domain.Swap) []domain.Swap {
	if s.horizon <= 0 {
		return swaps
	}
	cutoff := s.now().Add(-s.horizon)
	for i, sw := range swaps {
		if sw.BlockTime.Before(cutoff) {
			return swaps[:i]
		}
	}
	return swaps
}
