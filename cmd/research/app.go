// cmd/research/app.go
package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/activity"
	"github.com/rovshanmuradov/solana-research/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-research/internal/config"
	"github.com/rovshanmuradov/solana-research/internal/export"
	"github.com/rovshanmuradov/solana-research/internal/metrics"
	"github.com/rovshanmuradov/solana-research/internal/price"
	"github.com/rovshanmuradov/solana-research/internal/research"
	"github.com/rovshanmuradov/solana-research/internal/solscan"
	"github.com/rovshanmuradov/solana-research/internal/storage"
)

// app holds the wired collaborators of one CLI run.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	svc      *research.Service
	exporter *export.Exporter
}

// newApp wires the service. When cfg.MetricsAddr is set the metrics endpoint
// runs until ctx is done.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	collector := metrics.NewCollector(metrics.DefaultNamespace)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, collector, logger); err != nil {
				logger.Warn("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	indexer := solscan.NewClient(cfg.Solscan, logger).WithMetrics(collector)
	cache := storage.NewTradeCache(cfg.Storage.CacheDir, logger)
	source := storage.NewCachedSource(cache, indexer, cfg.CacheOnly, cfg.Solscan.Horizon(), logger).
		WithMetrics(collector)

	var chain solana.ChainReader
	if rpcClient, err := solana.NewClient(cfg.RPCList, logger); err != nil {
		logger.Warn("RPC disabled", zap.Error(err))
	} else {
		if err := rpcClient.Validate(ctx); err != nil {
			// Узлы вернутся в работу после cooldown
			logger.Warn("RPC endpoints unavailable", zap.Error(err))
		}
		chain = rpcClient.WithMetrics(collector)
	}

	dex := price.NewDexScreener(cfg.Price, logger).WithMetrics(collector)
	lookup := price.NewCache(dex, cfg.Price.CacheTTL)
	market := price.NewMarketBuilder(lookup, chain, cfg.Price, logger)

	exporter := export.NewExporter(cfg.Storage.ReportDir, logger)

	opts := research.DefaultOptions()
	opts.Fees = cfg.Fees
	opts.CopyTrade = cfg.CopyTrade
	opts.Workers = cfg.Workers
	opts.NoTokenValue = cfg.NoTokenValue

	svc, err := research.NewService(research.Deps{
		Source:    source,
		Transfers: indexer,
		Activity:  indexer,
		Holders:   indexer,
		Balances:  indexer,
		Meta:      indexer,
		Chain:     chain,
		Market:    market,
		Exporter:  exporter,
		Analyzer:  activity.NewAnalyzer(logger, cfg.Location()),
		Metrics:   collector,
	}, opts, logger)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, svc: svc, exporter: exporter}, nil
}
