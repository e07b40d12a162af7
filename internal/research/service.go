// internal/research/service.go
package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/activity"
	"github.com/rovshanmuradov/solana-research/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-research/internal/classify"
	"github.com/rovshanmuradov/solana-research/internal/copytrade"
	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/export"
	"github.com/rovshanmuradov/solana-research/internal/fees"
	"github.com/rovshanmuradov/solana-research/internal/metrics"
	"github.com/rovshanmuradov/solana-research/internal/price"
	"github.com/rovshanmuradov/solana-research/internal/roi"
	"github.com/rovshanmuradov/solana-research/internal/solscan"
)

// TxSource returns a wallet's swap history, most recent first.
type TxSource interface {
	FetchTransactions(ctx context.Context, address string, max int) ([]domain.RawTx, error)
}

// HolderSource returns the holders of a token.
type HolderSource interface {
	FetchHolders(ctx context.Context, mint string, limit int) ([]domain.HolderRecord, error)
}

// TransferSource returns a wallet's plain transfers, most recent first.
type TransferSource interface {
	FetchTransfers(ctx context.Context, address string, max int) ([]domain.RawTx, error)
}

// TokenActivitySource returns swaps of any wallet on a token within a range.
type TokenActivitySource interface {
	TokenActivity(ctx context.Context, mint string, tr solscan.TimeRange) ([]domain.Swap, error)
}

// BalanceSource reports a SOL balance without going through RPC.
type BalanceSource interface {
	AccountBalance(ctx context.Context, address string) (float64, error)
}

// MetaSource resolves token symbols.
type MetaSource interface {
	TokenMeta(ctx context.Context, mint string) (solscan.TokenMeta, error)
}

// Deps are the collaborators of a Service. Only Source is required; the
// operations that need a missing collaborator return ErrUnsupported.
type Deps struct {
	Source    TxSource
	Transfers TransferSource
	Activity  TokenActivitySource
	Holders   HolderSource
	Balances  BalanceSource
	Meta      MetaSource
	Chain     solana.ChainReader
	Market    *price.MarketBuilder
	Exporter  *export.Exporter
	Analyzer  *activity.Analyzer
	// Metrics may be nil.
	Metrics *metrics.Collector
}

// Options are the tunables of a Service.
type Options struct {
	Fees      fees.Config
	Classify  classify.Options
	CopyTrade copytrade.Config
	Periods   []roi.Period
	// MaxTxs caps the records fetched per wallet; zero means no cap.
	MaxTxs       int
	Workers      int
	HolderLimit  int
	NoTokenValue bool
}

// DefaultOptions returns the standard fee schedule, periods and detector settings.
func DefaultOptions() Options {
	return Options{
		Fees:        fees.DefaultConfig(),
		Classify:    classify.DefaultOptions(),
		CopyTrade:   copytrade.DefaultConfig(),
		Periods:     roi.DefaultPeriods,
		Workers:     4,
		HolderLimit: 100,
	}
}

// ErrUnsupported is returned when an operation's collaborator was not configured.
var ErrUnsupported = errors.New("operation not configured")

// Service runs the wallet analyses.
type Service struct {
	deps       Deps
	opts       Options
	classifier *classify.Classifier
	logger     *zap.Logger
	now        func() time.Time
}

// NewService validates the dependencies and creates a service.
func NewService(deps Deps, opts Options, logger *zap.Logger) (*Service, error) {
	if deps.Source == nil {
		return nil, errors.New("research: transaction source is required")
	}
	if err := opts.Fees.Validate(); err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}
	if err := opts.CopyTrade.Validate(); err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}
	if len(opts.Periods) == 0 {
		opts.Periods = roi.DefaultPeriods
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	logger = logger.Named("research")
	if deps.Market == nil {
		deps.Market = price.NewMarketBuilder(price.None{}, deps.Chain, price.DefaultConfig(), logger)
	}
	if deps.Analyzer == nil {
		deps.Analyzer = activity.NewAnalyzer(logger, time.UTC)
	}

	copts := opts.Classify
	if copts.Fees == nil {
		f := opts.Fees
		copts.Fees = &f
	}

	return &Service{
		deps:       deps,
		opts:       opts,
		classifier: classify.New(copts),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Periods returns the reported windows.
func (s *Service) Periods() []roi.Period {
	return s.opts.Periods
}

// Trades fetches and classifies a wallet's swaps.
func (s *Service) Trades(ctx context.Context, wallet string) ([]domain.ClassifiedTrade, classify.Stats, error) {
	if _, err := solana.ParseAddress(wallet); err != nil {
		return nil, classify.Stats{}, err
	}

	txs, err := s.deps.Source.FetchTransactions(ctx, wallet, s.opts.MaxTxs)
	if err != nil {
		return nil, classify.Stats{}, err
	}

	trades, stats := s.classifier.ClassifyAll(txs, wallet, s.logger)
	s.logger.Info("Classified transactions",
		zap.String("wallet", wallet),
		zap.Int("seen", stats.Seen),
		zap.Int("trades", stats.Trades))
	return trades, stats, nil
}

// Balance returns the wallet's SOL balance from RPC, falling back to the
// indexer when every endpoint fails.
func (s *Service) Balance(ctx context.Context, wallet string) (float64, error) {
	if _, err := solana.ParseAddress(wallet); err != nil {
		return 0, err
	}

	if s.deps.Chain != nil {
		bal, err := s.deps.Chain.GetBalance(ctx, wallet)
		if err == nil {
			return bal, nil
		}
		if s.deps.Balances == nil || ctx.Err() != nil {
			return 0, err
		}
		s.logger.Warn("RPC balance failed, using indexer",
			zap.String("wallet", wallet), zap.Error(err))
	}
	if s.deps.Balances == nil {
		return 0, ErrUnsupported
	}
	return s.deps.Balances.AccountBalance(ctx, wallet)
}

// History returns the wallet's transfers in and out, most recent first.
func (s *Service) History(ctx context.Context, wallet string) ([]domain.ClassifiedTrade, error) {
	if s.deps.Transfers == nil {
		return nil, ErrUnsupported
	}
	if _, err := solana.ParseAddress(wallet); err != nil {
		return nil, err
	}

	txs, err := s.deps.Transfers.FetchTransfers(ctx, wallet, s.opts.MaxTxs)
	if err != nil {
		return nil, err
	}
	moves := s.classifier.TransfersAll(txs, wallet, s.logger)
	s.logger.Debug("Classified transfers",
		zap.String("wallet", wallet),
		zap.Int("records", len(txs)),
		zap.Int("moves", len(moves)))
	return moves, nil
}
