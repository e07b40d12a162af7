// internal/research/summary.go
package research

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-research/internal/activity"
	"github.com/rovshanmuradov/solana-research/internal/classify"
	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/filter"
	"github.com/rovshanmuradov/solana-research/internal/position"
	"github.com/rovshanmuradov/solana-research/internal/roi"
)

// WalletReport is the full analysis of one wallet.
type WalletReport struct {
	Wallet    string
	Filter    filter.Expression
	Trades    []domain.ClassifiedTrade
	Stats     classify.Stats
	Positions map[string]*position.TokenPosition
	// Rows are the filtered metric rows, ordered by first trade.
	Rows    []position.Row
	AllRows int
	// Unfiltered holds every row so a caller can apply another filter.
	Unfiltered []position.Row
	Summary    roi.WalletSummary
	Activity   *activity.Report

	ReportPath string
	JSONPath   string
}

// Summarize fetches, classifies and aggregates a wallet, builds one metrics
// row per token and keeps the rows matching filterExpr. An empty expression
// keeps every row. Reports are written when an exporter is configured.
func (s *Service) Summarize(ctx context.Context, wallet, filterExpr string) (rep *WalletReport, err error) {
	defer func(start time.Time) {
		s.deps.Metrics.ObserveWallet(time.Since(start), err)
	}(time.Now())

	expr, err := filter.Parse(filterExpr)
	if err != nil {
		return nil, err
	}

	trades, stats, err := s.Trades(ctx, wallet)
	if err != nil {
		return nil, err
	}

	rep = &WalletReport{
		Wallet: wallet,
		Filter: expr,
		Trades: trades,
		Stats:  stats,
	}

	markets, solUSD, err := s.markets(ctx, mints(trades))
	if err != nil {
		return nil, err
	}

	var prices map[string]float64
	if !s.opts.NoTokenValue {
		prices = make(map[string]float64, len(markets))
		for mint, m := range markets {
			if m.PriceUSD.OK && solUSD.OK && solUSD.Value > 0 {
				prices[mint] = m.PriceUSD.Value / solUSD.Value
			}
		}
	}

	now := s.now()
	var (
		window30 map[string]*position.TokenPosition
		periods  = make([]roi.PeriodStats, len(s.opts.Periods))
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep.Positions = position.Aggregate(wallet, trades, s.opts.Fees, position.WithPrices(prices))
		return gCtx.Err()
	})
	g.Go(func() error {
		window30 = position.Aggregate(wallet, position.Window(trades, now, roi.Period30d.Duration), s.opts.Fees)
		return gCtx.Err()
	})
	for i, p := range s.opts.Periods {
		g.Go(func() error {
			positions := position.Aggregate(wallet, position.Window(trades, now, p.Duration), s.opts.Fees)
			periods[i] = roi.Stats(p.Name, positions)
			return gCtx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep.Summary = roi.WalletSummary{
		Wallet:  wallet,
		Periods: make(map[string]roi.PeriodStats, len(periods)),
		Trades:  len(trades),
	}
	for _, ps := range periods {
		rep.Summary.Periods[ps.Period] = ps
	}

	rows := make([]position.Row, 0, len(rep.Positions))
	for mint, p := range rep.Positions {
		rows = append(rows, position.BuildRow(p, window30[mint], markets[mint]))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Position, rows[j].Position
		if !a.FirstTradeTime.Equal(b.FirstTradeTime) {
			return a.FirstTradeTime.Before(b.FirstTradeTime)
		}
		return rows[i].TokenMint < rows[j].TokenMint
	})
	rep.AllRows = len(rows)
	rep.Unfiltered = rows
	rep.Rows = expr.Apply(rows)

	rep.Activity = s.deps.Analyzer.Analyze(wallet, trades, rep.Positions)

	if s.deps.Exporter != nil && len(rep.Rows) > 0 {
		if rep.ReportPath, err = s.deps.Exporter.WriteReport(wallet, rep.Rows); err != nil {
			return rep, err
		}
		jr := s.deps.Exporter.NewReport(wallet, expr.String(), rep.Rows, rep.Summary, rep.Activity)
		if rep.JSONPath, err = s.deps.Exporter.WriteJSONReport(jr); err != nil {
			return rep, err
		}
	}

	s.logger.Debug("Wallet summarized",
		zap.String("wallet", wallet),
		zap.Int("tokens", rep.AllRows),
		zap.Int("matched", len(rep.Rows)),
		zap.String("filter", expr.String()))
	return rep, nil
}

// summary computes only the period stats of a wallet, for batch runs.
func (s *Service) summary(ctx context.Context, wallet string) (roi.WalletSummary, error) {
	start := time.Now()
	trades, _, err := s.Trades(ctx, wallet)
	s.deps.Metrics.ObserveWallet(time.Since(start), err)
	if err != nil {
		return roi.WalletSummary{}, err
	}
	return roi.Compute(wallet, trades, s.now(), s.opts.Fees, s.opts.Periods...), nil
}

// markets looks up the market data of every mint concurrently. Lookup
// failures leave gaps; only cancellation is an error.
func (s *Service) markets(ctx context.Context, mints []string) (map[string]position.Market, domain.Metric, error) {
	solUSD := s.deps.Market.SOLPrice(ctx)
	out := make(map[string]position.Market, len(mints))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, mint := range mints {
		g.Go(func() error {
			var m position.Market
			if s.opts.NoTokenValue {
				m = position.Market{
					SOLPriceUSD: solUSD,
					Supply:      s.deps.Market.Supply(gCtx, mint),
				}
			} else {
				m = s.deps.Market.Market(gCtx, mint, solUSD)
				m.Symbol = s.symbol(gCtx, mint)
			}

			mu.Lock()
			out[mint] = m
			mu.Unlock()
			return gCtx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, solUSD, err
	}
	return out, solUSD, nil
}

func (s *Service) symbol(ctx context.Context, mint string) string {
	if s.deps.Meta == nil {
		return ""
	}
	meta, err := s.deps.Meta.TokenMeta(ctx, mint)
	if err != nil {
		s.logger.Debug("Token metadata unavailable", zap.String("mint", mint), zap.Error(err))
		return ""
	}
	return meta.Symbol
}

// mints returns the distinct token mints of trades in first-seen order.
func mints(trades []domain.ClassifiedTrade) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range trades {
		if _, ok := seen[t.TokenMint]; ok {
			continue
		}
		seen[t.TokenMint] = struct{}{}
		out = append(out, t.TokenMint)
	}
	return out
}
