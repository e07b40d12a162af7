// internal/research/copytrade.go
package research

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-research/internal/copytrade"
	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/solscan"
)

// CopyReport lists the wallets whose buys track the target's.
type CopyReport struct {
	Wallet     string
	Mode       copytrade.Mode
	TargetBuys []domain.ClassifiedTrade
	Candidates []copytrade.Candidate
}

// CopyTraders looks at the target's first buys and searches the token
// activity around each of them for other wallets buying the same token.
// Forward mode finds followers, Reverse finds the wallets the target follows.
func (s *Service) CopyTraders(ctx context.Context, wallet string, mode copytrade.Mode) (*CopyReport, error) {
	if s.deps.Activity == nil {
		return nil, ErrUnsupported
	}

	trades, _, err := s.Trades(ctx, wallet)
	if err != nil {
		return nil, err
	}

	cfg := s.opts.CopyTrade
	rep := &CopyReport{
		Wallet:     wallet,
		Mode:       mode,
		TargetBuys: copytrade.FirstBuys(trades, cfg.FirstN),
	}

	var (
		mu     sync.Mutex
		feeds  = make(map[string][]domain.RawTx)
		g, gCx = errgroup.WithContext(ctx)
	)
	g.SetLimit(s.opts.Workers)

	for _, buy := range rep.TargetBuys {
		g.Go(func() error {
			tf := copytrade.FilterFor(mode, buy.Timestamp, cfg.Window)
			from, to := tf.Range()

			swaps, err := s.deps.Activity.TokenActivity(gCx, buy.TokenMint, solscan.TimeRange{From: from, To: to})
			if err != nil {
				if errors.Is(err, domain.ErrForbidden) || gCx.Err() != nil {
					return err
				}
				s.logger.Warn("Token activity unavailable",
					zap.String("mint", buy.TokenMint), zap.Error(err))
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, sw := range swaps {
				if sw.From == "" || sw.From == wallet || !tf.Contains(sw.BlockTime) {
					continue
				}
				feeds[sw.From] = append(feeds[sw.From], sw.RawTx(sw.From, len(feeds[sw.From])))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make(map[string][]domain.ClassifiedTrade, len(feeds))
	nop := zap.NewNop()
	for trader, txs := range feeds {
		ct, _ := s.classifier.ClassifyAll(txs, trader, nop)
		if len(ct) > 0 {
			candidates[trader] = ct
		}
	}

	rep.Candidates = copytrade.Detect(mode, wallet, rep.TargetBuys, candidates, cfg)
	s.logger.Info("Copy traders found",
		zap.String("wallet", wallet),
		zap.String("mode", mode.String()),
		zap.Int("count", len(rep.Candidates)))
	return rep, nil
}
