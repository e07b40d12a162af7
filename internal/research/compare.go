// internal/research/compare.go
package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/batch"
	"github.com/rovshanmuradov/solana-research/internal/roi"
)

// Comparison is the ranked outcome of a multi-wallet run.
type Comparison struct {
	SortKey roi.SortKey
	Results []batch.Result
	// Ranked holds the summaries of the wallets that succeeded, best first.
	Ranked []roi.WalletSummary
	Path   string
}

// Failed returns the results that carry an error.
func (c *Comparison) Failed() []batch.Result {
	var out []batch.Result
	for _, r := range c.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Compare summarizes every wallet on the worker pool and ranks the
// successful ones by key, descending. A wallet that fails is reported in
// Results and left out of the ranking.
func (s *Service) Compare(ctx context.Context, wallets []batch.Job, key roi.SortKey) (*Comparison, error) {
	if key == "" {
		key = roi.DefaultSortKey
	}

	results, err := batch.Run(ctx, wallets, s.opts.Workers, func(ctx context.Context, job batch.Job) (roi.WalletSummary, error) {
		return s.summary(ctx, job.Wallet)
	}, s.logger)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		SortKey: key,
		Results: results,
		Ranked:  roi.Rank(batch.Succeeded(results), key, true),
	}

	if s.deps.Exporter != nil && len(cmp.Ranked) > 0 {
		path, err := s.deps.Exporter.WriteComparison(cmp.Ranked, s.opts.Periods)
		if err != nil {
			return cmp, err
		}
		cmp.Path = path
	}
	s.logger.Info("Wallets compared",
		zap.Int("wallets", len(wallets)),
		zap.Int("ranked", len(cmp.Ranked)),
		zap.String("sort", string(key)))
	return cmp, nil
}
