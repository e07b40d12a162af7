// internal/research/holders.go
package research

import (
	"context"

	"github.com/rovshanmuradov/solana-research/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/holders"
)

// HolderReport is the holder distribution of a token.
type HolderReport struct {
	Mint         string
	Supply       domain.Metric
	Distribution holders.Distribution
	// Top holders, ranked.
	Top []domain.HolderRecord
}

const topHolders = 20

// Holders fetches up to the configured number of holders and measures how
// concentrated the supply is.
func (s *Service) Holders(ctx context.Context, mint string) (*HolderReport, error) {
	if s.deps.Holders == nil {
		return nil, ErrUnsupported
	}
	if _, err := solana.ParseAddress(mint); err != nil {
		return nil, err
	}

	list, err := s.deps.Holders.FetchHolders(ctx, mint, s.opts.HolderLimit)
	if err != nil {
		return nil, err
	}

	supply := s.deps.Market.Supply(ctx, mint)
	ranked := holders.Ranked(list)
	if len(ranked) > topHolders {
		ranked = ranked[:topHolders]
	}

	return &HolderReport{
		Mint:         mint,
		Supply:       supply,
		Distribution: holders.Compute(list, supply.Or(0)),
		Top:          ranked,
	}, nil
}
