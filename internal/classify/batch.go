// internal/classify/batch.go
package classify

import (
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

// Stats counts what happened to a feed of records.
type Stats struct {
	Seen        int `json:"seen"`
	Trades      int `json:"trades"`
	NoTokenLeg  int `json:"no_token_leg"`
	NonSOLSwaps int `json:"non_sol_swaps"`
	Stablecoin  int `json:"stablecoin"`
	Unmatched   int `json:"unmatched"`
	Rejected    int `json:"rejected"`
}

// ClassifyAll classifies a feed. Malformed records are logged and skipped;
// the rest of the feed is still processed.
func (c *Classifier) ClassifyAll(txs []domain.RawTx, wallet string, logger *zap.Logger) ([]domain.ClassifiedTrade, Stats) {
	var (
		out   []domain.ClassifiedTrade
		stats Stats
	)

	for _, tx := range txs {
		stats.Seen++
		trades, outcome, err := c.classify(tx, wallet)
		if err != nil {
			logger.Warn("Skipping malformed transaction",
				zap.String("wallet", wallet),
				zap.String("signature", tx.Signature),
				zap.Error(err))
		}

		switch outcome {
		case OutcomeTrade:
			stats.Trades += len(trades)
			out = append(out, trades...)
		case OutcomeNoTokenLeg:
			stats.NoTokenLeg++
		case OutcomeNonSOLSwap:
			stats.NonSOLSwaps++
		case OutcomeStablecoin:
			stats.Stablecoin++
		case OutcomeNoMatchingLeg:
			stats.Unmatched++
		case OutcomeRejected:
			stats.Rejected++
		}
	}

	logger.Debug("Classified feed",
		zap.String("wallet", wallet),
		zap.Int("seen", stats.Seen),
		zap.Int("trades", stats.Trades),
		zap.Int("non_sol_swaps", stats.NonSOLSwaps))

	return out, stats
}

// TransfersAll runs ClassifyTransfer over a feed, skipping malformed records.
func (c *Classifier) TransfersAll(txs []domain.RawTx, wallet string, logger *zap.Logger) []domain.ClassifiedTrade {
	var out []domain.ClassifiedTrade
	for _, tx := range txs {
		moves, err := c.ClassifyTransfer(tx, wallet)
		if err != nil {
			logger.Warn("Skipping malformed transaction",
				zap.String("signature", tx.Signature),
				zap.Error(err))
			continue
		}
		out = append(out, moves...)
	}
	return out
}
