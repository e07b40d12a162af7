// internal/classify/classifier.go
package classify

import (
	"math"
	"sort"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/fees"
)

const epsilon = 1e-12

// SplitPolicy decides how the SOL leg of a multi-token transaction is divided.
type SplitPolicy int

const (
	// SplitProRata divides SOL by each leg's value share when every leg has a price,
	// and falls back to SplitEqual otherwise.
	SplitProRata SplitPolicy = iota
	// SplitEqual divides SOL equally between legs.
	SplitEqual
)

func (p SplitPolicy) String() string {
	if p == SplitEqual {
		return "equal"
	}
	return "pro-rata"
}

// Options configures a Classifier.
type Options struct {
	SOLMints     []string
	IgnoredMints []string
	Split        SplitPolicy
	// LegPrices are per-mint prices in SOL used by SplitProRata.
	LegPrices map[string]float64
	// Fees, when set, stamps FeeSOL on every buy and sell.
	Fees *fees.Config
	// DustSOL drops SOL transfers below this size in ClassifyTransfer.
	DustSOL float64
}

// DefaultOptions treats wrapped and native SOL as SOL and skips USD stablecoin legs.
func DefaultOptions() Options {
	return Options{
		SOLMints:     []string{domain.WrappedSOLMint, domain.NativeSOLMint},
		IgnoredMints: []string{domain.USDCMint, domain.USDTMint},
		Split:        SplitProRata,
	}
}

// Outcome explains what Classify did with a record.
type Outcome int

const (
	OutcomeTrade Outcome = iota
	OutcomeNoTokenLeg
	OutcomeNonSOLSwap
	OutcomeStablecoin
	OutcomeNoMatchingLeg
	OutcomeRejected
)

// Classifier turns RawTx records into ClassifiedTrades. It holds no mutable state
// and may be shared between goroutines.
type Classifier struct {
	opts     Options
	solMints map[string]bool
	ignored  map[string]bool
}

// New creates a Classifier.
func New(opts Options) *Classifier {
	c := &Classifier{
		opts:     opts,
		solMints: make(map[string]bool, len(opts.SOLMints)),
		ignored:  make(map[string]bool, len(opts.IgnoredMints)),
	}
	for _, m := range opts.SOLMints {
		c.solMints[m] = true
	}
	for _, m := range opts.IgnoredMints {
		c.ignored[m] = true
	}
	return c
}

// IsSOL reports whether mint is treated as SOL.
func (c *Classifier) IsSOL(mint string) bool {
	return c.solMints[mint]
}

// Classify returns the DEX trades found in tx for wallet. Non-trade records
// yield nil without error.
func (c *Classifier) Classify(tx domain.RawTx, wallet string) ([]domain.ClassifiedTrade, error) {
	trades, _, err := c.classify(tx, wallet)
	return trades, err
}

type leg struct {
	mint  string
	delta float64
}

func (c *Classifier) classify(tx domain.RawTx, wallet string) ([]domain.ClassifiedTrade, Outcome, error) {
	if err := validate(tx); err != nil {
		return nil, OutcomeRejected, err
	}

	solDelta, legs := c.walletDeltas(tx, wallet)
	if len(legs) == 0 {
		return nil, OutcomeNoTokenLeg, nil
	}
	for _, l := range legs {
		if c.ignored[l.mint] {
			return nil, OutcomeStablecoin, nil
		}
	}
	if math.Abs(solDelta) < epsilon {
		return nil, OutcomeNonSOLSwap, nil
	}

	kind := domain.KindBuy
	dir := domain.DirectionBuy
	if solDelta > 0 {
		kind = domain.KindSell
		dir = domain.DirectionSell
	}

	var matched []leg
	for _, l := range legs {
		if (kind == domain.KindBuy && l.delta > 0) || (kind == domain.KindSell && l.delta < 0) {
			matched = append(matched, l)
		}
	}
	if len(matched) == 0 {
		return nil, OutcomeNoMatchingLeg, nil
	}

	shares := c.split(matched)
	solAmount := math.Abs(solDelta)

	trades := make([]domain.ClassifiedTrade, 0, len(matched))
	for i, l := range matched {
		sol := solAmount * shares[i]
		t := domain.ClassifiedTrade{
			Signature:   tx.Signature,
			Timestamp:   tx.BlockTime,
			Kind:        kind,
			TokenMint:   l.mint,
			SOLAmount:   sol,
			TokenAmount: math.Abs(l.delta),
			FeedIndex:   tx.FeedIndex,
			Leg:         i,
		}
		if c.opts.Fees != nil {
			t.FeeSOL = fees.Fee(dir, sol, *c.opts.Fees)
		}
		trades = append(trades, t)
	}
	return trades, OutcomeTrade, nil
}

// walletDeltas sums the wallet's SOL movement (native plus wrapped) and its
// per-mint token movements. Legs are returned in ascending mint order.
func (c *Classifier) walletDeltas(tx domain.RawTx, wallet string) (float64, []leg) {
	solDelta := tx.SOLDelta()
	byMint := make(map[string]float64)

	for _, ch := range tx.TokenChanges {
		if ch.Owner != "" && ch.Owner != wallet {
			continue
		}
		if c.solMints[ch.Mint] {
			solDelta += ch.Delta()
			continue
		}
		byMint[ch.Mint] += ch.Delta()
	}

	legs := make([]leg, 0, len(byMint))
	for mint, d := range byMint {
		if math.Abs(d) < epsilon {
			continue
		}
		legs = append(legs, leg{mint: mint, delta: d})
	}
	sort.Slice(legs, func(i, j int) bool { return legs[i].mint < legs[j].mint })
	return solDelta, legs
}

// split returns the SOL fraction assigned to each leg. Fractions sum to 1.
func (c *Classifier) split(legs []leg) []float64 {
	shares := make([]float64, len(legs))
	if len(legs) == 1 {
		shares[0] = 1
		return shares
	}

	if c.opts.Split == SplitProRata && c.opts.LegPrices != nil {
		total := 0.0
		values := make([]float64, len(legs))
		priced := true
		for i, l := range legs {
			p, ok := c.opts.LegPrices[l.mint]
			if !ok || p <= 0 {
				priced = false
				break
			}
			values[i] = math.Abs(l.delta) * p
			total += values[i]
		}
		if priced && total > 0 {
			for i := range values {
				shares[i] = values[i] / total
			}
			return shares
		}
	}

	for i := range shares {
		shares[i] = 1 / float64(len(legs))
	}
	return shares
}

// ClassifyTransfer reports plain SOL or token movements that are not swaps.
// Swaps return nil.
func (c *Classifier) ClassifyTransfer(tx domain.RawTx, wallet string) ([]domain.ClassifiedTrade, error) {
	if err := validate(tx); err != nil {
		return nil, err
	}

	solDelta, legs := c.walletDeltas(tx, wallet)
	hasSOL := math.Abs(solDelta) >= epsilon

	if hasSOL && len(legs) > 0 {
		for _, l := range legs {
			if (solDelta < 0) != (l.delta < 0) {
				return nil, nil
			}
		}
	}

	var out []domain.ClassifiedTrade
	if len(legs) == 0 {
		if !hasSOL || math.Abs(solDelta) < c.opts.DustSOL {
			return nil, nil
		}
		kind := domain.KindTransferIn
		if solDelta < 0 {
			kind = domain.KindTransferOut
		}
		return append(out, domain.ClassifiedTrade{
			Signature:   tx.Signature,
			Timestamp:   tx.BlockTime,
			Kind:        kind,
			TokenMint:   domain.NativeSOLMint,
			SOLAmount:   math.Abs(solDelta),
			TokenAmount: math.Abs(solDelta),
			FeedIndex:   tx.FeedIndex,
		}), nil
	}

	for i, l := range legs {
		kind := domain.KindTransferIn
		if l.delta < 0 {
			kind = domain.KindTransferOut
		}
		out = append(out, domain.ClassifiedTrade{
			Signature:   tx.Signature,
			Timestamp:   tx.BlockTime,
			Kind:        kind,
			TokenMint:   l.mint,
			TokenAmount: math.Abs(l.delta),
			FeedIndex:   tx.FeedIndex,
			Leg:         i,
		})
	}
	return out, nil
}

func validate(tx domain.RawTx) error {
	if tx.Signature == "" {
		return &domain.ParseError{Input: "raw transaction", Reason: "missing signature"}
	}
	if tx.BlockTime.IsZero() {
		return &domain.ParseError{Input: "raw transaction", Token: tx.Signature, Reason: "missing block time"}
	}
	return nil
}
