// internal/copytrade/copytrade.go
package copytrade

import (
	"errors"
	"sort"
	"time"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/position"
)

// Mode selects which side of the target's buys is searched.
type Mode int

const (
	// Forward finds wallets that buy at or after the target: its followers.
	Forward Mode = iota
	// Reverse finds wallets that buy strictly before the target: who it copies.
	Reverse
)

func (m Mode) String() string {
	if m == Reverse {
		return "reverse"
	}
	return "forward"
}

// Config tunes the detector.
type Config struct {
	Window   time.Duration `mapstructure:"window"`
	FirstN   int           `mapstructure:"first_n"`
	MinCount int           `mapstructure:"min_count"`
}

// DefaultConfig matches buys within 30 seconds over the first 10 tokens.
func DefaultConfig() Config {
	return Config{
		Window:   30 * time.Second,
		FirstN:   10,
		MinCount: 2,
	}
}

// Validate checks the detector configuration.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return errors.New("copytrade window must be positive")
	}
	if c.FirstN <= 0 {
		return errors.New("copytrade first_n must be positive")
	}
	if c.MinCount < 1 {
		return errors.New("copytrade min_count must be at least 1")
	}
	return nil
}

// Event is one matched pair of buys. SourceWallet is the wallet that bought
// first; TimeDelta is how long after it the other wallet bought.
type Event struct {
	SourceWallet    string        `json:"source_wallet"`
	CandidateWallet string        `json:"candidate_wallet"`
	TokenMint       string        `json:"token_mint"`
	Signature       string        `json:"signature"`
	TimeDelta       time.Duration `json:"time_delta"`
}

// Candidate aggregates the events of one wallet.
type Candidate struct {
	Wallet    string        `json:"wallet"`
	CopyCount int           `json:"copy_count"`
	Tokens    []string      `json:"tokens"`
	AvgDelay  time.Duration `json:"avg_delay"`
	Events    []Event       `json:"events"`
}

// FirstBuys returns the first buy of each of the first n distinct tokens,
// in chronological order. Buys sharing a timestamp keep feed order.
func FirstBuys(trades []domain.ClassifiedTrade, n int) []domain.ClassifiedTrade {
	buys := make([]domain.ClassifiedTrade, 0, len(trades))
	for _, t := range trades {
		if t.Kind == domain.KindBuy {
			buys = append(buys, t)
		}
	}
	sorted := position.Chronological(buys)

	seen := make(map[string]struct{})
	var out []domain.ClassifiedTrade
	for _, t := range sorted {
		if n > 0 && len(out) >= n {
			break
		}
		if _, ok := seen[t.TokenMint]; ok {
			continue
		}
		seen[t.TokenMint] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Detect matches candidate buys against the target's buys on the same token.
// Every candidate buy is counted at most once, against its closest target buy.
// Wallets with fewer than cfg.MinCount matches are dropped.
func Detect(mode Mode, target string, targetBuys []domain.ClassifiedTrade, candidates map[string][]domain.ClassifiedTrade, cfg Config) []Candidate {
	byToken := make(map[string][]time.Time)
	for _, t := range targetBuys {
		if t.Kind != domain.KindBuy {
			continue
		}
		byToken[t.TokenMint] = append(byToken[t.TokenMint], t.Timestamp)
	}

	minCount := cfg.MinCount
	if minCount < 1 {
		minCount = 1
	}

	var out []Candidate
	for wallet, trades := range candidates {
		if wallet == target {
			continue
		}

		var events []Event
		for _, t := range trades {
			if t.Kind != domain.KindBuy {
				continue
			}
			delta, ok := closest(mode, byToken[t.TokenMint], t.Timestamp, cfg.Window)
			if !ok {
				continue
			}
			ev := Event{
				SourceWallet:    target,
				CandidateWallet: wallet,
				TokenMint:       t.TokenMint,
				Signature:       t.Signature,
				TimeDelta:       delta,
			}
			if mode == Reverse {
				ev.SourceWallet, ev.CandidateWallet = wallet, target
			}
			events = append(events, ev)
		}

		if len(events) < minCount || len(events) <= 1 {
			continue
		}
		out = append(out, summarize(wallet, events))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CopyCount != b.CopyCount {
			return a.CopyCount > b.CopyCount
		}
		if a.AvgDelay != b.AvgDelay {
			return a.AvgDelay < b.AvgDelay
		}
		return a.Wallet < b.Wallet
	})
	return out
}

// closest returns the smallest matching delay between a candidate buy at ts and
// any of the target's buy times.
func closest(mode Mode, targetTimes []time.Time, ts time.Time, window time.Duration) (time.Duration, bool) {
	best := time.Duration(-1)
	for _, tt := range targetTimes {
		var d time.Duration
		switch mode {
		case Reverse:
			d = tt.Sub(ts)
			if d <= 0 || d > window {
				continue
			}
		default:
			d = ts.Sub(tt)
			if d < 0 || d > window {
				continue
			}
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best, best >= 0
}

func summarize(wallet string, events []Event) Candidate {
	c := Candidate{
		Wallet:    wallet,
		CopyCount: len(events),
		Events:    events,
	}

	seen := make(map[string]struct{})
	var total time.Duration
	for _, ev := range events {
		total += ev.TimeDelta
		if _, ok := seen[ev.TokenMint]; !ok {
			seen[ev.TokenMint] = struct{}{}
			c.Tokens = append(c.Tokens, ev.TokenMint)
		}
	}
	sort.Strings(c.Tokens)
	c.AvgDelay = total / time.Duration(len(events))
	return c
}
