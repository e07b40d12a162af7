// internal/roi/roi.go
package roi

import (
	"time"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/fees"
	"github.com/rovshanmuradov/solana-research/internal/position"
)

// Period is a named look-back window.
type Period struct {
	Name     string
	Duration time.Duration
}

var (
	Period24h = Period{Name: "24h", Duration: 24 * time.Hour}
	Period7d  = Period{Name: "7d", Duration: 7 * 24 * time.Hour}
	Period30d = Period{Name: "30d", Duration: 30 * 24 * time.Hour}
	Period60d = Period{Name: "60d", Duration: 60 * 24 * time.Hour}
)

// DefaultPeriods are the windows reported for every wallet.
var DefaultPeriods = []Period{Period24h, Period7d, Period30d, Period60d}

// PeriodStats aggregates one wallet's positions inside a window.
type PeriodStats struct {
	Period      string        `json:"period"`
	Invested    float64       `json:"invested"`
	Received    float64       `json:"received"`
	RealizedPnL float64       `json:"realized_pnl"`
	Fees        float64       `json:"fees"`
	ROI         domain.Metric `json:"roi"`
	WinRate     domain.Metric `json:"win_rate"`
	MedianROI   domain.Metric `json:"median_roi"`
	ROIStdDev   domain.Metric `json:"roi_std_dev"`
	Tokens      int           `json:"tokens"`
	Wins        int           `json:"wins"`
	Losses      int           `json:"losses"`
}

// WalletSummary holds a wallet's stats for every computed period.
type WalletSummary struct {
	Wallet  string                 `json:"wallet"`
	Label   string                 `json:"label,omitempty"`
	Periods map[string]PeriodStats `json:"periods"`
	Trades  int                    `json:"trades"`
}

// Period returns the stats of the named period, zero-valued if it was not computed.
func (s WalletSummary) Period(name string) PeriodStats {
	return s.Periods[name]
}

// Stats folds a set of positions into PeriodStats. ROI is unavailable when
// nothing was invested and win rate is unavailable when the window holds no
// tokens. MedianROI and ROIStdDev range over the tokens with a cost basis.
func Stats(name string, positions map[string]*position.TokenPosition) PeriodStats {
	t := position.Sum(positions)

	var rois []float64
	for _, p := range positions {
		if r := p.ROI(); r.OK {
			rois = append(rois, r.Value)
		}
	}

	ps := PeriodStats{
		Period:      name,
		Invested:    t.Invested,
		Received:    t.Received,
		RealizedPnL: t.RealizedPnL,
		Fees:        t.Fees,
		Tokens:      t.Tokens,
		Wins:        t.Wins,
		Losses:      t.Losses,
	}
	if t.Invested > 0 {
		ps.ROI = domain.Available(t.RealizedPnL / t.Invested * 100)
	}
	if t.Tokens > 0 {
		ps.WinRate = domain.Available(float64(t.Wins) / float64(t.Tokens) * 100)
	}
	ps.MedianROI = domain.Median(rois)
	ps.ROIStdDev = domain.StdDev(rois)
	return ps
}

// Compute builds an independent snapshot per period. Windows share no state.
func Compute(wallet string, trades []domain.ClassifiedTrade, now time.Time, cfg fees.Config, periods ...Period) WalletSummary {
	if len(periods) == 0 {
		periods = DefaultPeriods
	}

	summary := WalletSummary{
		Wallet:  wallet,
		Periods: make(map[string]PeriodStats, len(periods)),
		Trades:  len(trades),
	}
	for _, p := range periods {
		positions := position.Aggregate(wallet, position.Window(trades, now, p.Duration), cfg)
		summary.Periods[p.Name] = Stats(p.Name, positions)
	}
	return summary
}
