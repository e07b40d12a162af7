// internal/activity/activity.go
package activity

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/position"
)

// Analyzer builds activity reports for one wallet.
type Analyzer struct {
	logger *zap.Logger
	loc    *time.Location
}

// NewAnalyzer creates an analyzer bucketing times in loc (UTC when nil).
func NewAnalyzer(logger *zap.Logger, loc *time.Location) *Analyzer {
	if loc == nil {
		loc = time.UTC
	}
	return &Analyzer{logger: logger, loc: loc}
}

// Report is the activity overview of one wallet.
type Report struct {
	Wallet   string       `json:"wallet"`
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	Overview Overview     `json:"overview"`
	Time     TimeAnalysis `json:"time_analysis"`
	Risk     RiskMetrics  `json:"risk_metrics"`
	Tokens   []TokenStats `json:"token_performance"`
	TopSells []SellRecord `json:"top_sells"`
	Notes    []string     `json:"notes"`
}

// Overview holds counts and totals over the whole history.
type Overview struct {
	Buys         int           `json:"buys"`
	Sells        int           `json:"sells"`
	Volume       float64       `json:"volume"`
	RealizedPnL  float64       `json:"realized_pnl"`
	ActiveTokens int           `json:"active_tokens"`
	ProfitFactor domain.Metric `json:"profit_factor"`
	AvgHoldTime  domain.Metric `json:"avg_hold_seconds"`
}

// TimeAnalysis is the weekday by hour activity grid plus hourly P&L.
type TimeAnalysis struct {
	Heatmap            [7][24]int  `json:"heatmap"`
	HourlyActivity     [24]int     `json:"hourly_activity"`
	HourlyPnL          [24]float64 `json:"hourly_pnl"`
	MostActiveHour     int         `json:"most_active_hour"`
	MostProfitableHour int         `json:"most_profitable_hour"`
}

// RiskMetrics summarizes the realized P&L curve.
type RiskMetrics struct {
	MaxDrawdown        float64       `json:"max_drawdown"`
	MaxDrawdownPercent domain.Metric `json:"max_drawdown_percent"`
	LongestWinStreak   int           `json:"longest_win_streak"`
	LongestLossStreak  int           `json:"longest_loss_streak"`
	SharpeRatio        domain.Metric `json:"sharpe_ratio"`
}

// TokenStats is the per-token line of the report.
type TokenStats struct {
	TokenMint string        `json:"token_mint"`
	Trades    int           `json:"trades"`
	PnL       float64       `json:"pnl"`
	ROI       domain.Metric `json:"roi"`
}

// SellRecord is one realized sell.
type SellRecord struct {
	TokenMint string    `json:"token_mint"`
	Time      time.Time `json:"time"`
	PnL       float64   `json:"pnl"`
	CostBasis float64   `json:"cost_basis"`
}

// Analyze builds the report from the classified trades and the positions
// aggregated from them.
func (a *Analyzer) Analyze(wallet string, trades []domain.ClassifiedTrade, positions map[string]*position.TokenPosition) *Report {
	r := &Report{Wallet: wallet}
	if len(trades) == 0 {
		return r
	}

	ordered := position.Chronological(trades)
	r.Start = ordered[0].Timestamp
	r.End = ordered[len(ordered)-1].Timestamp

	sells := Sells(positions)
	r.Overview = overview(ordered, positions)
	r.Time = a.timeAnalysis(ordered, sells)
	r.Risk = Risk(sells)
	r.Tokens = tokenStats(positions)
	r.TopSells = topSells(sells, 5)
	r.Notes = notes(r)

	a.logger.Debug("Activity analyzed",
		zap.String("wallet", wallet),
		zap.Int("trades", len(trades)),
		zap.Int("sells", len(sells)))
	return r
}

// Heatmap counts trades per weekday (Sunday first) and hour in loc.
func Heatmap(trades []domain.ClassifiedTrade, loc *time.Location) [7][24]int {
	if loc == nil {
		loc = time.UTC
	}
	var grid [7][24]int
	for _, t := range trades {
		if !t.IsTrade() {
			continue
		}
		ts := t.Timestamp.In(loc)
		grid[ts.Weekday()][ts.Hour()]++
	}
	return grid
}

// Sells flattens the realized sells of all positions in time order.
func Sells(positions map[string]*position.TokenPosition) []SellRecord {
	var out []SellRecord
	for mint, p := range positions {
		for _, s := range p.Sells {
			out = append(out, SellRecord{TokenMint: mint, Time: s.Time, PnL: s.PnL, CostBasis: s.CostBasis})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].TokenMint < out[j].TokenMint
	})
	return out
}

// Risk computes drawdown, streaks and a simplified annualized Sharpe ratio
// over sells in time order.
func Risk(sells []SellRecord) RiskMetrics {
	var (
		m         RiskMetrics
		cum, peak float64
		ddPeak    float64
		streak    int
		lastWin   bool
		returns   []float64
	)

	for i, s := range sells {
		cum += s.PnL
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > m.MaxDrawdown {
			m.MaxDrawdown = dd
			ddPeak = peak
		}

		win := s.PnL > 0
		if i > 0 && win == lastWin {
			streak++
		} else {
			streak = 1
			lastWin = win
		}
		if win && streak > m.LongestWinStreak {
			m.LongestWinStreak = streak
		}
		if !win && streak > m.LongestLossStreak {
			m.LongestLossStreak = streak
		}

		if s.CostBasis > 0 {
			returns = append(returns, s.PnL/s.CostBasis)
		}
	}

	// Percent of the peak the worst drawdown fell from.
	if ddPeak > 0 {
		m.MaxDrawdownPercent = domain.Available(m.MaxDrawdown / ddPeak * 100)
	}
	m.SharpeRatio = sharpe(returns)
	return m
}

func sharpe(returns []float64) domain.Metric {
	if len(returns) < 2 {
		return domain.Unavailable()
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	sd := math.Sqrt(variance)
	if sd == 0 {
		return domain.Unavailable()
	}
	return domain.Available(mean / sd * math.Sqrt(252))
}

func (a *Analyzer) timeAnalysis(trades []domain.ClassifiedTrade, sells []SellRecord) TimeAnalysis {
	ta := TimeAnalysis{
		Heatmap:            Heatmap(trades, a.loc),
		MostActiveHour:     -1,
		MostProfitableHour: -1,
	}
	for day := range ta.Heatmap {
		for hour, n := range ta.Heatmap[day] {
			ta.HourlyActivity[hour] += n
		}
	}

	var sold [24]bool
	for _, s := range sells {
		h := s.Time.In(a.loc).Hour()
		ta.HourlyPnL[h] += s.PnL
		sold[h] = true
	}

	maxCount := 0
	for h, n := range ta.HourlyActivity {
		if n > maxCount {
			maxCount = n
			ta.MostActiveHour = h
		}
	}
	for h := range ta.HourlyPnL {
		if !sold[h] {
			continue
		}
		if ta.MostProfitableHour < 0 || ta.HourlyPnL[h] > ta.HourlyPnL[ta.MostProfitableHour] {
			ta.MostProfitableHour = h
		}
	}
	return ta
}

func overview(trades []domain.ClassifiedTrade, positions map[string]*position.TokenPosition) Overview {
	var o Overview
	for _, t := range trades {
		switch t.Kind {
		case domain.KindBuy:
			o.Buys++
			o.Volume += t.SOLAmount
		case domain.KindSell:
			o.Sells++
			o.Volume += t.SOLAmount
		}
	}

	var wins, losses float64
	var holds []float64
	for _, p := range positions {
		o.RealizedPnL += p.RealizedPnL
		if p.BuyCount+p.SellCount > 0 {
			o.ActiveTokens++
		}
		for _, s := range p.Sells {
			if s.PnL > 0 {
				wins += s.PnL
			} else {
				losses -= s.PnL
			}
		}
		for _, h := range p.HoldTimes {
			holds = append(holds, h.Seconds())
		}
	}
	if losses > 0 {
		o.ProfitFactor = domain.Available(wins / losses)
	}
	if len(holds) > 0 {
		var sum float64
		for _, h := range holds {
			sum += h
		}
		o.AvgHoldTime = domain.Available(sum / float64(len(holds)))
	}
	return o
}

func tokenStats(positions map[string]*position.TokenPosition) []TokenStats {
	out := make([]TokenStats, 0, len(positions))
	for mint, p := range positions {
		out = append(out, TokenStats{
			TokenMint: mint,
			Trades:    p.BuyCount + p.SellCount,
			PnL:       p.RealizedPnL,
			ROI:       p.ROI(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PnL != out[j].PnL {
			return out[i].PnL > out[j].PnL
		}
		return out[i].TokenMint < out[j].TokenMint
	})
	return out
}

func topSells(sells []SellRecord, limit int) []SellRecord {
	out := make([]SellRecord, len(sells))
	copy(out, sells)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PnL > out[j].PnL
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
