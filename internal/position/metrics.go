// internal/position/metrics.go
package position

import (
	"github.com/rovshanmuradov/solana-research/internal/domain"
)

// Metric keys of a report row. The filter language uses the same names.
const (
	KeyROI30d            = "30droip"
	KeyWinRate           = "wr"
	KeyMedianInvestment  = "mi"
	KeyMedianLoss        = "ml"
	KeyMedianWin         = "mw"
	KeyMedianLossPct     = "mlp"
	KeyMedianWinPct      = "mwp"
	KeyMedianHoldSeconds = "mht"
	KeyTrades            = "t"
	KeyTokensPerSOL      = "tps"
	KeyFirstMarketCap    = "fmc"
	KeyMarketCap         = "MC"
	KeyMedianEntryMC     = "mme"
	KeyMedianEntryMCPct  = "mmcp"
)

// MetricKeys lists the row keys in report column order.
var MetricKeys = []string{
	KeyROI30d, KeyWinRate, KeyMedianInvestment, KeyMedianLoss, KeyMedianWin,
	KeyMedianLossPct, KeyMedianWinPct, KeyMedianHoldSeconds, KeyTrades,
	KeyTokensPerSOL, KeyFirstMarketCap, KeyMarketCap, KeyMedianEntryMC, KeyMedianEntryMCPct,
}

// Market carries the external data a row needs. Any field may be unavailable.
type Market struct {
	SOLPriceUSD domain.Metric
	Supply      domain.Metric
	PriceUSD    domain.Metric
	Symbol      string
}

// Row is the per-token metrics line used by reports and filters.
type Row struct {
	Wallet    string
	TokenMint string
	Symbol    string
	Position  *TokenPosition

	ROI30d            domain.Metric
	WinRate           domain.Metric
	MedianInvestment  domain.Metric
	MedianLoss        domain.Metric
	MedianWin         domain.Metric
	MedianLossPct     domain.Metric
	MedianWinPct      domain.Metric
	MedianHoldSeconds domain.Metric
	Trades            domain.Metric
	TokensPerSOL      domain.Metric
	FirstMarketCap    domain.Metric
	MarketCap         domain.Metric
	MedianEntryMC     domain.Metric
	MedianEntryMCPct  domain.Metric
}

// Field is one keyed metric of a row.
type Field struct {
	Key   string
	Value domain.Metric
}

// Ordered returns the row metrics in MetricKeys order.
func (r Row) Ordered() []Field {
	return []Field{
		{KeyROI30d, r.ROI30d},
		{KeyWinRate, r.WinRate},
		{KeyMedianInvestment, r.MedianInvestment},
		{KeyMedianLoss, r.MedianLoss},
		{KeyMedianWin, r.MedianWin},
		{KeyMedianLossPct, r.MedianLossPct},
		{KeyMedianWinPct, r.MedianWinPct},
		{KeyMedianHoldSeconds, r.MedianHoldSeconds},
		{KeyTrades, r.Trades},
		{KeyTokensPerSOL, r.TokensPerSOL},
		{KeyFirstMarketCap, r.FirstMarketCap},
		{KeyMarketCap, r.MarketCap},
		{KeyMedianEntryMC, r.MedianEntryMC},
		{KeyMedianEntryMCPct, r.MedianEntryMCPct},
	}
}

// BuildRow derives the metrics row of a position. window30 is the same token's
// position over the last 30 days and may be nil.
func BuildRow(p *TokenPosition, window30 *TokenPosition, m Market) Row {
	row := Row{
		Wallet:    p.Wallet,
		TokenMint: p.TokenMint,
		Symbol:    m.Symbol,
		Position:  p,
		Trades:    domain.Available(float64(p.BuyCount + p.SellCount)),
	}

	if window30 != nil {
		row.ROI30d = window30.ROI()
	}

	var (
		wins, losses       []float64
		winPcts, lossPcts  []float64
		holdSeconds        []float64
		investments        []float64
		entryCaps, capPcts []float64
	)

	for _, s := range p.Sells {
		if s.PnL > 0 {
			wins = append(wins, s.PnL)
			if pct := s.ROIPercent(); pct.OK {
				winPcts = append(winPcts, pct.Value)
			}
		} else if s.PnL < 0 {
			losses = append(losses, -s.PnL)
			if pct := s.ROIPercent(); pct.OK {
				lossPcts = append(lossPcts, -pct.Value)
			}
		}
	}
	for _, h := range p.HoldTimes {
		holdSeconds = append(holdSeconds, h.Seconds())
	}
	for _, b := range p.Buys {
		investments = append(investments, b.Invested)
		if mc := entryMarketCap(b, m); mc.OK {
			entryCaps = append(entryCaps, mc.Value)
		}
		if m.Supply.OK && m.Supply.Value > 0 {
			capPcts = append(capPcts, b.Tokens/m.Supply.Value*100)
		}
	}

	if len(p.Sells) > 0 {
		row.WinRate = domain.Available(float64(len(wins)) / float64(len(p.Sells)) * 100)
	}
	row.MedianWin = domain.Median(wins)
	row.MedianLoss = domain.Median(losses)
	row.MedianWinPct = domain.Median(winPcts)
	row.MedianLossPct = domain.Median(lossPcts)
	row.MedianHoldSeconds = domain.Median(holdSeconds)
	row.MedianInvestment = domain.Median(investments)
	row.MedianEntryMC = domain.Median(entryCaps)
	row.MedianEntryMCPct = domain.Median(capPcts)

	if first, ok := p.FirstBuy(); ok {
		if first.SOL > 0 {
			row.TokensPerSOL = domain.Available(first.Tokens / first.SOL)
		}
		row.FirstMarketCap = entryMarketCap(first, m)
	}

	if m.PriceUSD.OK && m.Supply.OK {
		row.MarketCap = domain.Available(m.PriceUSD.Value * m.Supply.Value)
	}
	return row
}

// entryMarketCap is the USD market cap implied by a buy's execution price.
func entryMarketCap(b BuyEntry, m Market) domain.Metric {
	if b.Tokens <= 0 || !m.SOLPriceUSD.OK || !m.Supply.OK {
		return domain.Unavailable()
	}
	return domain.Available(b.SOL / b.Tokens * m.SOLPriceUSD.Value * m.Supply.Value)
}
