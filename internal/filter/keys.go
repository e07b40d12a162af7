// internal/filter/keys.go
package filter

import (
	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/position"
)

// Key is a member of the closed filter vocabulary.
type Key int

const (
	KeyROI30d Key = iota
	KeyWinRate
	KeyMedianInvestment
	KeyMedianLoss
	KeyMedianWin
	KeyMedianLossPct
	KeyMedianWinPct
	KeyMedianHoldSeconds
	KeyTrades
	KeyTokensPerSOL
	KeyFirstMarketCap
	KeyMarketCap
	KeyMedianEntryMC
	KeyMedianEntryMCPct
	keyCount
)

type keySpec struct {
	name        string
	description string
	accessor    func(position.Row) domain.Metric
}

var keySpecs = [keyCount]keySpec{
	KeyROI30d:            {position.KeyROI30d, "30 day ROI percentage", func(r position.Row) domain.Metric { return r.ROI30d }},
	KeyWinRate:           {position.KeyWinRate, "Win rate (% of profitable sells)", func(r position.Row) domain.Metric { return r.WinRate }},
	KeyMedianInvestment:  {position.KeyMedianInvestment, "Median investment (SOL)", func(r position.Row) domain.Metric { return r.MedianInvestment }},
	KeyMedianLoss:        {position.KeyMedianLoss, "Median loss (SOL)", func(r position.Row) domain.Metric { return r.MedianLoss }},
	KeyMedianWin:         {position.KeyMedianWin, "Median winnings (SOL)", func(r position.Row) domain.Metric { return r.MedianWin }},
	KeyMedianLossPct:     {position.KeyMedianLossPct, "Median loss percentage", func(r position.Row) domain.Metric { return r.MedianLossPct }},
	KeyMedianWinPct:      {position.KeyMedianWinPct, "Median winnings percentage", func(r position.Row) domain.Metric { return r.MedianWinPct }},
	KeyMedianHoldSeconds: {position.KeyMedianHoldSeconds, "Median hold time (seconds)", func(r position.Row) domain.Metric { return r.MedianHoldSeconds }},
	KeyTrades:            {position.KeyTrades, "SOL swaps count", func(r position.Row) domain.Metric { return r.Trades }},
	KeyTokensPerSOL:      {position.KeyTokensPerSOL, "Tokens per SOL at first investment", func(r position.Row) domain.Metric { return r.TokensPerSOL }},
	KeyFirstMarketCap:    {position.KeyFirstMarketCap, "First market cap (USD)", func(r position.Row) domain.Metric { return r.FirstMarketCap }},
	KeyMarketCap:         {position.KeyMarketCap, "Market cap (USD)", func(r position.Row) domain.Metric { return r.MarketCap }},
	KeyMedianEntryMC:     {position.KeyMedianEntryMC, "Median market cap at entry (USD)", func(r position.Row) domain.Metric { return r.MedianEntryMC }},
	KeyMedianEntryMCPct:  {position.KeyMedianEntryMCPct, "Median % of supply bought per entry", func(r position.Row) domain.Metric { return r.MedianEntryMCPct }},
}

var keysByName = func() map[string]Key {
	m := make(map[string]Key, keyCount)
	for k := Key(0); k < keyCount; k++ {
		m[keySpecs[k].name] = k
	}
	return m
}()

// LookupKey resolves a key name. Names are case-sensitive: "MC" and "mc" differ.
func LookupKey(name string) (Key, bool) {
	k, ok := keysByName[name]
	return k, ok
}

func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return "unknown"
	}
	return keySpecs[k].name
}

// Description returns the help text of the key.
func (k Key) Description() string {
	if k < 0 || k >= keyCount {
		return ""
	}
	return keySpecs[k].description
}

// Metric reads the key's value from a row.
func (k Key) Metric(r position.Row) domain.Metric {
	if k < 0 || k >= keyCount {
		return domain.Unavailable()
	}
	return keySpecs[k].accessor(r)
}

// Keys returns the vocabulary in display order.
func Keys() []Key {
	keys := make([]Key, keyCount)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}
