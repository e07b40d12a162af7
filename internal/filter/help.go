// internal/filter/help.go
package filter

// HelpEntry is one line of filter help.
type HelpEntry struct {
	Name        string
	Description string
}

// Help describes the filter language for display by the CLI.
type Help struct {
	Keys      []HelpEntry
	Operators []HelpEntry
	Examples  []HelpEntry
}

// Usage returns the filter help.
func Usage() Help {
	h := Help{
		Operators: []HelpEntry{
			{">", "Greater than"},
			{"<", "Less than"},
			{">=", "Greater than or equal to"},
			{"<=", "Less than or equal to"},
			{"=", "Equal to"},
		},
		Examples: []HelpEntry{
			{`-f "t:>500"`, "Tokens with more than 500 swaps"},
			{`-f "fmc:>=25000"`, "First market cap of at least 25000"},
			{`-f "MC:>50000"`, "Market cap above 50000"},
			{`-f "wr:>50"`, "Win rate above 50%"},
			{`-f "mht:>86400"`, "Held longer than 24 hours"},
			{`-f "t:>500;fmc:>25000"`, "Clauses combine with AND"},
			{`-f "tps:>1000000"`, "More than 1M tokens per SOL at first investment"},
			{`-f "mwp:>100"`, "Median winnings above 100%"},
			{`-f "mme:>1000000"`, "Median market entry above 1M"},
			{`-f "mmcp:<1"`, "Median entry below 1% of market cap"},
		},
	}
	for _, k := range Keys() {
		h.Keys = append(h.Keys, HelpEntry{Name: k.String(), Description: k.Description()})
	}
	return h
}
