// internal/export/trades.go
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/logger"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format      ExportFormat
	StartTime   time.Time
	EndTime     time.Time
	TokenFilter string           // Filter by token mint
	KindFilter  domain.TradeKind // Filter by buy/sell/transfer kind
	OutputDir   string           // Defaults to the exporter directory
	Prefix      string           // File name prefix, "trades" when empty
}

// TradesSummary contains summary statistics for exported trades
type TradesSummary struct {
	TotalTrades     int       `json:"total_trades"`
	BuyCount        int       `json:"buy_count"`
	SellCount       int       `json:"sell_count"`
	TransferCount   int       `json:"transfer_count"`
	UniqueTokens    int       `json:"unique_tokens"`
	TotalBuyVolume  float64   `json:"total_buy_volume"`
	TotalSellVolume float64   `json:"total_sell_volume"`
	TotalFees       float64   `json:"total_fees"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
}

// TradeHeader returns the columns of a trade export.
func TradeHeader() []string {
	return []string{"Time", "Signature", "Kind", "Token", "SOL Amount", "Token Amount", "Fee SOL"}
}

// ExportTrades exports classified trades matching opts and returns the file path
func (e *Exporter) ExportTrades(trades []domain.ClassifiedTrade, opts ExportOptions) (string, error) {
	filtered := FilterTrades(trades, opts)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no trades match the export criteria")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	dir := opts.OutputDir
	if dir == "" {
		dir = e.dir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(dir, e.generateFilename(opts))

	var err error
	switch opts.Format {
	case FormatCSV, "":
		err = e.tradesToCSV(filtered, outputPath)
	case FormatJSON:
		err = e.tradesToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", opts.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("Trades exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(opts.Format)))
	return outputPath, nil
}

// FilterTrades applies the time, token and kind filters of opts
func FilterTrades(trades []domain.ClassifiedTrade, opts ExportOptions) []domain.ClassifiedTrade {
	var filtered []domain.ClassifiedTrade
	for _, t := range trades {
		if !opts.StartTime.IsZero() && t.Timestamp.Before(opts.StartTime) {
			continue
		}
		if !opts.EndTime.IsZero() && t.Timestamp.After(opts.EndTime) {
			continue
		}
		if opts.TokenFilter != "" && t.TokenMint != opts.TokenFilter {
			continue
		}
		if opts.KindFilter != "" && t.Kind != opts.KindFilter {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

func (e *Exporter) generateFilename(opts ExportOptions) string {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "trades"
	}
	if opts.KindFilter != "" {
		prefix += "_" + string(opts.KindFilter)
	} else {
		prefix += "_all"
	}
	if opts.TokenFilter != "" {
		tok := opts.TokenFilter
		if len(tok) > 8 {
			tok = tok[:8]
		}
		prefix += "_" + tok
	}

	format := opts.Format
	if format == "" {
		format = FormatCSV
	}
	return fmt.Sprintf("%s_%s.%s", prefix, e.now().Format("20060102_150405"), format)
}

func (e *Exporter) tradesToCSV(trades []domain.ClassifiedTrade, outputPath string) error {
	w, err := logger.NewSafeCSVWriter(outputPath, logger.CSVOptions{
		Header:  TradeHeader(),
		Comma:   Separator,
		Replace: true,
	}, e.logger)
	if err != nil {
		return err
	}

	for _, t := range trades {
		rec := []string{
			t.Timestamp.UTC().Format(time.RFC3339),
			t.Signature,
			string(t.Kind),
			t.TokenMint,
			Decimal(t.SOLAmount, 9),
			Decimal(t.TokenAmount, 6),
			Decimal(t.FeeSOL, 9),
		}
		if err := w.WriteRecord(rec); err != nil {
			w.Abort()
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	return w.Close()
}

type tradeJSON struct {
	Time        time.Time `json:"time"`
	Signature   string    `json:"signature"`
	Kind        string    `json:"kind"`
	TokenMint   string    `json:"token_mint"`
	SOLAmount   float64   `json:"sol_amount"`
	TokenAmount float64   `json:"token_amount"`
	FeeSOL      float64   `json:"fee_sol"`
}

func (e *Exporter) tradesToJSON(trades []domain.ClassifiedTrade, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	out := make([]tradeJSON, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeJSON{
			Time:        t.Timestamp.UTC(),
			Signature:   t.Signature,
			Kind:        string(t.Kind),
			TokenMint:   t.TokenMint,
			SOLAmount:   t.SOLAmount,
			TokenAmount: t.TokenAmount,
			FeeSOL:      t.FeeSOL,
		})
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime time.Time     `json:"export_time"`
		TradeCount int           `json:"trade_count"`
		Trades     []tradeJSON   `json:"trades"`
		Summary    TradesSummary `json:"summary"`
	}{
		ExportTime: e.now().UTC(),
		TradeCount: len(trades),
		Trades:     out,
		Summary:    SummarizeTrades(trades),
	}
	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// SummarizeTrades calculates summary statistics for trades in time order
func SummarizeTrades(trades []domain.ClassifiedTrade) TradesSummary {
	summary := TradesSummary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return summary
	}

	summary.StartDate = trades[0].Timestamp
	summary.EndDate = trades[len(trades)-1].Timestamp

	tokens := make(map[string]struct{})
	for _, t := range trades {
		tokens[t.TokenMint] = struct{}{}
		summary.TotalFees += t.FeeSOL

		switch t.Kind {
		case domain.KindBuy:
			summary.BuyCount++
			summary.TotalBuyVolume += t.SOLAmount
		case domain.KindSell:
			summary.SellCount++
			summary.TotalSellVolume += t.SOLAmount
		default:
			summary.TransferCount++
		}
	}
	summary.UniqueTokens = len(tokens)
	return summary
}
