// internal/export/export.go
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/activity"
	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/logger"
	"github.com/rovshanmuradov/solana-research/internal/position"
	"github.com/rovshanmuradov/solana-research/internal/roi"
)

// Separator is the CSV field separator of every report. Decimals use ','.
const Separator = ';'

const dateLayout = "2006-01-02 15:04"

// Exporter writes wallet reports under a directory.
type Exporter struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewExporter creates an exporter rooted at dir.
func NewExporter(dir string, logger *zap.Logger) *Exporter {
	return &Exporter{
		dir:    dir,
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// Decimal renders v with prec decimals and a decimal comma. Halves round away
// from zero.
func Decimal(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', prec, 64)
	}
	return strings.Replace(decimal.NewFromFloat(v).StringFixed(int32(prec)), ".", ",", 1)
}

// MetricCell renders m like Decimal, or "N/A".
func MetricCell(m domain.Metric, prec int) string {
	if !m.OK {
		return "N/A"
	}
	return Decimal(m.Value, prec)
}

// ReportHeader returns the per-token report columns.
func ReportHeader() []string {
	h := []string{
		"Token", "Symbol", "First Trade", "Last Trade", "Hold Time",
		"SOL Invested", "SOL Received", "SOL Profit", "Total Fees",
		"Remaining Value", "Total Profit",
	}
	return append(h, position.MetricKeys...)
}

func (e *Exporter) rowRecord(r position.Row) []string {
	p := r.Position
	profit := p.SOLReceived - p.SOLInvested

	total := domain.Unavailable()
	if p.TokensHeld <= 0 {
		total = domain.Available(profit)
	} else if p.RemainingValue.OK {
		total = domain.Available(profit + p.RemainingValue.Value)
	}

	first, last, hold := "N/A", "N/A", "N/A"
	if !p.FirstTradeTime.IsZero() {
		first = p.FirstTradeTime.Format(dateLayout)
		last = p.LastTradeTime.Format(dateLayout)
		end := p.LastTradeTime
		// Позиция еще открыта, держим до сейчас
		if p.TokensHeld > 0 {
			end = e.now()
		}
		hold = activity.FormatDuration(end.Sub(p.FirstTradeTime))
	}

	rec := []string{
		r.TokenMint, r.Symbol, first, last, hold,
		Decimal(p.SOLInvested, 3),
		Decimal(p.SOLReceived, 3),
		Decimal(profit, 6),
		Decimal(p.TotalFees, 6),
		MetricCell(p.RemainingValue, 6),
		MetricCell(total, 6),
	}
	for _, f := range r.Ordered() {
		rec = append(rec, MetricCell(f.Value, 2))
	}
	return rec
}

// WriteReport writes <dir>/<wallet>.csv, one line per token ordered by first
// trade, followed by a TOTAL line. An existing report is replaced.
func (e *Exporter) WriteReport(wallet string, rows []position.Row) (string, error) {
	path := filepath.Join(e.dir, wallet+".csv")
	w, err := logger.NewSafeCSVWriter(path, logger.CSVOptions{
		Header:  ReportHeader(),
		Comma:   Separator,
		Replace: true,
	}, e.logger)
	if err != nil {
		return "", err
	}

	sorted := make([]position.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position.FirstTradeTime.Before(sorted[j].Position.FirstTradeTime)
	})

	var invested, received, fees, remaining float64
	trades := 0
	for _, r := range sorted {
		if err := w.WriteRecord(e.rowRecord(r)); err != nil {
			w.Abort()
			return "", err
		}
		invested += r.Position.SOLInvested
		received += r.Position.SOLReceived
		fees += r.Position.TotalFees
		remaining += r.Position.RemainingValue.Or(0)
		trades += r.Position.BuyCount + r.Position.SellCount
	}

	totals := make([]string, len(ReportHeader()))
	totals[0] = "TOTAL"
	totals[5] = Decimal(invested, 3)
	totals[6] = Decimal(received, 3)
	totals[7] = Decimal(received-invested, 6)
	totals[8] = Decimal(fees, 6)
	totals[9] = Decimal(remaining, 6)
	totals[10] = Decimal(received-invested+remaining, 6)
	totals[11+indexOf(position.MetricKeys, position.KeyTrades)] = strconv.Itoa(trades)
	if err := w.WriteRecord(totals); err != nil {
		w.Abort()
		return "", err
	}

	if err := w.Close(); err != nil {
		return "", err
	}
	e.logger.Info("Report written", zap.String("path", path), zap.Int("rows", len(rows)))
	return path, nil
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return 0
}

// Report is the JSON form of a wallet summary.
type Report struct {
	RunID      string            `json:"run_id"`
	ExportTime time.Time         `json:"export_time"`
	Wallet     string            `json:"wallet"`
	Filter     string            `json:"filter,omitempty"`
	Summary    roi.WalletSummary `json:"summary"`
	Rows       []ReportRow       `json:"rows"`
	Activity   *activity.Report  `json:"activity,omitempty"`
	Positions  int               `json:"positions"`
}

// ReportRow is one token line of Report.
type ReportRow struct {
	TokenMint   string                   `json:"token_mint"`
	Symbol      string                   `json:"symbol,omitempty"`
	Invested    float64                  `json:"sol_invested"`
	Received    float64                  `json:"sol_received"`
	RealizedPnL float64                  `json:"realized_pnl"`
	TokensHeld  float64                  `json:"tokens_held"`
	Metrics     map[string]domain.Metric `json:"metrics"`
}

// NewReport assembles a JSON report with a fresh run ID.
func (e *Exporter) NewReport(wallet, filter string, rows []position.Row, summary roi.WalletSummary, act *activity.Report) Report {
	rep := Report{
		RunID:      uuid.New().String(),
		ExportTime: e.now().UTC(),
		Wallet:     wallet,
		Filter:     filter,
		Summary:    summary,
		Activity:   act,
		Positions:  len(rows),
		Rows:       make([]ReportRow, 0, len(rows)),
	}
	for _, r := range rows {
		m := make(map[string]domain.Metric, len(position.MetricKeys))
		for _, f := range r.Ordered() {
			m[f.Key] = f.Value
		}
		rep.Rows = append(rep.Rows, ReportRow{
			TokenMint:   r.TokenMint,
			Symbol:      r.Symbol,
			Invested:    r.Position.SOLInvested,
			Received:    r.Position.SOLReceived,
			RealizedPnL: r.Position.RealizedPnL,
			TokensHeld:  r.Position.TokensHeld,
			Metrics:     m,
		})
	}
	return rep
}

// WriteJSONReport writes <dir>/<wallet>.json.
func (e *Exporter) WriteJSONReport(rep Report) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(e.dir, rep.Wallet+".json")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rep); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}

	e.logger.Info("Report written", zap.String("path", path), zap.String("run_id", rep.RunID))
	return path, nil
}

// ComparisonHeader returns the columns of the multi-wallet table.
func ComparisonHeader(periods []roi.Period) []string {
	h := []string{"Wallet", "Label", "Trades"}
	for _, p := range periods {
		h = append(h,
			"ROI "+p.Name,
			"PnL "+p.Name,
			"Invested "+p.Name,
			"Win Rate "+p.Name,
			"Median ROI "+p.Name)
	}
	return h
}

// WriteComparison writes the ranked multi-wallet table to
// <dir>/comparison_<timestamp>.csv. summaries are written in the given order.
func (e *Exporter) WriteComparison(summaries []roi.WalletSummary, periods []roi.Period) (string, error) {
	path := filepath.Join(e.dir, fmt.Sprintf("comparison_%s.csv", e.now().Format("20060102_150405")))
	w, err := logger.NewSafeCSVWriter(path, logger.CSVOptions{
		Header:  ComparisonHeader(periods),
		Comma:   Separator,
		Replace: true,
	}, e.logger)
	if err != nil {
		return "", err
	}

	for _, s := range summaries {
		rec := []string{s.Wallet, s.Label, strconv.Itoa(s.Trades)}
		for _, p := range periods {
			ps := s.Period(p.Name)
			rec = append(rec,
				MetricCell(ps.ROI, 2),
				Decimal(ps.RealizedPnL, 6),
				Decimal(ps.Invested, 6),
				MetricCell(ps.WinRate, 2),
				MetricCell(ps.MedianROI, 2))
		}
		if err := w.WriteRecord(rec); err != nil {
			w.Abort()
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	e.logger.Info("Report written", zap.String("path", path), zap.Int("wallets", len(summaries)))
	return path, nil
}
