package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rovshanmuradov/solana-research/internal/activity"
	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/fees"
	"github.com/rovshanmuradov/solana-research/internal/position"
	"github.com/rovshanmuradov/solana-research/internal/research"
	"github.com/rovshanmuradov/solana-research/internal/roi"
)

var t0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func testReport() *research.WalletReport {
	trades := []domain.ClassifiedTrade{
		{Signature: "1", Timestamp: t0, Kind: domain.KindBuy, TokenMint: "AAA", SOLAmount: 1, TokenAmount: 100},
		{Signature: "2", Timestamp: t0.Add(time.Hour), Kind: domain.KindSell, TokenMint: "AAA", SOLAmount: 2, TokenAmount: 100},
		{Signature: "3", Timestamp: t0.Add(2 * time.Hour), Kind: domain.KindBuy, TokenMint: "BBB", SOLAmount: 3, TokenAmount: 10},
	}
	positions := position.Aggregate("W", trades, fees.Config{})
	var rows []position.Row
	for _, mint := range []string{"AAA", "BBB"} {
		rows = append(rows, position.BuildRow(positions[mint], nil, position.Market{}))
	}
	return &research.WalletReport{
		Wallet:    "W",
		Trades:    trades,
		Positions: positions,
		Rows:       rows,
		AllRows:    2,
		Unfiltered: rows,
		Summary:   roi.Compute("W", trades, t0.Add(3*time.Hour), fees.Config{}),
	}
}

func loaded(t *testing.T, rep *research.WalletReport, err error) *Model {
	t.Helper()
	m := NewModel(context.Background(), "W", func(context.Context) (*research.WalletReport, error) {
		return rep, err
	}, nil)
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m.Update(reportMsg{report: rep, err: err})
	return m
}

func press(m *Model, keys string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func TestViewerShowsTokens(t *testing.T) {
	m := loaded(t, testReport(), nil)

	view := m.View()
	for _, want := range []string{"Wallet W", "AAA", "BBB", "2 of 2 tokens", "first trade"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewerSortCycles(t *testing.T) {
	m := loaded(t, testReport(), nil)

	if got := m.tokens.SelectedRow()[0]; got != "AAA" {
		t.Fatalf("first row = %s, want AAA by first trade", got)
	}

	press(m, "s")
	if m.sort != sortProfit {
		t.Fatalf("sort = %v, want profit", m.sort)
	}
	if got := m.tokens.SelectedRow()[0]; got != "AAA" {
		t.Errorf("first row by profit = %s, want AAA", got)
	}

	press(m, "s")
	press(m, "s")
	if got := m.tokens.SelectedRow()[0]; got != "BBB" {
		t.Errorf("first row by invested = %s, want BBB", got)
	}
	if !strings.Contains(m.View(), "sorted by invested") {
		t.Error("status does not name the sort")
	}
}

func TestViewerTabs(t *testing.T) {
	m := loaded(t, testReport(), nil)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabPeriods {
		t.Fatalf("tab = %d, want periods", m.tab)
	}
	view := m.View()
	for _, p := range roi.DefaultPeriods {
		if !strings.Contains(view, p.Name) {
			t.Errorf("periods view missing %s", p.Name)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.tab != tabLogs {
		t.Errorf("tab = %d, want logs after wrapping", m.tab)
	}
	if !strings.Contains(m.View(), "No log buffer") {
		t.Error("logs pane without buffer should say so")
	}
}

func TestViewerError(t *testing.T) {
	m := loaded(t, nil, errors.New("upstream refused"))
	if !strings.Contains(m.View(), "Error: upstream refused") {
		t.Error("error not rendered")
	}
}

func TestViewerReloadAndQuit(t *testing.T) {
	m := loaded(t, testReport(), nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if !m.loading || cmd == nil {
		t.Fatal("reload should start loading")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestPeriodRowsSkipMissing(t *testing.T) {
	s := roi.WalletSummary{Periods: map[string]roi.PeriodStats{"7d": {
		Period:    "7d",
		Tokens:    3,
		MedianROI: domain.Available(12.5),
	}}}
	rows := periodRows(s, roi.DefaultPeriods)
	if len(rows) != 1 || rows[0][0] != "7d" || rows[0][7] != "3" {
		t.Errorf("rows = %v", rows)
	}
	if rows[0][5] != "N/A" {
		t.Errorf("roi cell = %q, want N/A", rows[0][5])
	}
	if rows[0][8] != "12.50" || rows[0][9] != "N/A" {
		t.Errorf("median/sd cells = %q %q", rows[0][8], rows[0][9])
	}
}

func TestViewerActivityShowsPnLCurve(t *testing.T) {
	m := loaded(t, testReport(), nil)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabActivity {
		t.Fatalf("tab = %d, want activity", m.tab)
	}
	view := m.View()
	if !strings.Contains(view, "Cumulative PnL") || !strings.Contains(view, "+1.0000") {
		t.Errorf("activity view misses the pnl curve:\n%s", view)
	}
}

func TestCumulativePnL(t *testing.T) {
	got := cumulativePnL([]activity.SellRecord{{PnL: 1}, {PnL: -0.5}, {PnL: 2}})
	want := []float64{1, 0.5, 2.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cumulative = %v, want %v", got, want)
		}
	}
	if len(cumulativePnL(nil)) != 0 {
		t.Error("no sells should give an empty series")
	}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestViewerEditsFilter(t *testing.T) {
	m := loaded(t, testReport(), nil)

	press(m, "/")
	if !m.editing {
		t.Fatal("slash should open the filter editor")
	}
	typeText(m, "t:>1")
	press(m, "q")
	if !m.editing {
		t.Fatal("typing q while editing must not quit")
	}
	if got := m.input.Value(); got != "t:>1q" {
		t.Fatalf("input = %q", got)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterErr == nil || !m.editing {
		t.Fatal("malformed filter should keep the editor open with an error")
	}
	if !strings.Contains(m.View(), "filter>") {
		t.Error("editor not rendered")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.editing || m.filterErr != nil {
		t.Fatalf("valid filter should close the editor, err = %v", m.filterErr)
	}
	view := m.View()
	if !strings.Contains(view, "1 of 2 tokens matching t:>1") {
		t.Errorf("status does not reflect the filter:\n%s", view)
	}
	if strings.Contains(view, "BBB") {
		t.Error("BBB has a single trade and should be filtered out")
	}

	// The applied filter survives a reload.
	m.Update(reportMsg{report: testReport()})
	if len(m.report.Rows) != 1 {
		t.Errorf("rows after reload = %d, want 1", len(m.report.Rows))
	}
}

func TestViewerFilterEscKeepsRows(t *testing.T) {
	m := loaded(t, testReport(), nil)
	press(m, "/")
	typeText(m, "t:>100")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing {
		t.Fatal("esc should close the editor")
	}
	if len(m.report.Rows) != 2 {
		t.Errorf("rows = %d, want both after cancel", len(m.report.Rows))
	}
}
