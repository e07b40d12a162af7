// internal/ui/viewer.go
package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/solana-research/internal/activity"
	"github.com/rovshanmuradov/solana-research/internal/filter"
	"github.com/rovshanmuradov/solana-research/internal/logger"
	"github.com/rovshanmuradov/solana-research/internal/position"
	"github.com/rovshanmuradov/solana-research/internal/research"
	"github.com/rovshanmuradov/solana-research/internal/roi"
	"github.com/rovshanmuradov/solana-research/internal/ui/component"
	"github.com/rovshanmuradov/solana-research/internal/ui/style"
)

// LoadFunc produces the report shown by the viewer.
type LoadFunc func(ctx context.Context) (*research.WalletReport, error)

type tab int

const (
	tabTokens tab = iota
	tabPeriods
	tabActivity
	tabLogs
	tabCount
)

var tabNames = [tabCount]string{"Tokens", "Periods", "Activity", "Logs"}

type sortMode int

const (
	sortFirstTrade sortMode = iota
	sortProfit
	sortTrades
	sortInvested
	sortModeCount
)

var sortNames = [sortModeCount]string{"first trade", "profit", "trades", "invested"}

const logRefresh = time.Second

// Model is the bubbletea model of the report viewer.
type Model struct {
	ctx    context.Context
	wallet string
	load   LoadFunc

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	palette style.Palette

	tokens   *component.Table
	periods  *component.Table
	activity viewport.Model
	pnl      *component.Sparkline
	logs     *component.LogPane

	// input edits the token filter; override survives reloads once applied.
	input     textinput.Model
	editing   bool
	override  *filter.Expression
	filterErr error

	report  *research.WalletReport
	err     error
	loading bool
	tab     tab
	sort    sortMode

	width  int
	height int
}

// NewModel creates a viewer that loads the report of wallet on start.
func NewModel(ctx context.Context, wallet string, load LoadFunc, buf *logger.LogBuffer) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	palette := style.DefaultPalette()
	sp.Style = lipgloss.NewStyle().Foreground(palette.Primary)

	in := textinput.New()
	in.Prompt = "filter> "
	in.Placeholder = "t:>5;30droip:>0"
	in.CharLimit = 256

	m := &Model{
		ctx:      ctx,
		wallet:   wallet,
		load:     load,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		palette:  palette,
		tokens:   component.NewTable(tokenColumns()...).SetZebra(true),
		periods:  component.NewTable(periodColumns()...),
		activity: viewport.New(80, 20),
		pnl:      component.NewSparkline(60).SetLabel("Cumulative PnL"),
		logs:     component.NewLogPane(buf),
		input:    in,
		loading:  true,
	}
	m.tokens.SetCellStyler(m.signedCells(5, 6))
	m.periods.SetCellStyler(m.signedCells(3, 5))
	return m
}

func tokenColumns() []component.TableColumn {
	return []component.TableColumn{
		{Header: "Token", Width: 12},
		{Header: "Symbol", Width: 8},
		{Header: "First Trade", Width: 16},
		{Header: "Trades", Width: 6, Align: lipgloss.Right},
		{Header: "Invested", Width: 10, Align: lipgloss.Right},
		{Header: "Profit", Width: 10, Align: lipgloss.Right},
		{Header: "30d ROI %", Width: 9, Align: lipgloss.Right},
		{Header: "WR %", Width: 6, Align: lipgloss.Right},
		{Header: "Held", Width: 0, Align: lipgloss.Right},
	}
}

func periodColumns() []component.TableColumn {
	return []component.TableColumn{
		{Header: "Period", Width: 6},
		{Header: "Invested", Width: 10, Align: lipgloss.Right},
		{Header: "Received", Width: 10, Align: lipgloss.Right},
		{Header: "PnL", Width: 10, Align: lipgloss.Right},
		{Header: "Fees", Width: 8, Align: lipgloss.Right},
		{Header: "ROI %", Width: 8, Align: lipgloss.Right},
		{Header: "Win %", Width: 6, Align: lipgloss.Right},
		{Header: "Tokens", Width: 6, Align: lipgloss.Right},
		{Header: "Med ROI %", Width: 9, Align: lipgloss.Right},
		{Header: "ROI SD", Width: 8, Align: lipgloss.Right},
	}
}

// signedCells colors the listed columns by sign.
func (m *Model) signedCells(cols ...int) component.CellStyler {
	return func(_, col int, value string) (lipgloss.Style, bool) {
		for _, c := range cols {
			if c != col {
				continue
			}
			var v float64
			if _, err := fmt.Sscanf(value, "%g", &v); err != nil {
				return lipgloss.Style{}, false
			}
			return m.palette.PnL(v), true
		}
		return lipgloss.Style{}, false
	}
}

// Init starts the load, the spinner and the log refresh.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick, tickLogs())
}

func (m *Model) loadCmd() tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		rep, err := load(ctx)
		return reportMsg{report: rep, err: err}
	}
}

func tickLogs() tea.Cmd {
	return tea.Tick(logRefresh, func(t time.Time) tea.Msg { return logTickMsg(t) })
}

// Update handles input and load results.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case reportMsg:
		m.loading = false
		m.report, m.err = msg.report, msg.err
		if m.report != nil && m.override != nil {
			m.refilter(*m.override)
		}
		m.fill()
		return m, nil

	case logTickMsg:
		if m.tab == tabLogs {
			m.logs.Refresh()
		}
		return m, tickLogs()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleFilterInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
		m.logs.Refresh()
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
		m.logs.Refresh()
	case key.Matches(msg, m.keys.Sort):
		m.sort = (m.sort + 1) % sortModeCount
		m.fill()
	case key.Matches(msg, m.keys.Reload):
		if !m.loading {
			m.loading = true
			return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
		}
	case key.Matches(msg, m.keys.Debug):
		m.logs.ToggleDebug()
		m.logs.Refresh()
	case key.Matches(msg, m.keys.Filter):
		if m.report == nil {
			break
		}
		m.tab = tabTokens
		m.editing = true
		m.input.SetValue(m.report.Filter.String())
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Up):
		m.scroll(-1)
	case key.Matches(msg, m.keys.Down):
		m.scroll(1)
	case key.Matches(msg, m.keys.PageUp):
		m.scroll(-m.bodyHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.scroll(m.bodyHeight())
	}
	return m, nil
}

// handleFilterInput feeds keys to the filter editor. Enter applies the
// expression, Esc leaves the current one in place.
func (m *Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		expr, err := filter.Parse(m.input.Value())
		if err != nil {
			m.filterErr = err
			return m, nil
		}
		m.filterErr = nil
		m.override = &expr
		m.refilter(expr)
		m.fill()
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filterErr = nil
		m.editing = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refilter applies expr to every row of the loaded report.
func (m *Model) refilter(expr filter.Expression) {
	m.report.Filter = expr
	m.report.Rows = expr.Apply(m.report.Unfiltered)
}

func (m *Model) scroll(n int) {
	switch m.tab {
	case tabTokens:
		if n < 0 {
			m.tokens.MoveUp(-n)
		} else {
			m.tokens.MoveDown(n)
		}
	case tabActivity:
		if n < 0 {
			m.activity.LineUp(-n)
		} else {
			m.activity.LineDown(n)
		}
	case tabLogs:
		m.logs.Scroll(n)
	}
}

// bodyHeight is the space left for the active pane.
func (m *Model) bodyHeight() int {
	helpLines := 1
	if m.help.ShowAll {
		helpLines = 4
	}
	return max(m.height-3-helpLines, 3)
}

func (m *Model) resize() {
	h := m.bodyHeight()
	m.tokens.SetSize(m.width, h)
	m.periods.SetSize(m.width, h)
	m.activity.Width = m.width
	m.activity.Height = max(h-1, 1)
	m.pnl.SetWidth(max(m.width-40, 10))
	m.logs.SetSize(m.width, h)
	m.help.Width = m.width
}

// fill renders the loaded report into the panes.
func (m *Model) fill() {
	if m.report == nil {
		return
	}
	m.tokens.SetRows(tokenRows(m.report.Rows, m.sort))
	m.periods.SetRows(periodRows(m.report.Summary, roi.DefaultPeriods))
	m.pnl.SetData(cumulativePnL(activity.Sells(m.report.Positions)))

	var b strings.Builder
	if m.report.Activity != nil {
		b.WriteString(activity.FormatText(m.report.Activity))
		b.WriteString("\n")
		b.WriteString(activity.FormatHeatmap(activity.Heatmap(m.report.Trades, time.UTC)))
	}
	m.activity.SetContent(b.String())
}

// cumulativePnL is the running realized profit after each sell.
func cumulativePnL(sells []activity.SellRecord) []float64 {
	out := make([]float64, len(sells))
	total := 0.0
	for i, s := range sells {
		total += s.PnL
		out[i] = total
	}
	return out
}

// tokenRows renders report rows as table cells, ordered by mode.
func tokenRows(rows []position.Row, mode sortMode) [][]string {
	sorted := make([]position.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Position, sorted[j].Position
		switch mode {
		case sortProfit:
			return a.RealizedPnL > b.RealizedPnL
		case sortTrades:
			return a.BuyCount+a.SellCount > b.BuyCount+b.SellCount
		case sortInvested:
			return a.SOLInvested > b.SOLInvested
		default:
			return a.FirstTradeTime.Before(b.FirstTradeTime)
		}
	})

	out := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		p := r.Position
		out = append(out, []string{
			r.TokenMint,
			r.Symbol,
			p.FirstTradeTime.UTC().Format("2006-01-02 15:04"),
			r.Trades.Format(0),
			fmt.Sprintf("%.4f", p.SOLInvested),
			fmt.Sprintf("%.4f", p.RealizedPnL),
			r.ROI30d.Format(2),
			r.WinRate.Format(1),
			fmt.Sprintf("%.2f", p.TokensHeld),
		})
	}
	return out
}

// periodRows renders the period stats in period order.
func periodRows(s roi.WalletSummary, periods []roi.Period) [][]string {
	out := make([][]string, 0, len(periods))
	for _, p := range periods {
		ps, ok := s.Periods[p.Name]
		if !ok {
			continue
		}
		out = append(out, []string{
			p.Name,
			fmt.Sprintf("%.4f", ps.Invested),
			fmt.Sprintf("%.4f", ps.Received),
			fmt.Sprintf("%.4f", ps.RealizedPnL),
			fmt.Sprintf("%.4f", ps.Fees),
			ps.ROI.Format(2),
			ps.WinRate.Format(1),
			fmt.Sprintf("%d", ps.Tokens),
			ps.MedianROI.Format(2),
			ps.ROIStdDev.Format(2),
		})
	}
	return out
}

// View renders the viewer.
func (m *Model) View() string {
	header := m.palette.Title().Render("Wallet " + m.wallet)

	var tabs []string
	for i := tab(0); i < tabCount; i++ {
		tabs = append(tabs, m.palette.Tab(tabNames[i], i == m.tab))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	var body string
	switch {
	case m.loading:
		body = m.spinner.View() + " Loading trades..."
	case m.err != nil:
		body = lipgloss.NewStyle().Foreground(m.palette.Loss).Render("Error: " + m.err.Error())
	default:
		body = m.body()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, bar, body, m.help.View(m.keys))
}

func (m *Model) body() string {
	switch m.tab {
	case tabTokens:
		status := fmt.Sprintf("%d of %d tokens", len(m.report.Rows), m.report.AllRows)
		if !m.report.Filter.IsEmpty() {
			status += " matching " + m.report.Filter.String()
		}
		status += ", sorted by " + sortNames[m.sort]
		footer := lipgloss.NewStyle().Foreground(m.palette.TextMuted).Render(status)
		if m.editing {
			footer = m.input.View()
			if m.filterErr != nil {
				footer += "  " + lipgloss.NewStyle().Foreground(m.palette.Loss).Render(m.filterErr.Error())
			}
		}
		return lipgloss.JoinVertical(lipgloss.Left, m.tokens.View(), footer)
	case tabPeriods:
		return m.periods.View()
	case tabActivity:
		return lipgloss.JoinVertical(lipgloss.Left, m.pnl.View(), m.activity.View())
	default:
		return m.logs.View()
	}
}

// Run shows the viewer until the user quits or ctx is cancelled.
func Run(ctx context.Context, wallet string, load LoadFunc, buf *logger.LogBuffer) error {
	p := tea.NewProgram(NewModel(ctx, wallet, load, buf), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
