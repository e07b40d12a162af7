// internal/ui/component/table.go
package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/solana-research/internal/ui/style"
)

// TableColumn is a column of a Table. A zero Width shares the remaining space.
type TableColumn struct {
	Header string
	Width  int
	Align  lipgloss.Position
}

// CellStyler picks the style of a cell; returning false keeps the row style.
type CellStyler func(row, col int, value string) (lipgloss.Style, bool)

// Table renders report rows with a movable selection. Only the rows that fit
// the height are drawn; the window follows the selection.
type Table struct {
	columns  []TableColumn
	rows     [][]string
	width    int
	height   int
	selected int
	offset   int

	headerStyle   lipgloss.Style
	rowStyle      lipgloss.Style
	selectedStyle lipgloss.Style
	zebraStyle    lipgloss.Style
	borderStyle   lipgloss.Style

	cellStyler CellStyler
	zebra      bool
	selectable bool
}

// NewTable creates an empty table.
func NewTable(columns ...TableColumn) *Table {
	palette := style.DefaultPalette()

	return &Table{
		columns: columns,
		headerStyle: lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true).
			Padding(0, 1),
		rowStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().
			Foreground(palette.Background).
			Background(palette.Primary).
			Padding(0, 1),
		zebraStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Background(palette.BackgroundAlt).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted),
		selectable: true,
	}
}

// SetRows replaces the rows and keeps the selection in range.
func (t *Table) SetRows(rows [][]string) *Table {
	t.rows = rows
	if t.selected >= len(rows) {
		t.selected = max(len(rows)-1, 0)
	}
	t.clampOffset()
	return t
}

// SetSize sets the outer dimensions, border included.
func (t *Table) SetSize(width, height int) *Table {
	t.width = width
	t.height = height
	t.clampOffset()
	return t
}

// SetZebra toggles alternating row backgrounds.
func (t *Table) SetZebra(on bool) *Table {
	t.zebra = on
	return t
}

// SetSelectable turns the selection highlight on or off, for static output.
func (t *Table) SetSelectable(on bool) *Table {
	t.selectable = on
	return t
}

// SetCellStyler installs a per-cell style hook.
func (t *Table) SetCellStyler(fn CellStyler) *Table {
	t.cellStyler = fn
	return t
}

// Selected returns the selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the selected row, or nil on an empty table.
func (t *Table) SelectedRow() []string {
	if t.selected < 0 || t.selected >= len(t.rows) {
		return nil
	}
	return t.rows[t.selected]
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// MoveUp moves the selection up by n rows.
func (t *Table) MoveUp(n int) {
	t.selected = max(t.selected-n, 0)
	t.clampOffset()
}

// MoveDown moves the selection down by n rows.
func (t *Table) MoveDown(n int) {
	t.selected = min(t.selected+n, max(len(t.rows)-1, 0))
	t.clampOffset()
}

// visibleRows is the number of data rows that fit: the height minus the
// border, header and separator lines.
func (t *Table) visibleRows() int {
	if t.height <= 0 {
		return len(t.rows)
	}
	return max(t.height-4, 1)
}

func (t *Table) clampOffset() {
	n := t.visibleRows()
	if t.selected < t.offset {
		t.offset = t.selected
	}
	if t.selected >= t.offset+n {
		t.offset = t.selected - n + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// View renders the table.
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return ""
	}
	widths := t.columnWidths()

	var b strings.Builder
	for i, col := range t.columns {
		if i > 0 {
			b.WriteString("│")
		}
		b.WriteString(renderCell(col.Header, widths[i], col.Align, t.headerStyle))
	}
	b.WriteString("\n")
	for i := range t.columns {
		if i > 0 {
			b.WriteString("┼")
		}
		b.WriteString(strings.Repeat("─", widths[i]+2))
	}

	end := min(t.offset+t.visibleRows(), len(t.rows))
	for r := t.offset; r < end; r++ {
		b.WriteString("\n")
		rowStyle := t.rowStyle
		switch {
		case t.selectable && r == t.selected:
			rowStyle = t.selectedStyle
		case t.zebra && r%2 == 1:
			rowStyle = t.zebraStyle
		}

		for i, col := range t.columns {
			if i > 0 {
				b.WriteString("│")
			}
			var v string
			if i < len(t.rows[r]) {
				v = t.rows[r][i]
			}
			cellStyle := rowStyle
			if t.cellStyler != nil && (!t.selectable || r != t.selected) {
				if s, ok := t.cellStyler(r, i, v); ok {
					cellStyle = s.Padding(0, 1)
				}
			}
			b.WriteString(renderCell(v, widths[i], col.Align, cellStyle))
		}
	}

	return t.borderStyle.Render(b.String())
}

// renderCell truncates content to width runes and aligns it.
func renderCell(content string, width int, align lipgloss.Position, s lipgloss.Style) string {
	if r := []rune(content); len(r) > width {
		if width > 1 {
			content = string(r[:width-1]) + "…"
		} else {
			content = string(r[:width])
		}
	}
	return s.Width(width + 2).Align(align).Render(content)
}

// columnWidths resolves zero widths from the table width.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.columns))
	fixed, auto := 0, 0
	for i, col := range t.columns {
		widths[i] = col.Width
		if col.Width > 0 {
			fixed += col.Width + 2
		} else {
			auto++
		}
	}
	if auto == 0 {
		return widths
	}

	// Border takes 2 columns, separators one each.
	free := t.width - 2 - (len(t.columns) - 1) - fixed - auto*2
	each := 8
	if free > auto*each {
		each = free / auto
	}
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = each
		}
	}
	return widths
}
