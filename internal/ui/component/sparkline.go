// internal/ui/component/sparkline.go
package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/solana-research/internal/ui/style"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline draws a series as a one-line bar graph. Series longer than the
// width are resampled to the last point of each bucket.
type Sparkline struct {
	data    []float64
	width   int
	palette style.Palette
	label   string
}

// NewSparkline creates a sparkline of the given width.
func NewSparkline(width int) *Sparkline {
	return &Sparkline{width: max(width, 1), palette: style.DefaultPalette()}
}

// SetData replaces the series.
func (s *Sparkline) SetData(data []float64) *Sparkline {
	s.data = append(s.data[:0], data...)
	return s
}

// SetWidth sets the number of columns.
func (s *Sparkline) SetWidth(width int) *Sparkline {
	s.width = max(width, 1)
	return s
}

// SetLabel sets the text shown before the graph.
func (s *Sparkline) SetLabel(label string) *Sparkline {
	s.label = label
	return s
}

// Points returns the series after resampling to the width.
func (s *Sparkline) Points() []float64 {
	if len(s.data) <= s.width {
		return s.data
	}
	out := make([]float64, s.width)
	for i := range out {
		// last point of bucket i
		idx := (i+1)*len(s.data)/s.width - 1
		out[i] = s.data[idx]
	}
	return out
}

// Blocks returns the unstyled graph.
func (s *Sparkline) Blocks() string {
	pts := s.Points()
	if len(pts) == 0 {
		return strings.Repeat(string(sparkChars[0]), s.width)
	}

	lo, hi := pts[0], pts[0]
	for _, v := range pts {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	for _, v := range pts {
		idx := len(sparkChars) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkChars)-1))
		}
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// Trend is the arrow for the change from the first to the last point.
func (s *Sparkline) Trend() string {
	if len(s.data) < 2 {
		return "→"
	}
	switch first, last := s.data[0], s.data[len(s.data)-1]; {
	case last > first:
		return "↗"
	case last < first:
		return "↘"
	default:
		return "→"
	}
}

// View renders the label, the graph colored by the sign of the last value,
// the trend arrow and the last value.
func (s *Sparkline) View() string {
	last := 0.0
	if len(s.data) > 0 {
		last = s.data[len(s.data)-1]
	}
	color := s.palette.PnL(last)

	parts := []string{}
	if s.label != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(s.palette.TextSecondary).Render(s.label))
	}
	parts = append(parts,
		color.Render(s.Blocks()),
		color.Render(fmt.Sprintf("%s %+.4f", s.Trend(), last)))
	return strings.Join(parts, " ")
}
