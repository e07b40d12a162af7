// internal/ui/style/palette.go
package style

import "github.com/charmbracelet/lipgloss"

// Colors used across the viewer.
var (
	Cyan    = lipgloss.Color("#00E5FF")
	Magenta = lipgloss.Color("#FF1B6B")
	Yellow  = lipgloss.Color("#FFB500")
	Green   = lipgloss.Color("#2AFFAA")
	Red     = lipgloss.Color("#FF5555")
	Blue    = lipgloss.Color("#3B82F6")

	Base03 = lipgloss.Color("#1B1D23")
	Base02 = lipgloss.Color("#262831")
	Base01 = lipgloss.Color("#6C7280")
	Base2  = lipgloss.Color("#ECEFF4")
	Base1  = lipgloss.Color("#B4BCC8")
)

// Palette groups the colors by role.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Warning   lipgloss.Color
	Info      lipgloss.Color

	Background    lipgloss.Color
	BackgroundAlt lipgloss.Color
	Text          lipgloss.Color
	TextMuted     lipgloss.Color
	TextSecondary lipgloss.Color

	Profit lipgloss.Color
	Loss   lipgloss.Color
}

// DefaultPalette returns the dark palette.
func DefaultPalette() Palette {
	return Palette{
		Primary:   Cyan,
		Secondary: Magenta,
		Warning:   Yellow,
		Info:      Blue,

		Background:    Base03,
		BackgroundAlt: Base02,
		Text:          Base2,
		TextMuted:     Base01,
		TextSecondary: Base1,

		Profit: Green,
		Loss:   Red,
	}
}

// PnL colors a signed value: green above zero, red below, muted at zero.
func (p Palette) PnL(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return lipgloss.NewStyle().Foreground(p.Profit)
	case v < 0:
		return lipgloss.NewStyle().Foreground(p.Loss)
	default:
		return lipgloss.NewStyle().Foreground(p.TextMuted)
	}
}

// Title is the style of pane titles.
func (p Palette) Title() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
}

// Tab renders a tab label, highlighted when active.
func (p Palette) Tab(label string, active bool) string {
	s := lipgloss.NewStyle().Padding(0, 2)
	if active {
		s = s.Foreground(p.Background).Background(p.Primary).Bold(true)
	} else {
		s = s.Foreground(p.TextSecondary)
	}
	return s.Render(label)
}
