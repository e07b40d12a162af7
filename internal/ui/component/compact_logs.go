// internal/ui/component/compact_logs.go
package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/solana-research/internal/logger"
	"github.com/rovshanmuradov/solana-research/internal/ui/style"
)

const logPaneEntries = 200

// LogPane shows the latest entries of a LogBuffer in a scrollable viewport.
type LogPane struct {
	buffer    *logger.LogBuffer
	viewport  viewport.Model
	showDebug bool

	title     lipgloss.Style
	timestamp lipgloss.Style
	wallet    lipgloss.Style
	levels    map[zapcore.Level]lipgloss.Style
}

// NewLogPane creates a pane over buffer. A nil buffer renders a placeholder.
func NewLogPane(buffer *logger.LogBuffer) *LogPane {
	palette := style.DefaultPalette()

	return &LogPane{
		buffer:    buffer,
		viewport:  viewport.New(80, 10),
		title:     palette.Title(),
		timestamp: lipgloss.NewStyle().Foreground(palette.TextMuted),
		wallet:    lipgloss.NewStyle().Foreground(palette.Secondary),
		levels: map[zapcore.Level]lipgloss.Style{
			zapcore.ErrorLevel: lipgloss.NewStyle().Foreground(palette.Loss).Bold(true),
			zapcore.WarnLevel:  lipgloss.NewStyle().Foreground(palette.Warning).Bold(true),
			zapcore.InfoLevel:  lipgloss.NewStyle().Foreground(palette.Info),
			zapcore.DebugLevel: lipgloss.NewStyle().Foreground(palette.TextMuted),
		},
	}
}

// SetSize sets the pane dimensions; one line goes to the title.
func (p *LogPane) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = max(height-1, 1)
}

// ToggleDebug shows or hides debug entries.
func (p *LogPane) ToggleDebug() {
	p.showDebug = !p.showDebug
}

// Refresh reloads the buffer and scrolls to the newest entry.
func (p *LogPane) Refresh() {
	if p.buffer == nil {
		p.viewport.SetContent("No log buffer")
		return
	}

	atLeast := zapcore.InfoLevel
	if p.showDebug {
		atLeast = zapcore.DebugLevel
	}

	var lines []string
	for _, e := range p.buffer.Recent(logPaneEntries, atLeast) {
		msg := e.Message
		if s, ok := p.levels[e.Level]; ok {
			msg = s.Render(msg)
		} else if e.Level > zapcore.ErrorLevel {
			msg = p.levels[zapcore.ErrorLevel].Render(msg)
		}
		line := p.timestamp.Render(e.Time.Format("15:04:05")) + " "
		if e.Wallet != "" {
			line += p.wallet.Render(shortWallet(e.Wallet)) + " "
		}
		lines = append(lines, line+msg)
	}

	if len(lines) == 0 {
		p.viewport.SetContent("No log entries")
		return
	}
	p.viewport.SetContent(strings.Join(lines, "\n"))
	p.viewport.GotoBottom()
}

func shortWallet(w string) string {
	if len(w) <= 8 {
		return w
	}
	return fmt.Sprintf("%s…%s", w[:4], w[len(w)-4:])
}

// Scroll moves the view by n lines; negative scrolls up.
func (p *LogPane) Scroll(n int) {
	if n < 0 {
		p.viewport.LineUp(-n)
		return
	}
	p.viewport.LineDown(n)
}

// View renders the pane.
func (p *LogPane) View() string {
	title := "Logs"
	if p.showDebug {
		title += " (debug)"
	}
	return lipgloss.JoinVertical(lipgloss.Left, p.title.Render(title), p.viewport.View())
}
