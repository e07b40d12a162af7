// internal/logger/pretty.go
package logger

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	levelStyles = map[zapcore.Level]lipgloss.Style{
		zapcore.DebugLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		zapcore.InfoLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		zapcore.WarnLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		zapcore.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		zapcore.FatalLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}

	fetchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	peerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// consoleFields holds the encoded fields of one entry by key.
type consoleFields map[string]interface{}

func (f consoleFields) get(key string) string {
	v, ok := f[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

func (f consoleFields) wallet() string {
	return shortenAddress(f.get("wallet"))
}

type consoleRule struct {
	style  lipgloss.Style
	render func(f consoleFields) string
}

// consoleRules rewrites the messages a user follows on the console. Other
// messages pass through unchanged.
var consoleRules = map[string]consoleRule{
	"Fetched swaps": {fetchStyle, func(f consoleFields) string {
		return fmt.Sprintf("📥 Fetched %s swaps for %s", f.get("count"), f.wallet())
	}},
	"Loaded cache": {fetchStyle, func(f consoleFields) string {
		return fmt.Sprintf("📂 Loaded %s cached swaps", f.get("count"))
	}},
	"Classified transactions": {infoStyle, func(f consoleFields) string {
		return fmt.Sprintf("🔎 %s of %s transactions are trades", f.get("trades"), f.get("seen"))
	}},
	"Report written": {okStyle, func(f consoleFields) string {
		return "✅ Report written: " + f.get("path")
	}},
	"Wallet processed": {okStyle, func(f consoleFields) string {
		return fmt.Sprintf("✓ %s done", f.wallet())
	}},
	"Wallet failed": {failStyle, func(f consoleFields) string {
		return fmt.Sprintf("✗ %s: %s", f.wallet(), f.get("error"))
	}},
	"Copy traders found": {peerStyle, func(f consoleFields) string {
		return fmt.Sprintf("👥 %s copy-trade candidates", f.get("count"))
	}},
}

func encodeFields(fields []zap.Field) consoleFields {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}
	return enc.Fields
}

// FormatMessage returns the console text for msg.
func FormatMessage(msg string, fields ...zap.Field) string {
	rule, ok := consoleRules[msg]
	if !ok {
		return msg
	}
	return rule.style.Render(rule.render(encodeFields(fields)))
}

func shortenAddress(addr string) string {
	if len(addr) > 8 {
		return addr[:4] + "..." + addr[len(addr)-4:]
	}
	return addr
}

func encodeConsoleLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	tag := "[" + level.CapitalString() + "]"
	if style, ok := levelStyles[level]; ok {
		tag = style.Render(tag)
	}
	enc.AppendString(tag)
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeConsoleLevel,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}

func levelFor(debug bool) zapcore.Level {
	if debug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// consoleCore rewrites known messages and drops structured fields unless
// debug is set. Context fields still feed the rewritten messages.
type consoleCore struct {
	zapcore.Core
	context []zapcore.Field
	debug   bool
}

func newConsoleCore(w io.Writer, debug bool) zapcore.Core {
	return &consoleCore{
		Core:  zapcore.NewCore(consoleEncoder(), zapcore.Lock(zapcore.AddSync(w)), levelFor(debug)),
		debug: debug,
	}
}

func (c *consoleCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &consoleCore{Core: c.Core, debug: c.debug}
	clone.context = append(append([]zapcore.Field(nil), c.context...), fields...)
	if c.debug {
		clone.Core = c.Core.With(fields)
	}
	return clone
}

func (c *consoleCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *consoleCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	all := append(append([]zapcore.Field(nil), c.context...), fields...)
	entry.Message = FormatMessage(entry.Message, all...)
	if !c.debug {
		fields = nil
	}
	return c.Core.Write(entry, fields)
}

// CreateTUILoggerWithBuffer returns a logger that writes JSON into buffer
// only. The terminal belongs to the viewer.
func CreateTUILoggerWithBuffer(debug bool, buffer *LogBuffer) (*zap.Logger, error) {
	if buffer == nil {
		return nil, fmt.Errorf("buffer is required for TUI logger")
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			TimeKey:        "time",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}),
		zapcore.AddSync(buffer),
		levelFor(debug),
	)
	return zap.New(core), nil
}
