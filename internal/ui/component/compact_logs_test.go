package component

import (
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/solana-research/internal/logger"
)

func TestLogPaneHidesDebugUntilToggled(t *testing.T) {
	buf, err := logger.NewLogBuffer(20, filepath.Join(t.TempDir(), "pane.log"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewLogBuffer: %v", err)
	}
	defer buf.Close()

	_ = buf.Add(zapcore.InfoLevel, "Fetched swaps", map[string]interface{}{"wallet": "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"})
	_ = buf.Add(zapcore.DebugLevel, "Retrying request", nil)

	pane := NewLogPane(buf)
	pane.SetSize(100, 10)
	pane.Refresh()
	view := pane.View()
	if !strings.Contains(view, "Fetched swaps") || !strings.Contains(view, "675k…1Mp8") {
		t.Errorf("info entry missing:\n%s", view)
	}
	if strings.Contains(view, "Retrying request") {
		t.Errorf("debug entry shown without toggle:\n%s", view)
	}

	pane.ToggleDebug()
	pane.Refresh()
	if view := pane.View(); !strings.Contains(view, "Retrying request") || !strings.Contains(view, "(debug)") {
		t.Errorf("debug entry missing after toggle:\n%s", view)
	}
}

func TestLogPaneWithoutBuffer(t *testing.T) {
	pane := NewLogPane(nil)
	pane.Refresh()
	if !strings.Contains(pane.View(), "No log buffer") {
		t.Error("expected placeholder")
	}
}
