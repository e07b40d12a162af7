// internal/ui/msg.go
package ui

import (
	"time"

	"github.com/rovshanmuradov/solana-research/internal/research"
)

// reportMsg carries the result of a load.
type reportMsg struct {
	report *research.WalletReport
	err    error
}

// logTickMsg refreshes the log pane.
type logTickMsg time.Time
