// internal/activity/format.go
package activity

import (
	"fmt"
	"strings"
	"time"
)

var weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func notes(r *Report) []string {
	var out []string
	if pct := r.Risk.MaxDrawdownPercent; pct.OK && pct.Value > 20 {
		out = append(out, fmt.Sprintf("🚨 Drawdown reached %.1f%% of peak realized P&L", pct.Value))
	}
	if r.Risk.LongestLossStreak > 5 {
		out = append(out, fmt.Sprintf("⚠️ Losing streak of %d sells", r.Risk.LongestLossStreak))
	}
	t := r.Time
	if t.MostProfitableHour >= 0 && t.MostActiveHour >= 0 && t.MostProfitableHour != t.MostActiveHour {
		out = append(out, fmt.Sprintf("💡 Most profitable hour (%02d:00) differs from most active hour (%02d:00)",
			t.MostProfitableHour, t.MostActiveHour))
	}
	if r.Overview.ActiveTokens < 5 && r.Overview.Buys+r.Overview.Sells > 20 {
		out = append(out, "📊 Trades concentrate on fewer than 5 tokens")
	}
	return out
}

// FormatDuration renders d compactly, e.g. 45s, 12m, 3h5m, 2d4h.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd%dh", int(d.Hours()/24), int(d.Hours())%24)
}

// FormatText renders the report as plain text.
func FormatText(r *Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📊 Activity of %s\n", r.Wallet)
	if !r.Start.IsZero() {
		fmt.Fprintf(&sb, "Period: %s - %s\n", r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	o := r.Overview
	sb.WriteString("📈 Overview\n")
	fmt.Fprintf(&sb, "• Buys/Sells: %d/%d\n", o.Buys, o.Sells)
	fmt.Fprintf(&sb, "• Volume: %.4f SOL\n", o.Volume)
	fmt.Fprintf(&sb, "• Realized P&L: %.4f SOL\n", o.RealizedPnL)
	fmt.Fprintf(&sb, "• Tokens: %d\n", o.ActiveTokens)
	fmt.Fprintf(&sb, "• Profit Factor: %s\n", o.ProfitFactor.Format(2))
	if o.AvgHoldTime.OK {
		fmt.Fprintf(&sb, "• Avg Hold Time: %s\n", FormatDuration(time.Duration(o.AvgHoldTime.Value*float64(time.Second))))
	}
	sb.WriteString("\n")

	sb.WriteString("⚠️ Risk\n")
	fmt.Fprintf(&sb, "• Max Drawdown: %.4f SOL (%s%%)\n", r.Risk.MaxDrawdown, r.Risk.MaxDrawdownPercent.Format(1))
	fmt.Fprintf(&sb, "• Win/Loss Streak: %d/%d\n", r.Risk.LongestWinStreak, r.Risk.LongestLossStreak)
	fmt.Fprintf(&sb, "• Sharpe Ratio: %s\n\n", r.Risk.SharpeRatio.Format(2))

	if len(r.Tokens) > 0 {
		sb.WriteString("🏆 Top Tokens\n")
		for i, t := range r.Tokens {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&sb, "%d. %s: %.4f SOL (%s%%)\n", i+1, t.TokenMint, t.PnL, t.ROI.Format(1))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("🕐 Activity (weekday × hour)\n")
	sb.WriteString(FormatHeatmap(r.Time.Heatmap))

	if len(r.Notes) > 0 {
		sb.WriteString("\n💡 Notes\n")
		for _, n := range r.Notes {
			fmt.Fprintf(&sb, "• %s\n", n)
		}
	}
	return sb.String()
}

// FormatHeatmap renders the grid with one row per weekday.
func FormatHeatmap(grid [7][24]int) string {
	var sb strings.Builder
	sb.WriteString("    ")
	for h := 0; h < 24; h++ {
		fmt.Fprintf(&sb, "%3d", h)
	}
	sb.WriteString("\n")
	for d := range grid {
		sb.WriteString(weekdays[d] + " ")
		for _, n := range grid[d] {
			if n == 0 {
				sb.WriteString("  .")
				continue
			}
			fmt.Fprintf(&sb, "%3d", n)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
