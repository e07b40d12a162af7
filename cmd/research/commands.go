// cmd/research/commands.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/activity"
	"github.com/rovshanmuradov/solana-research/internal/batch"
	"github.com/rovshanmuradov/solana-research/internal/config"
	"github.com/rovshanmuradov/solana-research/internal/copytrade"
	"github.com/rovshanmuradov/solana-research/internal/export"
	"github.com/rovshanmuradov/solana-research/internal/filter"
	"github.com/rovshanmuradov/solana-research/internal/logger"
	"github.com/rovshanmuradov/solana-research/internal/position"
	"github.com/rovshanmuradov/solana-research/internal/research"
	"github.com/rovshanmuradov/solana-research/internal/roi"
	"github.com/rovshanmuradov/solana-research/internal/ui"
	"github.com/rovshanmuradov/solana-research/internal/ui/component"
	"github.com/rovshanmuradov/solana-research/internal/ui/style"
)

var errUsage = errors.New("usage")

type command func(ctx context.Context, cfg *config.Config, args []string) error

var commands = map[string]command{
	"balance":   runBalance,
	"history":   runHistory,
	"summary":   runSummary,
	"compare":   runCompare,
	"copytrade": runCopyTrade,
	"holders":   runHolders,
	"view":      runView,
	"filters":   runFilters,
}

// oneArg parses a subcommand's flags and returns its single positional argument.
func oneArg(fs *flag.FlagSet, args []string, what string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(fs.Output(), "usage: research %s [flags] <%s>\n", fs.Name(), what)
		fs.PrintDefaults()
		return "", errUsage
	}
	return fs.Arg(0), nil
}

func setup(ctx context.Context, cfg *config.Config, op string) (*app, error) {
	l, err := cliLogger(cfg, op)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, l)
}

func runBalance(ctx context.Context, cfg *config.Config, args []string) error {
	address, err := oneArg(flag.NewFlagSet("balance", flag.ContinueOnError), args, "address")
	if err != nil {
		return err
	}
	a, err := setup(ctx, cfg, "balance")
	if err != nil {
		return err
	}

	bal, err := a.svc.Balance(ctx, address)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %.9f SOL\n", address, bal)
	return nil
}

func runHistory(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 50, "rows to print")
	address, err := oneArg(fs, args, "address")
	if err != nil {
		return err
	}
	a, err := setup(ctx, cfg, "history")
	if err != nil {
		return err
	}

	moves, err := a.svc.History(ctx, address)
	if err != nil {
		return err
	}
	if len(moves) > *limit {
		moves = moves[:*limit]
	}

	rows := make([][]string, 0, len(moves))
	for _, m := range moves {
		rows = append(rows, []string{
			m.Timestamp.In(cfg.Location()).Format("2006-01-02 15:04:05"),
			string(m.Kind),
			m.TokenMint,
			fmt.Sprintf("%.6f", m.TokenAmount),
			m.Signature,
		})
	}
	printTable(os.Stdout, rows,
		component.TableColumn{Header: "Time", Width: 19},
		component.TableColumn{Header: "Kind", Width: 12},
		component.TableColumn{Header: "Token", Width: 44},
		component.TableColumn{Header: "Amount", Width: 16, Align: lipgloss.Right},
		component.TableColumn{Header: "Signature", Width: 20},
	)
	return nil
}

func runSummary(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	expr := fs.String("f", "", "filter expression, e.g. \"t:>5;30droip:>0\"")
	trades := fs.Bool("trades", false, "also export the classified trades")
	address, err := oneArg(fs, args, "address")
	if err != nil {
		return err
	}
	if flagSetEmpty(fs, "f") {
		printFilterHelp(os.Stdout)
	}

	a, err := setup(ctx, cfg, "summary")
	if err != nil {
		return err
	}

	rep, err := a.svc.Summarize(ctx, address, *expr)
	if err != nil {
		return err
	}

	printPeriods(os.Stdout, rep.Summary, a.svc.Periods())
	printRows(os.Stdout, rep)
	if rep.Activity != nil {
		fmt.Println(activity.FormatText(rep.Activity))
	}
	if rep.ReportPath != "" {
		fmt.Printf("Report: %s\nJSON:   %s\n", rep.ReportPath, rep.JSONPath)
	}

	if *trades && len(rep.Trades) > 0 {
		path, err := a.exporter.ExportTrades(rep.Trades, export.ExportOptions{
			Format: export.FormatCSV,
			Prefix: "trades_" + address[:8],
		})
		if err != nil {
			return err
		}
		fmt.Printf("Trades: %s\n", path)
	}
	return nil
}

// flagSetEmpty reports whether name was passed explicitly with an empty value.
func flagSetEmpty(fs *flag.FlagSet, name string) bool {
	empty := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name && strings.TrimSpace(f.Value.String()) == "" {
			empty = true
		}
	})
	return empty
}

func runCompare(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	walletsFile := fs.String("wallets", "", "YAML wallet list")
	sortBy := fs.String("sort", string(roi.DefaultSortKey), "roi24h, roi7d, roi30d, pnl30d, wr30d or invested30d")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := roi.ParseSortKey(*sortBy)
	if err != nil {
		return err
	}

	a, err := setup(ctx, cfg, "compare")
	if err != nil {
		return err
	}

	var jobs []batch.Job
	if *walletsFile != "" {
		wallets, err := config.LoadWallets(*walletsFile, a.logger)
		if err != nil {
			return err
		}
		for _, w := range wallets {
			jobs = append(jobs, batch.Job{Wallet: w.Address, Label: w.Label})
		}
	}
	for _, addr := range fs.Args() {
		jobs = append(jobs, batch.Job{Wallet: addr})
	}
	if len(jobs) == 0 {
		fmt.Fprintln(fs.Output(), "usage: research compare [-wallets file] [-sort key] [address...]")
		return errUsage
	}

	cmp, err := a.svc.Compare(ctx, jobs, key)
	if err != nil {
		return err
	}

	periods := a.svc.Periods()
	cols := []component.TableColumn{
		{Header: "#", Width: 3, Align: lipgloss.Right},
		{Header: "Wallet", Width: 44},
		{Header: "Label", Width: 12},
		{Header: "Trades", Width: 6, Align: lipgloss.Right},
	}
	for _, p := range periods {
		cols = append(cols, component.TableColumn{Header: p.Name + " ROI %", Width: 11, Align: lipgloss.Right})
	}
	rows := make([][]string, 0, len(cmp.Ranked))
	for i, s := range cmp.Ranked {
		row := []string{fmt.Sprintf("%d", i+1), s.Wallet, s.Label, fmt.Sprintf("%d", s.Trades)}
		for _, p := range periods {
			row = append(row, s.Period(p.Name).ROI.Format(2))
		}
		rows = append(rows, row)
	}
	printTable(os.Stdout, rows, cols...)

	for _, f := range cmp.Failed() {
		fmt.Printf("failed: %s: %v\n", f.Wallet, f.Err)
	}
	if cmp.Path != "" {
		fmt.Printf("Report: %s\n", cmp.Path)
	}
	return nil
}

func runCopyTrade(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("copytrade", flag.ContinueOnError)
	reverse := fs.Bool("reverse", false, "find wallets the target copies instead of its followers")
	window := fs.Duration("window", 0, "match window, overrides copytrade.window")
	address, err := oneArg(fs, args, "address")
	if err != nil {
		return err
	}
	if *window > 0 {
		cfg.CopyTrade.Window = *window
	}

	a, err := setup(ctx, cfg, "copytrade")
	if err != nil {
		return err
	}

	mode := copytrade.Forward
	if *reverse {
		mode = copytrade.Reverse
	}
	rep, err := a.svc.CopyTraders(ctx, address, mode)
	if err != nil {
		return err
	}

	fmt.Printf("%s mode, %d target buys, window %s\n", mode, len(rep.TargetBuys), cfg.CopyTrade.Window)
	rows := make([][]string, 0, len(rep.Candidates))
	for _, c := range rep.Candidates {
		rows = append(rows, []string{
			c.Wallet,
			fmt.Sprintf("%d", c.CopyCount),
			c.AvgDelay.Round(time.Second).String(),
			strings.Join(c.Tokens, ","),
		})
	}
	printTable(os.Stdout, rows,
		component.TableColumn{Header: "Wallet", Width: 44},
		component.TableColumn{Header: "Copies", Width: 6, Align: lipgloss.Right},
		component.TableColumn{Header: "Avg Delay", Width: 9, Align: lipgloss.Right},
		component.TableColumn{Header: "Tokens", Width: 40},
	)
	return nil
}

func runHolders(ctx context.Context, cfg *config.Config, args []string) error {
	mint, err := oneArg(flag.NewFlagSet("holders", flag.ContinueOnError), args, "mint")
	if err != nil {
		return err
	}
	a, err := setup(ctx, cfg, "holders")
	if err != nil {
		return err
	}

	rep, err := a.svc.Holders(ctx, mint)
	if err != nil {
		return err
	}

	d := rep.Distribution
	fmt.Printf("Mint:    %s\nSupply:  %s\nHolders: %d\n", rep.Mint, rep.Supply.Format(0), d.Holders)
	fmt.Printf("Top 1: %s%%  Top 10: %s%%  Top 20: %s%%\n", d.Top1.Format(2), d.Top10.Format(2), d.Top20.Format(2))
	fmt.Printf("HHI: %s  Gini: %s\n", d.HHI.Format(1), d.Gini.Format(3))

	rows := make([][]string, 0, len(rep.Top))
	for _, h := range rep.Top {
		share := "N/A"
		if rep.Supply.OK && rep.Supply.Value > 0 {
			share = fmt.Sprintf("%.2f", h.Amount/rep.Supply.Value*100)
		}
		rows = append(rows, []string{fmt.Sprintf("%d", h.Rank), h.Owner, fmt.Sprintf("%.2f", h.Amount), share})
	}
	printTable(os.Stdout, rows,
		component.TableColumn{Header: "#", Width: 3, Align: lipgloss.Right},
		component.TableColumn{Header: "Owner", Width: 44},
		component.TableColumn{Header: "Amount", Width: 20, Align: lipgloss.Right},
		component.TableColumn{Header: "Share %", Width: 8, Align: lipgloss.Right},
	)
	return nil
}

func runView(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	expr := fs.String("f", "", "filter expression")
	address, err := oneArg(fs, args, "address")
	if err != nil {
		return err
	}
	if _, err := filter.Parse(*expr); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Storage.LogDir, 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	buf, err := logger.NewLogBuffer(1000, filepath.Join(cfg.Storage.LogDir, "viewer.log"), zap.NewNop())
	if err != nil {
		return err
	}
	defer buf.Close()

	l, err := logger.CreateTUILoggerWithBuffer(cfg.DebugLogging, buf)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger.WithOperation(l, "view"))
	if err != nil {
		return err
	}

	return ui.Run(ctx, address, func(ctx context.Context) (*research.WalletReport, error) {
		return a.svc.Summarize(ctx, address, *expr)
	}, buf)
}

func runFilters(context.Context, *config.Config, []string) error {
	printFilterHelp(os.Stdout)
	return nil
}

func printFilterHelp(w io.Writer) {
	h := filter.Usage()
	title := style.DefaultPalette().Title()

	fmt.Fprintln(w, title.Render("Filter keys"))
	for _, e := range h.Keys {
		fmt.Fprintf(w, "  %-8s %s\n", e.Name, e.Description)
	}
	fmt.Fprintln(w, title.Render("Operators"))
	for _, e := range h.Operators {
		fmt.Fprintf(w, "  %-8s %s\n", e.Name, e.Description)
	}
	fmt.Fprintln(w, title.Render("Examples"))
	for _, e := range h.Examples {
		fmt.Fprintf(w, "  %-24s %s\n", e.Name, e.Description)
	}
}

func printTable(w io.Writer, rows [][]string, cols ...component.TableColumn) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	fmt.Fprintln(w, component.NewTable(cols...).SetSelectable(false).SetRows(rows).View())
}

func printPeriods(w io.Writer, s roi.WalletSummary, periods []roi.Period) {
	rows := make([][]string, 0, len(periods))
	for _, p := range periods {
		ps := s.Period(p.Name)
		rows = append(rows, []string{
			p.Name,
			fmt.Sprintf("%.4f", ps.Invested),
			fmt.Sprintf("%.4f", ps.Received),
			fmt.Sprintf("%.4f", ps.RealizedPnL),
			ps.ROI.Format(2),
			ps.WinRate.Format(1),
			ps.MedianROI.Format(2),
			ps.ROIStdDev.Format(2),
			fmt.Sprintf("%d", ps.Tokens),
		})
	}
	printTable(w, rows,
		component.TableColumn{Header: "Period", Width: 6},
		component.TableColumn{Header: "Invested", Width: 10, Align: lipgloss.Right},
		component.TableColumn{Header: "Received", Width: 10, Align: lipgloss.Right},
		component.TableColumn{Header: "PnL", Width: 10, Align: lipgloss.Right},
		component.TableColumn{Header: "ROI %", Width: 8, Align: lipgloss.Right},
		component.TableColumn{Header: "Win %", Width: 6, Align: lipgloss.Right},
		component.TableColumn{Header: "Med ROI %", Width: 9, Align: lipgloss.Right},
		component.TableColumn{Header: "ROI SD", Width: 8, Align: lipgloss.Right},
		component.TableColumn{Header: "Tokens", Width: 6, Align: lipgloss.Right},
	)
}

func printRows(w io.Writer, rep *research.WalletReport) {
	status := fmt.Sprintf("%d of %d tokens", len(rep.Rows), rep.AllRows)
	if !rep.Filter.IsEmpty() {
		status += " matching " + rep.Filter.String()
	}
	fmt.Fprintln(w, status)

	cols := []component.TableColumn{{Header: "Token", Width: 12}}
	for _, k := range position.MetricKeys {
		cols = append(cols, component.TableColumn{Header: k, Width: 9, Align: lipgloss.Right})
	}
	rows := make([][]string, 0, len(rep.Rows))
	for _, r := range rep.Rows {
		row := []string{r.TokenMint}
		for _, f := range r.Ordered() {
			row = append(row, f.Value.Format(2))
		}
		rows = append(rows, row)
	}
	printTable(w, rows, cols...)
}
