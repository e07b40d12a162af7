// cmd/research/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/config"
	"github.com/rovshanmuradov/solana-research/internal/logger"
)

const usage = `Usage: research [global flags] <command> [flags] [args]

Commands:
  balance <address>                  SOL balance
  history <address>                  SOL and token transfers
  summary <address> [-f expr]        per-token trading report
  compare [-wallets file] [addr...]  rank wallets by ROI
  copytrade <address> [-reverse]     wallets buying the same tokens in lockstep
  holders <mint>                     holder distribution of a token
  view <address> [-f expr]           interactive report viewer
  filters                            filter expression help

Global flags:
`

type globalFlags struct {
	configPath   string
	cacheOnly    bool
	noTokenValue bool
	debug        bool
	metricsAddr  string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var g globalFlags
	fs := flag.NewFlagSet("research", flag.ContinueOnError)
	fs.StringVar(&g.configPath, "config", "", "config file (yaml or json)")
	fs.BoolVar(&g.cacheOnly, "cache-only", false, "serve trades from the local cache only")
	fs.BoolVar(&g.noTokenValue, "no-token-value", false, "skip current token price lookups")
	fs.BoolVar(&g.debug, "debug", false, "debug logging")
	fs.StringVar(&g.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		fs.Usage()
		return 2
	}

	if name == "filters" {
		_ = runFilters(context.Background(), nil, rest)
		return 0
	}

	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	cfg.CacheOnly = cfg.CacheOnly || g.cacheOnly
	cfg.NoTokenValue = cfg.NoTokenValue || g.noTokenValue
	if g.metricsAddr != "" {
		cfg.MetricsAddr = g.metricsAddr
	}
	if g.debug {
		cfg.DebugLogging = true
		cfg.Log.Debug = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, cfg, rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if errors.Is(err, errUsage) {
			return 2
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return 1
	}
	return 0
}

// cliLogger builds the console logger of a command.
func cliLogger(cfg *config.Config, op string) (*zap.Logger, error) {
	l, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return logger.WithOperation(l, op), nil
}
