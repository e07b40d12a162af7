package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-research/internal/fees"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// chdir isolates the test from a .env in the working directory.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, fees.DefaultConfig(), cfg.Fees)
	assert.Equal(t, []string{DefaultRPC}, cfg.RPCList)
	assert.Equal(t, 100, cfg.Solscan.PageSize)
	assert.Equal(t, 60, cfg.Solscan.HorizonDays)
	assert.Equal(t, 30*time.Second, cfg.CopyTrade.Window)
	assert.Equal(t, 10, cfg.CopyTrade.FirstN)
	assert.Equal(t, DefaultCacheDir, cfg.Storage.CacheDir)
	assert.Equal(t, DefaultReportDir, cfg.Storage.ReportDir)
	assert.Equal(t, 60*time.Second, cfg.Price.CacheTTL)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := writeFile(t, dir, "config.yaml", `
rpc_list:
  - https://rpc.one
workers: 8
debug_logging: true
fees:
  buy_fixed: 0.001
copytrade:
  window: 45s
solscan:
  horizon_days: 30
`)
	t.Setenv("SELL_PERCENT_FEE", "0.05")
	t.Setenv("SOLANA_RESEARCH_CACHE_ONLY", "true")
	t.Setenv("SOLANA_RESEARCH_RPC_LIST", "https://a.example, https://b.example ,")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.InDelta(t, 0.001, cfg.Fees.BuyFixed, 1e-12)
	assert.InDelta(t, fees.DefaultBuyPercent, cfg.Fees.BuyPercent, 1e-12)
	assert.InDelta(t, 0.05, cfg.Fees.SellPercent, 1e-12, "legacy variable")
	assert.Equal(t, 45*time.Second, cfg.CopyTrade.Window)
	assert.Equal(t, 30, cfg.Solscan.HorizonDays)
	assert.True(t, cfg.CacheOnly)
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.RPCList)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, ".env", "BUY_FIXED_FEE=0.004\nPROXY_ENABLED=True\nPROXY_URL=http://127.0.0.1:8080\n")
	t.Cleanup(func() {
		os.Unsetenv("BUY_FIXED_FEE")
		os.Unsetenv("PROXY_ENABLED")
		os.Unsetenv("PROXY_URL")
	})

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.InDelta(t, 0.004, cfg.Fees.BuyFixed, 1e-12)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Solscan.ProxyURL)
}

func TestValidateConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	tests := []struct {
		name string
		yaml string
	}{
		{"bad rpc scheme", "rpc_list: [\"ws://node\"]"},
		{"negative fee", "fees:\n  sell_fixed: -1"},
		{"zero workers", "workers: 0"},
		{"zero window", "copytrade:\n  window: 0s"},
		{"bad timezone", "timezone: Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.yaml", tt.yaml)
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadWallets(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wallets.yaml", `
wallets:
  - address: 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM
    label: alpha
  - address: not-a-wallet
  - address: ""
  - address: " 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM "
  - address: EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
`)

	wallets, err := LoadWallets(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "alpha", wallets[0].Label)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", wallets[1].Address)

	empty := writeFile(t, dir, "empty.yaml", "wallets: []\n")
	_, err = LoadWallets(empty, zap.NewNop())
	assert.Error(t, err)

	_, err = LoadWallets(filepath.Join(dir, "missing.yaml"), zap.NewNop())
	assert.Error(t, err)
}
