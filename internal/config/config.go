// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/solana-research/internal/copytrade"
	"github.com/rovshanmuradov/solana-research/internal/fees"
	"github.com/rovshanmuradov/solana-research/internal/logger"
	"github.com/rovshanmuradov/solana-research/internal/price"
	"github.com/rovshanmuradov/solana-research/internal/solscan"
)

const EnvPrefix = "SOLANA_RESEARCH"

type StorageConfig struct {
	CacheDir  string `mapstructure:"cache_dir"`
	ReportDir string `mapstructure:"report_dir"`
	LogDir    string `mapstructure:"log_dir"`
}

type Config struct {
	RPCList      []string         `mapstructure:"rpc_list"`
	Fees         fees.Config      `mapstructure:"fees"`
	Solscan      solscan.Config   `mapstructure:"solscan"`
	Price        price.Config     `mapstructure:"price"`
	Storage      StorageConfig    `mapstructure:"storage"`
	CopyTrade    copytrade.Config `mapstructure:"copytrade"`
	Log          logger.Config    `mapstructure:"log"`
	Workers      int              `mapstructure:"workers"`
	Timezone     string           `mapstructure:"timezone"`
	DebugLogging bool             `mapstructure:"debug_logging"`
	CacheOnly    bool             `mapstructure:"cache_only"`
	NoTokenValue bool             `mapstructure:"no_token_value"`
	// MetricsAddr serves Prometheus metrics when set, e.g. ":9102".
	MetricsAddr string `mapstructure:"metrics_addr"`
}

const (
	DefaultWorkers   = 4
	DefaultCacheDir  = "dex_activity"
	DefaultReportDir = "reports"
	DefaultLogDir    = "logs"
	DefaultRPC       = "https://api.mainnet-beta.solana.com"
)

func defaults() map[string]interface{} {
	f := fees.DefaultConfig()
	s := solscan.DefaultConfig()
	p := price.DefaultConfig()
	c := copytrade.DefaultConfig()
	l := logger.DefaultConfig()

	return map[string]interface{}{
		"rpc_list":       []string{DefaultRPC},
		"workers":        DefaultWorkers,
		"timezone":       "UTC",
		"debug_logging":  false,
		"cache_only":     false,
		"no_token_value": false,
		"metrics_addr":   "",

		"fees.buy_fixed":    f.BuyFixed,
		"fees.buy_percent":  f.BuyPercent,
		"fees.sell_fixed":   f.SellFixed,
		"fees.sell_percent": f.SellPercent,

		"solscan.base_url":     s.BaseURL,
		"solscan.auth_token":   "",
		"solscan.page_size":    s.PageSize,
		"solscan.max_pages":    s.MaxPages,
		"solscan.horizon_days": s.HorizonDays,
		"solscan.retries":      s.Retries,
		"solscan.retry_delay":  s.RetryDelay,
		"solscan.timeout":      s.Timeout,
		"solscan.proxy_url":    "",

		"price.base_url":  p.BaseURL,
		"price.cache_ttl": p.CacheTTL,
		"price.retries":   p.Retries,
		"price.timeout":   p.Timeout,
		"price.sol_mint":  p.SOLMint,
		"price.supply":    p.Supply,

		"storage.cache_dir":  DefaultCacheDir,
		"storage.report_dir": DefaultReportDir,
		"storage.log_dir":    DefaultLogDir,

		"copytrade.window":    c.Window,
		"copytrade.first_n":   c.FirstN,
		"copytrade.min_count": c.MinCount,

		"log.file":        "",
		"log.max_size":    l.MaxSize,
		"log.max_age":     l.MaxAge,
		"log.max_backups": l.MaxBackups,
		"log.compress":    l.Compress,
	}
}

// legacyEnv maps config keys to the un-prefixed variables older .env files use.
var legacyEnv = map[string]string{
	"fees.buy_fixed":     "BUY_FIXED_FEE",
	"fees.buy_percent":   "BUY_PERCENT_FEE",
	"fees.sell_fixed":    "SELL_FIXED_FEE",
	"fees.sell_percent":  "SELL_PERCENT_FEE",
	"solscan.auth_token": "SOLSCAN_AUTH_TOKEN",
}

// LoadConfig reads .env, the optional config file at path and the environment.
// An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := bindEnvironment(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func bindEnvironment(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		var cleanRPCs []string
		for _, rpc := range strings.Split(envRPCList, ",") {
			if clean := strings.TrimSpace(rpc); clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}

	// PROXY_ENABLED=True with PROXY_URL
	if cfg.Solscan.ProxyURL == "" && strings.EqualFold(os.Getenv("PROXY_ENABLED"), "true") {
		cfg.Solscan.ProxyURL = os.Getenv("PROXY_URL")
	}

	cfg.Log.Debug = cfg.DebugLogging
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if err := validateURLWithCache(cfg.Solscan.BaseURL, "http"); err != nil {
		return errors.New("invalid solscan base_url")
	}
	if cfg.Solscan.ProxyURL != "" {
		if err := validateURLWithCache(cfg.Solscan.ProxyURL, "http"); err != nil {
			return errors.New("invalid proxy URL")
		}
	}
	if err := cfg.Fees.Validate(); err != nil {
		return err
	}
	if err := cfg.CopyTrade.Validate(); err != nil {
		return err
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q", cfg.Timezone)
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.Workers <= 0 {
		return errors.New("invalid workers count")
	}
	if cfg.Solscan.PageSize <= 0 || cfg.Solscan.MaxPages <= 0 {
		return errors.New("invalid solscan paging")
	}
	if cfg.Solscan.HorizonDays <= 0 {
		return errors.New("invalid solscan horizon_days")
	}
	if cfg.Solscan.Retries < 0 || cfg.Price.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.Price.Supply < 0 {
		return errors.New("invalid price supply")
	}
	return nil
}

// Location returns the configured time zone for time-of-day analytics.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}
