// internal/config/wallets.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rovshanmuradov/solana-research/internal/blockchain/solana"
)

// Wallet is one entry of a wallet list file.
type Wallet struct {
	Address string `yaml:"address"`
	Label   string `yaml:"label"`
}

// WalletList represents the structure of a wallets YAML file
type WalletList struct {
	Wallets []Wallet `yaml:"wallets"`
}

// LoadWallets reads a wallet list. Rows with an empty or malformed address and
// repeated addresses are skipped with a warning.
func LoadWallets(path string, logger *zap.Logger) ([]Wallet, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var list WalletList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]struct{}, len(list.Wallets))
	out := make([]Wallet, 0, len(list.Wallets))
	for i, w := range list.Wallets {
		w.Address = strings.TrimSpace(w.Address)
		if _, err := solana.ParseAddress(w.Address); err != nil {
			logger.Warn("Skipping invalid wallet",
				zap.Int("index", i),
				zap.String("address", w.Address),
				zap.Error(err))
			continue
		}
		if _, dup := seen[w.Address]; dup {
			logger.Warn("Skipping duplicate wallet", zap.String("address", w.Address))
			continue
		}
		seen[w.Address] = struct{}{}
		out = append(out, w)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no valid wallets in %s", path)
	}
	return out, nil
}
