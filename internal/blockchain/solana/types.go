// internal/blockchain/solana/types.go
package solana

import (
	"context"
	"time"
)

const (
	maxRetries     = 3
	retryDelay     = 500 * time.Millisecond
	defaultTimeout = 10 * time.Second
	// Сколько узел остается выключенным после ошибки
	cooldown = 30 * time.Second
)

// ChainReader описывает чтение данных из сети, нужное для отчетов
type ChainReader interface {
	GetBalance(ctx context.Context, address string) (float64, error)
	TokenSupply(ctx context.Context, mint string) (float64, error)
}

// EndpointStats снимок метрик узла
type EndpointStats struct {
	URL       string
	Active    bool
	Successes uint64
	Errors    uint64
	Latency   time.Duration
}
