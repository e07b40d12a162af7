// internal/blockchain/solana/pool.go
package solana

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// endpoint один RPC узел со своими счетчиками
type endpoint struct {
	rpc *rpc.Client
	url string

	mu       sync.Mutex
	disabled time.Time // ноль, пока узел в работе
	latency  time.Duration

	successes atomic.Uint64
	failures  atomic.Uint64
}

func newEndpoint(url string) *endpoint {
	return &endpoint{rpc: rpc.New(url), url: url}
}

// available возвращает узел в работу после cooldown
func (e *endpoint) available(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.disabled.IsZero() && now.Sub(e.disabled) >= cooldown {
		e.disabled = time.Time{}
	}
	return e.disabled.IsZero()
}

func (e *endpoint) disable(at time.Time) {
	e.mu.Lock()
	e.disabled = at
	e.mu.Unlock()
}

// record учитывает результат вызова; задержка сглаживается пополам
func (e *endpoint) record(ok bool, took time.Duration) {
	if ok {
		e.successes.Add(1)
	} else {
		e.failures.Add(1)
	}
	e.mu.Lock()
	if e.latency == 0 {
		e.latency = took
	} else {
		e.latency = (e.latency + took) / 2
	}
	e.mu.Unlock()
}

func (e *endpoint) stats() EndpointStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EndpointStats{
		URL:       e.url,
		Active:    e.disabled.IsZero(),
		Successes: e.successes.Load(),
		Errors:    e.failures.Load(),
		Latency:   e.latency,
	}
}

// pool раздает узлы по кругу, пропуская выключенные
type pool struct {
	mu        sync.Mutex
	endpoints []*endpoint
	cursor    int
}

func newPool(endpoints []*endpoint) *pool {
	return &pool{endpoints: endpoints, cursor: len(endpoints) - 1}
}

// next возвращает следующий доступный узел или nil
func (p *pool) next(now time.Time) *endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()

	for range p.endpoints {
		p.cursor = (p.cursor + 1) % len(p.endpoints)
		if e := p.endpoints[p.cursor]; e.available(now) {
			return e
		}
	}
	return nil
}

func (p *pool) anyAvailable(now time.Time) bool {
	for _, e := range p.endpoints {
		if e.available(now) {
			return true
		}
	}
	return false
}

// Stats возвращает метрики всех узлов в порядке конфигурации
func (c *Client) Stats() []EndpointStats {
	out := make([]EndpointStats, 0, len(c.pool.endpoints))
	for _, e := range c.pool.endpoints {
		out = append(out, e.stats())
	}
	return out
}
