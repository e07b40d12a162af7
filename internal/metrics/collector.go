// internal/metrics/collector.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

const DefaultNamespace = "solana_research"

// Request sources.
const (
	SourceSolscan     = "solscan"
	SourceDexScreener = "dexscreener"
	SourceRPC         = "rpc"
)

// Record origins of the trade cache.
const (
	OriginCache   = "cache"
	OriginFetched = "fetched"
)

// Collector owns the run's metrics on a private registry. A nil *Collector
// accepts every call and records nothing.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	wallets         *prometheus.CounterVec
	walletDuration  prometheus.Histogram
	records         *prometheus.CounterVec
}

// NewCollector creates and registers the metrics under namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Upstream requests by source, operation and outcome",
			},
			[]string{"source", "op", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Upstream request duration including retries",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"source", "op"},
		),
		wallets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wallets_processed_total",
				Help:      "Wallets analyzed by outcome",
			},
			[]string{"status"},
		),
		walletDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "wallet_duration_seconds",
				Help:      "Time to analyze one wallet",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "swap_records_total",
				Help:      "Swap records served by origin",
			},
			[]string{"origin"},
		),
	}

	c.registry.MustRegister(
		c.requests,
		c.requestDuration,
		c.wallets,
		c.walletDuration,
		c.records,
	)
	return c
}

// Status maps an error to the status label.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// ObserveRequest records one upstream call.
func (c *Collector) ObserveRequest(source, op string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(source, op, Status(err)).Inc()
	c.requestDuration.WithLabelValues(source, op).Observe(d.Seconds())
}

// ObserveWallet records one wallet analysis.
func (c *Collector) ObserveWallet(d time.Duration, err error) {
	if c == nil {
		return
	}
	c.wallets.WithLabelValues(Status(err)).Inc()
	c.walletDuration.Observe(d.Seconds())
}

// AddRecords counts swap records by origin.
func (c *Collector) AddRecords(origin string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.records.WithLabelValues(origin).Add(float64(n))
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, c *Collector, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
