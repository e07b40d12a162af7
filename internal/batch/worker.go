// internal/batch/worker.go
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-research/internal/roi"
)

// Job is one wallet to summarize.
type Job struct {
	Wallet string
	Label  string
}

// Result is the outcome of a job. A failed wallet carries Err and a zero Summary.
type Result struct {
	Wallet  string
	Label   string
	Summary roi.WalletSummary
	Err     error
	Elapsed time.Duration
}

// ProcessFunc summarizes one wallet.
type ProcessFunc func(ctx context.Context, job Job) (roi.WalletSummary, error)

type indexedJob struct {
	idx int
	job Job
}

// WorkerPool runs jobs from a channel on a fixed number of workers.
type WorkerPool struct {
	jobs    <-chan indexedJob
	results []Result
	process ProcessFunc
	logger  *zap.Logger
	mu      sync.Mutex
}

func (wp *WorkerPool) worker(ctx context.Context, id int) error {
	logger := wp.logger.With(zap.Int("worker_id", id))
	logger.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Worker shutting down due to context cancellation")
			return ctx.Err()
		case j, ok := <-wp.jobs:
			if !ok {
				logger.Debug("Job channel closed")
				return nil
			}
			wp.handleJob(ctx, j, logger)
		}
	}
}

func (wp *WorkerPool) handleJob(ctx context.Context, j indexedJob, logger *zap.Logger) {
	start := time.Now()
	res := Result{Wallet: j.job.Wallet, Label: j.job.Label}

	summary, err := wp.safeProcess(ctx, j.job)
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = err
		logger.Warn("Wallet failed", zap.String("wallet", j.job.Wallet), zap.Error(err))
	} else {
		summary.Label = j.job.Label
		res.Summary = summary
		logger.Info("Wallet processed",
			zap.String("wallet", j.job.Wallet),
			zap.Duration("elapsed", res.Elapsed))
	}

	wp.mu.Lock()
	wp.results[j.idx] = res
	wp.mu.Unlock()
}

// safeProcess turns a panic in one wallet into that wallet's error.
func (wp *WorkerPool) safeProcess(ctx context.Context, job Job) (summary roi.WalletSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", job.Wallet, r)
		}
	}()
	return wp.process(ctx, job)
}

// Run processes jobs on up to workers goroutines and returns one result per
// job in input order. A wallet's failure is recorded in its Result and does
// not stop the batch; only cancellation of ctx does.
func Run(ctx context.Context, jobs []Job, workers int, process ProcessFunc, logger *zap.Logger) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	ch := make(chan indexedJob)
	wp := &WorkerPool{
		jobs:    ch,
		results: make([]Result, len(jobs)),
		process: process,
		logger:  logger.Named("batch"),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ch)
		for i, job := range jobs {
			select {
			case ch <- indexedJob{idx: i, job: job}:
			case <-gCtx.Done():
				return gCtx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		id := i + 1
		g.Go(func() error {
			return wp.worker(gCtx, id)
		})
	}

	if err := g.Wait(); err != nil {
		return wp.results, err
	}
	return wp.results, nil
}

// Succeeded returns the summaries of the jobs that completed.
func Succeeded(results []Result) []roi.WalletSummary {
	out := make([]roi.WalletSummary, 0, len(results))
	for _, r := range results {
		if r.Err == nil && r.Summary.Wallet != "" {
			out = append(out, r.Summary)
		}
	}
	return out
}
