// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nebulon/tierd/internal/adapters/ledger"
	"github.com/nebulon/tierd/internal/adapters/mq/queue"
	"github.com/nebulon/tierd/internal/adapters/mq/worker"
	"github.com/nebulon/tierd/internal/domain/model"
	"github.com/nebulon/tierd/internal/domain/ranking"
	"github.com/nebulon/tierd/internal/domain/tier"
	"github.com/nebulon/tierd/pkg/logger"
	"github.com/nebulon/tierd/pkg/metrics"
)

// Drop reasons reported to metrics.
const (
	dropQueueFull  = "queue_full"
	dropClosed     = "closed"
	dropNotStarted = "not_started"
	dropCanceled   = "canceled"
)

// Service ranks score sets and dispatches the resulting ledger updates.
type Service struct {
	mu sync.RWMutex

	// Core components
	table   *tier.Table
	updater ledger.Updater
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	// Configuration
	workerCount   int
	queueSize     int
	updateTimeout time.Duration

	// State
	started    bool
	dispatched atomic.Int64
	dropped    atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ledger workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending ledger updates.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithUpdateTimeout bounds each ledger call.
func WithUpdateTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.updateTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTierTable sets the tier table used for ranking.
func WithTierTable(t *tier.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.table = t
		}
	}
}

// WithLedger sets the ledger backend that receives tier updates.
func WithLedger(u ledger.Updater) Option {
	return func(s *Service) {
		if u != nil {
			s.updater = u
		}
	}
}

// New constructs a new Service with default configuration. Without
// WithTierTable the default table is used; without WithLedger updates are
// logged.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     100_000,
		updateTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.table == nil {
		s.table = tier.Default()
	}

	return s
}

// Start creates the update queue and starts the worker pool. Workers outlive
// ctx and stop only on Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.updater == nil {
		s.updater = ledger.NewLogLedger(s.logger)
	}

	s.logger.Info(ctx, "starting tier service...")

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.updater,
		worker.WithLogger(s.logger),
		worker.WithUpdateTimeout(s.updateTimeout),
	)
	s.pool.Start(context.WithoutCancel(ctx))

	metrics.UpdateQueueCapacity(s.queueSize)

	s.started = true
	s.logger.Info(ctx, "tier service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("ledger", s.updater.Name()),
	)

	return nil
}

// Stop stops accepting updates, waits for queued ones to reach the ledger
// and closes the ledger backend.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping tier service...",
		logger.Int("pending", s.queue.Len(ctx)),
	)

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	if err := ledger.Close(s.updater); err != nil {
		errs = append(errs, fmt.Errorf("ledger: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "tier service stopped",
		logger.Int64("processed", s.pool.Processed()),
		logger.Int64("failed", s.pool.Failed()),
	)

	return errors.Join(errs...)
}

// Rank computes placements for entries against the configured tier table.
func (s *Service) Rank(ctx context.Context, entries []ranking.ScoreEntry) ranking.Results {
	start := time.Now()
	results := ranking.Rank(entries, s.table)
	metrics.RecordRanking(len(entries), float64(time.Since(start).Microseconds())/1000)

	for i := range results {
		metrics.RecordTierAssignment(results[i].TierID)
	}

	if s.logger != nil {
		s.logger.Debug(ctx, "ranked scores",
			logger.Int("entries", len(results)),
			logger.Duration("took", time.Since(start)),
		)
	}
	return results
}

// Dispatch queues one ledger update per result without waiting for any of
// them. Updates that cannot be queued are dropped and counted. It returns the
// number of updates queued.
func (s *Service) Dispatch(ctx context.Context, results ranking.Results) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		s.drop(ctx, dropNotStarted, len(results))
		return 0
	}

	now := time.Now()
	queued := 0
	reasons := make(map[string]int)
	for i := range results {
		err := s.queue.Enqueue(ctx, model.NewLedgerUpdate(results[i], now))
		if err == nil {
			queued++
			metrics.RecordDispatchEnqueued()
			continue
		}
		switch {
		case errors.Is(err, queue.ErrFull):
			reasons[dropQueueFull]++
		case errors.Is(err, queue.ErrClosed):
			reasons[dropClosed]++
		default:
			reasons[dropCanceled]++
		}
	}
	for reason, n := range reasons {
		s.drop(ctx, reason, n)
	}

	s.dispatched.Add(int64(queued))
	length := s.queue.Len(ctx)
	metrics.UpdateQueueSize(length)
	metrics.UpdateQueueUtilization(float64(length) / float64(s.queue.Cap()))
	return queued
}

func (s *Service) drop(ctx context.Context, reason string, n int) {
	if n == 0 {
		return
	}
	s.dropped.Add(int64(n))
	for i := 0; i < n; i++ {
		metrics.RecordDispatchDropped(reason)
	}
	if s.logger != nil {
		s.logger.Warn(ctx, "ledger updates dropped",
			logger.String("reason", reason),
			logger.Int("count", n),
		)
	}
}

// Tiers returns the configured tier table.
func (s *Service) Tiers() []tier.Definition {
	return s.table.Definitions()
}

// Status returns the last recorded ledger status for handle.
func (s *Service) Status(ctx context.Context, handle string) (ledger.Record, error) {
	s.mu.RLock()
	u := s.updater
	s.mu.RUnlock()

	r, ok := u.(ledger.Reader)
	if !ok {
		return ledger.Record{}, ErrStatusUnsupported
	}
	return r.Status(ctx, handle)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"tierCount":   tier.Count,
		"metadata":    s.table.HasMetadata(),
		"dispatched":  s.dispatched.Load(),
		"dropped":     s.dropped.Load(),
	}
	if s.updater != nil {
		stats["ledger"] = s.updater.Name()
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["processed"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
