package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nebulon/tierd/internal/domain/model"
	"github.com/nebulon/tierd/pkg/logger"
	"github.com/nebulon/tierd/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultUpdateTimeout    = 30 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Update abstracts what workers read off the queue.
type Update = model.LedgerUpdate

// Updater applies a tier change to the ledger.
type Updater interface {
	UpdateStatus(ctx context.Context, handle string, score int64, tierID int, metadataReference string) error
	Name() string
}

// Queue defines how workers receive updates.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Update
}

// Worker processes updates using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called,
	// or the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current update.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	updater Updater
	cfg     settings

	shutdown chan struct{}
	done     chan struct{}
	stopped  atomic.Bool
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, updater Updater, opts ...Option) *InMemoryWorker {
	cfg := settings{
		name:          "worker",
		updateTimeout: defaultUpdateTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("worker")
	}
	if cfg.name != "worker" {
		cfg.logger = cfg.logger.Named(cfg.name)
	}

	return &InMemoryWorker{
		queue:    queue,
		updater:  updater,
		cfg:      cfg,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run starts the worker loop. It returns once the queue is closed and empty,
// Shutdown is called, or ctx is done. Pool members run on a detached context
// and stop through Shutdown; ctx cancellation is for workers driven directly.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	updates := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			err := w.process(ctx, u)
			if w.cfg.onDone != nil {
				w.cfg.onDone(u, err)
			}
		}
	}
}

// Shutdown stops the worker after its current update.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.cfg.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	if w.stopped.CompareAndSwap(false, true) {
		close(w.shutdown)
	}
}

// process applies one update. Once started it is not cancelled by ctx; only
// the per-update timeout bounds it. Failures are logged and never retried.
func (w *InMemoryWorker) process(ctx context.Context, u Update) error { //nolint:gocritic // hugeParam: Update is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.updateTimeout)
	defer cancel()

	callStart := time.Now()
	err := w.updater.UpdateStatus(callCtx, u.Handle, u.Score, u.TierID, u.MetadataReference)
	latency := float64(time.Since(callStart).Milliseconds())

	if err != nil {
		metrics.RecordLedgerUpdate(w.updater.Name(), metrics.OutcomeFailure, latency)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "ledger_error")
		w.cfg.logger.Error(ctx, "ledger update failed",
			logger.String("updateID", u.ID),
			logger.String("handle", u.Handle),
			logger.Int("tierID", u.TierID),
			logger.Error(err),
		)
		return fmt.Errorf("ledger update %s failed: %w", u.ID, err)
	}

	metrics.RecordLedgerUpdate(w.updater.Name(), metrics.OutcomeSuccess, latency)
	w.cfg.logger.Debug(ctx, "ledger updated",
		logger.String("updateID", u.ID),
		logger.String("handle", u.Handle),
		logger.Int("tierID", u.TierID),
		logger.Duration("queued", start.Sub(u.EnqueuedAt)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count defaults to a
// multiple of the CPU count.
func NewPool(workerCount int, queue Queue, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	base := settings{}
	for _, opt := range opts {
		opt(&base)
	}
	poolLogger := base.logger
	if poolLogger == nil {
		poolLogger = logger.Get()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  poolLogger.Named("worker-pool"),
	}

	hook := func(u Update, err error) {
		p.processed.Add(1)
		if err != nil {
			p.failed.Add(1)
		}
		if base.onDone != nil {
			base.onDone(u, err)
		}
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{}, opts...)
		workerOpts = append(workerOpts,
			WithLogger(poolLogger.Named("worker")),
			WithName("worker-"+strconv.Itoa(i)),
			WithOnDone(hook),
		)
		p.workers[i] = NewInMemoryWorker(queue, updater, workerOpts...)
	}

	metrics.UpdateWorkerActiveCount(0)

	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many updates were attempted.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns how many updates failed.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Shutdown closes the queue, lets the workers drain what is already queued,
// and forces them to stop when ctx or the pool timeout expires first.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			w.stop()
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)

	if timedOut > 0 {
		return fmt.Errorf("%d workers did not drain: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
