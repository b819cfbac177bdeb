package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/telemetry"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// QueueSize bounds the number of pending rating updates. Updates
	// submitted while the queue is full are dropped.
	QueueSize int

	// MaxConcurrency is the maximum number of updates applied concurrently
	MaxConcurrency int

	// JobTimeout bounds a single store update.
	JobTimeout time.Duration

	// DrainTimeout bounds how long shutdown keeps applying queued updates.
	DrainTimeout time.Duration
}

// RatingWorker applies product rating updates off the request path.
// It implements domain.RatingQueue.
type RatingWorker struct {
	config   Config
	products domain.ProductStore
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger

	queue chan domain.RatingUpdate
	// mu orders Enqueue against shutdown: once stop holds it, every
	// accepted update is already in the queue for drain to see.
	mu      sync.RWMutex
	stopped bool
}

var _ domain.RatingQueue = (*RatingWorker)(nil)

// NewRatingWorker creates a new rating worker
func NewRatingWorker(products domain.ProductStore, config Config, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *RatingWorker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1024
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 5 * time.Second
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = 10 * time.Second
	}

	return &RatingWorker{
		config:   config,
		products: products,
		metrics:  metrics,
		logger:   logger,
		queue:    make(chan domain.RatingUpdate, config.QueueSize),
	}
}

// Enqueue schedules u without blocking. It returns false if the queue is
// full or the worker has stopped.
func (w *RatingWorker) Enqueue(u domain.RatingUpdate) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return false
	}
	select {
	case w.queue <- u:
		w.metrics.SetRatingQueueDepth(len(w.queue))
		return true
	default:
		return false
	}
}

// Pending returns the number of queued updates.
func (w *RatingWorker) Pending() int {
	return len(w.queue)
}

// Start applies updates until ctx is cancelled, then drains what is left
// in the queue and waits for in-flight updates. It always returns nil.
func (w *RatingWorker) Start(ctx context.Context) error {
	w.logger.Info("rating worker starting",
		"worker_id", w.config.WorkerID,
		"queue_size", w.config.QueueSize,
		"max_concurrency", w.config.MaxConcurrency,
	)

	// Updates outlive the request that queued them and must survive shutdown.
	jobCtx := context.WithoutCancel(ctx)

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)
	var wg sync.WaitGroup

	dispatch := func(u domain.RatingUpdate) {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			w.apply(jobCtx, u)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			w.stop()
			w.logger.Info("rating worker shutting down",
				"worker_id", w.config.WorkerID,
				"pending", len(w.queue),
			)
			w.drain(dispatch)
			wg.Wait()
			w.metrics.SetRatingQueueDepth(0)
			w.logger.Info("rating worker stopped", "worker_id", w.config.WorkerID)
			return nil

		case u := <-w.queue:
			w.metrics.SetRatingQueueDepth(len(w.queue))
			dispatch(u)
		}
	}
}

func (w *RatingWorker) stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
}

// drain dispatches queued updates until the queue is empty or the drain
// deadline passes. Updates left after the deadline are dropped.
func (w *RatingWorker) drain(dispatch func(domain.RatingUpdate)) {
	deadline := time.After(w.config.DrainTimeout)
	for {
		select {
		case <-deadline:
			if n := len(w.queue); n > 0 {
				w.logger.Warn("rating updates dropped at shutdown", "count", n)
			}
			return
		case u := <-w.queue:
			dispatch(u)
		default:
			return
		}
	}
}

// apply folds one rating into the product aggregate.
func (w *RatingWorker) apply(ctx context.Context, u domain.RatingUpdate) {
	ctx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	err := w.products.ApplyRating(ctx, u.ProductID, u.Rating)
	switch {
	case err == nil:
		w.metrics.RecordRatingUpdate("ok")
		w.logger.Debug("rating applied", "product_id", u.ProductID, "rating", u.Rating)
	case errors.Is(err, domain.ErrNoDocument):
		// Product deleted after the review was written.
		w.metrics.RecordRatingUpdate("skipped")
		w.logger.Warn("rating update skipped, product missing", "product_id", u.ProductID)
	default:
		w.metrics.RecordRatingUpdate("failed")
		w.logger.Error("rating update failed",
			"product_id", u.ProductID,
			"rating", u.Rating,
			"error", err,
		)
	}
}
