package service

import (
	"context"
	"sync"
	"time"

	"togglehub/internal/metrics"
	"togglehub/internal/model"
	"togglehub/internal/repository"
	"togglehub/pkg/logger"

	"go.uber.org/zap"
)

// UsageRecorder drains evaluation outcomes into the usage_logs table through
// a fixed pool of workers. Enqueue never blocks the evaluation response: the
// buffer bounds in-flight writes, and an overflowing buffer drops the record
// (counted, logged) instead of applying backpressure to the caller.
type UsageRecorder struct {
	repo     repository.UsageInterface
	observer metrics.EvalObserver
	records  chan model.UsageLog
	workers  int
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewUsageRecorder(repo repository.UsageInterface, observer metrics.EvalObserver, bufferSize, workers int, writeTimeout time.Duration) *UsageRecorder {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if workers <= 0 {
		workers = 4
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &UsageRecorder{
		repo:     repo,
		observer: observer,
		records:  make(chan model.UsageLog, bufferSize),
		workers:  workers,
		timeout:  writeTimeout,
	}
}

// Enqueue hands a usage record to the worker pool. Returns false if the
// record was dropped because the buffer is full.
func (r *UsageRecorder) Enqueue(record model.UsageLog) bool {
	select {
	case r.records <- record:
		return true
	default:
		r.observer.RecordUsageDrop()
		logger.Warn("usage record buffer full, dropping record",
			zap.Uint64("feature_id", record.FeatureID),
			zap.String("correlation_id", record.CorrelationID))
		return false
	}
}

// Run starts the worker pool and blocks until ctx is canceled and the
// buffered records are flushed.
func (r *UsageRecorder) Run(ctx context.Context) {
	logger.Info("usage recorder started", zap.Int("workers", r.workers))

	for range r.workers {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	r.wg.Wait()
	logger.Info("usage recorder stopped")
}

func (r *UsageRecorder) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			// Drain whatever is still buffered before exiting.
			for {
				select {
				case record := <-r.records:
					r.write(record)
				default:
					return
				}
			}
		case record := <-r.records:
			r.write(record)
		}
	}
}

// write persists one record. Failures are absorbed here: by contract a usage
// write can never fail an evaluation that already responded.
func (r *UsageRecorder) write(record model.UsageLog) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.Insert(ctx, &record); err != nil {
		r.observer.RecordUsageFailure()
		logger.Error("failed to persist usage record",
			zap.Uint64("feature_id", record.FeatureID),
			zap.String("correlation_id", record.CorrelationID),
			zap.Error(err))
		return
	}
	r.observer.RecordUsageWrite()
}
