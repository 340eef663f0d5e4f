package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is used when New is given a non-positive interval
const DefaultInterval = 15 * time.Minute

// RollupProcessor defines the interface for recomputing engagement metrics
type RollupProcessor interface {
	RollupEngagementMetrics(ctx context.Context) (int, error)
}

// JobRecorder records the outcome of a scheduler run
type JobRecorder interface {
	ObserveRun(duration time.Duration, err error)
}

// Scheduler handles periodic engagement metrics rollup
type Scheduler struct {
	processor RollupProcessor
	recorder  JobRecorder
	interval  time.Duration
	logger    *zap.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// New creates a new scheduler. recorder may be nil.
func New(processor RollupProcessor, recorder JobRecorder, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		processor: processor,
		recorder:  recorder,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("engagement rollup scheduler started", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the scheduler and waits for an in-flight run to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("engagement rollup scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.process(ctx)

	for {
		select {
		case <-ticker.C:
			s.process(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) process(ctx context.Context) {
	start := time.Now()
	written, err := s.processor.RollupEngagementMetrics(ctx)
	elapsed := time.Since(start)

	if s.recorder != nil {
		s.recorder.ObserveRun(elapsed, err)
	}

	if err != nil {
		s.logger.Error("engagement rollup failed",
			zap.Int("written", written),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("engagement rollup finished",
		zap.Int("written", written),
		zap.Duration("duration", elapsed),
	)
}
