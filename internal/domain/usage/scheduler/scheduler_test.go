package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingProcessor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *countingProcessor) RollupEngagementMetrics(context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.calls, p.err
}

func (p *countingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recordingRecorder struct {
	mu       sync.Mutex
	runs     int
	failures int
}

func (r *recordingRecorder) ObserveRun(_ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	if err != nil {
		r.failures++
	}
}

func (r *recordingRecorder) snapshot() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, r.failures
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	proc := &countingProcessor{}
	rec := &recordingRecorder{}
	s := New(proc, rec, 10*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return proc.count() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	runs, failures := rec.snapshot()
	assert.Equal(t, proc.count(), runs)
	assert.Zero(t, failures)
}

func TestScheduler_RecordsFailures(t *testing.T) {
	proc := &countingProcessor{err: errors.New("db unavailable")}
	rec := &recordingRecorder{}
	s := New(proc, rec, time.Hour, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		_, failures := rec.snapshot()
		return failures == 1
	}, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestScheduler_StartStopIdempotent(t *testing.T) {
	proc := &countingProcessor{}
	s := New(proc, nil, time.Hour, zap.NewNop())

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return proc.count() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.Equal(t, 1, proc.count())
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	proc := &countingProcessor{}
	s := New(proc, nil, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return proc.count() >= 1 }, time.Second, time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler loop did not exit after context cancel")
	}
}

func TestScheduler_NonPositiveIntervalFallsBackToDefault(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		proc := &countingProcessor{}
		s := New(proc, nil, interval, nil)
		assert.Equal(t, DefaultInterval, s.interval)

		s.Start(context.Background())
		assert.Eventually(t, func() bool { return proc.count() == 1 }, time.Second, 5*time.Millisecond)
		s.Stop()
	}
}
