package syncengine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrRunInFlight is returned by Force when a run is already active.
var ErrRunInFlight = errors.New("a sync run is already in flight")

// SchedulerStatus is the in-memory run-tracking snapshot. Not persisted;
// resets on process restart.
type SchedulerStatus struct {
	Running      bool       `json:"running"`
	RunInFlight  bool       `json:"run_in_flight"`
	Interval     string     `json:"interval"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	DroppedCount int        `json:"dropped_count"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}

// Scheduler triggers orchestrator runs on a jittered interval and guarantees
// at most one run in flight per instance. A trigger arriving while a run is
// active is dropped (counted), not queued, to avoid unbounded backlog.
type Scheduler struct {
	Orchestrator *Orchestrator
	Interval     time.Duration
	JitterPct    int

	mu           sync.Mutex
	running      bool
	runInFlight  bool
	stopCh       chan struct{}
	successCount int
	failureCount int
	droppedCount int
	lastSuccess  *time.Time
	lastFailure  *time.Time
	nextRun      *time.Time
}

// Start launches the timer loop. Idempotent: a second Start while running is
// a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	go s.loop(stop)
	log.Info().Dur("interval", s.Interval).Int("jitter_pct", s.JitterPct).Msg("Scheduler started")
}

// Stop prevents future triggers. It does not cancel an in-flight run; each
// write transaction is atomic, so an abandoned run leaves the store valid,
// merely stale.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.nextRun = nil
	log.Info().Msg("Scheduler stopped")
}

// Status returns the current run-tracking snapshot.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{
		Running:      s.running,
		RunInFlight:  s.runInFlight,
		Interval:     s.Interval.String(),
		SuccessCount: s.successCount,
		FailureCount: s.failureCount,
		DroppedCount: s.droppedCount,
		LastSuccess:  s.lastSuccess,
		LastFailure:  s.lastFailure,
		NextRun:      s.nextRun,
	}
}

// Force runs the orchestrator immediately with the freshness check bypassed,
// independent of the timer.
func (s *Scheduler) Force(ctx context.Context) (*RunSummary, error) {
	return s.Trigger(ctx, ModeForce)
}

// Trigger runs the orchestrator immediately in the given mode, under the
// same single-run guarantee as scheduled triggers. Returns ErrRunInFlight
// instead of queueing when a run is already active.
func (s *Scheduler) Trigger(ctx context.Context, mode SyncMode) (*RunSummary, error) {
	if !s.acquireRun() {
		return nil, ErrRunInFlight
	}
	summary := s.execute(ctx, mode)
	if summary == nil {
		return nil, errors.New("sync run panicked")
	}
	return summary, nil
}

func (s *Scheduler) loop(stop <-chan struct{}) {
	for {
		wait := s.jitteredInterval()
		next := time.Now().Add(wait)
		s.mu.Lock()
		s.nextRun = &next
		s.mu.Unlock()

		select {
		case <-stop:
			return
		case <-time.After(wait):
		}

		if !s.acquireRun() {
			s.mu.Lock()
			s.droppedCount++
			s.mu.Unlock()
			log.Warn().Msg("Scheduled trigger dropped, run already in flight")
			continue
		}
		s.execute(context.Background(), ModeNormal)
	}
}

// execute runs the orchestrator while holding the run slot. An unexpected
// panic is recovered, logged, and counted as a failed run so the scheduler
// itself keeps running.
func (s *Scheduler) execute(ctx context.Context, mode SyncMode) (summary *RunSummary) {
	defer func() {
		now := time.Now()
		s.mu.Lock()
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Sync run panicked")
			s.failureCount++
			s.lastFailure = &now
			summary = nil
		} else if summary != nil && summary.Success {
			s.successCount++
			s.lastSuccess = &now
		} else {
			s.failureCount++
			s.lastFailure = &now
		}
		s.runInFlight = false
		s.mu.Unlock()
	}()

	result := s.Orchestrator.Run(ctx, mode)
	return &result
}

func (s *Scheduler) acquireRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runInFlight {
		return false
	}
	s.runInFlight = true
	return true
}

// jitteredInterval is base ± JitterPct%, avoiding synchronized load spikes
// across deployments.
func (s *Scheduler) jitteredInterval() time.Duration {
	if s.JitterPct <= 0 {
		return s.Interval
	}
	span := int64(s.Interval) * int64(s.JitterPct) / 100
	if span <= 0 {
		return s.Interval
	}
	return s.Interval + time.Duration(rand.Int63n(2*span+1)-span)
}
