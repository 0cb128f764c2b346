package syncengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"staysync-backend/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupScheduler(t *testing.T) (*Scheduler, *fakeClient) {
	tasks, rec, client, _ := setupEngine(t)
	client.days = bookedScenarioDays()
	client.reservations = []upstream.APIReservation{res9()}
	orch := &Orchestrator{Tasks: tasks, Reconciler: rec, Properties: []string{"listing-1"}}
	return &Scheduler{Orchestrator: orch, Interval: time.Hour, JitterPct: 5}, client
}

func TestSchedulerStatusInitial(t *testing.T) {
	s, _ := setupScheduler(t)
	st := s.Status()
	assert.False(t, st.Running)
	assert.False(t, st.RunInFlight)
	assert.Equal(t, 0, st.SuccessCount)
	assert.Nil(t, st.LastSuccess)
	assert.Nil(t, st.NextRun)
}

func TestSchedulerForceRunsAndCounts(t *testing.T) {
	s, _ := setupScheduler(t)

	summary, err := s.Force(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.True(t, summary.Success)

	st := s.Status()
	assert.Equal(t, 1, st.SuccessCount)
	assert.Equal(t, 0, st.FailureCount)
	assert.NotNil(t, st.LastSuccess)
	assert.False(t, st.RunInFlight)
}

func TestSchedulerFailedRunCounts(t *testing.T) {
	s, client := setupScheduler(t)
	client.listingErr = errors.New("down")

	summary, err := s.Force(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Success)

	st := s.Status()
	assert.Equal(t, 0, st.SuccessCount)
	assert.Equal(t, 1, st.FailureCount)
	assert.NotNil(t, st.LastFailure)
}

func TestSchedulerRejectsOverlappingTrigger(t *testing.T) {
	s, client := setupScheduler(t)
	client.blockCh = make(chan struct{})

	done := make(chan struct{})
	go func() {
		_, _ = s.Force(context.Background())
		close(done)
	}()

	// Wait for the run to take the slot.
	require.Eventually(t, func() bool {
		return s.Status().RunInFlight
	}, time.Second, 5*time.Millisecond)

	_, err := s.Force(context.Background())
	assert.ErrorIs(t, err, ErrRunInFlight)

	close(client.blockCh)
	<-done
	assert.False(t, s.Status().RunInFlight)
}

func TestSchedulerStartStop(t *testing.T) {
	s, _ := setupScheduler(t)

	s.Start()
	require.Eventually(t, func() bool {
		return s.Status().NextRun != nil
	}, time.Second, 5*time.Millisecond)
	assert.True(t, s.Status().Running)

	// Idempotent start.
	s.Start()

	s.Stop()
	st := s.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.NextRun)

	// Idempotent stop.
	s.Stop()
}

func TestJitteredIntervalBounds(t *testing.T) {
	s := &Scheduler{Interval: 100 * time.Millisecond, JitterPct: 10}
	for i := 0; i < 50; i++ {
		d := s.jitteredInterval()
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}

	s.JitterPct = 0
	assert.Equal(t, 100*time.Millisecond, s.jitteredInterval())
}
