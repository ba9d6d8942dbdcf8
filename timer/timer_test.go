package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// idle never ticks during a test, so due can be driven by hand.
func idle(t *testing.T) *Scheduler {
	t.Helper()
	s := NewScheduler(time.Hour)
	t.Cleanup(s.Stop)
	return s
}

func TestDue_OrderAndOneShot(t *testing.T) {
	s := idle(t)
	var order []int
	s.After(30*time.Millisecond, func() { order = append(order, 3) })
	s.After(10*time.Millisecond, func() { order = append(order, 1) })
	s.After(20*time.Millisecond, func() { order = append(order, 2) })

	assert.Empty(t, s.due(time.Now()))
	for _, fn := range s.due(time.Now().Add(time.Second)) {
		fn()
	}
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, s.Len())
}

func TestDue_PeriodicRequeues(t *testing.T) {
	s := idle(t)
	id := s.Every(10*time.Millisecond, func() {})

	now := time.Now().Add(time.Second)
	assert.Len(t, s.due(now), 1)
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, s.due(now), "the next run is one interval later")
	assert.Len(t, s.due(now.Add(10*time.Millisecond)), 1)

	assert.True(t, s.Cancel(id))
	assert.False(t, s.Cancel(id))
	assert.Equal(t, 0, s.Len())
}

func TestCancel_PreventsRun(t *testing.T) {
	s := idle(t)
	id := s.After(time.Millisecond, func() { t.Error("cancelled task ran") })
	keep := s.After(time.Millisecond, func() {})
	assert.True(t, s.Cancel(id))
	assert.Len(t, s.due(time.Now().Add(time.Second)), 1)
	assert.False(t, s.Cancel(keep), "a fired one-shot is no longer pending")
}

func TestScheduler_FiresInBackground(t *testing.T) {
	s := NewScheduler(time.Millisecond)
	defer s.Stop()

	var fired atomic.Int32
	s.After(5*time.Millisecond, func() { fired.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
}
