package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTask struct {
	begins     atomic.Int32
	ticks      atomic.Int32
	countdowns atomic.Int32

	mu       sync.Mutex
	inflight int
	overlap  bool
}

func (t *countingTask) enter() {
	t.mu.Lock()
	t.inflight++
	if t.inflight > 1 {
		t.overlap = true
	}
	t.mu.Unlock()
}

func (t *countingTask) leave() {
	t.mu.Lock()
	t.inflight--
	t.mu.Unlock()
}

func (t *countingTask) Begin() {
	t.enter()
	defer t.leave()
	t.begins.Add(1)
}

func (t *countingTask) Tick() {
	t.enter()
	defer t.leave()
	t.ticks.Add(1)
}

func (t *countingTask) Countdown() {
	t.enter()
	defer t.leave()
	t.countdowns.Add(1)
}

func TestTickerSchedulerDeliversBothCallbacks(t *testing.T) {
	task := &countingTask{}
	h := New().Start(Plan{Tick: time.Millisecond, Countdown: 5 * time.Millisecond}, task)
	defer h.Stop()

	require.Eventually(t, func() bool {
		return task.ticks.Load() >= 5 && task.countdowns.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), task.begins.Load())
	task.mu.Lock()
	defer task.mu.Unlock()
	assert.False(t, task.overlap, "callbacks must never overlap")
}

func TestTickerSchedulerStopBeforeDelaySkipsBegin(t *testing.T) {
	task := &countingTask{}
	h := New().Start(Plan{Delay: time.Hour, Tick: time.Millisecond, Countdown: time.Millisecond}, task)
	h.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), task.begins.Load())
	assert.Equal(t, int32(0), task.ticks.Load())
}

func TestTickerSchedulerStopIsIdempotent(t *testing.T) {
	task := &countingTask{}
	h := New().Start(Plan{Tick: time.Millisecond, Countdown: time.Millisecond}, task)

	assert.NotPanics(t, func() {
		h.Stop()
		h.Stop()
	})

	time.Sleep(10 * time.Millisecond)
	ticks := task.ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, ticks, task.ticks.Load(), "no ticks after stop")
}
