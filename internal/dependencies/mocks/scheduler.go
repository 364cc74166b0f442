package mocks

import (
	"sync"

	"github.com/mcoot/pong-realtime/internal/dependencies/scheduler"
)

// ManualScheduler records started tasks and lets tests fire their callbacks
type ManualScheduler struct {
	mu      sync.Mutex
	Handles []*ManualHandle
}

// Ensure ManualScheduler implements Scheduler
var _ scheduler.Scheduler = (*ManualScheduler)(nil)

// NewManualScheduler creates a new ManualScheduler
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Start records the task without running anything
func (s *ManualScheduler) Start(plan scheduler.Plan, task scheduler.Task) scheduler.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &ManualHandle{Plan: plan, Task: task}
	s.Handles = append(s.Handles, h)
	return h
}

// StartCount returns how many runs were started
func (s *ManualScheduler) StartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Handles)
}

// Last returns the most recently started run, or nil
func (s *ManualScheduler) Last() *ManualHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Handles) == 0 {
		return nil
	}
	return s.Handles[len(s.Handles)-1]
}

// ManualHandle is a started run under test control
// Fire methods are no-ops once the handle is stopped, like the real scheduler.
type ManualHandle struct {
	mu      sync.Mutex
	Plan    scheduler.Plan
	Task    scheduler.Task
	stopped bool
	stops   int
}

// Stop marks the handle stopped
func (h *ManualHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	h.stops++
}

// Stopped reports whether Stop has been called
func (h *ManualHandle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// StopCalls returns how many times Stop was called
func (h *ManualHandle) StopCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stops
}

// FireBegin delivers the Begin callback
func (h *ManualHandle) FireBegin() {
	if h.Stopped() {
		return
	}
	h.Task.Begin()
}

// FireTicks delivers n Tick callbacks
func (h *ManualHandle) FireTicks(n int) {
	for i := 0; i < n; i++ {
		if h.Stopped() {
			return
		}
		h.Task.Tick()
	}
}

// FireCountdown delivers one Countdown callback
func (h *ManualHandle) FireCountdown() {
	if h.Stopped() {
		return
	}
	h.Task.Countdown()
}
