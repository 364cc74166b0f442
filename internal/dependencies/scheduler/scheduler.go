package scheduler

import (
	"sync"
	"time"
)

// Task receives the callbacks of one scheduled game run
type Task interface {
	// Begin is called once, after the start delay and before the first tick
	Begin()
	// Tick is called at the tick rate
	Tick()
	// Countdown is called at the countdown rate
	Countdown()
}

// Plan describes the timing of a scheduled run
type Plan struct {
	Delay     time.Duration
	Tick      time.Duration
	Countdown time.Duration
}

// Handle cancels a scheduled run. Stop is idempotent.
type Handle interface {
	Stop()
}

// Scheduler drives a Task. Implementations must never invoke two callbacks
// of the same Task concurrently.
type Scheduler interface {
	Start(plan Plan, task Task) Handle
}

// TickerScheduler runs each task on its own goroutine with a pair of tickers
type TickerScheduler struct{}

// New creates a new TickerScheduler
func New() *TickerScheduler {
	return &TickerScheduler{}
}

// Start launches the task loop and returns its handle
func (s *TickerScheduler) Start(plan Plan, task Task) Handle {
	h := &tickerHandle{done: make(chan struct{})}
	go h.run(plan, task)
	return h
}

type tickerHandle struct {
	done chan struct{}
	once sync.Once
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *tickerHandle) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *tickerHandle) run(plan Plan, task Task) {
	if plan.Delay > 0 {
		delay := time.NewTimer(plan.Delay)
		select {
		case <-delay.C:
		case <-h.done:
			delay.Stop()
			return
		}
	}
	if h.stopped() {
		return
	}
	task.Begin()

	tick := time.NewTicker(plan.Tick)
	defer tick.Stop()
	countdown := time.NewTicker(plan.Countdown)
	defer countdown.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-tick.C:
			if h.stopped() {
				return
			}
			task.Tick()
		case <-countdown.C:
			if h.stopped() {
				return
			}
			task.Countdown()
		}
	}
}
