package timectrl

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SimClock exposes the current simulation time to components that should
// not depend on the concrete controller, mainly for testability.
type SimClock interface {
	// Now returns the elapsed simulation time in seconds.
	Now() float64
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances one tick per tick duration of wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still
	// stepping by Tick.
	Accelerated
)

// Listener is invoked on every tick with the simulation time and the tick
// delta, both in seconds.
type Listener func(simTime, delta float64)

// TimeController drives simulation time and notifies registered listeners.
// Simulation time is a float64 second count starting at zero, matching what
// the engines consume.
type TimeController struct {
	mu          sync.RWMutex
	currentTime float64

	Tick time.Duration
	Mode Mode

	listeners []Listener
}

// NewTimeController constructs a controller at simulation time zero.
func NewTimeController(tick time.Duration, mode Mode) *TimeController {
	return &TimeController{Tick: tick, Mode: mode}
}

// Now returns the current simulation time in seconds. Implements SimClock.
func (tc *TimeController) Now() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// AddListener registers a callback invoked on every tick. Listeners must be
// registered before Run starts.
func (tc *TimeController) AddListener(fn Listener) {
	tc.listeners = append(tc.listeners, fn)
}

// Step advances simulation time by exactly one tick and notifies listeners.
// It is the single-tick primitive Run is built on; tests drive it directly.
func (tc *TimeController) Step() float64 {
	delta := tc.Tick.Seconds()

	tc.mu.Lock()
	tc.currentTime += delta
	simTime := tc.currentTime
	tc.mu.Unlock()

	for _, fn := range tc.listeners {
		fn(simTime, delta)
	}
	return simTime
}

// Run advances simulation time until the given simulated duration has
// elapsed or the context is cancelled. In RealTime mode a rate limiter
// paces ticks against the wall clock; Accelerated mode runs the loop flat
// out. Returns the context error on cancellation, nil on normal completion.
func (tc *TimeController) Run(ctx context.Context, duration time.Duration) error {
	var limiter *rate.Limiter
	if tc.Mode == RealTime {
		limiter = rate.NewLimiter(rate.Every(tc.Tick), 1)
	}

	target := duration.Seconds()
	for tc.Now() < target {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		tc.Step()
	}
	return nil
}
