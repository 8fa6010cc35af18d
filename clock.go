package quadbox

import (
	"math"
	"sync"
	"time"
)

const (
	minBPM = 20
	maxBPM = 300

	// clockStopTimeout bounds how long Stop waits for the timing loop.
	clockStopTimeout = time.Second
)

// StepCallback receives the step index (0..nSteps-1) on each clock tick.
type StepCallback func(step int)

// Clock produces step ticks at a musical rate derived from BPM. The base
// step is a 16th note (60/BPM/4 seconds); swing skews alternating steps by up
// to ±33%. The timing loop accumulates absolute deadlines instead of sleeping
// a fixed interval, so per-step scheduling overhead never drifts the tempo.
//
// Callbacks run synchronously on the clock goroutine in registration order; a
// panicking callback is isolated and cannot stop the clock.
type Clock struct {
	mu        sync.Mutex
	bpm       float64
	swing     float64
	nSteps    int
	step      int
	callbacks []StepCallback
	stepC     chan int

	running bool
	quit    chan struct{}
	done    chan struct{}
}

// NewClock creates a stopped clock at the given BPM with 16 steps.
func NewClock(bpm float64) *Clock {
	c := &Clock{
		nSteps: 16,
		stepC:  make(chan int, 64),
	}
	c.SetBPM(bpm)
	return c
}

// AddStepCallback registers a callback fired on every tick.
func (c *Clock) AddStepCallback(cb StepCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, cb)
}

// StepC returns a channel carrying the step index of each tick. Sends are
// non-blocking: a consumer that falls behind loses ticks instead of stalling
// the clock. Intended for UI-style consumers that cannot share state.
func (c *Clock) StepC() <-chan int { return c.stepC }

// SetBPM sets the tempo, clamped to a sane range.
func (c *Clock) SetBPM(bpm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bpm = math.Min(math.Max(bpm, minBPM), maxBPM)
}

// BPM returns the current tempo.
func (c *Clock) BPM() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpm
}

// SetSwing sets the swing amount, clamped to [0, 1].
func (c *Clock) SetSwing(swing float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.swing = math.Min(math.Max(swing, 0), 1)
}

// Swing returns the current swing amount.
func (c *Clock) Swing() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.swing
}

// SetSteps sets the number of steps per cycle (minimum 1).
func (c *Clock) SetSteps(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		n = 1
	}
	c.nSteps = n
}

// Steps returns the number of steps per cycle.
func (c *Clock) Steps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nSteps
}

// Step returns the index the next tick will fire with.
func (c *Clock) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Reset rewinds the step counter to 0.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = 0
}

// StepDuration returns the duration of the given step at the current BPM and
// swing. Even-indexed steps stretch by (1 + 0.33*swing), odd-indexed shrink
// by (1 - 0.33*swing), so any two consecutive steps preserve the tempo.
func (c *Clock) StepDuration(step int) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepDurationLocked(step)
}

func (c *Clock) stepDurationLocked(step int) time.Duration {
	base := 60.0 / c.bpm / 4.0
	if c.swing != 0 {
		amt := c.swing * 0.33
		if step%2 == 0 {
			base *= 1 + amt
		} else {
			base *= 1 - amt
		}
	}
	return time.Duration(base * float64(time.Second))
}

// Start launches the timing loop. A no-op when already running.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.step = 0
	c.quit = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.quit, c.done)
}

// Stop halts the timing loop and resets the step counter. It waits (bounded)
// for the loop goroutine to exit before returning, so no orphaned ticks fire
// afterwards. Safe to call when already stopped.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	quit, done := c.quit, c.done
	c.mu.Unlock()

	close(quit)
	select {
	case <-done:
	case <-time.After(clockStopTimeout):
	}

	c.mu.Lock()
	c.step = 0
	c.mu.Unlock()
}

// run is the timing loop. It computes each wake time by adding the step
// duration to the previous deadline and sleeps only the remaining delta.
func (c *Clock) run(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	next := time.Now()
	for {
		c.mu.Lock()
		step := c.step
		c.step = (c.step + 1) % c.nSteps
		dur := c.stepDurationLocked(step)
		cbs := make([]StepCallback, len(c.callbacks))
		copy(cbs, c.callbacks)
		c.mu.Unlock()

		for _, cb := range cbs {
			fireStepCallback(cb, step)
		}
		select {
		case c.stepC <- step:
		default:
		}

		next = next.Add(dur)
		delta := time.Until(next)
		if delta <= 0 {
			// Behind schedule; fire the next step immediately.
			select {
			case <-quit:
				return
			default:
				continue
			}
		}
		select {
		case <-quit:
			return
		case <-time.After(delta):
		}
	}
}

// fireStepCallback swallows a panic from one callback so the clock survives.
func fireStepCallback(cb StepCallback, step int) {
	defer func() {
		_ = recover()
	}()
	cb(step)
}
