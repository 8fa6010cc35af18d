package quadbox

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepDurationSwing(t *testing.T) {
	c := NewClock(120)
	assert.InDelta(t, 0.125, c.StepDuration(0).Seconds(), 1e-8)
	assert.InDelta(t, 0.125, c.StepDuration(1).Seconds(), 1e-8)

	c.SetSwing(0.5)
	even := c.StepDuration(0).Seconds()
	odd := c.StepDuration(1).Seconds()
	assert.InDelta(t, 0.125*1.165, even, 1e-8)
	assert.InDelta(t, 0.125*0.835, odd, 1e-8)
	// Swing redistributes time inside the pair, never the tempo.
	assert.InDelta(t, 0.25, even+odd, 1e-8)
}

func TestBPMClamped(t *testing.T) {
	assert.Equal(t, 300.0, NewClock(1000).BPM())
	assert.Equal(t, 20.0, NewClock(5).BPM())

	c := NewClock(120)
	c.SetBPM(0)
	assert.Equal(t, 20.0, c.BPM())
}

func TestSwingClamped(t *testing.T) {
	c := NewClock(120)
	c.SetSwing(2)
	assert.Equal(t, 1.0, c.Swing())
	c.SetSwing(-1)
	assert.Equal(t, 0.0, c.Swing())
}

func TestStepsMinimumOne(t *testing.T) {
	c := NewClock(120)
	c.SetSteps(0)
	assert.Equal(t, 1, c.Steps())
}

func TestTicksWrapAroundCycle(t *testing.T) {
	c := NewClock(300) // 50 ms per step
	c.SetSteps(4)

	var mu sync.Mutex
	var got []int
	c.AddStepCallback(func(step int) {
		mu.Lock()
		got = append(got, step)
		mu.Unlock()
	})

	c.Start()
	defer c.Stop()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 6
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 0, 1}, got[:6])
}

func TestStopJoinsAndResets(t *testing.T) {
	c := NewClock(300)
	var ticks atomic.Int64
	c.AddStepCallback(func(int) { ticks.Add(1) })

	c.Start()
	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	c.Stop()

	after := ticks.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "ticks after Stop")
	assert.Equal(t, 0, c.Step())

	// Stopping again is a no-op.
	c.Stop()
}

func TestCallbackPanicDoesNotStopClock(t *testing.T) {
	c := NewClock(300)
	var ticks atomic.Int64
	c.AddStepCallback(func(int) { panic("boom") })
	c.AddStepCallback(func(int) { ticks.Add(1) })

	c.Start()
	defer c.Stop()
	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestStepChannel(t *testing.T) {
	c := NewClock(300)
	c.SetSteps(4)
	c.Start()
	defer c.Stop()

	deadline := time.After(2 * time.Second)
	var got []int
	for len(got) < 5 {
		select {
		case s := <-c.StepC():
			got = append(got, s)
		case <-deadline:
			t.Fatal("timed out waiting for steps")
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 0}, got)
}

func TestStartIsIdempotent(t *testing.T) {
	c := NewClock(300)
	var ticks atomic.Int64
	c.AddStepCallback(func(int) { ticks.Add(1) })
	c.Start()
	c.Start()
	defer c.Stop()

	// A doubled timing loop would fire step 0 twice back to back.
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), int64(2))
}
