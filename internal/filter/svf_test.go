package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 44100.0

func sine(freq float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / testRate))
	}
	return out
}

func rms(buf []float32) float64 {
	var sum float64
	for _, s := range buf {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestLowpassAttenuatesHighFrequencies(t *testing.T) {
	low := sine(100, 8192)
	high := sine(10000, 8192)

	f := New(testRate, 1000, 0, Lowpass)
	f.Process(low)
	f.Reset()
	f.Process(high)

	passRMS := rms(low[4096:]) // skip transient
	stopRMS := rms(high[4096:])
	assert.Greater(t, passRMS, 0.6, "passband mostly intact")
	assert.Less(t, stopRMS, 0.1, "stopband attenuated")
}

func TestHighpassAttenuatesLowFrequencies(t *testing.T) {
	low := sine(100, 8192)
	high := sine(10000, 8192)

	f := New(testRate, 1000, 0, Highpass)
	f.Process(low)
	f.Reset()
	f.Process(high)

	assert.Less(t, rms(low[4096:]), 0.1)
	assert.Greater(t, rms(high[4096:]), 0.6)
}

func TestBandpassPeaksAtCutoff(t *testing.T) {
	at := sine(1000, 8192)
	off := sine(8000, 8192)

	f := New(testRate, 1000, 0.5, Bandpass)
	f.Process(at)
	f.Reset()
	f.Process(off)

	assert.Greater(t, rms(at[4096:]), rms(off[4096:]))
}

func TestTickMatchesProcess(t *testing.T) {
	in := sine(500, 512)
	blk := make([]float32, len(in))
	copy(blk, in)

	a := New(testRate, 2000, 0.3, Lowpass)
	b := New(testRate, 2000, 0.3, Lowpass)
	a.Process(blk)
	for i, s := range in {
		got := float32(b.Tick(float64(s)))
		require.InDelta(t, blk[i], got, 1e-6, "sample %d", i)
	}
}

func TestCutoffClampIsIdempotent(t *testing.T) {
	in := sine(3000, 2048)

	once := New(testRate, 0, 0.2, Lowpass)
	once.SetCutoff(1e9)
	repeated := New(testRate, 0, 0.2, Lowpass)

	a := make([]float32, len(in))
	copy(a, in)
	once.Process(a)

	b := make([]float32, len(in))
	copy(b, in)
	for i := range b {
		// Re-assigning an out-of-range cutoff every sample must not drift
		// the effective coefficient.
		repeated.SetCutoff(1e9)
		b[i] = float32(repeated.Tick(float64(b[i])))
	}
	for i := range a {
		require.Equal(t, a[i], b[i], "sample %d", i)
	}

	// Output stays finite at the clamped extreme.
	for _, s := range a {
		require.False(t, math.IsNaN(float64(s)) || math.IsInf(float64(s), 0))
	}
}

func TestResonanceClamped(t *testing.T) {
	f := New(testRate, 1000, 2.5, Lowpass)
	assert.Equal(t, 0.99, f.Resonance())
	f.SetResonance(-1)
	assert.Equal(t, 0.0, f.Resonance())
}

func TestStatePersistsAcrossBlocks(t *testing.T) {
	in := sine(700, 1024)

	whole := New(testRate, 1500, 0.4, Lowpass)
	split := New(testRate, 1500, 0.4, Lowpass)

	a := make([]float32, len(in))
	copy(a, in)
	whole.Process(a)

	b := make([]float32, len(in))
	copy(b, in)
	split.Process(b[:300])
	split.Process(b[300:])

	for i := range a {
		require.Equal(t, a[i], b[i], "sample %d", i)
	}
}

func TestWrapMode(t *testing.T) {
	assert.Equal(t, Lowpass, WrapMode(3))
	assert.Equal(t, Bandpass, WrapMode(-1))
	assert.Equal(t, "hp", Highpass.String())
}

func TestReset(t *testing.T) {
	f := New(testRate, 1000, 0.2, Lowpass)
	buf := sine(200, 256)
	f.Process(buf)
	f.Reset()
	assert.Equal(t, 0.0, f.Tick(0))
}
