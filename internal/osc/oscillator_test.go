package osc

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/dsp/fourier"
)

const testRate = 44100.0

func TestPeriodicityReturnsPhase(t *testing.T) {
	for _, shape := range []Shape{Sine, Saw, Square, Triangle} {
		for _, freq := range []float64{110, 440, 441, 1000} {
			o := New(testRate, shape)
			inc := freq * TableSize / testRate
			period := int(math.Round(testRate / freq))
			buf := make([]float32, period)
			o.Render(freq, buf)

			// After one period the accumulator must be back within one
			// sample's phase increment of its start.
			phase := o.Phase()
			dist := math.Min(phase, TableSize-phase)
			assert.LessOrEqualf(t, dist, inc,
				"shape %v freq %v: phase %v after one period", shape, freq, phase)
		}
	}
}

func TestPhaseNormalizedAfterRender(t *testing.T) {
	o := New(testRate, Saw)
	buf := make([]float32, 4096)
	o.Render(18000, buf)
	assert.GreaterOrEqual(t, o.Phase(), 0.0)
	assert.Less(t, o.Phase(), float64(TableSize))
}

func TestContinuityAcrossBlocks(t *testing.T) {
	a := New(testRate, Triangle)
	b := New(testRate, Triangle)

	one := make([]float32, 512)
	a.Render(331, one)

	first := make([]float32, 256)
	second := make([]float32, 256)
	b.Render(331, first)
	b.Render(331, second)

	for i := 0; i < 256; i++ {
		require.Equal(t, one[i], first[i], "sample %d", i)
		require.Equal(t, one[256+i], second[i], "sample %d", 256+i)
	}
}

func TestZeroAndNegativeFrequency(t *testing.T) {
	o := New(testRate, Sine)
	buf := make([]float32, 128)

	o.Render(0, buf)
	for _, s := range buf {
		assert.Equal(t, float32(0), s, "zero frequency holds table[0]")
	}

	// Negative frequency runs the table backwards; output stays bounded and
	// phase stays normalized.
	o.Render(-440, buf)
	for _, s := range buf {
		assert.LessOrEqual(t, math.Abs(float64(s)), 1.0)
	}
	assert.GreaterOrEqual(t, o.Phase(), 0.0)
	assert.Less(t, o.Phase(), float64(TableSize))
}

func TestSineSpectralPeak(t *testing.T) {
	const n = 4096
	// Bin-aligned frequency: exactly 64 cycles in n samples.
	freq := testRate * 64 / n

	o := New(testRate, Sine)
	buf := make([]float32, n)
	o.Render(freq, buf)

	seq := make([]float64, n)
	for i, s := range buf {
		seq[i] = float64(s)
	}
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, seq)

	peak, peakMag := 0, 0.0
	for k, c := range coeffs {
		if mag := cmplx.Abs(c); mag > peakMag {
			peak, peakMag = k, mag
		}
	}
	assert.Equal(t, 64, peak, "fundamental must dominate the spectrum")
}

func TestSetWavePreservesPhase(t *testing.T) {
	o := New(testRate, Sine)
	buf := make([]float32, 100)
	o.Render(440, buf)
	phase := o.Phase()
	o.SetWave(Square)
	assert.Equal(t, phase, o.Phase())
	assert.Equal(t, Square, o.Wave())
}

func TestWrapShape(t *testing.T) {
	assert.Equal(t, Saw, WrapShape(5))
	assert.Equal(t, Triangle, WrapShape(-1))
	assert.Equal(t, Sine, WrapShape(4))
}

func TestMIDIToFreq(t *testing.T) {
	assert.InDelta(t, 440.0, MIDIToFreq(69), 1e-9)
	assert.InDelta(t, 880.0, MIDIToFreq(81), 1e-9)
	assert.InDelta(t, 261.6256, MIDIToFreq(60), 1e-4)
}
