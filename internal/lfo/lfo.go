// Package lfo provides the low-frequency sine oscillator used for vector
// crossfade modulation.
package lfo

import "math"

const twoPi = math.Pi * 2

// LFO is a sine low-frequency oscillator producing per-sample modulation
// values in [-depth, +depth]. Phase is kept in [0, 1).
type LFO struct {
	rateHz float64
	depth  float64
	phase  float64
}

// Set configures rate (Hz) and depth. Rate is floored to 0.01 Hz; depth is
// clamped to [0, 1].
func (l *LFO) Set(rateHz, depth float64) {
	l.rateHz = math.Max(0.01, rateHz)
	l.depth = math.Min(math.Max(depth, 0), 1)
}

// Rate returns the oscillation rate in Hz.
func (l *LFO) Rate() float64 { return l.rateHz }

// Depth returns the modulation depth.
func (l *LFO) Depth() float64 { return l.depth }

// Active reports whether the LFO produces non-zero modulation.
func (l *LFO) Active() bool { return l.depth != 0 && l.rateHz != 0 }

// Sample advances one sample and returns sin(2*pi*phase) * depth.
func (l *LFO) Sample(sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}
	v := math.Sin(twoPi*l.phase) * l.depth
	l.phase += l.rateHz / sampleRate
	l.phase = math.Mod(l.phase, 1)
	return v
}

// Reset zeroes the phase.
func (l *LFO) Reset() { l.phase = 0 }
