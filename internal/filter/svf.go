// Package filter implements a two-pole Chamberlin state-variable filter.
package filter

import "math"

// Mode selects which of the simultaneous filter outputs is returned.
type Mode int

const (
	Lowpass Mode = iota
	Highpass
	Bandpass

	numModes
)

// ModeNames lists filter modes in Mode order.
var ModeNames = []string{"lp", "hp", "bp"}

func (m Mode) String() string { return ModeNames[m.wrap()] }

func (m Mode) wrap() Mode {
	w := m % numModes
	if w < 0 {
		w += numModes
	}
	return w
}

// WrapMode converts an arbitrary integer selector into a valid Mode.
func WrapMode(v int) Mode { return Mode(v).wrap() }

const maxResonance = 0.99

// SVF is a Chamberlin two-integrator state-variable filter producing
// simultaneous low/high/band outputs. The cutoff is clamped to
// (20 Hz, 0.49*sampleRate) on every render call so the integrator coefficient
// stays numerically stable. Resonance near 1.0 approaches self-oscillation.
type SVF struct {
	cutoff     float64
	resonance  float64 // 0..0.99
	mode       Mode
	sampleRate float64

	low  float64
	band float64
}

// New creates a filter at the given sample rate.
func New(sampleRate, cutoff, resonance float64, mode Mode) *SVF {
	f := &SVF{sampleRate: sampleRate, mode: mode.wrap()}
	f.SetCutoff(cutoff)
	f.SetResonance(resonance)
	return f
}

// SetCutoff sets the cutoff frequency in Hz. The value is stored as given and
// clamped when rendering, so repeated out-of-range assignments are idempotent.
func (f *SVF) SetCutoff(hz float64) { f.cutoff = hz }

// Cutoff returns the last assigned (unclamped) cutoff in Hz.
func (f *SVF) Cutoff() float64 { return f.cutoff }

// SetResonance sets the resonance amount, clamped to [0, 0.99].
func (f *SVF) SetResonance(r float64) {
	f.resonance = math.Min(math.Max(r, 0), maxResonance)
}

// Resonance returns the current resonance amount.
func (f *SVF) Resonance() float64 { return f.resonance }

// SetMode selects the lowpass, highpass, or bandpass output.
func (f *SVF) SetMode(m Mode) { f.mode = m.wrap() }

// FilterMode returns the selected output mode.
func (f *SVF) FilterMode() Mode { return f.mode }

// Reset zeroes the integrator state.
func (f *SVF) Reset() {
	f.low = 0
	f.band = 0
}

// coefficients returns the integrator coefficient f and damping q for the
// current settings, with the cutoff clamped into its safe range.
func (f *SVF) coefficients() (ff, q float64) {
	fc := math.Min(math.Max(f.cutoff, 20), f.sampleRate*0.49)
	ff = 2 * math.Sin(math.Pi*fc/f.sampleRate)
	q = 2 - 1.99*f.resonance
	return ff, q
}

// Tick filters one sample.
func (f *SVF) Tick(in float64) float64 {
	ff, q := f.coefficients()
	f.low += ff * f.band
	high := in - f.low - q*f.band
	f.band += ff * high
	switch f.mode {
	case Highpass:
		return high
	case Bandpass:
		return f.band
	default:
		return f.low
	}
}

// Process filters dst in place. Integrator state persists across calls.
func (f *SVF) Process(dst []float32) {
	ff, q := f.coefficients()
	low, band := f.low, f.band
	for i := range dst {
		in := float64(dst[i])
		low += ff * band
		high := in - low - q*band
		band += ff * high
		switch f.mode {
		case Highpass:
			dst[i] = float32(high)
		case Bandpass:
			dst[i] = float32(band)
		default:
			dst[i] = float32(low)
		}
	}
	f.low, f.band = low, band
}
