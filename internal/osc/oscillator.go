// Package osc provides wavetable oscillators backed by shared precomputed tables.
package osc

import "math"

const twoPi = math.Pi * 2

// TableSize is the length of every wavetable (one cycle).
const TableSize = 2048

// Shape selects the waveform of an oscillator.
type Shape int

const (
	Sine Shape = iota
	Saw
	Square
	Triangle

	numShapes
)

// ShapeNames lists wave shapes in Shape order.
var ShapeNames = []string{"sine", "saw", "square", "triangle"}

func (s Shape) String() string {
	return ShapeNames[s.wrap()]
}

// wrap folds any int-derived shape value into the valid range.
func (s Shape) wrap() Shape {
	w := s % numShapes
	if w < 0 {
		w += numShapes
	}
	return w
}

// WrapShape converts an arbitrary integer selector into a valid Shape.
func WrapShape(v int) Shape {
	return Shape(v).wrap()
}

// Precomputed single-cycle tables, normalized to [-1, 1]. The saw and square
// tables are naive (they alias at high frequencies).
var tables [numShapes][]float32

func init() {
	for sh := Shape(0); sh < numShapes; sh++ {
		t := make([]float32, TableSize)
		for i := 0; i < TableSize; i++ {
			x := float64(i) / TableSize
			switch sh {
			case Saw:
				t[i] = float32(2*x - 1)
			case Square:
				if i < TableSize/2 {
					t[i] = 1
				} else {
					t[i] = -1
				}
			case Triangle:
				t[i] = float32(2*math.Abs(2*x-1) - 1)
			default:
				t[i] = float32(math.Sin(twoPi * x))
			}
		}
		tables[sh] = t
	}
}

// Oscillator is a single wavetable oscillator with a persistent phase
// accumulator in [0, TableSize).
type Oscillator struct {
	shape      Shape
	phase      float64
	sampleRate float64
}

// New creates an oscillator at the given sample rate.
func New(sampleRate float64, shape Shape) *Oscillator {
	return &Oscillator{shape: shape.wrap(), sampleRate: sampleRate}
}

// SetWave changes the waveform. Phase is preserved.
func (o *Oscillator) SetWave(shape Shape) {
	o.shape = shape.wrap()
}

// Wave returns the current waveform.
func (o *Oscillator) Wave() Shape { return o.shape }

// ResetPhase rewinds the phase accumulator to zero.
func (o *Oscillator) ResetPhase() { o.phase = 0 }

// Phase returns the current phase accumulator in [0, TableSize).
func (o *Oscillator) Phase() float64 { return o.phase }

// Render fills dst with samples at the given frequency, linearly
// interpolating between adjacent table entries. Phase carries across calls so
// consecutive blocks are continuous. Frequencies <= 0 are accepted and yield
// near-DC output.
func (o *Oscillator) Render(freqHz float64, dst []float32) {
	table := tables[o.shape]
	inc := freqHz * TableSize / o.sampleRate
	phase := o.phase
	for i := range dst {
		idx := int(math.Floor(phase)) % TableSize
		if idx < 0 {
			idx += TableSize
		}
		frac := float32(phase - math.Floor(phase))
		next := (idx + 1) % TableSize
		dst[i] = table[idx] + frac*(table[next]-table[idx])
		phase += inc
	}
	o.phase = math.Mod(phase, TableSize)
	if o.phase < 0 {
		o.phase += TableSize
	}
}

// MIDIToFreq converts a MIDI note number to its frequency in Hz (A4 = 440).
func MIDIToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
