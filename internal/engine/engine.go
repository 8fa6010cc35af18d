// Package engine defines the common contract implemented by every synthesis
// engine and the FM, vector, and subtractive implementations.
package engine

// Engine is the note-triggered renderer contract shared by all synthesis
// engines. Engines are stateful; one instance serves exactly one voice.
//
// Render overwrites dst with mono samples in roughly [-1, 1]. SetParam
// silently ignores unknown names and clamps out-of-range values, so the
// render path never fails on a malformed command.
type Engine interface {
	Name() string
	NoteOn(note, velocity int)
	NoteOff()
	Render(dst []float32)
	IsActive() bool
	Params() map[string]float64
	SetParam(name string, value float64)
}

// Arpeggiator is implemented by engines with a built-in arpeggiator. ArpTick
// advances the arp sequence by one step; the caller supplies the timing.
type Arpeggiator interface {
	ArpTick()
}

// Engine names accepted by New.
const (
	NameFM          = "fm"
	NameVector      = "vector"
	NameSubtractive = "subtractive"
)

// Names lists the available engine names.
func Names() []string {
	return []string{NameFM, NameVector, NameSubtractive}
}

// New constructs an engine by name at the given sample rate. Unknown names
// fall back to the FM engine.
func New(name string, sampleRate float64) Engine {
	switch name {
	case NameVector:
		return NewVector(sampleRate)
	case NameSubtractive:
		return NewSubtractive(sampleRate)
	default:
		return NewFM(sampleRate)
	}
}

// ensure returns buf resized to n samples, reallocating only on growth.
func ensure(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wrapIndex folds v into [0, n) the way all selector parameters are wrapped.
func wrapIndex(v, n int) int {
	w := v % n
	if w < 0 {
		w += n
	}
	return w
}
