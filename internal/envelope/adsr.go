// Package envelope implements the per-sample ADSR envelope generator shared
// by all synthesis engines.
package envelope

import "math"

// State identifies the envelope stage.
type State int

const (
	StateIdle State = iota
	StateAttack
	StateDecay
	StateSustain
	StateRelease
)

// minSegment is the shortest allowed attack/decay/release time in seconds.
const minSegment = 0.001

// ADSR is a linear attack-decay-sustain-release envelope. Level is always in
// [0, 1] and continuous across stage transitions: NoteOn re-enters Attack
// from the current level rather than resetting to zero.
type ADSR struct {
	attack  float64 // seconds
	decay   float64 // seconds
	sustain float64 // level 0..1
	release float64 // seconds

	sampleRate   float64
	state        State
	level        float64
	releaseLevel float64
}

// New creates an envelope with the given segment times (seconds) and sustain
// level. Times are floored to 1ms, sustain is clamped to [0, 1].
func New(sampleRate, attack, decay, sustain, release float64) *ADSR {
	e := &ADSR{sampleRate: sampleRate}
	e.SetAttack(attack)
	e.SetDecay(decay)
	e.SetSustain(sustain)
	e.SetRelease(release)
	return e
}

func (e *ADSR) SetAttack(sec float64)  { e.attack = math.Max(minSegment, sec) }
func (e *ADSR) SetDecay(sec float64)   { e.decay = math.Max(minSegment, sec) }
func (e *ADSR) SetRelease(sec float64) { e.release = math.Max(minSegment, sec) }

func (e *ADSR) SetSustain(level float64) {
	e.sustain = math.Min(math.Max(level, 0), 1)
}

func (e *ADSR) Attack() float64  { return e.attack }
func (e *ADSR) Decay() float64   { return e.decay }
func (e *ADSR) Sustain() float64 { return e.sustain }
func (e *ADSR) Release() float64 { return e.release }

// State returns the current stage.
func (e *ADSR) State() State { return e.state }

// Level returns the current output level.
func (e *ADSR) Level() float64 { return e.level }

// NoteOn (re-)enters the attack stage from the current level.
func (e *ADSR) NoteOn() {
	e.state = StateAttack
	e.releaseLevel = e.level
}

// NoteOff captures the current level as the release start and enters Release.
// A no-op when already Idle.
func (e *ADSR) NoteOff() {
	if e.state == StateIdle {
		return
	}
	e.releaseLevel = e.level
	e.state = StateRelease
}

// IsActive reports whether the envelope is producing output (any stage but Idle).
func (e *ADSR) IsActive() bool { return e.state != StateIdle }

// Reset forces the envelope back to Idle at level zero.
func (e *ADSR) Reset() {
	e.state = StateIdle
	e.level = 0
	e.releaseLevel = 0
}

// timeToSamples converts a segment time to a sample count, never less than 1,
// so a zero-length segment still takes exactly one sample to cross.
func (e *ADSR) timeToSamples(sec float64) float64 {
	return math.Max(1, math.Round(sec*e.sampleRate))
}

// Tick advances the envelope by one sample and returns the new level.
func (e *ADSR) Tick() float64 {
	switch e.state {
	case StateAttack:
		e.level += 1 / e.timeToSamples(e.attack)
		if e.level >= 1 {
			e.level = 1
			e.state = StateDecay
		}
	case StateDecay:
		e.level -= (1 - e.sustain) / e.timeToSamples(e.decay)
		if e.level <= e.sustain {
			e.level = e.sustain
			e.state = StateSustain
		}
	case StateSustain:
		e.level = e.sustain
	case StateRelease:
		e.level -= e.releaseLevel / e.timeToSamples(e.release)
		if e.level <= 0 {
			e.level = 0
			e.state = StateIdle
		}
	default: // Idle
		return 0
	}
	return e.level
}

// Render fills dst with one envelope value per sample.
func (e *ADSR) Render(dst []float32) {
	for i := range dst {
		dst[i] = float32(e.Tick())
	}
}
