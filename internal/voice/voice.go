// Package voice implements the fixed-size voice pool: allocation, stealing,
// and thread-safe parameter routing over the synthesis engines.
package voice

import "github.com/quadbox/quadbox-go/internal/engine"

// NoNote marks a voice holding no note.
const NoNote = -1

// Voice binds one engine instance to allocation bookkeeping. Voices are
// created once at pool construction and only ever reset, never destroyed.
type Voice struct {
	eng        engine.Engine
	engineName string
	note       int
	active     bool
	velocity   int
	sampleRate float64
}

// NewVoice creates a voice running the named engine.
func NewVoice(engineName string, sampleRate float64) *Voice {
	return &Voice{
		eng:        engine.New(engineName, sampleRate),
		engineName: engineName,
		note:       NoNote,
		velocity:   100,
		sampleRate: sampleRate,
	}
}

// ChangeEngine swaps in a fresh engine of the requested kind and clears note
// state; in-flight sound is cut, not faded. A no-op if the name is unchanged.
func (v *Voice) ChangeEngine(name string) {
	if name == v.engineName {
		return
	}
	v.engineName = name
	v.eng = engine.New(name, v.sampleRate)
	v.note = NoNote
	v.active = false
}

// Engine returns the current engine instance.
func (v *Voice) Engine() engine.Engine { return v.eng }

// EngineName returns the name the current engine was constructed with.
func (v *Voice) EngineName() string { return v.engineName }

// Note returns the current note, or NoNote.
func (v *Voice) Note() int { return v.note }

// Active reports whether the voice has been triggered and not yet released.
func (v *Voice) Active() bool { return v.active }

// Velocity returns the velocity of the last trigger.
func (v *Voice) Velocity() int { return v.velocity }

// NoteOn triggers the engine and marks the voice busy.
func (v *Voice) NoteOn(note, velocity int) {
	v.note = note
	v.velocity = velocity
	v.active = true
	v.eng.NoteOn(note, velocity)
}

// NoteOff releases the engine. The voice stays non-free until the envelope
// tail finishes.
func (v *Voice) NoteOff() {
	v.eng.NoteOff()
}

// IsFree reports whether the voice can be allocated: not active and the
// engine's envelopes report inactive.
func (v *Voice) IsFree() bool {
	return !v.active && !v.eng.IsActive()
}

// Render fills dst with the voice output, or silence once the engine has
// gone inactive (which also clears the active flag).
func (v *Voice) Render(dst []float32) {
	if !v.eng.IsActive() {
		v.active = false
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	v.eng.Render(dst)
}
