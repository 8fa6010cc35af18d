package engine

import (
	"math"
	"math/rand"
	"sort"

	"github.com/quadbox/quadbox-go/internal/envelope"
	"github.com/quadbox/quadbox-go/internal/filter"
	"github.com/quadbox/quadbox-go/internal/osc"
)

// ArpMode selects the arpeggiator playback order.
type ArpMode int

const (
	ArpOff ArpMode = iota
	ArpUp
	ArpDown
	ArpRandom
	ArpChord

	numArpModes
)

// ArpModeNames lists arp modes in ArpMode order.
var ArpModeNames = []string{"off", "up", "down", "random", "chord"}

func (m ArpMode) String() string { return ArpModeNames[wrapIndex(int(m), int(numArpModes))] }

// Subtractive is a two-oscillator subtractive engine with a filter envelope
// and a built-in arpeggiator.
//
// Signal path: osc1 + osc2 (detuned) → SVF → amp envelope. The filter
// envelope scales the base cutoff by (1 + env*amount*3), recomputed every
// sample.
//
// The arpeggiator does not self-time: when a mode other than off is active,
// NoteOn only accumulates held notes and rebuilds the sequence; ArpTick
// triggers the next note, so the caller controls the step rate.
type Subtractive struct {
	osc1, osc2 *osc.Oscillator
	oscMix     float64 // 0 = all osc1, 1 = all osc2
	detune     float64 // osc2 offset in semitones
	octave     int     // -2..2 shift applied before frequency conversion

	filt         *filter.SVF
	baseCutoff   float64
	filterEnvAmt float64

	ampEnv  *envelope.ADSR
	filtEnv *envelope.ADSR

	arpMode    ArpMode
	arpOctaves int
	arpNotes   []int
	arpIndex   int
	heldNotes  []int

	noteFreq   float64
	velScale   float64
	sampleRate float64

	buf2    []float32
	mixBuf  []float32
	randSrc *rand.Rand
}

// NewSubtractive creates an engine with saw/square oscillators and a lowpass
// filter at 2 kHz.
func NewSubtractive(sampleRate float64) *Subtractive {
	return &Subtractive{
		osc1:         osc.New(sampleRate, osc.Saw),
		osc2:         osc.New(sampleRate, osc.Square),
		oscMix:       0.5,
		filt:         filter.New(sampleRate, 2000, 0.3, filter.Lowpass),
		baseCutoff:   2000,
		filterEnvAmt: 0.5,
		ampEnv:       envelope.New(sampleRate, 0.005, 0.15, 0.7, 0.3),
		filtEnv:      envelope.New(sampleRate, 0.005, 0.25, 0.3, 0.3),
		arpOctaves:   1,
		noteFreq:     440,
		velScale:     1,
		sampleRate:   sampleRate,
		randSrc:      rand.New(rand.NewSource(rand.Int63())),
	}
}

func (e *Subtractive) Name() string { return NameSubtractive }

func (e *Subtractive) IsActive() bool { return e.ampEnv.IsActive() }

// NoteOn either triggers the note directly (arp off) or adds it to the held
// set and rebuilds the arp sequence. Held notes are deduplicated.
func (e *Subtractive) NoteOn(note, velocity int) {
	e.velScale = float64(velocity) / 127
	held := false
	for _, n := range e.heldNotes {
		if n == note {
			held = true
			break
		}
	}
	if !held {
		e.heldNotes = append(e.heldNotes, note)
	}
	if e.arpMode == ArpOff {
		e.trigger(note)
	} else {
		e.rebuildArpSequence()
	}
}

// NoteOff clears the held-note set and releases both envelopes.
func (e *Subtractive) NoteOff() {
	e.heldNotes = e.heldNotes[:0]
	e.ampEnv.NoteOff()
	e.filtEnv.NoteOff()
}

// ArpTick triggers the next note of the arp sequence, wrapping at the end.
// A no-op when the arpeggiator is off or no notes are held.
func (e *Subtractive) ArpTick() {
	if e.arpMode == ArpOff || len(e.arpNotes) == 0 {
		return
	}
	note := e.arpNotes[e.arpIndex%len(e.arpNotes)]
	e.arpIndex = (e.arpIndex + 1) % len(e.arpNotes)
	e.trigger(note)
}

// ArpSequence returns the current arp note order.
func (e *Subtractive) ArpSequence() []int {
	out := make([]int, len(e.arpNotes))
	copy(out, e.arpNotes)
	return out
}

func (e *Subtractive) trigger(note int) {
	e.noteFreq = osc.MIDIToFreq(note + e.octave*12)
	e.ampEnv.NoteOn()
	e.filtEnv.NoteOn()
	e.osc1.ResetPhase()
	e.osc2.ResetPhase()
}

// rebuildArpSequence rebuilds the note order from the held set: sorted
// ascending, replicated across arpOctaves octave layers, then ordered per
// mode. Random shuffles once here, not per tick. Chord keeps the up ordering;
// simultaneous triggering is the caller's concern.
func (e *Subtractive) rebuildArpSequence() {
	e.arpIndex = 0
	e.arpNotes = e.arpNotes[:0]
	if len(e.heldNotes) == 0 {
		return
	}
	base := make([]int, len(e.heldNotes))
	copy(base, e.heldNotes)
	sort.Ints(base)
	for oct := 0; oct < e.arpOctaves; oct++ {
		for _, n := range base {
			e.arpNotes = append(e.arpNotes, n+oct*12)
		}
	}
	switch e.arpMode {
	case ArpDown:
		for i, j := 0, len(e.arpNotes)-1; i < j; i, j = i+1, j-1 {
			e.arpNotes[i], e.arpNotes[j] = e.arpNotes[j], e.arpNotes[i]
		}
	case ArpRandom:
		e.randSrc.Shuffle(len(e.arpNotes), func(i, j int) {
			e.arpNotes[i], e.arpNotes[j] = e.arpNotes[j], e.arpNotes[i]
		})
	}
}

// Render overwrites dst with the filtered two-oscillator mix. The filter
// cutoff is recomputed from the filter envelope on every sample.
func (e *Subtractive) Render(dst []float32) {
	n := len(dst)
	freq1 := e.noteFreq
	freq2 := e.noteFreq * math.Pow(2, e.detune/12)

	e.mixBuf = ensure(e.mixBuf, n)
	e.buf2 = ensure(e.buf2, n)
	e.osc1.Render(freq1, e.mixBuf)
	e.osc2.Render(freq2, e.buf2)

	mix := float32(e.oscMix)
	vel := float32(e.velScale)
	for i := 0; i < n; i++ {
		in := e.mixBuf[i]*(1-mix) + e.buf2[i]*mix
		mod := e.filtEnv.Tick() * e.filterEnvAmt
		e.filt.SetCutoff(e.baseCutoff * (1 + mod*3))
		out := float32(e.filt.Tick(float64(in)))
		dst[i] = out * float32(e.ampEnv.Tick()) * vel
	}
}

func (e *Subtractive) Params() map[string]float64 {
	return map[string]float64{
		"osc1_wave":      float64(e.osc1.Wave()),
		"osc2_wave":      float64(e.osc2.Wave()),
		"osc_mix":        e.oscMix,
		"detune":         e.detune,
		"octave":         float64(e.octave),
		"filter_cutoff":  e.baseCutoff,
		"filter_res":     e.filt.Resonance(),
		"filter_mode":    float64(e.filt.FilterMode()),
		"filter_env_amt": e.filterEnvAmt,
		"amp_attack":     e.ampEnv.Attack(),
		"amp_decay":      e.ampEnv.Decay(),
		"amp_sustain":    e.ampEnv.Sustain(),
		"amp_release":    e.ampEnv.Release(),
		"filt_attack":    e.filtEnv.Attack(),
		"filt_decay":     e.filtEnv.Decay(),
		"filt_sustain":   e.filtEnv.Sustain(),
		"filt_release":   e.filtEnv.Release(),
		"arp_mode":       float64(e.arpMode),
		"arp_octaves":    float64(e.arpOctaves),
	}
}

func (e *Subtractive) SetParam(name string, value float64) {
	switch name {
	case "osc1_wave":
		e.osc1.SetWave(osc.WrapShape(int(value)))
	case "osc2_wave":
		e.osc2.SetWave(osc.WrapShape(int(value)))
	case "osc_mix":
		e.oscMix = clamp(value, 0, 1)
	case "detune":
		e.detune = value
	case "octave":
		e.octave = int(clamp(value, -2, 2))
	case "filter_cutoff":
		e.baseCutoff = value
		e.filt.SetCutoff(value)
	case "filter_res":
		e.filt.SetResonance(value)
	case "filter_mode":
		e.filt.SetMode(filter.WrapMode(int(value)))
	case "filter_env_amt":
		e.filterEnvAmt = clamp(value, 0, 1)
	case "amp_attack":
		e.ampEnv.SetAttack(value)
	case "amp_decay":
		e.ampEnv.SetDecay(value)
	case "amp_sustain":
		e.ampEnv.SetSustain(value)
	case "amp_release":
		e.ampEnv.SetRelease(value)
	case "filt_attack":
		e.filtEnv.SetAttack(value)
	case "filt_decay":
		e.filtEnv.SetDecay(value)
	case "filt_sustain":
		e.filtEnv.SetSustain(value)
	case "filt_release":
		e.filtEnv.SetRelease(value)
	case "arp_mode":
		e.arpMode = ArpMode(wrapIndex(int(value), int(numArpModes)))
	case "arp_octaves":
		e.arpOctaves = int(math.Max(1, value))
	}
}
