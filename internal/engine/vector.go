package engine

import (
	"github.com/quadbox/quadbox-go/internal/envelope"
	"github.com/quadbox/quadbox-go/internal/filter"
	"github.com/quadbox/quadbox-go/internal/lfo"
	"github.com/quadbox/quadbox-go/internal/osc"
)

// Vector is a four-oscillator vector synthesis engine. Corner oscillators
// A/B/C/D are crossfaded by a 2D position: x blends A↔B, y blends C↔D, and
// the two pairs are averaged. An optional LFO perturbs both coordinates
// identically. The mix passes through a state-variable filter and the amp
// envelope.
type Vector struct {
	oscs  [4]*osc.Oscillator // A, B, C, D
	x, y  float64            // crossfade position, 0..1
	xyLFO lfo.LFO
	filt  *filter.SVF
	env   *envelope.ADSR

	noteFreq   float64
	velScale   float64
	sampleRate float64

	oscBuf [4][]float32
	envBuf []float32
}

// NewVector creates a vector engine with sine/saw/square/triangle corners.
func NewVector(sampleRate float64) *Vector {
	e := &Vector{
		x: 0.5, y: 0.5,
		filt:       filter.New(sampleRate, 4000, 0.2, filter.Lowpass),
		env:        envelope.New(sampleRate, 0.01, 0.2, 0.6, 0.5),
		noteFreq:   440,
		velScale:   1,
		sampleRate: sampleRate,
	}
	shapes := [4]osc.Shape{osc.Sine, osc.Saw, osc.Square, osc.Triangle}
	for i := range e.oscs {
		e.oscs[i] = osc.New(sampleRate, shapes[i])
	}
	e.xyLFO.Set(0.5, 0)
	return e
}

func (e *Vector) Name() string { return NameVector }

func (e *Vector) IsActive() bool { return e.env.IsActive() }

// NoteOn resets all four corner oscillator phases and retriggers the
// envelope.
func (e *Vector) NoteOn(note, velocity int) {
	e.noteFreq = osc.MIDIToFreq(note)
	e.velScale = float64(velocity) / 127
	e.env.NoteOn()
	for _, o := range e.oscs {
		o.ResetPhase()
	}
}

func (e *Vector) NoteOff() { e.env.NoteOff() }

// Render overwrites dst with the crossfaded, filtered, enveloped mix.
func (e *Vector) Render(dst []float32) {
	n := len(dst)
	for k := range e.oscs {
		e.oscBuf[k] = ensure(e.oscBuf[k], n)
		e.oscs[k].Render(e.noteFreq, e.oscBuf[k])
	}
	a, b, c, d := e.oscBuf[0], e.oscBuf[1], e.oscBuf[2], e.oscBuf[3]
	for i := 0; i < n; i++ {
		off := e.xyLFO.Sample(e.sampleRate) * 0.5
		x := clamp(e.x+off, 0, 1)
		y := clamp(e.y+off, 0, 1)
		ab := float64(a[i])*(1-x) + float64(b[i])*x
		cd := float64(c[i])*(1-y) + float64(d[i])*y
		dst[i] = float32((ab + cd) * 0.5)
	}
	e.filt.Process(dst)
	e.envBuf = ensure(e.envBuf, n)
	e.env.Render(e.envBuf)
	vel := float32(e.velScale)
	for i := 0; i < n; i++ {
		dst[i] *= e.envBuf[i] * vel
	}
}

func (e *Vector) Params() map[string]float64 {
	return map[string]float64{
		"osc_a":         float64(e.oscs[0].Wave()),
		"osc_b":         float64(e.oscs[1].Wave()),
		"osc_c":         float64(e.oscs[2].Wave()),
		"osc_d":         float64(e.oscs[3].Wave()),
		"xy_x":          e.x,
		"xy_y":          e.y,
		"lfo_rate":      e.xyLFO.Rate(),
		"lfo_depth":     e.xyLFO.Depth(),
		"filter_cutoff": e.filt.Cutoff(),
		"filter_res":    e.filt.Resonance(),
		"filter_mode":   float64(e.filt.FilterMode()),
		"attack":        e.env.Attack(),
		"decay":         e.env.Decay(),
		"sustain":       e.env.Sustain(),
		"release":       e.env.Release(),
	}
}

func (e *Vector) SetParam(name string, value float64) {
	switch name {
	case "osc_a":
		e.oscs[0].SetWave(osc.WrapShape(int(value)))
	case "osc_b":
		e.oscs[1].SetWave(osc.WrapShape(int(value)))
	case "osc_c":
		e.oscs[2].SetWave(osc.WrapShape(int(value)))
	case "osc_d":
		e.oscs[3].SetWave(osc.WrapShape(int(value)))
	case "xy_x":
		e.x = clamp(value, 0, 1)
	case "xy_y":
		e.y = clamp(value, 0, 1)
	case "lfo_rate":
		e.xyLFO.Set(value, e.xyLFO.Depth())
	case "lfo_depth":
		e.xyLFO.Set(e.xyLFO.Rate(), value)
	case "filter_cutoff":
		e.filt.SetCutoff(value)
	case "filter_res":
		e.filt.SetResonance(value)
	case "filter_mode":
		e.filt.SetMode(filter.WrapMode(int(value)))
	case "attack":
		e.env.SetAttack(value)
	case "decay":
		e.env.SetDecay(value)
	case "sustain":
		e.env.SetSustain(value)
	case "release":
		e.env.SetRelease(value)
	}
}
