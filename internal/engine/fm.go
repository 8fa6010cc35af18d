package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/quadbox/quadbox-go/internal/envelope"
	"github.com/quadbox/quadbox-go/internal/osc"
)

const twoPi = math.Pi * 2

// NumOperators is the operator count of the FM engine.
const NumOperators = 4

// NumAlgorithms is the number of built-in FM routing graphs.
const NumAlgorithms = 6

// opRouting describes one operator's place in an algorithm: which operators
// feed its phase, and whether its output reaches the mix.
type opRouting struct {
	mods    []int
	carrier bool
}

// fmAlgorithms is the fixed routing table shared by all FM engine instances.
// Modulator sources always carry a lower index than the operator they feed;
// rendering in index order 0..3 therefore satisfies every dependency. Any
// future algorithm added here must preserve that ordering.
var fmAlgorithms = [NumAlgorithms][NumOperators]opRouting{
	// 0: serial chain 0→1→2→3, op3 carrier
	{{nil, false}, {[]int{0}, false}, {[]int{1}, false}, {[]int{2}, true}},
	// 1: 0→1→2 and 0→3, ops 2+3 carriers
	{{nil, false}, {[]int{0}, false}, {[]int{1}, true}, {[]int{0}, true}},
	// 2: 0→1 and 0→2, ops 1+2+3 carriers
	{{nil, false}, {[]int{0}, true}, {[]int{0}, true}, {nil, true}},
	// 3: ops 0+1 carriers, (0,1)→2→3 silent branch
	{{nil, true}, {nil, true}, {[]int{0, 1}, false}, {[]int{2}, false}},
	// 4: same shape as 2
	{{nil, false}, {[]int{0}, true}, {[]int{0}, true}, {nil, true}},
	// 5: additive, all carriers
	{{nil, true}, {nil, true}, {nil, true}, {nil, true}},
}

// carrierCount returns how many operators of algorithm alg feed the mix.
func carrierCount(alg int) int {
	n := 0
	for _, r := range fmAlgorithms[alg] {
		if r.carrier {
			n++
		}
	}
	return n
}

// fmOperator is one oscillator+envelope unit of the FM engine.
type fmOperator struct {
	ratio    float64 // frequency = noteFreq * ratio
	level    float64 // output amplitude 0..1
	feedback float64 // self-modulation amount
	env      *envelope.ADSR
	phase    float64 // cycles, in [0, 1)
	lastOut  float64 // previous output, for feedback
}

// renderSample advances the operator one sample and returns its output.
// modInput is the summed output of this operator's modulator sources for the
// same sample index.
func (op *fmOperator) renderSample(freqHz, modInput, sampleRate float64) float64 {
	op.phase += freqHz * op.ratio / sampleRate
	op.phase -= math.Floor(op.phase)
	totalMod := modInput + op.feedback*op.lastOut
	s := op.level * op.env.Tick() * math.Sin(twoPi*(op.phase+totalMod))
	op.lastOut = s
	return s
}

func (op *fmOperator) noteOn() {
	op.env.NoteOn()
	op.phase = 0
	op.lastOut = 0
}

// FM is a 4-operator, 6-algorithm FM synthesis engine. Operators render
// strictly in index order each sample; the algorithm table guarantees every
// modulator source precedes the operator it feeds.
type FM struct {
	ops        [NumOperators]fmOperator
	algorithm  int
	noteFreq   float64
	velScale   float64
	sampleRate float64
}

// NewFM creates an FM engine with the default 1/2/3/1 ratio stack.
func NewFM(sampleRate float64) *FM {
	e := &FM{noteFreq: 440, velScale: 1, sampleRate: sampleRate}
	ratios := [NumOperators]float64{1, 2, 3, 1}
	for i := range e.ops {
		e.ops[i] = fmOperator{
			ratio: ratios[i],
			level: 0.7,
			env:   envelope.New(sampleRate, 0.005, 0.2, 0.5, 0.4),
		}
	}
	return e
}

func (e *FM) Name() string { return NameFM }

// IsActive reports whether any operator envelope is still producing sound.
func (e *FM) IsActive() bool {
	for i := range e.ops {
		if e.ops[i].env.IsActive() {
			return true
		}
	}
	return false
}

func (e *FM) NoteOn(note, velocity int) {
	e.noteFreq = osc.MIDIToFreq(note)
	e.velScale = float64(velocity) / 127
	for i := range e.ops {
		e.ops[i].noteOn()
	}
}

func (e *FM) NoteOff() {
	for i := range e.ops {
		e.ops[i].env.NoteOff()
	}
}

// Render overwrites dst with the FM mix. The summed carrier output is divided
// by the carrier count (when more than one) and scaled by velocity.
func (e *FM) Render(dst []float32) {
	alg := &fmAlgorithms[e.algorithm]
	carriers := carrierCount(e.algorithm)
	for i := range dst {
		var opOut [NumOperators]float64
		var mix float64
		for oi := 0; oi < NumOperators; oi++ {
			mod := 0.0
			for _, src := range alg[oi].mods {
				mod += opOut[src]
			}
			s := e.ops[oi].renderSample(e.noteFreq, mod, e.sampleRate)
			opOut[oi] = s
			if alg[oi].carrier {
				mix += s
			}
		}
		if carriers > 1 {
			mix /= float64(carriers)
		}
		dst[i] = float32(mix * e.velScale)
	}
}

// Params returns the current parameter set: "algorithm" plus
// "op{i}_{ratio|level|feedback|attack|decay|sustain|release}" for i in 0..3.
func (e *FM) Params() map[string]float64 {
	p := map[string]float64{"algorithm": float64(e.algorithm)}
	for i := range e.ops {
		op := &e.ops[i]
		prefix := fmt.Sprintf("op%d_", i)
		p[prefix+"ratio"] = op.ratio
		p[prefix+"level"] = op.level
		p[prefix+"feedback"] = op.feedback
		p[prefix+"attack"] = op.env.Attack()
		p[prefix+"decay"] = op.env.Decay()
		p[prefix+"sustain"] = op.env.Sustain()
		p[prefix+"release"] = op.env.Release()
	}
	return p
}

// SetParam assigns one parameter by name. The algorithm index wraps modulo
// NumAlgorithms, operator indices wrap modulo NumOperators, and unknown names
// are ignored.
func (e *FM) SetParam(name string, value float64) {
	if name == "algorithm" {
		e.algorithm = wrapIndex(int(value), NumAlgorithms)
		return
	}
	opName, attr, ok := strings.Cut(name, "_")
	if !ok || !strings.HasPrefix(opName, "op") {
		return
	}
	idx, err := strconv.Atoi(opName[2:])
	if err != nil {
		return
	}
	op := &e.ops[wrapIndex(idx, NumOperators)]
	switch attr {
	case "ratio":
		op.ratio = math.Max(0.01, value)
	case "level":
		op.level = clamp(value, 0, 1)
	case "feedback":
		op.feedback = value
	case "attack":
		op.env.SetAttack(value)
	case "decay":
		op.env.SetDecay(value)
	case "sustain":
		op.env.SetSustain(value)
	case "release":
		op.env.SetRelease(value)
	}
}
