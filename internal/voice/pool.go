package voice

import (
	"sync"

	"github.com/quadbox/quadbox-go/internal/engine"
)

// NumVoices is the fixed pool size.
const NumVoices = 4

// AnyVoice targets note events at no specific slot: note-on auto-allocates,
// note-off broadcasts to every voice holding the note.
const AnyVoice = -1

// defaultEngines assigns each slot its initial engine kind.
var defaultEngines = [NumVoices]string{
	engine.NameFM,
	engine.NameVector,
	engine.NameSubtractive,
	engine.NameFM,
}

// Pool is the fixed 4-voice pool. All mutation and the render pass are
// serialized under one lock: the voice count is small and render cost per
// block is bounded, so a single lock avoids partial-update tearing between
// parameter writers and the render thread.
type Pool struct {
	mu        sync.Mutex
	voices    [NumVoices]*Voice
	nextSteal int // round-robin cursor, used only when every voice is busy

	scratch []float32
}

// NewPool creates the pool with its per-slot default engines.
func NewPool(sampleRate float64) *Pool {
	p := &Pool{}
	for i := range p.voices {
		p.voices[i] = NewVoice(defaultEngines[i], sampleRate)
	}
	return p
}

// SetEngine swaps the engine on one voice slot. The index wraps modulo the
// pool size.
func (p *Pool) SetEngine(voiceIdx int, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voices[wrap(voiceIdx)].ChangeEngine(name)
}

// SetParam routes a parameter assignment to one voice's engine.
func (p *Pool) SetParam(voiceIdx int, name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voices[wrap(voiceIdx)].Engine().SetParam(name, value)
}

// EngineName returns the engine kind currently bound to a slot.
func (p *Pool) EngineName(voiceIdx int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voices[wrap(voiceIdx)].EngineName()
}

// Param reads one engine parameter from a slot (0 if unknown).
func (p *Pool) Param(voiceIdx int, name string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voices[wrap(voiceIdx)].Engine().Params()[name]
}

// NoteOn triggers a note. AnyVoice auto-allocates: the first free slot in
// fixed scan order, or a round-robin steal when every voice is busy. An
// explicit index addresses that slot directly (wrapped modulo pool size).
func (p *Pool) NoteOn(voiceIdx, note, velocity int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var v *Voice
	if voiceIdx >= 0 {
		v = p.voices[wrap(voiceIdx)]
	} else {
		v = p.allocate()
	}
	v.NoteOn(note, velocity)
}

// NoteOff releases voices. An explicit index releases that slot only if its
// current note matches; AnyVoice releases every voice holding the note.
func (p *Pool) NoteOff(voiceIdx, note int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if voiceIdx >= 0 {
		v := p.voices[wrap(voiceIdx)]
		if v.Note() == note {
			v.NoteOff()
		}
		return
	}
	for _, v := range p.voices {
		if v.Note() == note {
			v.NoteOff()
		}
	}
}

// allocate returns the first free voice, or steals one round-robin. The
// cursor advances on every steal regardless of which index was chosen, so
// sustained over-subscription rotates fairly. Callers hold p.mu.
func (p *Pool) allocate() *Voice {
	for _, v := range p.voices {
		if v.IsFree() {
			return v
		}
	}
	v := p.voices[p.nextSteal%NumVoices]
	p.nextSteal = (p.nextSteal + 1) % NumVoices
	return v
}

// ArpTick advances the arpeggiator on every voice whose engine has one.
func (p *Pool) ArpTick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, v := range p.voices {
		if arp, ok := v.Engine().(engine.Arpeggiator); ok {
			arp.ArpTick()
		}
	}
}

// Render mixes all voices into dst (mono) and hard-clamps the sum to [-1, 1].
// The clamp is summing-overflow protection, not a limiter.
func (p *Pool) Render(dst []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cap(p.scratch) < len(dst) {
		p.scratch = make([]float32, len(dst))
	}
	buf := p.scratch[:len(dst)]
	for i := range dst {
		dst[i] = 0
	}
	for _, v := range p.voices {
		v.Render(buf)
		for i := range dst {
			dst[i] += buf[i]
		}
	}
	for i := range dst {
		if dst[i] > 1 {
			dst[i] = 1
		} else if dst[i] < -1 {
			dst[i] = -1
		}
	}
}

// Voice exposes one slot for inspection. Intended for tests and status
// displays; engine mutation must go through the Pool methods.
func (p *Pool) Voice(voiceIdx int) *Voice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voices[wrap(voiceIdx)]
}

// ActiveVoiceCount returns how many voices are still producing sound.
func (p *Pool) ActiveVoiceCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, v := range p.voices {
		if v.Engine().IsActive() {
			n++
		}
	}
	return n
}

func wrap(idx int) int {
	w := idx % NumVoices
	if w < 0 {
		w += NumVoices
	}
	return w
}
