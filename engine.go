// Package quadbox is a polyphonic multi-engine synthesizer core: it turns
// note and parameter events into a continuous stream of audio samples.
//
// Producer threads (a UI, a MIDI transport, a sequencer) enqueue typed
// events; the render thread drains them once per block, applies them to the
// 4-voice pool, and mixes one stereo block. The Clock runs its own timing
// loop and drives step callbacks for the sequencing layer.
package quadbox

import (
	"sync"

	"github.com/quadbox/quadbox-go/internal/audio"
	"github.com/quadbox/quadbox-go/internal/voice"
)

const (
	// DefaultSampleRate is the internal render rate in Hz.
	DefaultSampleRate = 44100
	// DefaultBlockSize is the render block length in frames (~5.8 ms).
	DefaultBlockSize = 256

	defaultEventBuffer = 256
)

// NumVoices is the fixed polyphony of the voice pool.
const NumVoices = voice.NumVoices

// AnyVoice targets an event at no specific voice slot: note-on
// auto-allocates, note-off broadcasts to every voice holding the note.
const AnyVoice = voice.AnyVoice

// EventKind tags the event variant.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventSetEngine
	EventSetParam
	EventArpTick
)

// Event is one command for the render thread. Events are created by
// producers and consumed exactly once when the next block is rendered.
type Event struct {
	Kind     EventKind
	Voice    int // slot index, or AnyVoice
	Note     int
	Velocity int
	Engine   string
	Param    string
	Value    float64
}

// Option configures an AudioEngine.
type Option func(*engineConfig)

type engineConfig struct {
	sampleRate  int
	blockSize   int
	eventBuffer int
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		sampleRate:  DefaultSampleRate,
		blockSize:   DefaultBlockSize,
		eventBuffer: defaultEventBuffer,
	}
}

// WithSampleRate overrides the render sample rate.
func WithSampleRate(hz int) Option {
	return func(cfg *engineConfig) {
		if hz > 0 {
			cfg.sampleRate = hz
		}
	}
}

// WithBlockSize overrides the render block length in frames.
func WithBlockSize(frames int) Option {
	return func(cfg *engineConfig) {
		if frames > 0 {
			cfg.blockSize = frames
		}
	}
}

// WithEventBuffer overrides the event channel capacity.
func WithEventBuffer(n int) Option {
	return func(cfg *engineConfig) {
		if n > 0 {
			cfg.eventBuffer = n
		}
	}
}

// AudioEngine owns the voice pool and the cross-thread event channel, and
// drives fixed-size block rendering. The enqueue methods are safe to call
// from any goroutine and never block: when the channel is full the event is
// dropped rather than stalling a producer.
type AudioEngine struct {
	pool       *voice.Pool
	events     chan Event
	sampleRate int
	blockSize  int

	mono []float32

	mu     sync.Mutex
	player *audio.Player
}

// NewAudioEngine creates an engine with a fresh 4-voice pool.
func NewAudioEngine(opts ...Option) *AudioEngine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &AudioEngine{
		pool:       voice.NewPool(float64(cfg.sampleRate)),
		events:     make(chan Event, cfg.eventBuffer),
		sampleRate: cfg.sampleRate,
		blockSize:  cfg.blockSize,
		mono:       make([]float32, cfg.blockSize),
	}
}

// SampleRate returns the render sample rate in Hz.
func (e *AudioEngine) SampleRate() int { return e.sampleRate }

// BlockSize returns the render block length in frames.
func (e *AudioEngine) BlockSize() int { return e.blockSize }

// Pool exposes the voice pool for direct, lock-protected inspection.
func (e *AudioEngine) Pool() *voice.Pool { return e.pool }

// NoteOn enqueues a note-on. voiceIdx AnyVoice auto-allocates. The note is
// clamped to 0..127 and velocity to 1..127.
func (e *AudioEngine) NoteOn(voiceIdx, note, velocity int) {
	e.Send(Event{Kind: EventNoteOn, Voice: voiceIdx, Note: clampInt(note, 0, 127), Velocity: clampInt(velocity, 1, 127)})
}

// NoteOff enqueues a note-off. voiceIdx AnyVoice releases every voice
// holding the note.
func (e *AudioEngine) NoteOff(voiceIdx, note int) {
	e.Send(Event{Kind: EventNoteOff, Voice: voiceIdx, Note: clampInt(note, 0, 127)})
}

// SetEngine enqueues an engine swap for one voice slot.
func (e *AudioEngine) SetEngine(voiceIdx int, name string) {
	e.Send(Event{Kind: EventSetEngine, Voice: voiceIdx, Engine: name})
}

// SetParam enqueues a parameter assignment for one voice's engine.
func (e *AudioEngine) SetParam(voiceIdx int, name string, value float64) {
	e.Send(Event{Kind: EventSetParam, Voice: voiceIdx, Param: name, Value: value})
}

// ArpTick enqueues one arpeggiator step for every voice that has one.
// Typically wired to a Clock step callback.
func (e *AudioEngine) ArpTick() {
	e.Send(Event{Kind: EventArpTick})
}

// Send enqueues an event without blocking. Reports whether the event was
// accepted; a full channel drops it.
func (e *AudioEngine) Send(ev Event) bool {
	select {
	case e.events <- ev:
		return true
	default:
		return false
	}
}

// Process renders one block of interleaved stereo into dst (len(dst)/2
// frames): it drains the event channel completely, applies each event in
// arrival order, renders the mono mix, and duplicates it to both channels.
// This is the render driver; it never blocks and allocates only when a block
// larger than any seen before is requested.
func (e *AudioEngine) Process(dst []float32) {
	e.drainEvents()
	frames := len(dst) / 2
	if cap(e.mono) < frames {
		e.mono = make([]float32, frames)
	}
	mono := e.mono[:frames]
	e.pool.Render(mono)
	for i, s := range mono {
		dst[i*2] = s
		dst[i*2+1] = s
	}
}

func (e *AudioEngine) drainEvents() {
	for {
		select {
		case ev := <-e.events:
			e.apply(ev)
		default:
			return
		}
	}
}

func (e *AudioEngine) apply(ev Event) {
	switch ev.Kind {
	case EventNoteOn:
		e.pool.NoteOn(ev.Voice, ev.Note, ev.Velocity)
	case EventNoteOff:
		e.pool.NoteOff(ev.Voice, ev.Note)
	case EventSetEngine:
		e.pool.SetEngine(ev.Voice, ev.Engine)
	case EventSetParam:
		e.pool.SetParam(ev.Voice, ev.Param, ev.Value)
	case EventArpTick:
		e.pool.ArpTick()
	}
}

// Start opens the audio device and begins streaming. Returns an error when
// no output device is available; the engine remains usable headlessly via
// Process and RenderSeconds.
func (e *AudioEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player != nil {
		return nil
	}
	p, err := audio.NewPlayer(e.sampleRate, e)
	if err != nil {
		return err
	}
	e.player = p
	p.Play()
	return nil
}

// Stop flushes and closes the audio stream. Idempotent.
func (e *AudioEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil {
		return nil
	}
	err := e.player.Stop()
	e.player = nil
	return err
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
