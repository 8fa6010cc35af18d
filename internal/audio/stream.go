// Package audio adapts a float32 sample source to the audio device via oto.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// SampleSource produces interleaved stereo float32 frames. Process overwrites
// dst completely; len(dst)/2 is the frame count.
type SampleSource interface {
	Process(dst []float32)
}

// StreamReader exposes a SampleSource as the little-endian float32 byte
// stream oto consumes. The scratch buffer is reused between reads.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

// The process may hold only one oto context, so it is created once and later
// players must request the same sample rate.
var (
	contextOnce sync.Once
	context     *oto.Context
	contextErr  error
	contextRate int
)

func sharedContext(sampleRate int) (*oto.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			contextErr = err
			return
		}
		<-ready
		context = ctx
	})
	if contextErr != nil {
		return nil, contextErr
	}
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

// Player streams a SampleSource to the default audio device.
type Player struct {
	player *oto.Player
}

// NewPlayer opens (or reuses) the device context and prepares a player.
// Returns an error when no audio device is available.
func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	return &Player{player: ctx.NewPlayer(NewStreamReader(source))}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Stop pauses and closes the player. Safe to call multiple times.
func (p *Player) Stop() error {
	p.player.Pause()
	return p.player.Close()
}
