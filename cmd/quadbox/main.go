// Command quadbox plays a built-in demo pattern through the synthesizer
// core, either live on the default audio device or rendered to a WAV file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	quadbox "github.com/quadbox/quadbox-go"
)

// demo pattern: one note per step per track, 0 = rest. Track 0 runs the FM
// engine, track 1 the vector pad, track 2 the subtractive bass with its
// arpeggiator, matching the pool's per-slot defaults.
var demoTracks = [3][16]int{
	{72, 0, 76, 0, 79, 0, 76, 0, 72, 0, 76, 0, 79, 83, 79, 76}, // fm lead
	{60, 0, 0, 0, 55, 0, 0, 0, 57, 0, 0, 0, 55, 0, 0, 0},       // vector pad
	{36, 36, 0, 36, 0, 36, 36, 0, 38, 38, 0, 38, 0, 38, 38, 0}, // subtractive bass
}

func main() {
	var (
		bpm     = flag.Float64("bpm", 120, "tempo in beats per minute")
		swing   = flag.Float64("swing", 0, "swing amount 0..1")
		seconds = flag.Float64("seconds", 8, "playback duration")
		wavPath = flag.String("wav", "", "render to WAV file instead of playing live")
	)
	flag.Parse()

	eng := quadbox.NewAudioEngine()
	clock := quadbox.NewClock(*bpm)
	clock.SetSwing(*swing)

	// Deepen the bass and open the pad a little.
	eng.SetParam(2, "octave", 0)
	eng.SetParam(2, "filter_cutoff", 1500)
	eng.SetParam(1, "xy_x", 0.3)
	eng.SetParam(1, "lfo_depth", 0.4)
	eng.SetParam(0, "algorithm", 1)

	if *wavPath != "" {
		if err := renderWAV(eng, clock, *wavPath, *seconds); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%.1fs at %d Hz)\n", *wavPath, *seconds, eng.SampleRate())
		return
	}

	clock.AddStepCallback(func(step int) { playStep(eng, step) })
	if err := eng.Start(); err != nil {
		log.Fatalf("audio device unavailable: %v", err)
	}
	clock.Start()
	time.Sleep(time.Duration(*seconds * float64(time.Second)))
	clock.Stop()
	if err := eng.Stop(); err != nil {
		log.Fatal(err)
	}
}

// playStep releases the previous step's notes and triggers this step's.
func playStep(eng *quadbox.AudioEngine, step int) {
	prev := (step + len(demoTracks[0]) - 1) % len(demoTracks[0])
	for track, notes := range demoTracks {
		if n := notes[prev]; n != 0 {
			eng.NoteOff(track, n)
		}
		if n := notes[step]; n != 0 {
			eng.NoteOn(track, n, 100)
		}
	}
}

// renderWAV steps the pattern offline at the clock's step durations and
// writes the result as 16-bit stereo PCM.
func renderWAV(eng *quadbox.AudioEngine, clock *quadbox.Clock, path string, seconds float64) error {
	totalFrames := int(float64(eng.SampleRate()) * seconds)
	out := make([]float32, 0, totalFrames*2)
	rendered := 0
	for step := 0; rendered < totalFrames; step++ {
		playStep(eng, step%16)
		frames := int(clock.StepDuration(step).Seconds() * float64(eng.SampleRate()))
		if rendered+frames > totalFrames {
			frames = totalFrames - rendered
		}
		block := make([]float32, frames*2)
		eng.RenderBlocks(block)
		out = append(out, block...)
		rendered += frames
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, eng.SampleRate(), 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 2,
			SampleRate:  eng.SampleRate(),
		},
		Data:           make([]int, len(out)),
		SourceBitDepth: 16,
	}
	for i, s := range out {
		buf.Data[i] = int(s * 32767)
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
