package engine

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadbox/quadbox-go/internal/osc"
)

func holdChord(e *Subtractive, notes ...int) {
	for _, n := range notes {
		e.NoteOn(n, 100)
	}
}

func TestArpUpOrdersAscending(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("arp_mode", float64(ArpUp))
	holdChord(e, 64, 60, 67)
	assert.Equal(t, []int{60, 64, 67}, e.ArpSequence())
}

func TestArpDownOrdersDescending(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("arp_mode", float64(ArpDown))
	holdChord(e, 64, 60, 67)
	assert.Equal(t, []int{67, 64, 60}, e.ArpSequence())
}

func TestArpOctavesReplicateSequence(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("arp_mode", float64(ArpUp))
	e.SetParam("arp_octaves", 2)
	holdChord(e, 60, 64, 67)
	assert.Equal(t, []int{60, 64, 67, 72, 76, 79}, e.ArpSequence())
}

func TestArpChordKeepsUpOrdering(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("arp_mode", float64(ArpChord))
	holdChord(e, 67, 60)
	assert.Equal(t, []int{60, 67}, e.ArpSequence())
}

func TestArpRandomIsPermutation(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("arp_mode", float64(ArpRandom))
	holdChord(e, 60, 62, 64, 65, 67, 69)
	seq := e.ArpSequence()
	require.Len(t, seq, 6)
	sort.Ints(seq)
	assert.Equal(t, []int{60, 62, 64, 65, 67, 69}, seq)
}

func TestHeldNotesDeduplicated(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("arp_mode", float64(ArpUp))
	holdChord(e, 60, 60, 64, 60)
	assert.Equal(t, []int{60, 64}, e.ArpSequence())
}

func TestArpTickAdvancesAndWraps(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("arp_mode", float64(ArpUp))
	holdChord(e, 60, 64)

	e.ArpTick()
	assert.Equal(t, osc.MIDIToFreq(60), e.noteFreq)
	e.ArpTick()
	assert.Equal(t, osc.MIDIToFreq(64), e.noteFreq)
	e.ArpTick()
	assert.Equal(t, osc.MIDIToFreq(60), e.noteFreq)
}

func TestNoteOffClearsHeldNotes(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("arp_mode", float64(ArpUp))
	holdChord(e, 60, 64)
	e.ArpTick()

	e.NoteOff()
	assert.Empty(t, e.heldNotes)

	// The sequence only rebuilds on NoteOn; the next note replaces it.
	e.NoteOn(72, 100)
	assert.Equal(t, []int{72}, e.ArpSequence())
}

func TestArpOffTriggersDirectly(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.NoteOn(60, 100)
	assert.Equal(t, osc.MIDIToFreq(60), e.noteFreq)
	assert.True(t, e.IsActive())
}

func TestOctaveShiftsTriggeredPitch(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("octave", 1)
	e.NoteOn(60, 100)
	assert.Equal(t, osc.MIDIToFreq(72), e.noteFreq)

	e.SetParam("octave", 5)
	assert.Equal(t, 2.0, e.Params()["octave"])
	e.SetParam("octave", -7)
	assert.Equal(t, -2.0, e.Params()["octave"])
}

func TestFilterEnvelopeChangesOutput(t *testing.T) {
	flat := NewSubtractive(fmTestRate)
	flat.SetParam("filter_env_amt", 0)
	swept := NewSubtractive(fmTestRate)
	swept.SetParam("filter_env_amt", 1)

	flat.NoteOn(48, 100)
	swept.NoteOn(48, 100)

	a := make([]float32, 1024)
	b := make([]float32, 1024)
	flat.Render(a)
	swept.Render(b)

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	assert.False(t, same)
}

func TestSubtractiveVelocityScaling(t *testing.T) {
	loud := NewSubtractive(fmTestRate)
	quiet := NewSubtractive(fmTestRate)
	loud.NoteOn(48, 127)
	quiet.NoteOn(48, 64)

	a := make([]float32, 512)
	b := make([]float32, 512)
	loud.Render(a)
	quiet.Render(b)

	scale := float32(64.0 / 127.0)
	for i := range a {
		require.InDelta(t, a[i]*scale, b[i], 1e-5, "sample %d", i)
	}
}

func TestSubtractiveLifecycle(t *testing.T) {
	const sr = 1000.0
	e := NewSubtractive(sr)
	assert.False(t, e.IsActive())

	e.NoteOn(48, 100)
	assert.True(t, e.IsActive())
	buf := make([]float32, 64)
	e.Render(buf)
	e.NoteOff()

	tail := make([]float32, int(sr))
	e.Render(tail)
	assert.False(t, e.IsActive())
}

func TestArpModeWraps(t *testing.T) {
	e := NewSubtractive(fmTestRate)
	e.SetParam("arp_mode", float64(numArpModes))
	assert.Equal(t, ArpOff, e.arpMode)
	e.SetParam("arp_mode", -1)
	assert.Equal(t, ArpChord, e.arpMode)
}
