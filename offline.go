package quadbox

// RenderSeconds renders the given duration headlessly, block by block, and
// returns interleaved stereo samples. Events already enqueued (and any
// enqueued between blocks by callers on other goroutines) are applied at
// block boundaries, exactly as in live streaming.
func (e *AudioEngine) RenderSeconds(seconds float64) []float32 {
	frames := int(float64(e.sampleRate) * seconds)
	out := make([]float32, frames*2)
	e.RenderBlocks(out)
	return out
}

// RenderBlocks fills dst (interleaved stereo) in blockSize chunks.
func (e *AudioEngine) RenderBlocks(dst []float32) {
	frames := len(dst) / 2
	for start := 0; start < frames; start += e.blockSize {
		n := e.blockSize
		if start+n > frames {
			n = frames - start
		}
		e.Process(dst[start*2 : (start+n)*2])
	}
}
