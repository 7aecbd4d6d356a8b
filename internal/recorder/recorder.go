// Package recorder accumulates PCM while armed and exports it as a WAV container.
package recorder

import (
	"context"
	"encoding/binary"
	"sync"
	"time"
)

const bytesPerSample = 2 // s16le

// Recorder is the in-process encoder bound to one capture input.
// Write is called from the capture goroutine; all other methods from the session.
type Recorder struct {
	sampleRate int
	channels   int

	mu        sync.Mutex
	recording bool
	pcm       []byte
}

// New builds a recorder for interleaved s16le PCM.
func New(sampleRate int, channels int) *Recorder {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if channels <= 0 {
		channels = 1
	}
	return &Recorder{sampleRate: sampleRate, channels: channels}
}

// Write buffers PCM while recording and drops it otherwise.
func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.pcm = append(r.pcm, p...)
	}
	return len(p), nil
}

// Record arms accumulation.
func (r *Recorder) Record() {
	r.mu.Lock()
	r.recording = true
	r.mu.Unlock()
}

// Stop disarms accumulation; buffered PCM is kept until Clear.
func (r *Recorder) Stop() {
	r.mu.Lock()
	r.recording = false
	r.mu.Unlock()
}

// Clear drops buffered PCM without touching the armed flag.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.pcm = nil
	r.mu.Unlock()
}

// Buffered returns the number of PCM bytes accumulated so far.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pcm)
}

// Duration is the playback length of the buffered PCM.
func (r *Recorder) Duration() time.Duration {
	return pcmDuration(r.Buffered(), r.sampleRate, r.channels)
}

// Export encodes a snapshot of the buffered PCM into a WAV container.
func (r *Recorder) Export(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	pcm := append([]byte(nil), r.pcm...)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return EncodeWAV(pcm, r.sampleRate, r.channels)
}

// samplesFromPCM converts little-endian s16 bytes into go-audio int samples.
// A trailing odd byte is dropped.
func samplesFromPCM(pcm []byte) []int {
	samples := make([]int, len(pcm)/bytesPerSample)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:])))
	}
	return samples
}

func pcmDuration(byteCount int, sampleRate int, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := byteCount / (bytesPerSample * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
