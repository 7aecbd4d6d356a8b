// Package capture wraps microphone acquisition and the encoder capability into
// a two-state recording lifecycle with a guarded initialization handshake.
package capture

import (
	"context"
	"errors"
	"io"
	"time"
)

// State is the capture lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
	StateRecording     State = "recording"
	StateUnavailable   State = "unavailable"
)

var (
	// ErrPermissionDenied indicates the host refused or failed to open the microphone.
	ErrPermissionDenied = errors.New("microphone access denied")
	// ErrPlatformUnsupported indicates the host has no capture capability at all.
	ErrPlatformUnsupported = errors.New("audio capture is not supported on this platform")
	// ErrClosed indicates the session was released.
	ErrClosed = errors.New("capture session closed")
)

// Constraints describe how the microphone should be opened.
type Constraints struct {
	EchoCancellation bool
	AutoGainControl  bool
	NoiseSuppression bool
	HighpassFilter   bool

	SampleRate int
	Channels   int

	// Input and Fallback are device preferences understood by the host.
	Input    string
	Fallback string
}

// RawConstraints requests an unprocessed mono signal so vowel formants survive intact.
func RawConstraints(sampleRate int) Constraints {
	return Constraints{
		EchoCancellation: false,
		AutoGainControl:  false,
		NoiseSuppression: false,
		HighpassFilter:   false,
		SampleRate:       sampleRate,
		Channels:         1,
	}
}

// Format is the PCM layout an Input delivers (s16le, interleaved).
type Format struct {
	SampleRate int
	Channels   int
}

// Input is a live microphone stream.
type Input interface {
	Format() Format
	// Connect routes all subsequent PCM to w.
	Connect(w io.Writer)
	Close() error
}

// Host acquires microphone inputs.
type Host interface {
	Acquire(ctx context.Context, constraints Constraints) (Input, error)
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(context.Context, Constraints) (Input, error)

func (f HostFunc) Acquire(ctx context.Context, constraints Constraints) (Input, error) {
	return f(ctx, constraints)
}

// Encoder accumulates PCM while recording and exports a binary artifact.
type Encoder interface {
	io.Writer
	Clear()
	Record()
	Stop()
	Duration() time.Duration
	Export(ctx context.Context) ([]byte, error)
}

// EncoderFactory builds the encoder bound to an acquired input.
type EncoderFactory func(Format) Encoder

// Artifact is one finalized recording. The caller owns Data.
type Artifact struct {
	Data      []byte
	MIMEType  string
	Format    Format
	Duration  time.Duration
	StoppedAt time.Time
}

// Result is the single value emitted by Stop.
type Result struct {
	Artifact Artifact
	Err      error
}
