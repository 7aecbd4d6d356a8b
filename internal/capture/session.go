package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session owns one microphone input and one encoder for the lifetime of a drill.
type Session struct {
	host           Host
	newEncoder     EncoderFactory
	constraints    Constraints
	acquireTimeout time.Duration
	logger         *slog.Logger

	mu        sync.Mutex
	state     State
	input     Input
	encoder   Encoder
	initDone  chan struct{}
	initErr   error
	finishing int
}

// Option customizes a Session.
type Option func(*Session)

// WithAcquireTimeout bounds microphone acquisition. Zero waits for the host indefinitely.
func WithAcquireTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.acquireTimeout = timeout
	}
}

// WithLogger attaches a logger for lifecycle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession builds an uninitialized session.
func NewSession(host Host, newEncoder EncoderFactory, constraints Constraints, opts ...Option) *Session {
	s := &Session{
		host:        host,
		newEncoder:  newEncoder,
		constraints: constraints,
		state:       StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsRecording reports whether the session is accumulating audio.
func (s *Session) IsRecording() bool {
	return s.State() == StateRecording
}

// Initialize acquires the microphone and binds it to a fresh encoder.
//
// Only the first call talks to the host; concurrent and later calls observe
// its result. Failure is terminal and classified as ErrPermissionDenied or
// ErrPlatformUnsupported.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initDone != nil {
		done := s.initDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.initErr
	}
	done := make(chan struct{})
	s.initDone = done
	s.mu.Unlock()

	input, encoder, err := s.acquire(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(done)

	if err != nil {
		s.state = StateUnavailable
		s.initErr = err
		s.logWarn("capture initialization failed", "error", err.Error())
		return err
	}
	s.input = input
	s.encoder = encoder
	s.state = StateReady
	format := input.Format()
	s.logDebug("capture ready", "sample_rate", format.SampleRate, "channels", format.Channels)
	return nil
}

// acquire performs the host handshake outside the session lock.
func (s *Session) acquire(ctx context.Context) (Input, Encoder, error) {
	if s.host == nil || s.newEncoder == nil {
		return nil, nil, ErrPlatformUnsupported
	}

	acquireCtx := ctx
	if s.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, s.acquireTimeout)
		defer cancel()
	}

	input, err := s.host.Acquire(acquireCtx, s.constraints)
	if err != nil {
		return nil, nil, classify(err)
	}

	encoder := s.newEncoder(input.Format())
	if encoder == nil {
		_ = input.Close()
		return nil, nil, fmt.Errorf("%w: encoder unavailable", ErrPlatformUnsupported)
	}
	input.Connect(encoder)
	return input, encoder, nil
}

// classify maps host failures onto the two fatal initialization categories.
func classify(err error) error {
	if errors.Is(err, ErrPlatformUnsupported) || errors.Is(err, ErrPermissionDenied) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
}

// Start clears residual audio and begins accumulation.
//
// It is a no-op outside the ready state and while a previous artifact is
// still being finalized, since the encoder is shared between recordings.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady || s.finishing > 0 {
		return
	}
	s.encoder.Clear()
	s.encoder.Record()
	s.state = StateRecording
	s.logDebug("capture recording")
}

// Stop halts accumulation and finalizes the artifact asynchronously.
//
// The returned channel yields exactly one Result and is then closed. Outside
// the recording state Stop returns (nil, false) and emits nothing.
func (s *Session) Stop() (<-chan Result, bool) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return nil, false
	}
	s.encoder.Stop()
	s.state = StateReady
	s.finishing++

	encoder := s.encoder
	format := s.input.Format()
	duration := encoder.Duration()
	s.mu.Unlock()

	out := make(chan Result, 1)
	go func() {
		defer close(out)

		data, err := encoder.Export(context.Background())

		s.mu.Lock()
		s.finishing--
		s.mu.Unlock()

		if err != nil {
			out <- Result{Err: fmt.Errorf("finalize recording: %w", err)}
			return
		}
		out <- Result{Artifact: Artifact{
			Data:      data,
			MIMEType:  "audio/wav",
			Format:    format,
			Duration:  duration,
			StoppedAt: time.Now(),
		}}
	}()
	return out, true
}

// Close releases the microphone. The session becomes unavailable.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder != nil {
		s.encoder.Stop()
	}
	var err error
	if s.input != nil {
		err = s.input.Close()
		s.input = nil
	}
	if s.state != StateUnavailable {
		s.state = StateUnavailable
		s.initErr = ErrClosed
	}
	return err
}

func (s *Session) logDebug(msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(msg, args...)
}

func (s *Session) logWarn(msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(msg, args...)
}
