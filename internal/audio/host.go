package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/rbright/vowelpro/internal/capture"
)

const fragmentBytes = 640 // 20ms @ 16kHz mono s16

// Host acquires Pulse record streams for capture sessions.
type Host struct {
	logger *slog.Logger
}

// NewHost returns the Pulse capture host.
func NewHost(logger *slog.Logger) *Host {
	return &Host{logger: logger}
}

// Acquire connects to the Pulse server, resolves the preferred source, and
// starts an unprocessed s16le record stream.
//
// A missing server maps to capture.ErrPlatformUnsupported; anything that
// fails after connecting (no usable source, stream refused) maps to
// capture.ErrPermissionDenied.
func (h *Host) Acquire(ctx context.Context, c capture.Constraints) (capture.Input, error) {
	if c.EchoCancellation || c.AutoGainControl || c.NoiseSuppression || c.HighpassFilter {
		h.logDebug("pulse record streams are unprocessed; ignoring processing constraints")
	}
	if c.Channels > 1 {
		return nil, fmt.Errorf("%w: only mono capture is supported", capture.ErrPlatformUnsupported)
	}
	sampleRate := c.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	client, err := connect()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrPlatformUnsupported, err)
	}

	input, err := h.open(ctx, client, c, sampleRate)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", capture.ErrPermissionDenied, err)
	}
	return input, nil
}

func (h *Host) open(ctx context.Context, client *pulse.Client, c capture.Constraints, sampleRate int) (*Input, error) {
	devices, err := listSources(client)
	if err != nil {
		return nil, err
	}
	selection, err := selectDeviceFromList(devices, c.Input, c.Fallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" && h.logger != nil {
		h.logger.Warn(selection.Warning)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := client.SourceByID(selection.Device.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve source %q: %w", selection.Device.ID, err)
	}

	input := &Input{
		device: selection.Device,
		format: capture.Format{SampleRate: sampleRate, Channels: 1},
		client: client,
		logger: h.logger,
	}
	writer := pulse.NewWriter(writerFunc(input.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(fragmentBytes),
		pulse.RecordMediaName("vowelpro drill"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	input.stream = stream
	stream.Start()

	h.logDebug("pulse input acquired", "device", selection.Device.String(), "sample_rate", sampleRate)
	return input, nil
}

func (h *Host) logDebug(msg string, args ...any) {
	if h.logger == nil {
		return
	}
	h.logger.Debug(msg, args...)
}

// Input is one running Pulse record stream. PCM flows to the connected sink
// for the whole drill; the recorder decides what to keep.
type Input struct {
	device Device
	format capture.Format
	logger *slog.Logger

	client *pulse.Client
	stream *pulse.RecordStream

	mu     sync.Mutex
	sink   io.Writer
	closed bool

	bytes atomic.Int64
}

// Format implements capture.Input.
func (i *Input) Format() capture.Format {
	return i.format
}

// Connect implements capture.Input.
func (i *Input) Connect(w io.Writer) {
	i.mu.Lock()
	i.sink = w
	i.mu.Unlock()
}

// Close stops the record stream and disconnects. Safe to call more than once.
func (i *Input) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	i.sink = nil
	i.mu.Unlock()

	if i.stream != nil {
		i.stream.Stop()
		i.stream.Close()
	}
	if i.client != nil {
		i.client.Close()
	}
	if i.logger != nil {
		i.logger.Debug("pulse input closed", "device", i.device.ID, "bytes", i.bytes.Load())
	}
	return nil
}

// onPCM forwards one Pulse fragment to the sink.
func (i *Input) onPCM(buffer []byte) (int, error) {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return 0, io.EOF
	}
	sink := i.sink
	i.mu.Unlock()

	i.bytes.Add(int64(len(buffer)))
	if sink == nil || len(buffer) == 0 {
		return len(buffer), nil
	}
	if _, err := sink.Write(buffer); err != nil {
		return 0, err
	}
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
