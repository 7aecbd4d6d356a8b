package session

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/vowelpro/internal/capture"
	"github.com/rbright/vowelpro/internal/fsm"
	"github.com/rbright/vowelpro/internal/rating"
	"github.com/rbright/vowelpro/internal/recorder"
)

type pipeInput struct {
	mu   sync.Mutex
	sink io.Writer
}

func (p *pipeInput) Format() capture.Format { return capture.Format{SampleRate: 16000, Channels: 1} }

func (p *pipeInput) Connect(w io.Writer) {
	p.mu.Lock()
	p.sink = w
	p.mu.Unlock()
}

func (p *pipeInput) Close() error { return nil }

func (p *pipeInput) emit(pcm []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sink != nil {
		_, _ = p.sink.Write(pcm)
	}
}

// TestDrillEndToEnd drives a real capture session, WAV recorder, and HTTP
// rating client against a scorer that answers {"score": 81}.
func TestDrillEndToEnd(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})

	var (
		mu        sync.Mutex
		gotVowel  string
		gotUpload []byte
	)
	scorer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		mu.Lock()
		gotVowel = r.FormValue("vowel")
		gotUpload = data
		mu.Unlock()

		close(arrived)
		<-release
		_, _ = io.WriteString(w, `{"score": 81}`)
	}))
	t.Cleanup(scorer.Close)

	input := &pipeInput{}
	host := capture.HostFunc(func(context.Context, capture.Constraints) (capture.Input, error) {
		return input, nil
	})
	encoders := func(f capture.Format) capture.Encoder { return recorder.New(f.SampleRate, f.Channels) }
	captureSession := capture.NewSession(host, encoders, capture.RawConstraints(16000))

	view := &fakeView{}
	ctrl := NewController(nil, captureSession, rating.NewClient(rating.Config{BaseURL: scorer.URL}, nil), newSelector(t), view)
	require.NoError(t, ctrl.Initialize(context.Background()))
	runController(t, ctrl)
	vowel := ctrl.Snapshot().Trial.VowelID

	input.emit(bytes.Repeat([]byte{0xFF, 0x7F}, 100))

	ctrl.ToggleRecord()
	waitForState(t, ctrl, fsm.StateRecording)
	got := view.snapshot()
	require.Equal(t, LabelStop, got.label)
	require.True(t, got.enabled)

	input.emit(bytes.Repeat([]byte{0x01, 0x00}, 1600))

	ctrl.ToggleRecord()
	waitForState(t, ctrl, fsm.StateSubmitting)
	require.False(t, view.snapshot().enabled)

	<-arrived
	require.False(t, view.snapshot().enabled)
	close(release)

	waitForState(t, ctrl, fsm.StateIdle)
	got = view.snapshot()
	require.Equal(t, "81", got.score)
	require.Equal(t, "Very nice!", got.message)
	require.Empty(t, got.errText)
	require.True(t, got.enabled)
	require.Equal(t, LabelRecord, got.label)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, vowel, gotVowel)

	info, err := recorder.Inspect(bytes.NewReader(gotUpload))
	require.NoError(t, err)
	require.Equal(t, 16000, info.SampleRate)
	require.Equal(t, 1, info.Channels)
	require.Len(t, gotUpload, 44+3200)
}
