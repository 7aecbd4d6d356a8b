package terminal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViewRendersSurfaces(t *testing.T) {
	v := NewView(nil, NewStyles(DefaultTheme), false)
	v.SetWord("bat")
	v.SetIPA("æ")
	v.SetRecordLabel("Record")
	v.SetRecordEnabled(true)
	v.SetScore("81")
	v.SetMessage("Very nice!")
	v.SetHint("front/back +0.50, height -0.10")

	frame := v.Render()
	require.Contains(t, frame, "bat")
	require.Contains(t, frame, "/æ/")
	require.Contains(t, frame, "Record")
	require.Contains(t, frame, "81")
	require.Contains(t, frame, "Very nice!")
	require.Contains(t, frame, "front/back +0.50")
	require.Contains(t, frame, "q quit")
}

func TestViewRendersError(t *testing.T) {
	v := NewView(nil, NewStyles(DefaultTheme), false)
	v.SetError("Your platform is not supported")
	require.Contains(t, v.Render(), "Your platform is not supported")
}

func TestViewWritesFrameOnEveryChange(t *testing.T) {
	var out bytes.Buffer
	v := NewView(&out, NewStyles(DefaultTheme), true)

	v.SetWord("cut")
	v.SetRecordLabel("Stop")

	require.Equal(t, 2, strings.Count(out.String(), clearScreen))
	require.Contains(t, out.String(), "Stop")
}

type fakeTarget struct {
	toggles atomic.Int32
	nexts   atomic.Int32
}

func (f *fakeTarget) ToggleRecord() { f.toggles.Add(1) }
func (f *fakeTarget) NewTrial()     { f.nexts.Add(1) }

func TestReadKeysDispatchesIntents(t *testing.T) {
	target := &fakeTarget{}
	input := strings.NewReader("\nr\nn\nx\nq\nn\n")

	require.NoError(t, ReadKeys(context.Background(), input, target))
	require.Equal(t, int32(2), target.toggles.Load())
	require.Equal(t, int32(1), target.nexts.Load())
}

func TestReadKeysStopsAtEOF(t *testing.T) {
	target := &fakeTarget{}
	require.NoError(t, ReadKeys(context.Background(), strings.NewReader("n\n"), target))
	require.Equal(t, int32(1), target.nexts.Load())
}

type blockingReader struct{ release chan struct{} }

func (b blockingReader) Read([]byte) (int, error) {
	<-b.release
	return 0, errors.New("closed")
}

func TestReadKeysStopsOnCancel(t *testing.T) {
	reader := blockingReader{release: make(chan struct{})}
	defer close(reader.release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ReadKeys(ctx, reader, &fakeTarget{}) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ReadKeys did not return after cancel")
	}
}
