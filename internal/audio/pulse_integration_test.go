//go:build integration

package audio

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/vowelpro/internal/capture"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func TestHostCapturesFromDefaultSourceIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	devices, err := ListDevices(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, devices)

	constraints := capture.RawConstraints(16000)
	constraints.Input = "default"
	input, err := NewHost(nil).Acquire(ctx, constraints)
	require.NoError(t, err)
	t.Cleanup(func() { _ = input.Close() })

	var sink lockedBuffer
	input.Connect(&sink)
	require.Eventually(t, func() bool { return sink.Len() > 0 }, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, 1, input.Format().Channels)
}
