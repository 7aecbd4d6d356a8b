package audio

import (
	"bytes"
	"context"
	"io"
	"reflect"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"

	"github.com/rbright/vowelpro/internal/capture"
)

func TestSelectDeviceFromListPrimaryDefault(t *testing.T) {
	devices := []Device{
		{ID: "yeti", Description: "Blue Yeti", Available: true, Default: true},
		{ID: "headset", Description: "USB Headset", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "default", "default")
	require.NoError(t, err)
	require.Equal(t, "yeti", selection.Device.ID)
	require.Empty(t, selection.Warning)
	require.False(t, selection.Fallback)
}

func TestSelectDeviceFromListByDescription(t *testing.T) {
	devices := []Device{
		{ID: "yeti", Description: "Blue Yeti", Available: true, Default: true},
		{ID: "alsa_input.usb-headset", Description: "USB Headset", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "HEADSET", "")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.usb-headset", selection.Device.ID)
}

func TestSelectDeviceFromListMutedPrimaryUsesFallback(t *testing.T) {
	devices := []Device{
		{ID: "yeti", Description: "Blue Yeti", Available: true, Muted: true, Default: true},
		{ID: "headset", Description: "USB Headset", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "yeti", "headset")
	require.NoError(t, err)
	require.Equal(t, "headset", selection.Device.ID)
	require.Contains(t, selection.Warning, "muted")
	require.True(t, selection.Fallback)
}

func TestSelectDeviceFromListUnpluggedPrimaryFallsBackToDefault(t *testing.T) {
	devices := []Device{
		{ID: "yeti", Description: "Blue Yeti", Available: true, Default: true},
		{ID: "headset", Description: "USB Headset", Available: false},
	}

	selection, err := selectDeviceFromList(devices, "headset", "default")
	require.NoError(t, err)
	require.Equal(t, "yeti", selection.Device.ID)
	require.Contains(t, selection.Warning, "unavailable")
}

func TestSelectDeviceFromListFailures(t *testing.T) {
	tests := []struct {
		name     string
		devices  []Device
		input    string
		fallback string
		want     string
	}{
		{name: "no devices", devices: nil, want: "no audio input devices"},
		{
			name:    "unknown input",
			devices: []Device{{ID: "yeti", Available: true, Default: true}},
			input:   "missing",
			want:    "did not match",
		},
		{
			name:    "muted default and fallback",
			devices: []Device{{ID: "yeti", Available: true, Muted: true, Default: true}},
			input:   "default", fallback: "default",
			want: "muted",
		},
		{
			name:     "fallback missing",
			devices:  []Device{{ID: "yeti", Available: false, Default: true}},
			fallback: "ghost",
			want:     "fallback \"ghost\" not found",
		},
		{
			name:    "no default",
			devices: []Device{{ID: "yeti", Available: true}},
			want:    "default audio source is unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := selectDeviceFromList(tc.devices, tc.input, tc.fallback)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDeviceMatchesByIDAndDescription(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-yeti", Description: "Blue Yeti"}
	require.True(t, deviceMatches(dev, "yeti"))
	require.True(t, deviceMatches(dev, "blue"))
	require.False(t, deviceMatches(dev, "missing"))
	require.False(t, deviceMatches(dev, ""))
}

func TestDeviceString(t *testing.T) {
	require.Equal(t, "Blue Yeti (yeti)", Device{ID: "yeti", Description: "Blue Yeti"}.String())
	require.Equal(t, "yeti", Device{ID: "yeti"}.String())
	require.Equal(t, "Blue Yeti", Device{Description: "Blue Yeti"}.String())
}

func TestListDevicesFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListDevices(context.Background())
	require.Error(t, err)
}

func TestAcquireWithoutPulseIsPlatformUnsupported(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	_, err := NewHost(nil).Acquire(context.Background(), capture.RawConstraints(16000))
	require.ErrorIs(t, err, capture.ErrPlatformUnsupported)
}

func TestAcquireRejectsStereo(t *testing.T) {
	c := capture.RawConstraints(16000)
	c.Channels = 2
	_, err := NewHost(nil).Acquire(context.Background(), c)
	require.ErrorIs(t, err, capture.ErrPlatformUnsupported)
	require.Contains(t, err.Error(), "mono")
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(7)", sourceStateString(7))
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{}))

	plugged := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, plugged, []sourcePort{{name: "mic", available: 2}})
	require.True(t, sourceAvailable(plugged))

	unplugged := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, unplugged, []sourcePort{{name: "line", available: 2}, {name: "mic", available: 1}})
	require.False(t, sourceAvailable(unplugged))
}

func TestInputForwardsPCMToConnectedSink(t *testing.T) {
	input := &Input{format: capture.Format{SampleRate: 16000, Channels: 1}}

	n, err := input.onPCM([]byte{1, 2})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	var sink bytes.Buffer
	input.Connect(&sink)
	_, err = input.onPCM([]byte{3, 4, 5})
	require.NoError(t, err)

	require.Equal(t, []byte{3, 4, 5}, sink.Bytes())
	require.Equal(t, int64(5), input.bytes.Load())
	require.Equal(t, 16000, input.Format().SampleRate)
}

func TestInputCloseStopsDelivery(t *testing.T) {
	input := &Input{device: Device{ID: "yeti"}}
	var sink bytes.Buffer
	input.Connect(&sink)

	require.NoError(t, input.Close())
	require.NoError(t, input.Close())

	n, err := input.onPCM([]byte{1})
	require.Zero(t, n)
	require.ErrorIs(t, err, io.EOF)
	require.Zero(t, sink.Len())
	require.Equal(t, "yeti", input.device.ID)
}

type sourcePort struct {
	name      string
	available uint32
}

// setSourcePorts fills the anonymous port struct slice on a Pulse reply.
func setSourcePorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports []sourcePort) {
	t.Helper()

	sliceValue := reflect.MakeSlice(reflect.TypeOf(reply.Ports), len(ports), len(ports))
	for i, port := range ports {
		item := sliceValue.Index(i)
		item.FieldByName("Name").SetString(port.name)
		item.FieldByName("Available").SetUint(uint64(port.available))
	}
	reflect.ValueOf(reply).Elem().FieldByName("Ports").Set(sliceValue)
}
