package audio

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
)

type collector struct {
	mu      sync.Mutex
	samples []float32
	status  []Status
}

func (c *collector) cb(samples []float32, frameCount uint32, status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, samples...)
	c.status = append(c.status, status)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

func ramp(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(i) / float32(n)
	}
	return s
}

func TestFakeCaptureDeliversWholeClip(t *testing.T) {
	clip := ramp(3*BlockSize + 100)
	ctx := NewFakeContextFromSamples(clip, false)
	ctx.Status = StatusInputOverflow

	var c collector
	dev, err := ctx.NewCapture(nil, DefaultCaptureConfig(), c.cb)
	require.NoError(t, err)
	require.NoError(t, dev.Start())
	dev.Stop()
	dev.Close()

	assert.Equal(t, clip, c.samples)
	assert.Len(t, c.status, 4)
	assert.Equal(t, StatusInputOverflow, c.status[0])
	assert.True(t, ctx.Captures()[0].Closed())
}

func TestFakeCaptureNoCallbackAfterStop(t *testing.T) {
	ctx := NewFakeContextFromSamples(ramp(SampleRate), true)
	var c collector
	dev, err := ctx.NewCapture(nil, DefaultCaptureConfig(), c.cb)
	require.NoError(t, err)
	require.NoError(t, dev.Start())

	require.Eventually(t, func() bool { return c.len() > 0 }, time.Second, 5*time.Millisecond)
	dev.Stop()
	n := c.len()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, n, c.len())
}

func TestFakeCaptureStartError(t *testing.T) {
	ctx := NewFakeContextFromSamples(nil, false)
	ctx.StartErr = assert.AnError
	dev, err := ctx.NewCapture(nil, DefaultCaptureConfig(), func([]float32, uint32, Status) {})
	require.NoError(t, err)
	assert.ErrorIs(t, dev.Start(), assert.AnError)
}

func TestFakeCaptureRejectsZeroChannels(t *testing.T) {
	_, err := NewFakeContextFromSamples(nil, false).NewCapture(nil, CaptureConfig{SampleRate: SampleRate}, nil)
	assert.Error(t, err)
}

func writeWAV(t *testing.T, rate uint32, values []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := wav.NewWriter(f, uint32(len(values)), 1, rate, 16)
	samples := make([]wav.Sample, len(values))
	for i, v := range values {
		samples[i].Values[0] = v
	}
	require.NoError(t, w.WriteSamples(samples))
	return path
}

func TestReadWAV(t *testing.T) {
	path := writeWAV(t, SampleRate, []int{0, 16384, -16384, 32767})
	got, err := ReadWAV(path)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.InDelta(t, 0, got[0], 1e-4)
	assert.InDelta(t, 0.5, got[1], 1e-3)
	assert.InDelta(t, -0.5, got[2], 1e-3)
	assert.InDelta(t, 1, got[3], 1e-3)
}

func TestReadWAVRejectsOtherRates(t *testing.T) {
	path := writeWAV(t, 44100, []int{0, 1, 2})
	_, err := ReadWAV(path)
	assert.ErrorContains(t, err, "sample rate 44100")
}

type listContext struct {
	FakeContext
	devices []DeviceInfo
}

func (l *listContext) Devices() ([]DeviceInfo, error) { return l.devices, nil }

func TestResolve(t *testing.T) {
	ctx := &listContext{devices: []DeviceInfo{
		{ID: "1", Name: "Built-in Microphone"},
		{ID: "2", Name: "USB Audio Device"},
		{ID: "3", Name: "USB Audio Device Pro"},
	}}

	dev, err := Resolve(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, dev)

	dev, err = Resolve(ctx, "USB Audio Device")
	require.NoError(t, err)
	assert.Equal(t, "2", dev.ID)

	dev, err = Resolve(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, "3", dev.ID)

	_, err = Resolve(ctx, "Blue Yeti")
	assert.ErrorIs(t, err, ErrUnknownDevice)
	assert.ErrorContains(t, err, "Built-in Microphone")
}

func TestIsBluetooth(t *testing.T) {
	for name, want := range map[string]bool{
		"AirPods Pro":          true,
		"WH-1000XM4":           true,
		"Headset (BT)":         true,
		"Built-in Microphone":  false,
		"Blue Yeti":            false,
		"Logitech BRIO":        false,
		"Jabra Evolve2 65":     true,
		"USB PnP Sound Device": false,
	} {
		assert.Equal(t, want, IsBluetooth(name), name)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "", Status(0).String())
	assert.Equal(t, "input overflow", StatusInputOverflow.String())
	assert.Equal(t, "input underflow, input overflow", (StatusInputUnderflow | StatusInputOverflow).String())
	assert.Equal(t, "unknown", Status(1<<5).String())
}
