package recorder

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisperkey/audio"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type captureDispatcher struct {
	mu       sync.Mutex
	sessions []Session
}

func (d *captureDispatcher) Dispatch(s Session) {
	d.mu.Lock()
	d.sessions = append(d.sessions, s)
	d.mu.Unlock()
}

func (d *captureDispatcher) Sessions() []Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Session(nil), d.sessions...)
}

type stopEvent struct {
	id         string
	elapsed    time.Duration
	dispatched bool
}

type recordingListener struct {
	started []string
	stopped []stopEvent
}

func (l *recordingListener) RecordingStarted(id string) { l.started = append(l.started, id) }

func (l *recordingListener) RecordingStopped(id string, elapsed time.Duration, dispatched bool) {
	l.stopped = append(l.stopped, stopEvent{id, elapsed, dispatched})
}

type harness struct {
	ctrl     *Controller
	audio    *audio.FakeContext
	clock    *fakeClock
	sink     *captureDispatcher
	listener *recordingListener
}

func newHarness(t *testing.T, clip []float32, capture audio.CaptureConfig, bufferSeconds int) *harness {
	t.Helper()
	h := &harness{
		audio:    audio.NewFakeContextFromSamples(clip, false),
		clock:    newFakeClock(),
		sink:     &captureDispatcher{},
		listener: &recordingListener{},
	}
	ctrl, err := New(Options{
		Audio:         h.audio,
		Capture:       capture,
		BufferSeconds: bufferSeconds,
		Dispatcher:    h.sink,
		Listener:      h.listener,
		Clock:         h.clock,
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func constant(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func (h *harness) session(t *testing.T, hold time.Duration) {
	t.Helper()
	require.NoError(t, h.ctrl.Start())
	h.clock.Advance(hold)
	h.ctrl.Stop()
}

func TestLongSessionIsDispatched(t *testing.T) {
	h := newHarness(t, constant(2048, 0.5), audio.DefaultCaptureConfig(), 0)
	h.session(t, 1500*time.Millisecond)

	sessions := h.sink.Sessions()
	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, 1500*time.Millisecond, s.Duration)
	assert.Equal(t, constant(2048, 1), s.Samples)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, Idle, h.ctrl.State())

	require.Len(t, h.listener.stopped, 1)
	assert.True(t, h.listener.stopped[0].dispatched)
	assert.Equal(t, h.listener.started[0], s.ID)
}

func TestShortSessionIsDiscarded(t *testing.T) {
	h := newHarness(t, constant(2048, 0.5), audio.DefaultCaptureConfig(), 0)
	h.session(t, 500*time.Millisecond)

	assert.Empty(t, h.sink.Sessions())
	require.Len(t, h.listener.stopped, 1)
	assert.False(t, h.listener.stopped[0].dispatched)
	assert.Equal(t, 500*time.Millisecond, h.listener.stopped[0].elapsed)
}

func TestDebounceBoundary(t *testing.T) {
	tests := []struct {
		hold time.Duration
		want bool
	}{
		{0, false},
		{999 * time.Millisecond, false},
		{MinSessionDuration, true},
		{MinSessionDuration + time.Nanosecond, true},
		{10 * time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.hold.String(), func(t *testing.T) {
			h := newHarness(t, constant(16, 0.1), audio.DefaultCaptureConfig(), 0)
			h.session(t, tt.hold)
			assert.Equal(t, tt.want, len(h.sink.Sessions()) == 1)
		})
	}
}

func TestEmptyLongSessionStillDispatched(t *testing.T) {
	h := newHarness(t, nil, audio.DefaultCaptureConfig(), 0)
	h.session(t, 2*time.Second)

	sessions := h.sink.Sessions()
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].Samples)
	assert.Empty(t, sessions[0].Samples)
}

func TestStartWhileRecordingIsNoop(t *testing.T) {
	h := newHarness(t, constant(1024, 0.5), audio.DefaultCaptureConfig(), 0)
	require.NoError(t, h.ctrl.Start())
	require.NoError(t, h.ctrl.Start())
	h.clock.Advance(2 * time.Second)
	h.ctrl.Stop()

	assert.Len(t, h.audio.Captures(), 1)
	assert.Len(t, h.listener.started, 1)
	sessions := h.sink.Sessions()
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Samples, 1024)
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	h := newHarness(t, constant(1024, 0.5), audio.DefaultCaptureConfig(), 0)
	h.ctrl.Stop()
	h.session(t, 2*time.Second)
	h.ctrl.Stop()

	assert.Len(t, h.sink.Sessions(), 1)
	assert.Len(t, h.listener.stopped, 1)
}

func TestStopClosesCapture(t *testing.T) {
	h := newHarness(t, constant(1024, 0.5), audio.DefaultCaptureConfig(), 0)
	h.session(t, 2*time.Second)

	captures := h.audio.Captures()
	require.Len(t, captures, 1)
	assert.True(t, captures[0].Closed())
}

func TestStartErrorLeavesIdle(t *testing.T) {
	h := newHarness(t, constant(1024, 0.5), audio.DefaultCaptureConfig(), 0)
	h.audio.StartErr = errors.New("device busy")

	err := h.ctrl.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, h.audio.StartErr)
	assert.Equal(t, Idle, h.ctrl.State())
	assert.False(t, h.ctrl.Recording())
	assert.Empty(t, h.listener.started)

	h.ctrl.Stop()
	assert.Empty(t, h.sink.Sessions())
}

func TestSessionsDoNotShareAudio(t *testing.T) {
	h := newHarness(t, constant(1024, 0.5), audio.DefaultCaptureConfig(), 0)
	h.session(t, 2*time.Second)
	h.session(t, 2*time.Second)

	sessions := h.sink.Sessions()
	require.Len(t, sessions, 2)
	assert.Len(t, sessions[0].Samples, 1024)
	assert.Len(t, sessions[1].Samples, 1024)
	assert.NotEqual(t, sessions[0].ID, sessions[1].ID)
}

func TestStereoIsDownmixedAndNormalized(t *testing.T) {
	capture := audio.CaptureConfig{SampleRate: 16000, Channels: 2, BlockSize: 2}
	h := newHarness(t, []float32{0.2, 0.4, -0.6, -0.2}, capture, 0)
	h.session(t, 2*time.Second)

	sessions := h.sink.Sessions()
	require.Len(t, sessions, 1)
	assert.InDeltaSlice(t, []float32{0.75, -1}, sessions[0].Samples, 1e-6)
}

func TestNormalizationIsPerBlock(t *testing.T) {
	capture := audio.CaptureConfig{SampleRate: 16000, Channels: 1, BlockSize: 4}
	clip := []float32{0.5, 0.25, 0, 0, 0, 0, 0, 0, 0.1, -0.2, 0, 0}
	h := newHarness(t, clip, capture, 0)
	h.session(t, 2*time.Second)

	sessions := h.sink.Sessions()
	require.Len(t, sessions, 1)
	assert.InDeltaSlice(t,
		[]float32{1, 0.5, 0, 0, 0, 0, 0, 0, 0.5, -1, 0, 0},
		sessions[0].Samples, 1e-6)
}

func TestBufferKeepsNewestAudio(t *testing.T) {
	// One second at 4 Hz holds four samples.
	capture := audio.CaptureConfig{SampleRate: 4, Channels: 1, BlockSize: 2}
	h := newHarness(t, []float32{1, 2, 3, 4, 5, 6}, capture, 1)
	h.session(t, 3*time.Second)

	sessions := h.sink.Sessions()
	require.Len(t, sessions, 1)
	assert.InDeltaSlice(t, []float32{0.75, 1, 5.0 / 6.0, 1}, sessions[0].Samples, 1e-6)
}

func TestStatusFlagsDoNotDropAudio(t *testing.T) {
	h := newHarness(t, constant(1024, 0.5), audio.DefaultCaptureConfig(), 0)
	h.audio.Status = audio.StatusInputOverflow | audio.StatusInputUnderflow
	h.session(t, 2*time.Second)

	sessions := h.sink.Sessions()
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Samples, 1024)
}

func TestLevelTracksLastBlock(t *testing.T) {
	capture := audio.CaptureConfig{SampleRate: 16000, Channels: 1, BlockSize: 2}
	h := newHarness(t, []float32{0.9, 0.1, 0.3, -0.4}, capture, 0)

	require.NoError(t, h.ctrl.Start())
	assert.True(t, h.ctrl.Recording())
	assert.InDelta(t, 0.4, h.ctrl.Level(), 1e-6)

	h.ctrl.Stop()
	assert.Zero(t, h.ctrl.Level())
}

func TestConcurrentStartStop(t *testing.T) {
	h := newHarness(t, constant(256, 0.5), audio.DefaultCaptureConfig(), 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = h.ctrl.Start()
		}()
		go func() {
			defer wg.Done()
			h.clock.Advance(2 * time.Second)
			h.ctrl.Stop()
		}()
	}
	wg.Wait()
	h.ctrl.Stop()

	assert.Equal(t, Idle, h.ctrl.State())
	for _, s := range h.sink.Sessions() {
		assert.Len(t, s.Samples, 256)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Dispatcher: &captureDispatcher{}})
	assert.Error(t, err)

	_, err = New(Options{Audio: audio.NewFakeContextFromSamples(nil, false)})
	assert.Error(t, err)
}
