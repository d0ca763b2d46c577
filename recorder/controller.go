package recorder

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"whisperkey/audio"
	"whisperkey/metrics"
)

// MinSessionDuration is the shortest session that is transcribed. Shorter
// sessions are treated as accidental key presses and discarded.
const MinSessionDuration = time.Second

const DefaultBufferSeconds = 300

type Options struct {
	Audio   audio.Context
	Device  *audio.DeviceInfo // nil selects the system default
	Capture audio.CaptureConfig

	// BufferSeconds bounds how much of a session is kept. Older audio is
	// overwritten once the limit is reached.
	BufferSeconds int

	Dispatcher Dispatcher
	Listener   Listener // optional
	Clock      Clock    // defaults to wall time
	Logger     zerolog.Logger
}

// Controller turns hotkey edges into recording sessions. Start and Stop may
// be called from any goroutine.
type Controller struct {
	audio    audio.Context
	device   *audio.DeviceInfo
	capture  audio.CaptureConfig
	dispatch Dispatcher
	listener Listener
	clock    Clock
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	stream    audio.CaptureDevice
	ring      *RingBuffer
	startedAt time.Time
	sessionID string

	// Owned by the capture callback.
	mono        []float32
	lastDropped uint64

	level     atomic.Uint32
	recording atomic.Bool
}

func New(opts Options) (*Controller, error) {
	if opts.Audio == nil {
		return nil, errors.New("recorder: nil audio context")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("recorder: nil dispatcher")
	}
	if opts.Capture == (audio.CaptureConfig{}) {
		opts.Capture = audio.DefaultCaptureConfig()
	}
	if opts.Capture.Channels == 0 || opts.Capture.SampleRate == 0 {
		return nil, fmt.Errorf("recorder: invalid capture config %+v", opts.Capture)
	}
	if opts.BufferSeconds <= 0 {
		opts.BufferSeconds = DefaultBufferSeconds
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}

	return &Controller{
		audio:    opts.Audio,
		device:   opts.Device,
		capture:  opts.Capture,
		dispatch: opts.Dispatcher,
		listener: opts.Listener,
		clock:    opts.Clock,
		log:      opts.Logger,
		ring:     NewRingBuffer(opts.BufferSeconds * int(opts.Capture.SampleRate)),
		mono:     make([]float32, 0, opts.Capture.BlockSize),
	}, nil
}

// Start opens the microphone and begins a session. It is a no-op while a
// session is already open.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Recording {
		return nil
	}

	stream, err := c.audio.NewCapture(c.device, c.capture, c.onAudio)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		c.ring.SnapshotAndClear()
		return fmt.Errorf("start capture: %w", err)
	}

	c.stream = stream
	c.state = Recording
	c.recording.Store(true)
	c.startedAt = c.clock.Now()
	c.sessionID = uuid.NewString()
	metrics.SessionsStarted.Inc()

	c.log.Info().
		Str("session", c.sessionID).
		Str("device", stream.DeviceName()).
		Msg("recording_start")

	if c.listener != nil {
		c.listener.RecordingStarted(c.sessionID)
	}
	return nil
}

// Stop closes the microphone and ends the session. Sessions of at least
// MinSessionDuration are dispatched; shorter ones are discarded. It is a
// no-op when no session is open.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Recording {
		return
	}

	// No callback runs once Stop returns, so the ring is ours from here.
	c.stream.Stop()
	c.stream.Close()
	c.stream = nil

	elapsed := c.clock.Now().Sub(c.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	samples := c.ring.SnapshotAndClear()

	c.state = Idle
	c.recording.Store(false)
	c.level.Store(0)

	id := c.sessionID
	dispatched := elapsed >= MinSessionDuration
	if dispatched {
		c.log.Info().
			Str("session", id).
			Dur("elapsed", elapsed).
			Int("samples", len(samples)).
			Msg("session_dispatched")
		c.dispatch.Dispatch(Session{
			ID:       id,
			Start:    c.startedAt,
			Duration: elapsed,
			Samples:  samples,
		})
	} else {
		metrics.SessionsDebounced.Inc()
		c.log.Info().
			Str("session", id).
			Dur("elapsed", elapsed).
			Msg("session_debounced")
	}

	if c.listener != nil {
		c.listener.RecordingStopped(id, elapsed, dispatched)
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Recording() bool {
	return c.recording.Load()
}

// Level is the peak amplitude of the last captured block before
// normalization, or zero when idle.
func (c *Controller) Level() float32 {
	return math.Float32frombits(c.level.Load())
}

func (c *Controller) onAudio(samples []float32, frameCount uint32, status audio.Status) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("audio_callback_panic")
		}
	}()

	if status != 0 {
		c.log.Warn().Stringer("status", status).Msg("audio_status")
		if status&audio.StatusInputOverflow != 0 {
			metrics.AudioStatus.WithLabelValues("input_overflow").Inc()
		}
		if status&audio.StatusInputUnderflow != 0 {
			metrics.AudioStatus.WithLabelValues("input_underflow").Inc()
		}
	}

	channels := int(c.capture.Channels)
	if n := int(frameCount) * channels; n > 0 && n < len(samples) {
		samples = samples[:n]
	}

	c.mono = Downmix(c.mono, samples, channels)
	peak := Normalize(c.mono)
	c.level.Store(math.Float32bits(peak))
	c.ring.Append(c.mono)

	if d := c.ring.Dropped(); d > c.lastDropped {
		metrics.RingDroppedSamples.Add(float64(d - c.lastDropped))
		c.lastDropped = d
	}
}
