package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/youpy/go-wav"
)

// FakeContext replays a fixed clip through the normal capture contract.
// Samples are interpreted as interleaved at the channel count requested by
// NewCapture.
type FakeContext struct {
	samples  []float32
	realtime bool

	// Status is attached to every block delivered after it is set.
	Status Status
	// StartErr, when non-nil, is returned from every capture's Start.
	StartErr error

	mu       sync.Mutex
	captures []*FakeCapture
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	samples, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return &FakeContext{samples: samples, realtime: realtime}, nil
}

func NewFakeContextFromSamples(samples []float32, realtime bool) *FakeContext {
	return &FakeContext{samples: samples, realtime: realtime}
}

// ReadWAV decodes a 16 kHz PCM WAV file into mono float32 samples.
func ReadWAV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("wav format: %w", err)
	}
	if format.SampleRate != SampleRate {
		return nil, fmt.Errorf("wav: sample rate %d, want %d", format.SampleRate, SampleRate)
	}
	channels := int(format.NumChannels)

	var out []float32
	for {
		batch, err := r.ReadSamples(BlockSize)
		for _, s := range batch {
			var sum float64
			for ch := 0; ch < channels && ch < 2; ch++ {
				sum += r.FloatValue(s, uint(ch))
			}
			out = append(out, float32(sum/float64(min(channels, 2))))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("wav read: %w", err)
		}
	}
	return out, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig, cb DataCallback) (CaptureDevice, error) {
	if config.Channels == 0 {
		return nil, fmt.Errorf("fake: zero channels")
	}
	c := &FakeCapture{
		ctx:       f,
		config:    config,
		gate:      newGate(cb),
		audioDone: make(chan struct{}),
	}
	f.mu.Lock()
	f.captures = append(f.captures, c)
	f.mu.Unlock()
	return c, nil
}

// Captures returns every capture opened so far.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCapture(nil), f.captures...)
}

type FakeCapture struct {
	ctx    *FakeContext
	config CaptureConfig
	gate   *gate

	mu        sync.Mutex
	audioDone chan struct{}
	stopCh    chan struct{}
	feedDone  chan struct{}
	started   bool
	closed    bool
}

// AudioDone is closed once the whole clip has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audioDone
}

func (f *FakeCapture) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) chunkLen() int {
	return int(f.config.BlockSize * f.config.Channels)
}

func (f *FakeCapture) feed(chunk []float32) {
	f.gate.deliver(chunk, uint32(len(chunk))/f.config.Channels, f.ctx.Status)
}

func (f *FakeCapture) Start() error {
	if f.ctx.StartErr != nil {
		return f.ctx.StartErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return nil
	}
	f.started = true
	f.gate.setOpen(true)

	samples := f.ctx.samples
	step := f.chunkLen()
	audioDone := f.audioDone

	if !f.ctx.realtime {
		// Deliver the whole clip before Start returns so tests are deterministic.
		for pos := 0; pos < len(samples); pos += step {
			f.feed(samples[pos:min(pos+step, len(samples))])
		}
		close(audioDone)
		return nil
	}

	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	interval := time.Duration(f.config.BlockSize) * time.Second / time.Duration(f.config.SampleRate)

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		silence := make([]float32, step)
		pos := 0
		for {
			if pos < len(samples) {
				end := min(pos+step, len(samples))
				f.feed(samples[pos:end])
				pos = end
				if pos >= len(samples) {
					close(audioDone)
				}
			} else {
				f.feed(silence)
			}
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}(f.stopCh, f.feedDone)

	if len(samples) == 0 {
		close(audioDone)
	}
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate.setOpen(false)
	if !f.started {
		return
	}
	f.started = false
	if f.stopCh != nil {
		close(f.stopCh)
		<-f.feedDone
		f.stopCh = nil
		f.feedDone = nil
	}
	f.audioDone = make(chan struct{})
}

func (f *FakeCapture) Close() {
	f.Stop()
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}
