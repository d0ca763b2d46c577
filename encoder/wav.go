package encoder

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/youpy/go-wav"
)

// WavEncoder collects PCM and emits a 16-bit mono RIFF file on Close. The
// RIFF header carries the sample count, so nothing is written until then.
type WavEncoder struct {
	mu     sync.Mutex
	pcm    []int16
	out    []byte
	closed bool
}

func NewWav() *WavEncoder {
	return &WavEncoder{}
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("wav encoder closed")
	}
	e.pcm = append(e.pcm, block...)
	return nil
}

func (e *WavEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(len(e.pcm)), Channels, SampleRate, BitsPerSample)
	samples := make([]wav.Sample, len(e.pcm))
	for i, s := range e.pcm {
		samples[i].Values[0] = int(s)
	}
	if len(samples) > 0 {
		if err := w.WriteSamples(samples); err != nil {
			return fmt.Errorf("writing wav samples: %w", err)
		}
	}
	e.out = buf.Bytes()
	return nil
}

func (e *WavEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.out
}

func (e *WavEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return uint64(len(e.pcm))
}

func (e *WavEncoder) Filename() string { return "audio.wav" }
