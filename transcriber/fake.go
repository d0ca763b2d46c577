package transcriber

import (
	"context"
	"sync"
	"time"
)

// FakeTranscriber returns canned segments. It records every call so tests
// can inspect what the worker sent.
type FakeTranscriber struct {
	segments []Segment
	err      error
	delay    time.Duration
	panicMsg string

	mu    sync.Mutex
	calls []FakeCall
}

type FakeCall struct {
	Samples  int
	Language string
}

func NewFake(texts ...string) *FakeTranscriber {
	segs := make([]Segment, len(texts))
	for i, t := range texts {
		segs[i] = Segment{Text: t}
	}
	return &FakeTranscriber{segments: segs}
}

func NewFailingFake(err error) *FakeTranscriber {
	return &FakeTranscriber{err: err}
}

// WithDelay makes each call block for d or until ctx is done.
func (f *FakeTranscriber) WithDelay(d time.Duration) *FakeTranscriber {
	f.delay = d
	return f
}

// WithPanic makes each call panic with msg.
func (f *FakeTranscriber) WithPanic(msg string) *FakeTranscriber {
	f.panicMsg = msg
	return f
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) Transcribe(ctx context.Context, audio []float32, language string) ([]Segment, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Samples: len(audio), Language: language})
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]Segment(nil), f.segments...), nil
}

func (f *FakeTranscriber) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}
