package transcriber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisperkey/output"
	"whisperkey/recorder"
)

func session(id string, n int) recorder.Session {
	return recorder.Session{ID: id, Duration: 2 * time.Second, Samples: make([]float32, n)}
}

func TestJoinSegments(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"trims and skips empty", []string{"hello ", "", " world"}, "hello world"},
		{"whitespace only", []string{"  ", "\t", "\n"}, ""},
		{"none", nil, ""},
		{"keeps order", []string{"c", "b", "a"}, "c b a"},
		{"inner spacing kept", []string{" two  words "}, "two  words"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := make([]Segment, len(tt.in))
			for i, s := range tt.in {
				segs[i] = Segment{Text: s}
			}
			assert.Equal(t, tt.want, JoinSegments(segs))
		})
	}
}

func TestWorkerEmitsJoinedText(t *testing.T) {
	fake := NewFake("hello ", "", " world")
	sink := output.NewRecorder(1)
	w := NewWorker(WorkerOptions{Transcriber: fake, Sink: sink, Language: "en", Logger: zerolog.Nop()})

	res := w.Run(context.Background(), session("s1", 16000))

	require.NoError(t, res.Err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, []string{"hello world"}, sink.Texts())
	assert.Equal(t, []FakeCall{{Samples: 16000, Language: "en"}}, fake.Calls())
	assert.Equal(t, Stats{Completed: 1}, w.Stats())
}

func TestWorkerNoSpeechIsSilent(t *testing.T) {
	sink := output.NewRecorder(1)
	w := NewWorker(WorkerOptions{Transcriber: NewFake(" ", ""), Sink: sink})

	res := w.Run(context.Background(), session("s1", 100))

	assert.True(t, res.NoSpeech())
	assert.Empty(t, sink.Texts())
	assert.Equal(t, Stats{NoSpeech: 1}, w.Stats())
}

func TestWorkerServiceErrorIsContained(t *testing.T) {
	boom := errors.New("model exploded")
	sink := output.NewRecorder(1)
	w := NewWorker(WorkerOptions{Transcriber: NewFailingFake(boom), Sink: sink})

	res := w.Run(context.Background(), session("s1", 100))

	assert.ErrorIs(t, res.Err, boom)
	assert.Empty(t, sink.Texts())
	assert.Equal(t, Stats{Failed: 1}, w.Stats())
}

func TestWorkerPanicIsContained(t *testing.T) {
	sink := output.NewRecorder(1)
	w := NewWorker(WorkerOptions{Transcriber: NewFake("x").WithPanic("bad tensor"), Sink: sink})

	var res Result
	require.NotPanics(t, func() { res = w.Run(context.Background(), session("s1", 100)) })
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "bad tensor")
	assert.Empty(t, sink.Texts())
}

func TestWorkerRequestTimeout(t *testing.T) {
	w := NewWorker(WorkerOptions{
		Transcriber: NewFake("late").WithDelay(time.Hour),
		Timeout:     20 * time.Millisecond,
	})

	res := w.Run(context.Background(), session("s1", 100))
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestWorkerDispatchDoesNotBlock(t *testing.T) {
	fake := NewFake("done").WithDelay(100 * time.Millisecond)
	sink := output.NewRecorder(2)

	var mu sync.Mutex
	var results []Result
	w := NewWorker(WorkerOptions{
		Transcriber: fake,
		Sink:        sink,
		OnResult: func(r Result) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		},
	})

	start := time.Now()
	w.Dispatch(session("a", 10))
	w.Dispatch(session("b", 10))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	require.True(t, w.Wait(5*time.Second))
	assert.Equal(t, []string{"done", "done"}, sink.Texts())
	mu.Lock()
	assert.Len(t, results, 2)
	mu.Unlock()
}

func TestWorkerFailureDoesNotBlockLaterJobs(t *testing.T) {
	sink := output.NewRecorder(1)
	failing := NewWorker(WorkerOptions{Transcriber: NewFailingFake(errors.New("down")), Sink: sink})
	failing.Dispatch(session("a", 10))
	require.True(t, failing.Wait(time.Second))

	ok := NewWorker(WorkerOptions{Transcriber: NewFake("fine"), Sink: sink})
	ok.Dispatch(session("b", 10))
	require.True(t, ok.Wait(time.Second))

	assert.Equal(t, []string{"fine"}, sink.Texts())
}

func TestWorkerWaitTimesOut(t *testing.T) {
	w := NewWorker(WorkerOptions{Transcriber: NewFake("slow").WithDelay(time.Hour)})
	w.Dispatch(session("a", 10))

	start := time.Now()
	assert.False(t, w.Wait(30*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)

	// Wait cancels abandoned jobs, so they unwind promptly.
	assert.True(t, w.Wait(time.Second))
	assert.Equal(t, int64(1), w.Stats().Failed)
}
