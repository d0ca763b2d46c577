package transcriber

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"whisperkey/metrics"
	"whisperkey/output"
	"whisperkey/recorder"
)

const DefaultRequestTimeout = 60 * time.Second

// Result describes one finished job.
type Result struct {
	SessionID string
	Text      string
	Segments  []Segment
	Audio     time.Duration
	Elapsed   time.Duration
	Err       error
}

func (r Result) NoSpeech() bool { return r.Err == nil && r.Text == "" }

type WorkerOptions struct {
	Transcriber Transcriber
	Sink        output.Sink
	Language    string
	Timeout     time.Duration // per request; defaults to DefaultRequestTimeout
	OnResult    func(Result)  // optional, called from the job goroutine
	Logger      zerolog.Logger
}

// Worker runs each dispatched session on its own goroutine. Jobs are never
// retried and their failures never reach the recorder.
type Worker struct {
	t        Transcriber
	sink     output.Sink
	lang     string
	timeout  time.Duration
	onResult func(Result)
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	completed atomic.Int64
	noSpeech  atomic.Int64
	failed    atomic.Int64
}

func NewWorker(opts WorkerOptions) *Worker {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	if opts.Sink == nil {
		opts.Sink = output.Discard{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		t:        opts.Transcriber,
		sink:     opts.Sink,
		lang:     opts.Language,
		timeout:  opts.Timeout,
		onResult: opts.OnResult,
		log:      opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Dispatch starts a job for s and returns immediately.
func (w *Worker) Dispatch(s recorder.Session) {
	metrics.JobsDispatched.Inc()
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.Run(w.ctx, s)
	}()
}

// Run transcribes s synchronously and forwards any text to the sink.
func (w *Worker) Run(ctx context.Context, s recorder.Session) (res Result) {
	metrics.JobsInflight.Inc()
	defer metrics.JobsInflight.Dec()

	res = Result{SessionID: s.ID, Audio: s.Duration}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("transcription panicked: %v", r)
		}
		res.Elapsed = time.Since(start)
		w.finish(res)
	}()

	reqCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	segments, err := w.t.Transcribe(reqCtx, s.Samples, w.lang)
	metrics.TranscriptionDuration.WithLabelValues(w.t.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		res.Err = err
		return res
	}

	res.Segments = segments
	res.Text = JoinSegments(segments)
	if res.Text != "" {
		w.sink.Emit(res.Text)
	}
	return res
}

func (w *Worker) finish(res Result) {
	var ev *zerolog.Event
	switch {
	case res.Err != nil:
		w.failed.Add(1)
		metrics.Transcriptions.WithLabelValues("error").Inc()
		ev = w.log.Error().Err(res.Err)
	case res.Text == "":
		w.noSpeech.Add(1)
		metrics.Transcriptions.WithLabelValues("no_speech").Inc()
		ev = w.log.Info().Bool("no_speech", true)
	default:
		w.completed.Add(1)
		metrics.Transcriptions.WithLabelValues("ok").Inc()
		ev = w.log.Info()
	}
	ev.Str("session", res.SessionID).
		Str("backend", w.t.Name()).
		Dur("audio", res.Audio).
		Dur("elapsed", res.Elapsed).
		Int("chars", len(res.Text)).
		Msg("transcription")

	if w.onResult != nil {
		w.onResult(res)
	}
}

// JoinSegments trims each segment, drops the empty ones and joins the rest
// with single spaces.
func JoinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Wait blocks until every dispatched job has finished or timeout elapses.
// It reports whether all jobs finished. Jobs still running are cancelled
// and abandoned.
func (w *Worker) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		w.cancel()
		return false
	}
}

type Stats struct {
	Completed int64
	NoSpeech  int64
	Failed    int64
}

func (w *Worker) Stats() Stats {
	return Stats{
		Completed: w.completed.Load(),
		NoSpeech:  w.noSpeech.Load(),
		Failed:    w.failed.Load(),
	}
}
