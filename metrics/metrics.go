package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "whisperkey"

// Recording counters (incremented by the controller).
var (
	SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Recording sessions started.",
	})

	SessionsDebounced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_debounced_total",
		Help:      "Recording sessions discarded for being shorter than the minimum duration.",
	})

	AudioStatus = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audio_status_total",
		Help:      "Capture blocks delivered with a non-zero driver status.",
	}, []string{"flag"})

	RingDroppedSamples = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ring_dropped_samples_total",
		Help:      "Samples overwritten because the recording buffer was full.",
	})
)

// Transcription metrics (updated by the worker).
var (
	JobsDispatched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_dispatched_total",
		Help:      "Transcription jobs handed to the worker.",
	})

	JobsInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_inflight",
		Help:      "Transcription jobs currently running.",
	})

	Transcriptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transcriptions_total",
		Help:      "Finished transcription jobs by result.",
	}, []string{"result"})

	TranscriptionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transcription_duration_seconds",
		Help:      "Wall time of a transcription request.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms → ~51s
	}, []string{"backend"})

	RequestPhase = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_phase_seconds",
		Help:      "Time spent in each phase of a transcription HTTP request.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms → ~10s
	}, []string{"backend", "phase"})
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsDebounced,
		AudioStatus,
		RingDroppedSamples,
		JobsDispatched,
		JobsInflight,
		Transcriptions,
		TranscriptionDuration,
		RequestPhase,
	)
}

// Serve exposes the default registry on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
