package recorder

import "time"

// Session is one finished recording handed to a Dispatcher. Samples are
// mono, 16 kHz, normalized per capture block, and owned by the receiver.
type Session struct {
	ID       string
	Start    time.Time
	Duration time.Duration
	Samples  []float32
}

// Dispatcher accepts finished sessions. Dispatch must not block on
// transcription.
type Dispatcher interface {
	Dispatch(Session)
}

type DispatcherFunc func(Session)

func (f DispatcherFunc) Dispatch(s Session) { f(s) }

// Listener observes session boundaries. Methods are called with the
// controller lock held and must not call back into the controller.
type Listener interface {
	RecordingStarted(id string)
	RecordingStopped(id string, elapsed time.Duration, dispatched bool)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	default:
		return "unknown"
	}
}
