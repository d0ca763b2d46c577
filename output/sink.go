package output

import (
	"fmt"
	"sync"
)

// Sink delivers transcribed text to the user. Delivery is best effort:
// implementations log their own failures and never return them.
type Sink interface {
	Emit(text string)
}

type Discard struct{}

func (Discard) Emit(string) {}

// Recorder keeps every emitted text. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	texts []string
	ch    chan string
}

// NewRecorder returns a Recorder that also publishes each text on a channel
// buffered to hold buffer texts. Sends never block; overflow is dropped.
func NewRecorder(buffer int) *Recorder {
	return &Recorder{ch: make(chan string, buffer)}
}

func (r *Recorder) Emit(text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	if r.ch != nil {
		select {
		case r.ch <- text:
		default:
		}
	}
}

func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// C yields emitted texts when the Recorder was built with NewRecorder.
func (r *Recorder) C() <-chan string { return r.ch }

// New builds the sink named by kind ("clipboard" or "type").
func New(kind string, opts Options) (Sink, error) {
	switch kind {
	case "", "clipboard":
		return NewClipboard(opts), nil
	case "type":
		return NewTyper(opts), nil
	default:
		return nil, fmt.Errorf("unknown output %q", kind)
	}
}
