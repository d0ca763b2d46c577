package output

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultCharDelay = 10 * time.Millisecond

// Typer injects text as keystrokes into the focused window.
type Typer struct {
	typeFn func(string, time.Duration) error
	delay  time.Duration
	log    zerolog.Logger

	mu sync.Mutex // one transcript at a time, never interleaved
}

func NewTyper(opts Options) *Typer {
	if opts.CharDelay <= 0 {
		opts.CharDelay = DefaultCharDelay
	}
	return &Typer{
		typeFn: opts.backend().Type,
		delay:  opts.CharDelay,
		log:    opts.Logger,
	}
}

func (t *Typer) Emit(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.typeFn(text, t.delay); err != nil {
		t.log.Error().Err(err).Int("chars", len(text)).Msg("typing failed")
	}
}
